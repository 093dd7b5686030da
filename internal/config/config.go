package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Addr          string        `yaml:"addr"`
	JWTSecret     string        `yaml:"jwt_secret"`
	APITimeout    time.Duration `yaml:"timeout"`
	DatabasePath  string        `yaml:"database_path"`
	TokenDuration time.Duration `yaml:"token_duration"`
	Assignment    Assignment    `yaml:"assignment"`
	RateLimit     RateLimit     `yaml:"rate_limit"`
}

// Assignment holds the tunables of the auto-assignment engine. Values are
// read once at startup and never re-read at runtime.
type Assignment struct {
	MaxDailyTasksPerWorker int           `yaml:"max_daily_tasks_per_worker"`
	DensityWeight          float64       `yaml:"density_weight"`
	UrgencyWeight          float64       `yaml:"urgency_weight"`
	SpatialRadiusMeters    float64       `yaml:"spatial_radius_meters"`
	BatchSize              int           `yaml:"batch_size"`
	RunInterval            time.Duration `yaml:"run_interval"`
	ResetHour              int           `yaml:"reset_hour"`
	ResetMinute            int           `yaml:"reset_minute"`
}

type RateLimit struct {
	ReportsPerMinute int `yaml:"reports_per_minute"`
	Burst            int `yaml:"burst"`
}

func LoadConfig(path string) (*Config, error) {
	cfg := &Config{
		Addr:          getEnv("CIVICD_ADDR", ":8080"),
		JWTSecret:     getEnv("CIVICD_JWT_SECRET", "supersecretkey"),
		APITimeout:    15 * time.Second,
		DatabasePath:  getEnv("CIVICD_DATABASE_PATH", "civicd.db"),
		TokenDuration: 24 * time.Hour,
		Assignment: Assignment{
			MaxDailyTasksPerWorker: 3,
			DensityWeight:          0.6,
			UrgencyWeight:          0.4,
			SpatialRadiusMeters:    500,
			BatchSize:              10,
			RunInterval:            time.Minute,
			ResetHour:              0,
			ResetMinute:            0,
		},
		RateLimit: RateLimit{
			ReportsPerMinute: 10,
			Burst:            5,
		},
	}

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		dec := yaml.NewDecoder(f)
		if err := dec.Decode(cfg); err != nil {
			return nil, err
		}
	}

	// Environment takes precedence over file values for the knobs the
	// deployment tooling sets directly.
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("MAX_DAILY_TASKS_PER_WORKER"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid MAX_DAILY_TASKS_PER_WORKER %q: %w", v, err)
		}
		cfg.Assignment.MaxDailyTasksPerWorker = n
	}
	if v := os.Getenv("PRIORITY_DENSITY_WEIGHT"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid PRIORITY_DENSITY_WEIGHT %q: %w", v, err)
		}
		cfg.Assignment.DensityWeight = f
	}
	if v := os.Getenv("PRIORITY_URGENCY_WEIGHT"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid PRIORITY_URGENCY_WEIGHT %q: %w", v, err)
		}
		cfg.Assignment.UrgencyWeight = f
	}
	if v := os.Getenv("SPATIAL_RADIUS_METERS"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid SPATIAL_RADIUS_METERS %q: %w", v, err)
		}
		cfg.Assignment.SpatialRadiusMeters = f
	}
	return nil
}

// Validate checks the configuration once at process start. The default JWT
// secret is rejected outside development.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr must not be empty")
	}
	if c.JWTSecret == "supersecretkey" && os.Getenv("CIVICD_ENV") != "development" {
		return fmt.Errorf("refusing to run with the default jwt_secret outside development")
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("database_path must not be empty")
	}
	a := c.Assignment
	if a.MaxDailyTasksPerWorker <= 0 {
		return fmt.Errorf("assignment.max_daily_tasks_per_worker must be > 0, got %d", a.MaxDailyTasksPerWorker)
	}
	if a.DensityWeight < 0 || a.UrgencyWeight < 0 {
		return fmt.Errorf("assignment weights must not be negative")
	}
	if a.SpatialRadiusMeters <= 0 {
		return fmt.Errorf("assignment.spatial_radius_meters must be > 0")
	}
	if a.BatchSize <= 0 {
		return fmt.Errorf("assignment.batch_size must be > 0")
	}
	if a.RunInterval <= 0 {
		return fmt.Errorf("assignment.run_interval must be > 0")
	}
	if a.ResetHour < 0 || a.ResetHour > 23 || a.ResetMinute < 0 || a.ResetMinute > 59 {
		return fmt.Errorf("assignment reset time %02d:%02d out of range", a.ResetHour, a.ResetMinute)
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return def
}
