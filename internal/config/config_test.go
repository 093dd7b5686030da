package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/civicworks/civicd/internal/config"
)

func TestLoadConfig_Defaults(t *testing.T) {
	_ = os.Unsetenv("CIVICD_ADDR")
	_ = os.Unsetenv("CIVICD_JWT_SECRET")
	_ = os.Unsetenv("CIVICD_DATABASE_PATH")
	_ = os.Unsetenv("MAX_DAILY_TASKS_PER_WORKER")

	cfg, err := config.LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig returned error for empty path: %v", err)
	}

	if cfg.Addr != ":8080" {
		t.Fatalf("unexpected Addr: got %q want %q", cfg.Addr, ":8080")
	}
	if cfg.DatabasePath != "civicd.db" {
		t.Fatalf("unexpected DatabasePath: got %q want %q", cfg.DatabasePath, "civicd.db")
	}
	if cfg.Assignment.MaxDailyTasksPerWorker != 3 {
		t.Fatalf("unexpected worker cap: got %d want 3", cfg.Assignment.MaxDailyTasksPerWorker)
	}
	if cfg.Assignment.DensityWeight != 0.6 || cfg.Assignment.UrgencyWeight != 0.4 {
		t.Fatalf("unexpected priority weights: got %v/%v", cfg.Assignment.DensityWeight, cfg.Assignment.UrgencyWeight)
	}
	if cfg.Assignment.SpatialRadiusMeters != 500 {
		t.Fatalf("unexpected spatial radius: got %v want 500", cfg.Assignment.SpatialRadiusMeters)
	}
	if cfg.Assignment.RunInterval != time.Minute {
		t.Fatalf("unexpected run interval: got %v want 1m", cfg.Assignment.RunInterval)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	os.Setenv("MAX_DAILY_TASKS_PER_WORKER", "5")
	os.Setenv("PRIORITY_DENSITY_WEIGHT", "0.7")
	os.Setenv("PRIORITY_URGENCY_WEIGHT", "0.3")
	defer func() {
		os.Unsetenv("MAX_DAILY_TASKS_PER_WORKER")
		os.Unsetenv("PRIORITY_DENSITY_WEIGHT")
		os.Unsetenv("PRIORITY_URGENCY_WEIGHT")
	}()

	cfg, err := config.LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Assignment.MaxDailyTasksPerWorker != 5 {
		t.Fatalf("env override for worker cap not applied: got %d", cfg.Assignment.MaxDailyTasksPerWorker)
	}
	if cfg.Assignment.DensityWeight != 0.7 || cfg.Assignment.UrgencyWeight != 0.3 {
		t.Fatalf("env overrides for weights not applied: got %v/%v", cfg.Assignment.DensityWeight, cfg.Assignment.UrgencyWeight)
	}
}

func TestLoadConfig_BadEnvValue(t *testing.T) {
	os.Setenv("MAX_DAILY_TASKS_PER_WORKER", "many")
	defer os.Unsetenv("MAX_DAILY_TASKS_PER_WORKER")

	if _, err := config.LoadConfig(""); err == nil {
		t.Fatalf("expected error for non-numeric MAX_DAILY_TASKS_PER_WORKER, got nil")
	}
}

func TestLoadConfig_FromFile(t *testing.T) {
	f, err := os.CreateTemp("", "config-*.yaml")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer os.Remove(f.Name())
	f.Close()

	content := []byte("addr: \":9090\"\ndatabase_path: \"test.db\"\nassignment:\n  max_daily_tasks_per_worker: 2\n  run_interval: \"30s\"\n")
	if err := os.WriteFile(f.Name(), content, 0o600); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := config.LoadConfig(f.Name())
	if err != nil {
		t.Fatalf("LoadConfig returned error for file: %v", err)
	}

	if cfg.Addr != ":9090" {
		t.Fatalf("unexpected Addr: got %q want %q", cfg.Addr, ":9090")
	}
	if cfg.Assignment.MaxDailyTasksPerWorker != 2 {
		t.Fatalf("unexpected worker cap: got %d want 2", cfg.Assignment.MaxDailyTasksPerWorker)
	}
	if cfg.Assignment.RunInterval != 30*time.Second {
		t.Fatalf("unexpected run interval: got %v want 30s", cfg.Assignment.RunInterval)
	}
	// file must not clobber untouched defaults
	if cfg.Assignment.BatchSize != 10 {
		t.Fatalf("unexpected batch size: got %d want 10", cfg.Assignment.BatchSize)
	}
}

func TestLoadConfig_BadPath(t *testing.T) {
	if _, err := config.LoadConfig("/path/that/does/not/exist.yaml"); err == nil {
		t.Fatalf("expected error for nonexistent path, got nil")
	}
}

func TestValidate_InsecureJWT(t *testing.T) {
	_ = os.Unsetenv("CIVICD_ENV")

	cfg, err := config.LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected validation error for default jwt secret outside development, got nil")
	}
}

func TestValidate_InsecureJWT_AllowsDevelopment(t *testing.T) {
	os.Setenv("CIVICD_ENV", "development")
	defer os.Unsetenv("CIVICD_ENV")

	cfg, err := config.LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected Validate to succeed in development env, got: %v", err)
	}
}

func TestValidate_BadAssignmentSettings(t *testing.T) {
	os.Setenv("CIVICD_ENV", "development")
	defer os.Unsetenv("CIVICD_ENV")

	cases := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"zero cap", func(c *config.Config) { c.Assignment.MaxDailyTasksPerWorker = 0 }},
		{"negative weight", func(c *config.Config) { c.Assignment.DensityWeight = -1 }},
		{"zero radius", func(c *config.Config) { c.Assignment.SpatialRadiusMeters = 0 }},
		{"zero batch", func(c *config.Config) { c.Assignment.BatchSize = 0 }},
		{"bad reset hour", func(c *config.Config) { c.Assignment.ResetHour = 24 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := config.LoadConfig("")
			if err != nil {
				t.Fatalf("LoadConfig: %v", err)
			}
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error, got nil")
			}
		})
	}
}
