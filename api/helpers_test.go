package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/civicworks/civicd/api"
	dbfs "github.com/civicworks/civicd/db"
	"github.com/civicworks/civicd/internal/assign"
	"github.com/civicworks/civicd/internal/config"
	"github.com/civicworks/civicd/internal/db"
	"github.com/civicworks/civicd/internal/repository/sqlite"
	"github.com/civicworks/civicd/pkg/models"
)

func testConfig() *config.Config {
	return &config.Config{
		Addr:          ":0",
		JWTSecret:     "test-secret",
		APITimeout:    5 * time.Second,
		TokenDuration: time.Hour,
		Assignment: config.Assignment{
			MaxDailyTasksPerWorker: 3,
			DensityWeight:          0.6,
			UrgencyWeight:          0.4,
			SpatialRadiusMeters:    500,
			BatchSize:              10,
		},
		RateLimit: config.RateLimit{
			ReportsPerMinute: 600,
			Burst:            100,
		},
	}
}

func setupServer(t *testing.T) (*httptest.Server, *sqlite.SQLiteRepo, func()) {
	t.Helper()
	ctx := context.Background()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	d, err := db.New(ctx, dsn)
	if err != nil {
		t.Fatalf("db.New: %v", err)
	}
	if err := db.Migrate(ctx, d, dbfs.Migrations, dbfs.SeedFiles); err != nil {
		d.Close()
		t.Fatalf("migrate: %v", err)
	}

	cfg := testConfig()
	repo := sqlite.New(d)
	engine := assign.NewEngine(repo, repo, repo, nil,
		cfg.Assignment.MaxDailyTasksPerWorker, cfg.Assignment.BatchSize, nil)

	srv := httptest.NewServer(api.SetupRoutes(cfg, "test", "now", d, engine))
	return srv, repo, func() { srv.Close(); d.Close() }
}

func postJSON(t *testing.T, url, token string, body any) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	return resp
}

func getJSON(t *testing.T, url, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

type tokenResponse struct {
	Token string      `json:"token"`
	Role  models.Role `json:"role"`
}

func signupClient(t *testing.T, srv *httptest.Server, email, district string) string {
	t.Helper()
	resp := postJSON(t, srv.URL+"/v1/auth/signup", "", map[string]any{
		"full_name": "Test Client",
		"email":     email,
		"password":  "password123",
		"district":  district,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("signup status = %d", resp.StatusCode)
	}
	return decode[tokenResponse](t, resp).Token
}

// admins cannot self-register; seed one directly and sign in
func signinAdmin(t *testing.T, srv *httptest.Server, repo *sqlite.SQLiteRepo) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("admin-pass-123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	if _, err := repo.CreateUser(context.Background(), &models.User{
		FullName:     "Admin",
		Email:        "admin@example.com",
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
		District:     "Sirsa",
		Active:       true,
	}); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	resp := postJSON(t, srv.URL+"/v1/auth/signin", "", map[string]any{
		"email":    "admin@example.com",
		"password": "admin-pass-123",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("admin signin status = %d", resp.StatusCode)
	}
	return decode[tokenResponse](t, resp).Token
}
