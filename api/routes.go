package api

import (
	"github.com/gorilla/mux"

	"github.com/civicworks/civicd/internal/assign"
	"github.com/civicworks/civicd/internal/config"
	"github.com/civicworks/civicd/internal/db"
	"github.com/civicworks/civicd/internal/priority"
	"github.com/civicworks/civicd/internal/repository/sqlite"
	"github.com/civicworks/civicd/pkg/models"
)

func SetupRoutes(cfg *config.Config, version, buildTime string, d *db.DB, engine *assign.Engine) *mux.Router {
	r := mux.NewRouter()

	// Middleware chain
	r.Use(LoggingMiddleware)
	r.Use(CORSMiddleware)
	r.Use(RecoveryMiddleware)

	// Repository
	repo := sqlite.New(d)

	scorer := priority.NewScorer(
		repo,
		cfg.Assignment.DensityWeight,
		cfg.Assignment.UrgencyWeight,
		cfg.Assignment.SpatialRadiusMeters,
		logger,
	)
	adminOps := assign.NewAdmin(repo, repo, cfg.Assignment.MaxDailyTasksPerWorker, logger)

	// Create handlers
	systemHandler := &SystemHandler{}
	authHandler := NewAuthHandler(repo, cfg.JWTSecret, cfg.TokenDuration)
	reportsHandler := NewReportsHandler(repo, scorer)
	workerHandler := NewWorkerHandler(repo, repo)
	adminHandler := NewAdminHandler(repo, repo, repo, repo, adminOps, engine)

	// Open endpoints
	r.HandleFunc("/version", systemHandler.VersionHandler(version, buildTime)).Methods("GET")
	r.HandleFunc("/health", systemHandler.HealthHandler).Methods("GET")
	r.HandleFunc("/v1/auth/signup", authHandler.Signup).Methods("POST")
	r.HandleFunc("/v1/auth/signin", authHandler.Signin).Methods("POST")

	// API v1 Protected routes
	apiV1 := r.PathPrefix("/v1").Subrouter()
	apiV1.Use(JWTAuthMiddlewareWithSecret(cfg.JWTSecret))

	// Auth endpoints
	authV1 := apiV1.PathPrefix("/auth").Subrouter()
	authV1.HandleFunc("/signout", authHandler.Signout).Methods("POST")

	// Citizen endpoints
	reportsV1 := apiV1.PathPrefix("/reports").Subrouter()
	reportsV1.Use(RateLimitMiddleware(cfg.RateLimit.ReportsPerMinute, cfg.RateLimit.Burst))
	reportsV1.HandleFunc("", reportsHandler.CreateReport).Methods("POST")
	reportsV1.HandleFunc("", reportsHandler.ListMyReports).Methods("GET")
	reportsV1.HandleFunc("/{id:[0-9]+}/verify", reportsHandler.VerifyReport).Methods("POST")

	// Worker endpoints
	workerV1 := apiV1.PathPrefix("/worker").Subrouter()
	workerV1.Use(RequireRole(models.RoleWorker))
	workerV1.HandleFunc("/tasks", workerHandler.ListMyTasks).Methods("GET")
	workerV1.HandleFunc("/tasks/{id:[0-9]+}/complete", workerHandler.CompleteReport).Methods("POST")

	// Admin endpoints
	adminV1 := apiV1.PathPrefix("/admin").Subrouter()
	adminV1.Use(RequireRole(models.RoleAdmin))
	adminV1.HandleFunc("/departments", adminHandler.CreateDepartment).Methods("POST")
	adminV1.HandleFunc("/departments", adminHandler.ListDepartments).Methods("GET")
	adminV1.HandleFunc("/workers", adminHandler.CreateWorker).Methods("POST")
	adminV1.HandleFunc("/workers/{id:[0-9]+}", adminHandler.DeactivateWorker).Methods("DELETE")
	adminV1.HandleFunc("/reports", adminHandler.ListDistrictReports).Methods("GET")
	adminV1.HandleFunc("/reports/{id:[0-9]+}/reassign", adminHandler.ReassignReport).Methods("POST")
	adminV1.HandleFunc("/reports/{id:[0-9]+}/revert", adminHandler.RevertReport).Methods("POST")
	adminV1.HandleFunc("/assignments/run", adminHandler.TriggerAssignment).Methods("POST")

	return r
}
