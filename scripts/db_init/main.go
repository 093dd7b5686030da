package main

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"

	dbfs "github.com/civicworks/civicd/db"
	"github.com/civicworks/civicd/internal/config"
	"github.com/civicworks/civicd/internal/db"
	"github.com/civicworks/civicd/internal/repository/sqlite"
	"github.com/civicworks/civicd/pkg/models"
)

func main() {
	ctx := context.Background()
	cfg, err := config.LoadConfig("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	database, err := db.New(ctx, cfg.DatabasePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "DB init error: %v\n", err)
		os.Exit(1)
	}
	defer database.Close()

	// run migrations and seed the department catalog
	if err := db.Migrate(ctx, database, dbfs.Migrations, dbfs.SeedFiles); err != nil {
		fmt.Fprintf(os.Stderr, "Migration runner error: %v\n", err)
		os.Exit(1)
	}

	// optional bootstrap admin, driven by environment
	email := os.Getenv("CIVICD_ADMIN_EMAIL")
	password := os.Getenv("CIVICD_ADMIN_PASSWORD")
	if email != "" && password != "" {
		repo := sqlite.New(database)
		if existing, err := repo.GetUserByEmail(ctx, email); err == nil && existing == nil {
			hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Admin bootstrap error: %v\n", err)
				os.Exit(1)
			}
			if _, err := repo.CreateUser(ctx, &models.User{
				FullName:     "Administrator",
				Email:        email,
				PasswordHash: string(hash),
				Role:         models.RoleAdmin,
				District:     os.Getenv("CIVICD_ADMIN_DISTRICT"),
				Active:       true,
			}); err != nil {
				fmt.Fprintf(os.Stderr, "Admin bootstrap error: %v\n", err)
				os.Exit(1)
			}
			fmt.Println("Bootstrap admin created.")
		}
	}

	fmt.Println("Database initialized successfully.")
}
