// Command admin creates an administrator account, or promotes an existing
// user with the same username or email.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"tronik-dashboard/internal/config"
	"tronik-dashboard/internal/database"
	"tronik-dashboard/internal/helpers"
	"tronik-dashboard/internal/logger"
	"tronik-dashboard/internal/models"

	"go.uber.org/zap"
)

func main() {
	username := flag.String("username", "admin", "admin username")
	email := flag.String("email", "", "admin email (required)")
	password := flag.String("password", "", "admin password (required)")
	fullName := flag.String("name", "Administrador", "full name")
	flag.Parse()

	if *email == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "usage: admin -email admin@example.com -password <senha> [-username admin] [-name Nome]")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	if err := logger.Init(cfg.Server.Environment); err != nil {
		panic(err)
	}
	defer logger.Sync()

	db, err := database.Connect(cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		logger.Fatal("Migration failed", zap.Error(err))
	}

	hash, err := helpers.HashPassword(*password)
	if err != nil {
		logger.Fatal("Failed to hash password", zap.Error(err))
	}

	ctx := context.Background()

	existing, err := database.GetUserByLogin(ctx, db, *username)
	if database.IsNotFound(err) {
		existing, err = database.GetUserByLogin(ctx, db, *email)
	}
	switch {
	case err == nil:
		if err := database.PromoteUser(ctx, db, existing.ID, hash); err != nil {
			logger.Fatal("Failed to promote user", zap.Error(err))
		}
		logger.Info("✅ Existing user promoted to admin", zap.String("username", existing.Username))
	case database.IsNotFound(err):
		user := &models.User{
			Username:     *username,
			Email:        *email,
			PasswordHash: hash,
			FullName:     fullName,
			Active:       true,
			Admin:        true,
		}
		if err := database.CreateUser(ctx, db, user); err != nil {
			logger.Fatal("Failed to create admin", zap.Error(err))
		}
		logger.Info("✅ Admin user created", zap.String("username", user.Username), zap.String("id", user.ID))
	default:
		logger.Fatal("Failed to look up user", zap.Error(err))
	}
}
