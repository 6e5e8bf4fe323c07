// cmd/seeduser/main.go creates or resets the demo admin account.
// Usage: go run ./cmd/seeduser [-username admin] [-email admin@example.com] [-password ...]
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"time"

	"gstbilling/internal/config"
	"gstbilling/internal/infra"
	"gstbilling/internal/model"
	"gstbilling/internal/repository"
	"gstbilling/internal/service"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	username := flag.String("username", "admin", "login name")
	email := flag.String("email", "admin@example.com", "email address")
	password := flag.String("password", "admin123", "password (min 6 characters)")
	flag.Parse()

	if len(*password) < 6 {
		log.Fatal().Msg("password must be at least 6 characters")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	if err := infra.RunMigrations(db); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	hash, err := service.HashPassword(*password)
	if err != nil {
		log.Fatal().Err(err).Msg("bcrypt error")
	}

	ctx := context.Background()
	repo := repository.NewUserRepository(db)
	existing, err := repo.FindByUsername(ctx, *username)
	switch {
	case err == nil:
		err = db.WithContext(ctx).Model(existing).Updates(map[string]interface{}{
			"password_hash": hash,
			"email":         *email,
			"role":          model.RoleAdmin,
			"active":        true,
		}).Error
		if err != nil {
			log.Fatal().Err(err).Msg("update error")
		}
		log.Info().Str("username", *username).Msg("admin user updated")
	case errors.Is(err, gorm.ErrRecordNotFound):
		u := &model.User{Username: *username, Email: *email, PasswordHash: hash, Role: model.RoleAdmin, Active: true}
		if err := repo.Create(ctx, u); err != nil {
			log.Fatal().Err(err).Msg("insert error")
		}
		log.Info().Str("username", *username).Msg("admin user created")
	default:
		log.Fatal().Err(err).Msg("lookup error")
	}
}
