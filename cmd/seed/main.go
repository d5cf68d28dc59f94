// Package main seeds accounts and the spare-part catalogue.
//
// Seeding is idempotent: existing e-mails and part names are skipped, so the
// command can run on every deploy.
package main

import (
	"context"
	_ "embed"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"pitlane.io/pitlane/internal/config"
	"pitlane.io/pitlane/internal/domain"
	"pitlane.io/pitlane/internal/governance/audit"
	"pitlane.io/pitlane/internal/infrastructure"
	apperrors "pitlane.io/pitlane/internal/pkg/errors"
	"pitlane.io/pitlane/internal/pkg/logger"
	"pitlane.io/pitlane/internal/repository"
	"pitlane.io/pitlane/internal/service"
)

//go:embed seed.yaml
var defaultSeed []byte

type seedUser struct {
	Name     string      `yaml:"name"`
	Email    string      `yaml:"email"`
	Password string      `yaml:"password"`
	Role     domain.Role `yaml:"role"`
}

type seedPart struct {
	Name          string `yaml:"name"`
	Price         string `yaml:"price"`
	Quantity      int    `yaml:"quantity"`
	CriticalLevel bool   `yaml:"critical_level"`
}

type seedFile struct {
	Users      []seedUser `yaml:"users"`
	SpareParts []seedPart `yaml:"spare_parts"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "seed error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	path := flag.String("file", "", "seed file (defaults to the embedded seed.yaml)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	data := defaultSeed
	if *path != "" {
		if data, err = os.ReadFile(*path); err != nil {
			return fmt.Errorf("read seed file: %w", err)
		}
	}
	seed, err := parseSeed(data)
	if err != nil {
		return err
	}

	ctx := context.Background()

	db, err := infrastructure.NewDatabaseClients(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	defer db.Close()

	if err := db.AutoMigrate(ctx); err != nil {
		return err
	}

	logger.Info("Starting data seeding...")
	if err := apply(ctx, db.Store, cfg.Security.BcryptCost, seed); err != nil {
		return err
	}
	logger.Info("Data seeding completed successfully")
	return nil
}

// parseSeed decodes and checks a seed document.
func parseSeed(data []byte) (*seedFile, error) {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	hasAdmin := false
	for i, u := range f.Users {
		if !u.Role.Valid() {
			return nil, fmt.Errorf("users[%d]: unknown role %q", i, u.Role)
		}
		hasAdmin = hasAdmin || u.Role == domain.RoleAdmin
	}
	for i, p := range f.SpareParts {
		if _, err := decimal.NewFromString(p.Price); err != nil {
			return nil, fmt.Errorf("spare_parts[%d]: invalid price %q", i, p.Price)
		}
	}
	if len(f.SpareParts) > 0 && !hasAdmin {
		return nil, errors.New("seeding spare parts requires an admin user")
	}
	return &f, nil
}

// apply registers users and creates missing catalogue entries through the
// regular services.
func apply(ctx context.Context, store repository.Store, bcryptCost int, f *seedFile) error {
	users := service.NewUserService(store, bcryptCost)
	parts := service.NewSparePartService(store, audit.NewLogger(store))

	var admin *domain.User
	for _, u := range f.Users {
		_, err := users.Register(ctx, service.RegisterInput{
			Name:     u.Name,
			Email:    u.Email,
			Password: u.Password,
			Role:     u.Role,
		})
		switch {
		case err == nil:
			logger.Info("Seeded user", zap.String("email", u.Email), zap.String("role", string(u.Role)))
		case apperrors.HasCode(err, apperrors.CodeEmailExists):
			logger.Info("User already exists, skipping", zap.String("email", u.Email))
		default:
			return fmt.Errorf("seed user %s: %w", u.Email, err)
		}
		if u.Role == domain.RoleAdmin && admin == nil {
			if admin, err = store.GetUserByEmail(ctx, service.NormalizeEmail(u.Email)); err != nil {
				return fmt.Errorf("load seeded admin: %w", err)
			}
		}
	}

	if len(f.SpareParts) == 0 {
		return nil
	}
	existing, err := parts.List(ctx)
	if err != nil {
		return err
	}
	names := make(map[string]bool, len(existing))
	for _, p := range existing {
		names[strings.ToLower(p.Name)] = true
	}

	actor := domain.Actor{UserID: admin.ID, Role: admin.Role}
	for _, p := range f.SpareParts {
		if names[strings.ToLower(p.Name)] {
			logger.Info("Spare part already exists, skipping", zap.String("name", p.Name))
			continue
		}
		created, err := parts.Create(ctx, actor, service.SparePartInput{
			Name:          p.Name,
			Price:         decimal.RequireFromString(p.Price),
			Quantity:      p.Quantity,
			CriticalLevel: p.CriticalLevel,
		})
		if err != nil {
			return fmt.Errorf("seed spare part %s: %w", p.Name, err)
		}
		names[strings.ToLower(p.Name)] = true
		logger.Info("Seeded spare part", zap.String("id", created.ID), zap.String("name", created.Name))
	}
	return nil
}
