// Command seed loads products, offers and an admin account from a YAML file.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	catalogpostgres "github.com/dejobratic/cafe/internal/catalog/adapters/postgres"
	catalogapp "github.com/dejobratic/cafe/internal/catalog/app"
	"github.com/dejobratic/cafe/internal/config"
	"github.com/dejobratic/cafe/internal/database"
	identitymemory "github.com/dejobratic/cafe/internal/identity/adapters/memory"
	identitypostgres "github.com/dejobratic/cafe/internal/identity/adapters/postgres"
	identityapp "github.com/dejobratic/cafe/internal/identity/app"
	outboxpostgres "github.com/dejobratic/cafe/internal/outbox/postgres"
	promotionspostgres "github.com/dejobratic/cafe/internal/promotions/adapters/postgres"
	promotionsapp "github.com/dejobratic/cafe/internal/promotions/app"
	"github.com/dejobratic/cafe/internal/telemetry"
)

func main() {
	path := flag.String("file", "cmd/seed/testdata/seed.yaml", "seed file to load")
	flag.Parse()

	logger := telemetry.NewLogger(os.Stdout, slog.LevelInfo)
	if err := run(context.Background(), *path, logger); err != nil {
		logger.Error("seed failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, path string, logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	file, err := LoadFile(path)
	if err != nil {
		return err
	}

	if cfg.Database.AutoMigrate {
		if err := database.RunMigrations(cfg.Database.URL, cfg.Database.MigrationsPath, logger); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	pool, err := database.NewPool(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("create database pool: %w", err)
	}
	defer pool.Close()

	users := identitypostgres.NewRepository(pool)
	catalog := catalogapp.NewService(catalogpostgres.NewRepository(pool), nil)
	seeder := &Seeder{
		catalog: catalog,
		accounts: identityapp.NewService(identityapp.Dependencies{
			Repository: users,
			Codes:      identitymemory.NewCodeStore(),
			Products:   catalog,
			Events:     outboxpostgres.NewStore(pool),
			CodeTTL:    cfg.Auth.CodeTTL,
			Logger:     logger,
		}),
		offers: promotionsapp.NewService(promotionspostgres.NewRepository(pool)),
		logger: logger,
	}

	result, err := seeder.Apply(ctx, file)
	if err != nil {
		return err
	}
	logger.Info("seed applied",
		"admin_created", result.AdminCreated,
		"products_created", result.ProductsCreated,
		"products_skipped", result.ProductsSkipped,
		"offers_created", result.OffersCreated,
		"offers_skipped", result.OffersSkipped,
	)
	return nil
}
