package database

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/dejobratic/cafe/migrations"
)

// RunMigrations brings the schema up to date. An empty dir applies the
// migrations compiled into the binary; otherwise the .sql files under dir
// are used.
func RunMigrations(databaseURL, dir string, logger *slog.Logger) error {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("open database for migrations: %w", err)
	}
	defer db.Close()

	target, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	var migrator *migrate.Migrate
	if dir == "" {
		source, err := iofs.New(migrations.FS, ".")
		if err != nil {
			return fmt.Errorf("open embedded migrations: %w", err)
		}
		migrator, err = migrate.NewWithInstance("iofs", source, "postgres", target)
		if err != nil {
			return fmt.Errorf("create migration instance: %w", err)
		}
	} else {
		migrator, err = migrate.NewWithDatabaseInstance("file://"+dir, "postgres", target)
		if err != nil {
			return fmt.Errorf("create migration instance: %w", err)
		}
	}
	if logger != nil {
		migrator.Log = migrateLogger{logger: logger}
	}

	if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}

	version, dirty, err := migrator.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("read schema version: %w", err)
	}
	if dirty {
		return fmt.Errorf("schema version %d is dirty", version)
	}
	return nil
}

// migrateLogger routes golang-migrate output into slog at debug level.
type migrateLogger struct {
	logger *slog.Logger
}

func (l migrateLogger) Printf(format string, v ...any) {
	l.logger.Debug(fmt.Sprintf(format, v...), slog.String("component", "migrate"))
}

func (l migrateLogger) Verbose() bool {
	return false
}
