// Package storage opens the backend database, applies migrations, and wires
// the repositories.
package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/auravita/privacykit/internal/server/migrations"
	"github.com/auravita/privacykit/internal/server/repositories/auditlog"
	"github.com/auravita/privacykit/internal/server/repositories/profiles"
)

type Repositories struct {
	Profiles profiles.Repository
	AuditLog auditlog.Repository
	DB       *sql.DB
}

// RunMigrations applies pending goose migrations.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// InitDatabase opens the database via the pgx stdlib driver, migrates the
// schema, and returns the repository set.
func InitDatabase(ctx context.Context, dsn string) (*Repositories, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}

	if err := RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("db migration: %w", err)
	}

	return &Repositories{
		Profiles: profiles.NewPostgresRepository(db),
		AuditLog: auditlog.NewPostgresRepository(db),
		DB:       db,
	}, nil
}
