package database

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"offer-board/internal/config"
	"offer-board/internal/models"
)

// ErrNotFound is returned when no offer row matches the requested id.
var ErrNotFound = errors.New("offer not found")

// PostgresSchema is the reference DDL for the offers table. The Postgres
// backend expects it to exist already.
//
//go:embed schema/postgres.sql
var PostgresSchema string

const offerColumns = `id, title, description, price, company, created_at`

// Store is the persistence contract for offers. Each method runs exactly one
// SQL statement.
type Store interface {
	ListOffers(ctx context.Context) ([]models.Offer, error)
	GetOffer(ctx context.Context, id int64) (models.Offer, error)
	CreateOffer(ctx context.Context, offer models.NewOffer) (models.Offer, error)
	DeleteOffer(ctx context.Context, id int64) (models.Offer, error)
	Ping(ctx context.Context) error
	Close() error
}

// Open creates the store selected by cfg.Driver.
//
// For Postgres the pool is created lazily: a failed startup ping is logged
// and the store is still returned, so requests fail one by one until the
// database becomes reachable.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (Store, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		return NewSQLiteDB(cfg.SQLitePath, cfg.MaxConns)
	case config.DriverPostgres:
		db, err := NewPostgresDB(ctx, cfg.PostgresDSN(), cfg.MaxConns)
		if err != nil {
			return nil, err
		}

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := db.Ping(pingCtx); err != nil {
			logger.Error("error connecting to database", "host", cfg.Host, "database", cfg.Name, "error", err)
		} else {
			logger.Info("successfully connected to database", "host", cfg.Host, "database", cfg.Name)
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// companyOrDefault maps a NULL company column to the display default.
func companyOrDefault(company *string) string {
	if company == nil {
		return models.DefaultCompany
	}
	return *company
}
