package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"offer-board/internal/metrics"
	"offer-board/internal/models"
)

// PostgresDB is a Store backed by a pgx connection pool. Every statement
// acquires its own connection and releases it when done.
type PostgresDB struct {
	pool *pgxpool.Pool
}

// NewPostgresDB creates the pool. No connection is opened until the first
// statement or Ping.
func NewPostgresDB(ctx context.Context, dsn string, maxConns int) (*PostgresDB, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}
	if maxConns > 0 {
		poolCfg.MaxConns = int32(maxConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	return &PostgresDB{pool: pool}, nil
}

// Ping verifies that a connection can be acquired and used.
func (db *PostgresDB) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

// Close closes every connection in the pool.
func (db *PostgresDB) Close() error {
	db.pool.Close()
	return nil
}

// ListOffers returns all offers, newest first.
func (db *PostgresDB) ListOffers(ctx context.Context) ([]models.Offer, error) {
	defer metrics.ObserveDBQuery("select", time.Now())

	conn, err := db.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `SELECT `+offerColumns+` FROM offers ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query offers: %w", err)
	}
	defer rows.Close()

	offers := []models.Offer{}
	for rows.Next() {
		offer, err := scanPgOffer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan offer: %w", err)
		}
		offers = append(offers, offer)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating offers: %w", err)
	}

	return offers, nil
}

// GetOffer returns the offer with the given id or ErrNotFound.
func (db *PostgresDB) GetOffer(ctx context.Context, id int64) (models.Offer, error) {
	defer metrics.ObserveDBQuery("select", time.Now())

	return db.queryOne(ctx, `SELECT `+offerColumns+` FROM offers WHERE id = $1`, id)
}

// CreateOffer inserts a row and returns it with the store-assigned id and
// created_at.
func (db *PostgresDB) CreateOffer(ctx context.Context, offer models.NewOffer) (models.Offer, error) {
	defer metrics.ObserveDBQuery("insert", time.Now())

	query := `INSERT INTO offers (title, description, price, company)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + offerColumns

	created, err := db.queryOne(ctx, query, offer.Title, offer.Description, offer.Price.String(), offer.Company)
	if err != nil {
		return models.Offer{}, fmt.Errorf("failed to insert offer: %w", err)
	}
	return created, nil
}

// DeleteOffer removes the row and returns its last state, or ErrNotFound.
func (db *PostgresDB) DeleteOffer(ctx context.Context, id int64) (models.Offer, error) {
	defer metrics.ObserveDBQuery("delete", time.Now())

	return db.queryOne(ctx, `DELETE FROM offers WHERE id = $1 RETURNING `+offerColumns, id)
}

func (db *PostgresDB) queryOne(ctx context.Context, query string, args ...any) (models.Offer, error) {
	conn, err := db.pool.Acquire(ctx)
	if err != nil {
		return models.Offer{}, fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Release()

	offer, err := scanPgOffer(conn.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Offer{}, ErrNotFound
	}
	if err != nil {
		return models.Offer{}, err
	}
	return offer, nil
}

func scanPgOffer(row pgx.Row) (models.Offer, error) {
	var (
		offer   models.Offer
		company *string
	)
	if err := row.Scan(
		&offer.ID,
		&offer.Title,
		&offer.Description,
		&offer.Price,
		&company,
		&offer.CreatedAt,
	); err != nil {
		return models.Offer{}, err
	}
	offer.Company = companyOrDefault(company)
	return offer, nil
}
