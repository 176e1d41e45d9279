package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"offer-board/internal/metrics"
	"offer-board/internal/models"
)

// SQLiteDB is a Store backed by a local SQLite file, used for development
// and tests.
type SQLiteDB struct {
	conn *sql.DB
}

// NewSQLiteDB opens the database file and creates the offers table if it
// does not exist.
func NewSQLiteDB(dbPath string, maxConns int) (*SQLiteDB, error) {
	conn, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if maxConns > 0 {
		conn.SetMaxOpenConns(maxConns)
	}

	db := &SQLiteDB{conn: conn}

	if err := db.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

// Ping verifies the database file is reachable.
func (db *SQLiteDB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Close closes the database connection.
func (db *SQLiteDB) Close() error {
	return db.conn.Close()
}

// initSchema creates the offers table if it doesn't exist. Millisecond
// timestamps keep created_at ordering meaningful for rapid inserts.
func (db *SQLiteDB) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS offers (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			description TEXT NOT NULL,
			price TEXT NOT NULL,
			company TEXT,
			created_at DATETIME NOT NULL DEFAULT (strftime('%Y-%m-%d %H:%M:%f', 'now'))
		)`,
		`CREATE INDEX IF NOT EXISTS idx_offers_created_at ON offers(created_at)`,
	}

	for _, query := range queries {
		if _, err := db.conn.Exec(query); err != nil {
			return fmt.Errorf("failed to execute schema query: %w", err)
		}
	}

	return nil
}

// ListOffers returns all offers, newest first.
func (db *SQLiteDB) ListOffers(ctx context.Context) ([]models.Offer, error) {
	defer metrics.ObserveDBQuery("select", time.Now())

	rows, err := db.conn.QueryContext(ctx, `SELECT `+offerColumns+` FROM offers ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query offers: %w", err)
	}
	defer rows.Close()

	offers := []models.Offer{}
	for rows.Next() {
		offer, err := scanSQLOffer(rows)
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
func (db *SQLiteDB) GetOffer(ctx context.Context, id int64) (models.Offer, error) {
	defer metrics.ObserveDBQuery("select", time.Now())

	return db.queryOne(ctx, `SELECT `+offerColumns+` FROM offers WHERE id = ?`, id)
}

// CreateOffer inserts a row and returns it with the store-assigned id and
// created_at.
func (db *SQLiteDB) CreateOffer(ctx context.Context, offer models.NewOffer) (models.Offer, error) {
	defer metrics.ObserveDBQuery("insert", time.Now())

	query := `INSERT INTO offers (title, description, price, company)
		VALUES (?, ?, ?, ?)
		RETURNING ` + offerColumns

	created, err := db.queryOne(ctx, query, offer.Title, offer.Description, offer.Price.String(), offer.Company)
	if err != nil {
		return models.Offer{}, fmt.Errorf("failed to insert offer: %w", err)
	}
	return created, nil
}

// DeleteOffer removes the row and returns its last state, or ErrNotFound.
func (db *SQLiteDB) DeleteOffer(ctx context.Context, id int64) (models.Offer, error) {
	defer metrics.ObserveDBQuery("delete", time.Now())

	return db.queryOne(ctx, `DELETE FROM offers WHERE id = ? RETURNING `+offerColumns, id)
}

func (db *SQLiteDB) queryOne(ctx context.Context, query string, args ...any) (models.Offer, error) {
	offer, err := scanSQLOffer(db.conn.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Offer{}, ErrNotFound
	}
	if err != nil {
		return models.Offer{}, err
	}
	return offer, nil
}

type sqlScanner interface {
	Scan(dest ...any) error
}

func scanSQLOffer(row sqlScanner) (models.Offer, error) {
	var (
		offer     models.Offer
		company   *string
		createdAt sqliteTime
	)
	if err := row.Scan(
		&offer.ID,
		&offer.Title,
		&offer.Description,
		&offer.Price,
		&company,
		&createdAt,
	); err != nil {
		return models.Offer{}, err
	}

	offer.Company = companyOrDefault(company)
	offer.CreatedAt = time.Time(createdAt).UTC()
	return offer, nil
}

// sqliteTime scans created_at whether the driver hands back a parsed
// time.Time (declared DATETIME column) or the raw text (RETURNING clause).
type sqliteTime time.Time

var sqliteTimeLayouts = []string{
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05",
}

func (t *sqliteTime) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*t = sqliteTime(v)
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	default:
		return fmt.Errorf("unsupported created_at type %T", src)
	}
}

func (t *sqliteTime) parse(s string) error {
	for _, layout := range sqliteTimeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			*t = sqliteTime(parsed)
			return nil
		}
	}
	return fmt.Errorf("failed to parse created_at %q", s)
}
