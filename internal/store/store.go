// Package store persists normalized listings in SQLite. The unique
// constraint on source_url is the deduplication source of truth; no
// in-process check-then-insert is involved, so concurrent crawl jobs
// stay correct.
package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Store wraps the SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and applies the
// schema. Use ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// modernc.org/sqlite is single-writer; serializing through one
	// connection avoids SQLITE_BUSY between concurrent jobs.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS listings (
			id                 INTEGER PRIMARY KEY AUTOINCREMENT,
			source_url         TEXT    NOT NULL UNIQUE,
			brand              TEXT    NOT NULL DEFAULT '',
			model              TEXT    NOT NULL DEFAULT '',
			mileage_km         INTEGER,
			engine_capacity_cc INTEGER,
			engine_power_hp    INTEGER,
			year               INTEGER,
			fuel_type          TEXT    NOT NULL DEFAULT '',
			gearbox            TEXT    NOT NULL DEFAULT '',
			body_type          TEXT    NOT NULL DEFAULT '',
			colour             TEXT    NOT NULL DEFAULT '',
			colour_finish      TEXT    NOT NULL DEFAULT '',
			accident_free      TEXT    NOT NULL DEFAULT 'unknown',
			condition_status   TEXT    NOT NULL DEFAULT 'unknown',
			price_local        INTEGER,
			location           TEXT,
			scraped_at         TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE INDEX IF NOT EXISTS idx_listings_brand ON listings(brand);
		CREATE INDEX IF NOT EXISTS idx_listings_year  ON listings(year);
		CREATE INDEX IF NOT EXISTS idx_listings_price ON listings(price_local);

		CREATE TABLE IF NOT EXISTS brand_totals (
			brand      TEXT    PRIMARY KEY,
			total_used INTEGER NOT NULL DEFAULT 0,
			total_new  INTEGER NOT NULL DEFAULT 0,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	return err
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// PutTotals creates or overwrites the used/new totals snapshot for a
// brand. An empty brand is the all-brands sentinel row.
func (s *Store) PutTotals(ctx context.Context, brand string, totalUsed, totalNew int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO brand_totals (brand, total_used, total_new, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(brand) DO UPDATE SET
			total_used = excluded.total_used,
			total_new  = excluded.total_new,
			updated_at = excluded.updated_at
	`, brand, totalUsed, totalNew)
	if err != nil {
		return fmt.Errorf("put totals for %q: %w", brand, err)
	}
	return nil
}

// Totals returns the last recorded used/new counts for a brand, with
// ok=false when no snapshot exists yet.
func (s *Store) Totals(ctx context.Context, brand string) (totalUsed, totalNew int, ok bool, err error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT total_used, total_new FROM brand_totals WHERE brand = ?`, brand)
	switch err = row.Scan(&totalUsed, &totalNew); err {
	case nil:
		return totalUsed, totalNew, true, nil
	case sql.ErrNoRows:
		return 0, 0, false, nil
	default:
		return 0, 0, false, fmt.Errorf("totals for %q: %w", brand, err)
	}
}

// Brands lists every brand a totals snapshot has been recorded for.
func (s *Store) Brands(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT brand FROM brand_totals ORDER BY brand`)
	if err != nil {
		return nil, fmt.Errorf("list brands: %w", err)
	}
	defer rows.Close()

	var brands []string
	for rows.Next() {
		var b string
		if err := rows.Scan(&b); err != nil {
			return nil, err
		}
		brands = append(brands, b)
	}
	return brands, rows.Err()
}
