package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/carhunt/carhunt/internal/model"
)

// UpsertResult reports what happened to a single write.
type UpsertResult int

const (
	// Inserted means a new row was stored.
	Inserted UpsertResult = iota
	// DuplicateSkipped means the natural key already existed; the
	// write was a no-op, which is the expected recrawl outcome.
	DuplicateSkipped
)

// Upsert stores one listing. Deduplication rides on the UNIQUE
// constraint over source_url: the insert is attempted unconditionally
// and a conflict resolves to DuplicateSkipped. Each call is its own
// transaction, so one failed write never taints a batch.
func (s *Store) Upsert(ctx context.Context, l *model.Listing) (UpsertResult, error) {
	if l.SourceURL == "" {
		return DuplicateSkipped, fmt.Errorf("listing has no source URL")
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO listings (
			source_url, brand, model, mileage_km, engine_capacity_cc,
			engine_power_hp, year, fuel_type, gearbox, body_type,
			colour, colour_finish, accident_free, condition_status,
			price_local, location
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_url) DO NOTHING
	`,
		l.SourceURL, l.Brand, l.Model, nullInt(l.MileageKm), nullInt(l.EngineCapacityCc),
		nullInt(l.EnginePowerHp), nullInt(l.Year), l.FuelType, l.Gearbox, l.BodyType,
		l.Colour, l.ColourFinish, l.AccidentFree, l.ConditionStatus,
		nullInt(l.PriceLocal), nullString(l.Location),
	)
	if err != nil {
		return DuplicateSkipped, fmt.Errorf("insert listing %s: %w", l.SourceURL, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return DuplicateSkipped, fmt.Errorf("insert listing %s: %w", l.SourceURL, err)
	}
	if n == 0 {
		return DuplicateSkipped, nil
	}
	return Inserted, nil
}

// UpdateLocation fills in the location of an existing row. This is the
// one mutation listings ever receive, used by the backfill flow.
func (s *Store) UpdateLocation(ctx context.Context, id int64, location string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE listings SET location = ? WHERE id = ?`, location, id)
	if err != nil {
		return fmt.Errorf("update location for id %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update location: no listing with id %d", id)
	}
	return nil
}

// Filter narrows a Find query. Pattern slices are ORs of substring
// matches; an empty slice (or one holding only empty strings) matches
// everything on that dimension. Year and mileage bounds are inclusive;
// rows missing the bounded attribute are not excluded by the range;
// the analyzer drops them from the math it cannot do on them.
type Filter struct {
	Brand            string // exact match
	ModelPatterns    []string
	YearMin, YearMax int
	MileageMin       int
	MileageMax       int
	FuelTypes        []string
	Gearboxes        []string
	StatusPattern    string
	LocationPatterns []string
}

// WideOpen returns a filter for a brand with every other dimension
// unconstrained.
func WideOpen(brand string) Filter {
	return Filter{Brand: brand, YearMin: 1885, YearMax: 2100, MileageMax: 10000000}
}

// Find returns every listing matching the filter. No matches is an
// empty result, not an error.
func (s *Store) Find(ctx context.Context, f Filter) ([]model.Listing, error) {
	var (
		where = []string{"brand = ?"}
		args  = []any{f.Brand}
	)

	if clause, a := likeAny("model", f.ModelPatterns); clause != "" {
		where, args = append(where, clause), append(args, a...)
	}
	if f.YearMin > 0 || f.YearMax > 0 {
		where = append(where, "(year IS NULL OR (year >= ? AND year <= ?))")
		args = append(args, f.YearMin, f.YearMax)
	}
	if f.MileageMin > 0 || f.MileageMax > 0 {
		where = append(where, "(mileage_km IS NULL OR (mileage_km >= ? AND mileage_km <= ?))")
		args = append(args, f.MileageMin, f.MileageMax)
	}
	if clause, a := likeAny("fuel_type", f.FuelTypes); clause != "" {
		where, args = append(where, clause), append(args, a...)
	}
	if clause, a := likeAny("gearbox", f.Gearboxes); clause != "" {
		where, args = append(where, clause), append(args, a...)
	}
	if f.StatusPattern != "" {
		where = append(where, "condition_status LIKE ?")
		args = append(args, "%"+f.StatusPattern+"%")
	}
	if clause, a := likeAny("location", f.LocationPatterns); clause != "" {
		where, args = append(where, clause), append(args, a...)
	}

	query := `SELECT ` + listingColumns + ` FROM listings WHERE ` +
		strings.Join(where, " AND ") + ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find listings: %w", err)
	}
	defer rows.Close()
	return scanListings(rows)
}

// MissingLocation returns listings from one source that have no
// location yet, for the backfill flow. The source is identified by a
// URL substring, the same way the original data was partitioned.
func (s *Store) MissingLocation(ctx context.Context, sourcePattern string) ([]model.Listing, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+listingColumns+` FROM listings
		 WHERE location IS NULL AND source_url LIKE ? ORDER BY id`,
		"%"+sourcePattern+"%")
	if err != nil {
		return nil, fmt.Errorf("find listings missing location: %w", err)
	}
	defer rows.Close()
	return scanListings(rows)
}

const listingColumns = `id, source_url, brand, model, mileage_km,
	engine_capacity_cc, engine_power_hp, year, fuel_type, gearbox,
	body_type, colour, colour_finish, accident_free, condition_status,
	price_local, location, scraped_at`

func scanListings(rows *sql.Rows) ([]model.Listing, error) {
	listings := []model.Listing{}
	for rows.Next() {
		var (
			l                        model.Listing
			mileage, capacity, power sql.NullInt64
			year, price              sql.NullInt64
			location, scraped        sql.NullString
		)
		if err := rows.Scan(
			&l.ID, &l.SourceURL, &l.Brand, &l.Model, &mileage,
			&capacity, &power, &year, &l.FuelType, &l.Gearbox,
			&l.BodyType, &l.Colour, &l.ColourFinish, &l.AccidentFree,
			&l.ConditionStatus, &price, &location, &scraped,
		); err != nil {
			return nil, fmt.Errorf("scan listing: %w", err)
		}
		if scraped.Valid {
			if t, err := time.Parse("2006-01-02 15:04:05", scraped.String); err == nil {
				l.ScrapedAt = t
			}
		}
		l.MileageKm = fromNullInt(mileage)
		l.EngineCapacityCc = fromNullInt(capacity)
		l.EnginePowerHp = fromNullInt(power)
		l.Year = fromNullInt(year)
		l.PriceLocal = fromNullInt(price)
		if location.Valid {
			l.Location = &location.String
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

// likeAny builds an OR of substring matches over one column. Empty
// patterns are skipped; all-empty input yields no clause at all, which
// is "match everything", never "match nothing".
func likeAny(column string, patterns []string) (string, []any) {
	var (
		parts []string
		args  []any
	)
	for _, p := range patterns {
		if p == "" {
			continue
		}
		parts = append(parts, column+" LIKE ?")
		args = append(args, "%"+p+"%")
	}
	if len(parts) == 0 {
		return "", nil
	}
	return "(" + strings.Join(parts, " OR ") + ")", args
}

func nullInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullString(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

func fromNullInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}
