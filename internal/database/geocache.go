package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"photo-index/internal/geocode"
	"photo-index/internal/logging"
)

// Lookup returns the cached location for the rounded coordinate key, or
// (nil, nil) on a miss.
func (d *Database) Lookup(ctx context.Context, latRounded, lonRounded float64, precision int) (*geocode.CachedLocation, error) {
	done := observeQuery("geocache_lookup")

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var (
		loc       geocode.CachedLocation
		country   sql.NullString
		state     sql.NullString
		city      sql.NullString
		updatedAt int64
	)

	err := d.db.QueryRowContext(ctx, `
		SELECT lat_rounded, lon_rounded, precision, country, state, city, source, updated_at
		FROM geo_cache
		WHERE lat_rounded = ? AND lon_rounded = ? AND precision = ?
	`, latRounded, lonRounded, precision).Scan(
		&loc.LatRounded, &loc.LonRounded, &loc.Precision,
		&country, &state, &city, &loc.Source, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		done(nil)
		return nil, nil
	}
	if err != nil {
		done(err)
		return nil, fmt.Errorf("failed to look up geocode cache: %w", err)
	}

	loc.Country = country.String
	loc.State = state.String
	loc.City = city.String
	loc.UpdatedAt = time.Unix(updatedAt, 0)

	done(nil)
	return &loc, nil
}

// Insert stores a resolved location under its rounded coordinate key. When
// concurrent misses race on the same key the first writer wins: the UNIQUE
// violation from later writers is swallowed.
func (d *Database) Insert(ctx context.Context, loc geocode.CachedLocation) error {
	done := observeQuery("geocache_insert")

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := d.db.ExecContext(ctx, `
		INSERT INTO geo_cache (lat_rounded, lon_rounded, precision, country, state, city, source, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, strftime('%s', 'now'))
	`,
		loc.LatRounded, loc.LonRounded, loc.Precision,
		nullString(loc.Country), nullString(loc.State), nullString(loc.City),
		loc.Source,
	)

	var sqlErr sqlite3.Error
	if errors.As(err, &sqlErr) && sqlErr.Code == sqlite3.ErrConstraint {
		logging.Debug("geocode cache entry (%v, %v, %d) already present, keeping first writer",
			loc.LatRounded, loc.LonRounded, loc.Precision)
		done(nil)
		return nil
	}
	if err != nil {
		done(err)
		return fmt.Errorf("failed to insert geocode cache entry: %w", err)
	}

	done(nil)
	return nil
}

// GeoCacheCount returns the number of cached reverse-geocode entries.
func (d *Database) GeoCacheCount(ctx context.Context) (int, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var count int
	err := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM geo_cache").Scan(&count)
	return count, err
}
