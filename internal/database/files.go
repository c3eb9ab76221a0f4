package database

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"photo-index/internal/logging"
	"photo-index/internal/metrics"
	"photo-index/internal/placeholder"
)

// UpsertFile inserts or updates a file record within a transaction.
// The transaction controls the operation's lifecycle.
func (d *Database) UpsertFile(tx *sql.Tx, file *IndexedFile) error {
	query := `
	INSERT INTO files (name, path, dir, size, mod_time, mime_type, taken_at, lat, lon, country, state, city, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, strftime('%s', 'now'))
	ON CONFLICT(path) DO UPDATE SET
		name = excluded.name,
		dir = excluded.dir,
		size = excluded.size,
		mod_time = excluded.mod_time,
		mime_type = excluded.mime_type,
		taken_at = excluded.taken_at,
		lat = excluded.lat,
		lon = excluded.lon,
		country = excluded.country,
		state = excluded.state,
		city = excluded.city,
		updated_at = strftime('%s', 'now')
	`

	result, err := tx.ExecContext(context.Background(), query,
		file.Name,
		file.Path,
		file.Dir,
		file.Size,
		file.ModTime.Unix(),
		nullString(file.MimeType),
		nullString(file.TakenAt),
		file.Lat,
		file.Lon,
		nullString(file.Country),
		nullString(file.State),
		nullString(file.City),
	)
	if err == nil {
		if rows, _ := result.RowsAffected(); rows > 0 {
			metrics.DBRowsAffected.WithLabelValues("upsert_file").Observe(float64(rows))
		}
	}
	return err
}

// DeleteMissingFiles removes files that weren't seen during indexing.
// Must be called within a transaction.
func (d *Database) DeleteMissingFiles(tx *sql.Tx, cutoffTime time.Time) (int64, error) {
	result, err := tx.ExecContext(context.Background(),
		"DELETE FROM files WHERE updated_at < ?",
		cutoffTime.Unix(),
	)
	if err != nil {
		return 0, err
	}

	rowsAffected, err := result.RowsAffected()
	if err == nil && rowsAffected > 0 {
		metrics.DBRowsAffected.WithLabelValues("delete_files").Observe(float64(rowsAffected))
	}
	return rowsAffected, err
}

const fileColumns = "f.id, f.name, f.path, f.dir, f.size, f.mod_time, f.mime_type, f.taken_at, f.lat, f.lon, f.country, f.state, f.city"

// scanFile reads one row of fileColumns into an IndexedFile.
func scanFile(scan func(dest ...any) error) (IndexedFile, error) {
	var (
		f        IndexedFile
		modTime  int64
		mimeType sql.NullString
		takenAt  sql.NullString
		lat, lon sql.NullFloat64
		country  sql.NullString
		state    sql.NullString
		city     sql.NullString
	)

	err := scan(&f.ID, &f.Name, &f.Path, &f.Dir, &f.Size, &modTime,
		&mimeType, &takenAt, &lat, &lon, &country, &state, &city)
	if err != nil {
		return IndexedFile{}, err
	}

	f.ModTime = time.Unix(modTime, 0)
	f.MimeType = mimeType.String
	f.TakenAt = takenAt.String
	if lat.Valid {
		v := lat.Float64
		f.Lat = &v
	}
	if lon.Valid {
		v := lon.Float64
		f.Lon = &v
	}
	f.Country = country.String
	f.State = state.String
	f.City = city.String
	return f, nil
}

// GetFileByPath retrieves a single file by path.
func (d *Database) GetFileByPath(ctx context.Context, path string) (*IndexedFile, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	row := d.db.QueryRowContext(ctx,
		"SELECT "+fileColumns+" FROM files f WHERE f.path = ?", path)

	f, err := scanFile(row.Scan)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// GetFileByID retrieves a single file by id.
func (d *Database) GetFileByID(ctx context.Context, id int64) (*IndexedFile, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	row := d.db.QueryRowContext(ctx,
		"SELECT "+fileColumns+" FROM files f WHERE f.id = ?", id)

	f, err := scanFile(row.Scan)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// FilesMeta loads placeholder-expansion metadata for a set of files.
// Unknown ids are simply absent from the result.
func (d *Database) FilesMeta(ctx context.Context, fileIDs []int64) ([]placeholder.FileMeta, error) {
	done := observeQuery("files_meta")

	if len(fileIDs) == 0 {
		done(nil)
		return nil, nil
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	placeholders := strings.TrimRight(strings.Repeat("?,", len(fileIDs)), ",")
	args := make([]any, len(fileIDs))
	for i, id := range fileIDs {
		args[i] = id
	}

	rows, err := d.db.QueryContext(ctx, `
		SELECT id, taken_at, lat, lon, country, state, city
		FROM files
		WHERE id IN (`+placeholders+`)
	`, args...)
	if err != nil {
		done(err)
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logging.Error("error closing rows: %v", err)
		}
	}()

	var metas []placeholder.FileMeta
	for rows.Next() {
		var (
			meta     placeholder.FileMeta
			takenAt  sql.NullString
			lat, lon sql.NullFloat64
			country  sql.NullString
			state    sql.NullString
			city     sql.NullString
		)
		if err := rows.Scan(&meta.ID, &takenAt, &lat, &lon, &country, &state, &city); err != nil {
			continue
		}
		meta.TakenAt = takenAt.String
		if lat.Valid {
			v := lat.Float64
			meta.Lat = &v
		}
		if lon.Valid {
			v := lon.Float64
			meta.Lon = &v
		}
		meta.Country = country.String
		meta.State = state.String
		meta.City = city.String
		metas = append(metas, meta)
	}

	done(rows.Err())
	return metas, rows.Err()
}

// CountFiles returns the total number of indexed files.
func (d *Database) CountFiles(ctx context.Context) (int, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var count int
	err := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM files").Scan(&count)
	return count, err
}

// nullString maps "" to NULL so empty metadata stays NULL in the schema.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
