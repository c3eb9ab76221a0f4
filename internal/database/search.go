package database

import (
	"context"
	"fmt"

	"photo-index/internal/filter"
	"photo-index/internal/logging"
	"photo-index/internal/metrics"
)

// SearchFiles runs a validated filter chain against the library and returns
// one page of matching files. The chain is compiled to SQL and evaluated
// entirely inside SQLite; TotalItems counts the whole selection regardless
// of paging.
func (d *Database) SearchFiles(ctx context.Context, chain filter.Chain, opts SearchOptions) (*SearchResult, error) {
	done := observeQuery("search_files")

	opts = opts.normalize()
	metrics.FilterChainNodes.Observe(float64(len(chain.Links) + 1))

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	ctes, combined := filter.CompileParts(chain)

	var total int
	countQuery := fmt.Sprintf("WITH %s,\nselection AS (%s)\nSELECT COUNT(*) FROM selection", ctes, combined)
	if err := d.db.QueryRowContext(ctx, countQuery).Scan(&total); err != nil {
		metrics.FilterSearches.WithLabelValues("error").Inc()
		done(err)
		return nil, fmt.Errorf("failed to count selection: %w", err)
	}

	// Sort column and direction come from a whitelist, never from raw input
	orderBy := fmt.Sprintf("%s %s", sortColumns[opts.SortBy], opts.SortDir)
	query := fmt.Sprintf(`
		WITH %s,
		selection AS (%s)
		SELECT %s
		FROM files f
		INNER JOIN selection s ON s.file_id = f.id
		ORDER BY %s, f.id %s
		LIMIT ? OFFSET ?
	`, ctes, combined, fileColumns, orderBy, opts.SortDir)

	rows, err := d.db.QueryContext(ctx, query, opts.Limit, opts.Offset)
	if err != nil {
		metrics.FilterSearches.WithLabelValues("error").Inc()
		done(err)
		return nil, fmt.Errorf("failed to run filter search: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logging.Error("error closing rows: %v", err)
		}
	}()

	items := []IndexedFile{}
	for rows.Next() {
		f, err := scanFile(rows.Scan)
		if err != nil {
			continue
		}
		items = append(items, f)
	}
	if err := rows.Err(); err != nil {
		metrics.FilterSearches.WithLabelValues("error").Inc()
		done(err)
		return nil, err
	}

	// Attach tags per result row; pages are capped so this stays bounded
	for i := range items {
		tags, err := d.getFileTagsUnlocked(ctx, items[i].ID)
		if err != nil {
			logging.Debug("loading tags for file %d: %v", items[i].ID, err)
			continue
		}
		items[i].Tags = tags
	}

	metrics.FilterSearches.WithLabelValues("success").Inc()
	done(nil)
	return &SearchResult{
		Items:      items,
		TotalItems: total,
		Limit:      opts.Limit,
		Offset:     opts.Offset,
	}, nil
}
