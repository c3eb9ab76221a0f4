package database

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"photo-index/internal/filter"
	"photo-index/internal/logging"
	"photo-index/internal/metrics"
)

// LoadTagMembership loads the full file/tag relation for the in-memory
// evaluator. Intended for small libraries and for cross-checking the SQL
// path; large libraries should search through SearchFiles instead.
func (d *Database) LoadTagMembership(ctx context.Context) (filter.Membership, error) {
	done := observeQuery("load_tag_membership")

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, "SELECT file_id, tag_id FROM file_tags")
	if err != nil {
		done(err)
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logging.Error("error closing rows: %v", err)
		}
	}()

	membership := make(filter.Membership)
	for rows.Next() {
		var fileID, tagID int64
		if err := rows.Scan(&fileID, &tagID); err != nil {
			continue
		}
		tags, ok := membership[fileID]
		if !ok {
			tags = make(map[int64]struct{})
			membership[fileID] = tags
		}
		tags[tagID] = struct{}{}
	}

	done(rows.Err())
	return membership, rows.Err()
}

// AggregateSelection counts, per tag, how many files selected by the chain
// carry that tag. The chain is folded in memory over the loaded membership
// relation (search goes through the compiled SQL instead, where paging and
// sorting live). Tags with zero matches in the selection are omitted.
func (d *Database) AggregateSelection(ctx context.Context, chain filter.Chain) ([]TagCount, error) {
	metrics.FilterAggregations.WithLabelValues("selection").Inc()

	membership, err := d.LoadTagMembership(ctx)
	if err != nil {
		return nil, err
	}

	countByTag := make(map[int64]int)
	for fileID := range filter.Evaluate(membership, chain) {
		for tagID := range membership[fileID] {
			countByTag[tagID]++
		}
	}
	if len(countByTag) == 0 {
		return nil, nil
	}

	names, err := d.tagNamesByID(ctx, countByTag)
	if err != nil {
		return nil, err
	}

	counts := make([]TagCount, 0, len(countByTag))
	for id, n := range countByTag {
		counts = append(counts, TagCount{TagID: id, Name: names[id], Count: n})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return strings.ToLower(counts[i].Name) < strings.ToLower(counts[j].Name)
	})
	return counts, nil
}

func (d *Database) tagNamesByID(ctx context.Context, ids map[int64]int) (map[int64]string, error) {
	done := observeQuery("tag_names")

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	placeholders := make([]string, 0, len(ids))
	args := make([]any, 0, len(ids))
	for id := range ids {
		placeholders = append(placeholders, "?")
		args = append(args, id)
	}

	query := fmt.Sprintf("SELECT id, name FROM tags WHERE id IN (%s)", strings.Join(placeholders, ", "))
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		done(err)
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logging.Error("error closing rows: %v", err)
		}
	}()

	names := make(map[int64]string, len(ids))
	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			continue
		}
		names[id] = name
	}

	done(rows.Err())
	return names, rows.Err()
}

// AggregateSource counts, per tag, how many files under the directory prefix
// carry that tag. An empty prefix aggregates over the whole library.
func (d *Database) AggregateSource(ctx context.Context, dirPrefix string) ([]TagCount, error) {
	done := observeQuery("aggregate_source")
	metrics.FilterAggregations.WithLabelValues("source").Inc()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := `
		SELECT t.id, t.name, COUNT(DISTINCT ft.file_id) AS cnt
		FROM files f
		INNER JOIN file_tags ft ON ft.file_id = f.id
		INNER JOIN tags t ON t.id = ft.tag_id
	`
	var args []any
	if dirPrefix != "" {
		query += " WHERE f.dir = ? OR f.dir LIKE ? || '/%'"
		args = append(args, dirPrefix, dirPrefix)
	}
	query += `
		GROUP BY t.id
		ORDER BY cnt DESC, t.name COLLATE NOCASE
	`

	counts, err := d.queryTagCounts(ctx, query, args...)
	done(err)
	return counts, err
}

func (d *Database) queryTagCounts(ctx context.Context, query string, args ...any) ([]TagCount, error) {
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logging.Error("error closing rows: %v", err)
		}
	}()

	var counts []TagCount
	for rows.Next() {
		var c TagCount
		if err := rows.Scan(&c.TagID, &c.Name, &c.Count); err != nil {
			continue
		}
		counts = append(counts, c)
	}

	return counts, rows.Err()
}
