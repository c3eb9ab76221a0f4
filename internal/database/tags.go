package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"photo-index/internal/logging"
)

// GetOrCreateTag gets an existing tag or creates a new one.
func (d *Database) GetOrCreateTag(ctx context.Context, name string) (*Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("tag name cannot be empty")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var tag Tag
	var createdAt int64
	var color sql.NullString

	err := d.db.QueryRowContext(ctx,
		"SELECT id, name, color, created_at FROM tags WHERE name = ? COLLATE NOCASE",
		name,
	).Scan(&tag.ID, &tag.Name, &color, &createdAt)

	if err == nil {
		tag.CreatedAt = time.Unix(createdAt, 0)
		if color.Valid {
			tag.Color = color.String
		}
		return &tag, nil
	}

	result, err := d.db.ExecContext(ctx,
		"INSERT INTO tags (name) VALUES (?)",
		name,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create tag: %w", err)
	}

	tag.ID, _ = result.LastInsertId()
	tag.Name = name
	tag.CreatedAt = time.Now()

	return &tag, nil
}

// AddTagToFile assigns a tag to a file, creating the tag if needed.
func (d *Database) AddTagToFile(ctx context.Context, fileID int64, tagName string) error {
	done := observeQuery("add_tag_to_file")

	tagName = strings.TrimSpace(tagName)
	if tagName == "" {
		err := errors.New("tag name cannot be empty")
		done(err)
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	// Get or create tag within the same lock
	var tagID int64
	err := d.db.QueryRowContext(ctx,
		"SELECT id FROM tags WHERE name = ? COLLATE NOCASE",
		tagName,
	).Scan(&tagID)

	if err != nil {
		result, createErr := d.db.ExecContext(ctx, "INSERT INTO tags (name) VALUES (?)", tagName)
		if createErr != nil {
			err = fmt.Errorf("failed to create tag: %w", createErr)
			done(err)
			return err
		}
		tagID, _ = result.LastInsertId()
	}

	_, err = d.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO file_tags (file_id, tag_id) VALUES (?, ?)",
		fileID, tagID,
	)
	done(err)
	return err
}

// RemoveTagFromFile removes a tag assignment from a file.
func (d *Database) RemoveTagFromFile(ctx context.Context, fileID int64, tagName string) error {
	done := observeQuery("remove_tag_from_file")

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := d.db.ExecContext(ctx, `
		DELETE FROM file_tags
		WHERE file_id = ? AND tag_id = (SELECT id FROM tags WHERE name = ? COLLATE NOCASE)
	`, fileID, tagName)

	done(err)
	return err
}

// GetFileTags returns all tag names assigned to a file.
func (d *Database) GetFileTags(ctx context.Context, fileID int64) ([]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	return d.getFileTagsUnlocked(ctx, fileID)
}

// getFileTagsUnlocked returns tags without acquiring lock.
// Caller must hold at least a read lock.
func (d *Database) getFileTagsUnlocked(ctx context.Context, fileID int64) ([]string, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT t.name
		FROM tags t
		INNER JOIN file_tags ft ON t.id = ft.tag_id
		WHERE ft.file_id = ?
		ORDER BY t.name COLLATE NOCASE
	`, fileID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logging.Error("error closing rows: %v", err)
		}
	}()

	var tags []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err == nil {
			tags = append(tags, name)
		}
	}

	return tags, nil
}

// SetFileTags replaces all tags for a file.
func (d *Database) SetFileTags(ctx context.Context, fileID int64, tagNames []string) error {
	done := observeQuery("set_file_tags")

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		done(err)
		return err
	}

	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(); rbErr != nil {
				logging.Error("rollback failed: %v", rbErr)
			}
		}
	}()

	_, err = tx.ExecContext(ctx, "DELETE FROM file_tags WHERE file_id = ?", fileID)
	if err != nil {
		done(err)
		return err
	}

	for _, tagName := range tagNames {
		tagName = strings.TrimSpace(tagName)
		if tagName == "" {
			continue
		}

		var tagID int64
		err = tx.QueryRowContext(ctx, "SELECT id FROM tags WHERE name = ? COLLATE NOCASE", tagName).Scan(&tagID)
		if err != nil {
			result, createErr := tx.ExecContext(ctx, "INSERT INTO tags (name) VALUES (?)", tagName)
			if createErr != nil {
				err = createErr
				done(err)
				return err
			}
			tagID, _ = result.LastInsertId()
		}

		_, err = tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO file_tags (file_id, tag_id) VALUES (?, ?)",
			fileID, tagID,
		)
		if err != nil {
			done(err)
			return err
		}
	}

	if commitErr := tx.Commit(); commitErr != nil {
		done(commitErr)
		return commitErr
	}
	committed = true
	done(nil)
	return nil
}

// GetAllTags returns all tags with item counts.
func (d *Database) GetAllTags(ctx context.Context) ([]Tag, error) {
	done := observeQuery("get_all_tags")

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, `
		SELECT t.id, t.name, t.color, t.created_at, COUNT(ft.id) as item_count
		FROM tags t
		LEFT JOIN file_tags ft ON t.id = ft.tag_id
		GROUP BY t.id
		ORDER BY t.name COLLATE NOCASE
	`)
	if err != nil {
		done(err)
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logging.Error("error closing rows: %v", err)
		}
	}()

	var tags []Tag
	for rows.Next() {
		var tag Tag
		var createdAt int64
		var color sql.NullString

		if err := rows.Scan(&tag.ID, &tag.Name, &color, &createdAt, &tag.ItemCount); err != nil {
			continue
		}

		tag.CreatedAt = time.Unix(createdAt, 0)
		if color.Valid {
			tag.Color = color.String
		}

		tags = append(tags, tag)
	}

	done(nil)
	return tags, nil
}

// RenameTag renames a tag, preserving its assignments.
func (d *Database) RenameTag(ctx context.Context, oldName, newName string) error {
	done := observeQuery("rename_tag")

	oldName = strings.TrimSpace(oldName)
	newName = strings.TrimSpace(newName)
	if oldName == "" || newName == "" {
		err := errors.New("tag name cannot be empty")
		done(err)
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		done(err)
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	var oldID int64
	err = tx.QueryRowContext(ctx,
		"SELECT id FROM tags WHERE name = ? COLLATE NOCASE", oldName,
	).Scan(&oldID)
	if errors.Is(err, sql.ErrNoRows) {
		err = fmt.Errorf("tag not found: %s", oldName)
		done(err)
		return err
	}
	if err != nil {
		done(err)
		return err
	}

	// If a tag with the target name already exists, merge into it: move
	// the assignments over and drop the old tag.
	var newID int64
	err = tx.QueryRowContext(ctx,
		"SELECT id FROM tags WHERE name = ? COLLATE NOCASE", newName,
	).Scan(&newID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err = tx.ExecContext(ctx,
			"UPDATE tags SET name = ? WHERE id = ?", newName, oldID,
		); err != nil {
			err = fmt.Errorf("failed to rename tag: %w", err)
			done(err)
			return err
		}
	case err != nil:
		done(err)
		return err
	case newID == oldID:
		// Case-only rename of the same tag
		if _, err = tx.ExecContext(ctx,
			"UPDATE tags SET name = ? WHERE id = ?", newName, oldID,
		); err != nil {
			err = fmt.Errorf("failed to rename tag: %w", err)
			done(err)
			return err
		}
	default:
		if _, err = tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO file_tags (file_id, tag_id) SELECT file_id, ? FROM file_tags WHERE tag_id = ?",
			newID, oldID,
		); err != nil {
			err = fmt.Errorf("failed to merge tag assignments: %w", err)
			done(err)
			return err
		}
		if _, err = tx.ExecContext(ctx,
			"DELETE FROM tags WHERE id = ?", oldID,
		); err != nil {
			err = fmt.Errorf("failed to remove merged tag: %w", err)
			done(err)
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		done(err)
		return err
	}

	done(nil)
	return nil
}

// DeleteTag deletes a tag and every assignment of it. Returns the number of
// files that carried the tag.
func (d *Database) DeleteTag(ctx context.Context, tagName string) (int, error) {
	done := observeQuery("delete_tag")

	tagName = strings.TrimSpace(tagName)
	if tagName == "" {
		err := errors.New("tag name cannot be empty")
		done(err)
		return 0, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		done(err)
		return 0, err
	}
	defer tx.Rollback() //nolint:errcheck

	var count int
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT ft.file_id)
		FROM file_tags ft
		INNER JOIN tags t ON ft.tag_id = t.id
		WHERE t.name = ? COLLATE NOCASE
	`, tagName).Scan(&count)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		err = fmt.Errorf("failed to count affected files: %w", err)
		done(err)
		return 0, err
	}

	// CASCADE removes the file_tags rows
	result, err := tx.ExecContext(ctx,
		"DELETE FROM tags WHERE name = ? COLLATE NOCASE",
		tagName,
	)
	if err != nil {
		err = fmt.Errorf("failed to delete tag: %w", err)
		done(err)
		return 0, err
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		err = fmt.Errorf("tag not found: %s", tagName)
		done(err)
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		done(err)
		return 0, err
	}

	logging.Info("Deleted tag '%s' from %d files", tagName, count)
	done(nil)
	return count, nil
}
