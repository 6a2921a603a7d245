package index

import (
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/starford/kenaz-moc/internal/models"
)

// NoteRow represents a row in the notes table.
type NoteRow struct {
	Path            string
	Title           string
	Checksum        string
	Tags            []string
	Frontmatter     map[string]any
	FrontmatterKeys []string
	UpdatedAt       time.Time
}

// FileRow represents a row in the files table.
type FileRow struct {
	Path      string
	Ext       string
	UpdatedAt time.Time
}

// Basename returns the file name of p without its .md extension.
func Basename(p string) string {
	return strings.TrimSuffix(path.Base(p), ".md")
}

// UpsertFile records a vault file so that links can resolve to it.
func (db *DB) UpsertFile(f FileRow) error {
	_, err := db.conn.Exec(`
		INSERT INTO files (path, name, ext, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			name       = excluded.name,
			ext        = excluded.ext,
			updated_at = excluded.updated_at
	`, f.Path, path.Base(f.Path), f.Ext, f.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert file: %w", err)
	}
	return nil
}

// UpsertNote inserts or replaces a note, its file entry, and its outgoing
// links within a transaction.
func (db *DB) UpsertNote(n NoteRow, links []string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	tagsJSON, _ := json.Marshal(nonNil(n.Tags))
	keysJSON, _ := json.Marshal(nonNil(n.FrontmatterKeys))
	fmJSON, err := json.Marshal(jsonSafe(n.Frontmatter))
	if err != nil {
		return fmt.Errorf("index: encode frontmatter: %w", err)
	}
	if n.Frontmatter == nil {
		fmJSON = []byte("{}")
	}

	_, err = tx.Exec(`
		INSERT INTO notes (path, basename, title, checksum, tags, frontmatter, frontmatter_keys, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			basename         = excluded.basename,
			title            = excluded.title,
			checksum         = excluded.checksum,
			tags             = excluded.tags,
			frontmatter      = excluded.frontmatter,
			frontmatter_keys = excluded.frontmatter_keys,
			updated_at       = excluded.updated_at
	`, n.Path, Basename(n.Path), n.Title, n.Checksum, string(tagsJSON), string(fmJSON), string(keysJSON), n.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert note: %w", err)
	}

	_, err = tx.Exec(`
		INSERT INTO files (path, name, ext, updated_at) VALUES (?, ?, 'md', ?)
		ON CONFLICT(path) DO UPDATE SET updated_at = excluded.updated_at
	`, n.Path, path.Base(n.Path), n.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert note file: %w", err)
	}

	_, _ = tx.Exec(`DELETE FROM links WHERE source = ?`, n.Path)
	if len(links) > 0 {
		stmt, err := tx.Prepare(`INSERT OR IGNORE INTO links (source, target) VALUES (?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare link insert: %w", err)
		}
		defer stmt.Close()
		for _, target := range links {
			if _, err := stmt.Exec(n.Path, target); err != nil {
				return fmt.Errorf("index: insert link: %w", err)
			}
		}
	}

	return tx.Commit()
}

// DeleteFile removes a file and, for notes, its note row and outgoing links.
func (db *DB) DeleteFile(p string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, _ = tx.Exec(`DELETE FROM links WHERE source = ?`, p)
	_, _ = tx.Exec(`DELETE FROM notes WHERE path = ?`, p)
	_, _ = tx.Exec(`DELETE FROM files WHERE path = ?`, p)

	return tx.Commit()
}

// GetChecksum returns the stored checksum for a note, or empty string if not found.
func (db *DB) GetChecksum(p string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM notes WHERE path = ?`, p).Scan(&cs)
	if err != nil {
		return "", nil // not found is fine
	}
	return cs, nil
}

// AllChecksums returns path → checksum for every indexed note.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM notes`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// AllFiles returns every indexed file path.
func (db *DB) AllFiles() (map[string]struct{}, error) {
	rows, err := db.conn.Query(`SELECT path FROM files`)
	if err != nil {
		return nil, fmt.Errorf("index: all files: %w", err)
	}
	defer rows.Close()
	out := make(map[string]struct{})
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out[p] = struct{}{}
	}
	return out, rows.Err()
}

// ListNotes returns the notes whose path starts with prefix, ordered by path.
func (db *DB) ListNotes(prefix string) ([]models.Note, error) {
	rows, err := db.conn.Query(`
		SELECT path, basename, tags, frontmatter, frontmatter_keys, updated_at
		FROM notes
		WHERE substr(path, 1, length(?1)) = ?1
		ORDER BY path
	`, prefix)
	if err != nil {
		return nil, fmt.Errorf("index: list notes: %w", err)
	}
	defer rows.Close()

	var out []models.Note
	for rows.Next() {
		var (
			n                      models.Note
			tagsJSON, fmJSON, keys string
		)
		if err := rows.Scan(&n.Path, &n.Basename, &tagsJSON, &fmJSON, &keys, &n.UpdatedAt); err != nil {
			return nil, fmt.Errorf("index: scan note: %w", err)
		}
		if err := json.Unmarshal([]byte(tagsJSON), &n.Tags); err != nil {
			return nil, fmt.Errorf("index: decode tags of %s: %w", n.Path, err)
		}
		if err := json.Unmarshal([]byte(fmJSON), &n.Frontmatter); err != nil {
			return nil, fmt.Errorf("index: decode frontmatter of %s: %w", n.Path, err)
		}
		if err := json.Unmarshal([]byte(keys), &n.FrontmatterKeys); err != nil {
			return nil, fmt.Errorf("index: decode frontmatter keys of %s: %w", n.Path, err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// Backlinks returns all note paths that link to any of the given targets.
func (db *DB) Backlinks(targets ...string) ([]string, error) {
	if len(targets) == 0 {
		return nil, nil
	}
	args := make([]any, len(targets))
	for i, t := range targets {
		args[i] = t
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(targets)), ",")
	rows, err := db.conn.Query(`SELECT DISTINCT source FROM links WHERE target IN (`+placeholders+`) ORDER BY source`, args...)
	if err != nil {
		return nil, fmt.Errorf("index: backlinks: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// jsonSafe converts YAML mappings with non-string keys into string-keyed maps.
func jsonSafe(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = jsonSafe(e)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[fmt.Sprint(k)] = jsonSafe(e)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = jsonSafe(e)
		}
		return out
	}
	return v
}
