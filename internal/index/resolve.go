package index

import (
	"path"
	"strings"

	"github.com/starford/kenaz-moc/internal/models"
)

// ResolveLink maps a wiki-link path to the vault file it points at.
//
// Matching is case-insensitive. The name may omit the .md extension and
// may be any trailing part of the file path; when several files match,
// the one with the shortest path wins. A "#heading" or "#^block" suffix
// is ignored.
func (db *DB) ResolveLink(linkpath string) (models.Target, bool) {
	name := strings.TrimSpace(linkpath)
	if i := strings.IndexByte(name, '#'); i >= 0 {
		name = name[:i]
	}
	name = strings.TrimPrefix(name, "/")
	if name == "" {
		return models.Target{}, false
	}

	base := path.Base(name)
	rows, err := db.conn.Query(`
		SELECT path, ext FROM files
		WHERE name = ? COLLATE NOCASE OR name = ? COLLATE NOCASE
		ORDER BY length(path), path
	`, base, base+".md")
	if err != nil {
		return models.Target{}, false
	}
	defer rows.Close()

	lower := strings.ToLower(name)
	for rows.Next() {
		var t models.Target
		if err := rows.Scan(&t.Path, &t.Extension); err != nil {
			return models.Target{}, false
		}
		if matchesLink(strings.ToLower(t.Path), lower) {
			return t, true
		}
	}
	return models.Target{}, false
}

func matchesLink(p, name string) bool {
	for _, candidate := range []string{name, name + ".md"} {
		if p == candidate || strings.HasSuffix(p, "/"+candidate) {
			return true
		}
	}
	return false
}
