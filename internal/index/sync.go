package index

import (
	"log/slog"
	"time"

	"github.com/starford/kenaz-moc/internal/checksum"
	"github.com/starford/kenaz-moc/internal/parser"
	"github.com/starford/kenaz-moc/internal/storage"
)

// Sync walks the vault and brings the index up to date:
//   - every file is recorded so that links can resolve to it
//   - new/changed notes are parsed and upserted
//   - files removed from disk are deleted from the index
func Sync(db *DB, store storage.Provider, logger *slog.Logger) error {
	metas, err := store.Files("")
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}
	known, err := db.AllFiles()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}

		if m.Ext != "md" {
			if _, ok := known[m.Path]; ok {
				continue
			}
			if err := db.UpsertFile(FileRow{Path: m.Path, Ext: m.Ext, UpdatedAt: m.UpdatedAt}); err != nil {
				logger.Warn("sync: record file failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			}
			continue
		}

		if checksums[m.Path] == m.Checksum {
			continue
		}

		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		if err := indexFile(db, m.Path, data, m.UpdatedAt); err != nil {
			logger.Warn("sync: index failed", slog.String("path", m.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("path", m.Path))
		}
	}

	// Remove stale entries.
	for p := range known {
		if _, ok := disk[p]; !ok {
			if err := db.DeleteFile(p); err != nil {
				logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("path", p))
			}
		}
	}

	return nil
}

// indexFile parses data and upserts it into the DB.
func indexFile(db *DB, path string, data []byte, modTime time.Time) error {
	res, err := parser.Parse(data)
	if err != nil {
		return err
	}
	if modTime.IsZero() {
		modTime = time.Now()
	}

	row := NoteRow{
		Path:            path,
		Title:           res.Title,
		Checksum:        checksum.Sum(data),
		Tags:            res.Tags,
		Frontmatter:     res.Frontmatter,
		FrontmatterKeys: res.Keys,
		UpdatedAt:       modTime,
	}
	return db.UpsertNote(row, res.Links)
}
