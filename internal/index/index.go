package index

import (
	"github.com/starford/kenaz-moc/internal/link"
	"github.com/starford/kenaz-moc/internal/models"
)

// NoteIndex defines the interface for note indexing operations.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with mocks.
type NoteIndex interface {
	UpsertNote(n NoteRow, links []string) error
	UpsertFile(f FileRow) error
	DeleteFile(path string) error
	GetChecksum(path string) (string, error)
	ListNotes(prefix string) ([]models.Note, error)
	ResolveLink(linkpath string) (models.Target, bool)
	Backlinks(targets ...string) ([]string, error)
	AllFiles() (map[string]struct{}, error)
	AllChecksums() (map[string]string, error)
	Close() error
}

// Verify *DB satisfies NoteIndex and link.Resolver at compile time.
var (
	_ NoteIndex     = (*DB)(nil)
	_ link.Resolver = (*DB)(nil)
)
