// Package storage defines the vault file-system abstraction.
package storage

import "github.com/starford/kenaz-moc/internal/models"

// Provider is the interface for vault file operations.
// All paths are relative to the vault root and use forward slashes.
type Provider interface {
	// Files returns metadata for every file under dir, notes and assets alike.
	Files(dir string) ([]models.FileMetadata, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path.
	Write(path string, content []byte) error
	// Root returns the absolute vault directory.
	Root() string
}
