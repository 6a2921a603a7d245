// Package models defines the domain types shared by the MOC renderer.
package models

import "time"

// Note is one note record handed to the MOC builder.
type Note struct {
	Path     string `json:"path"`
	Basename string `json:"basename"`
	// Frontmatter holds the raw YAML properties; FrontmatterKeys keeps
	// their order of appearance in the file.
	Frontmatter     map[string]any `json:"frontmatter,omitempty"`
	FrontmatterKeys []string       `json:"frontmatter_keys,omitempty"`
	// Tags are the inline #tags found in the body.
	Tags      []string  `json:"tags,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FileMetadata is a lightweight representation returned by list operations.
type FileMetadata struct {
	Path      string    `json:"path"`
	Ext       string    `json:"ext"`
	Checksum  string    `json:"checksum,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Target is the vault file a link name resolves to.
type Target struct {
	Path      string `json:"path"`
	Extension string `json:"extension"`
}
