// Package storage defines the vault document store.
package storage

import "github.com/starford/ansuz/internal/models"

// Provider is the document store the pipeline reads from and writes to.
// All paths are relative to the vault root.
type Provider interface {
	// Read returns the raw bytes of the document at path.
	Read(path string) ([]byte, error)
	// Write creates or overwrites the document at path, creating parent folders.
	Write(path string, content []byte) error
	// Exists reports whether a document exists at path.
	Exists(path string) (bool, error)
	// List returns metadata for every .md document under folder.
	List(folder string) ([]models.NoteMetadata, error)
	// EnsureFolder creates folder if missing. Calling it twice is not an error.
	EnsureFolder(folder string) error
}
