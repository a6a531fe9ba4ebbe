// Package storage defines the site file-system abstraction.
//
// All paths are slash-separated and relative to the site root; "." is the root itself.
package storage

// Entry is one name inside a directory listing.
type Entry struct {
	Name  string
	IsDir bool
}

// Provider is the interface for the read-only file primitives the page engine consumes.
type Provider interface {
	// Exists reports whether path names an existing regular file.
	Exists(path string) bool
	// IsDir reports whether path names an existing directory.
	IsDir(path string) bool
	// ReadText returns the full content of the file at path.
	ReadText(path string) (string, error)
	// ListEntries returns the direct children of dir sorted by name.
	ListEntries(dir string) ([]Entry, error)
}
