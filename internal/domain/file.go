package domain

import "strings"

// EntryType represents the type of a remote directory entry
type EntryType int

const (
	EntryFile EntryType = iota
	EntryDir
)

// RemoteEntry is one entry from a single-level remote directory listing.
// Directories are expanded by recursive listing calls, never by a deep query.
type RemoteEntry struct {
	// Name is the entry name within its directory (no separators)
	Name string

	// Type indicates file or directory
	Type EntryType

	// Size in bytes; meaningful for files only
	Size int64
}

// IsDir returns true if this entry is a directory
func (e RemoteEntry) IsDir() bool {
	return e.Type == EntryDir
}

// FileRecord describes a local file relative to the sync root
type FileRecord struct {
	// Path is the slash-normalized relative path in its original case.
	// This is the path actually sent to the device and shown to the user.
	Path string

	// Size in bytes
	Size int64
}

// FoldKey returns the case-folded comparison key for a relative path.
// The device storage is FAT-style case-insensitive, so "A.WAV" and
// "a.wav" name the same remote file.
func FoldKey(path string) string {
	return strings.ToLower(path)
}
