// Package localfs scans the local source tree that mirrors the device
// filesystem. Files are keyed by their case-folded relative path so the
// planner can compare against the device's case-insensitive FAT volume.
package localfs

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/scalefx/hubsync/internal/domain"
)

// Scanner reads a local directory tree into file records.
type Scanner struct {
	root string
}

// NewScanner creates a scanner rooted at the given directory.
// root must exist and be a directory.
func NewScanner(root string) (*Scanner, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, root)
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", domain.ErrPlanningError, root)
	}

	return &Scanner{root: absRoot}, nil
}

// Root returns the absolute scan root.
func (s *Scanner) Root() string {
	return s.root
}

// Scan walks the tree and returns one record per regular file, keyed by
// the case-folded slash-separated relative path. Hidden files and
// directories (dot-prefixed) are skipped; the device never carries them.
func (s *Scanner) Scan() (map[string]domain.FileRecord, error) {
	records := make(map[string]domain.FileRecord)

	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == s.root {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		records[domain.FoldKey(rel)] = domain.FileRecord{
			Path: rel,
			Size: info.Size(),
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: scanning %s: %v", domain.ErrPlanningError, s.root, err)
	}

	return records, nil
}

// AbsPath resolves a slash-separated relative path under the scan root.
func (s *Scanner) AbsPath(rel string) string {
	return filepath.Join(s.root, filepath.FromSlash(rel))
}
