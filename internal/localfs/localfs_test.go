package localfs

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/scalefx/hubsync/internal/domain"
	"github.com/scalefx/hubsync/internal/testutil"
)

func TestNewScanner_MissingRoot(t *testing.T) {
	_, err := NewScanner(filepath.Join(t.TempDir(), "nope"))
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestNewScanner_FileNotDirectory(t *testing.T) {
	dir := t.TempDir()
	path := testutil.CreateTestFile(t, dir, "afile", []byte("x"))

	_, err := NewScanner(path)
	if !errors.Is(err, domain.ErrPlanningError) {
		t.Errorf("expected ErrPlanningError, got %v", err)
	}
}

func TestScan_RecordsKeyedByFoldedPath(t *testing.T) {
	dir := t.TempDir()
	testutil.CreateTestFile(t, dir, "Sounds/Boot.WAV", []byte("abcd"))
	testutil.CreateTestFile(t, dir, "config.json", []byte("{}"))

	s, err := NewScanner(dir)
	if err != nil {
		t.Fatalf("NewScanner failed: %v", err)
	}

	records, err := s.Scan()
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d: %v", len(records), records)
	}

	rec, ok := records["sounds/boot.wav"]
	if !ok {
		t.Fatal("missing folded key sounds/boot.wav")
	}
	if rec.Path != "Sounds/Boot.WAV" {
		t.Errorf("original case not preserved: %q", rec.Path)
	}
	if rec.Size != 4 {
		t.Errorf("size = %d, want 4", rec.Size)
	}

	if _, ok := records["config.json"]; !ok {
		t.Error("missing config.json record")
	}
}

func TestScan_SkipsHiddenFilesAndDirs(t *testing.T) {
	dir := t.TempDir()
	testutil.CreateTestFile(t, dir, ".DS_Store", []byte("junk"))
	testutil.CreateTestFile(t, dir, ".git/HEAD", []byte("ref"))
	testutil.CreateTestFile(t, dir, "keep.txt", []byte("ok"))

	s, err := NewScanner(dir)
	if err != nil {
		t.Fatalf("NewScanner failed: %v", err)
	}

	records, err := s.Scan()
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d: %v", len(records), records)
	}
	if _, ok := records["keep.txt"]; !ok {
		t.Error("keep.txt should survive the scan")
	}
}

func TestScan_EmptyTree(t *testing.T) {
	s, err := NewScanner(t.TempDir())
	if err != nil {
		t.Fatalf("NewScanner failed: %v", err)
	}

	records, err := s.Scan()
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected empty map, got %v", records)
	}
}
