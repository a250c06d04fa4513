package testutil

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"
)

// CreateTestFile creates a test file with the given content and returns its path.
// Parent directories are created as needed so relative paths like "sub/b.wav" work.
func CreateTestFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()

	path := filepath.Join(dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create parent dir: %v", err)
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	return path
}

// RandomBytes returns size bytes of deterministic pseudo-random content
func RandomBytes(t *testing.T, size int) []byte {
	t.Helper()

	buf := make([]byte, size)
	rng := rand.New(rand.NewSource(int64(size) + 1))
	rng.Read(buf)
	return buf
}
