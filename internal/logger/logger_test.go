package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  Level
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"Warning", LevelWarn},
		{"error", LevelError},
		{"bogus", LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestGet_BeforeInitReturnsNullLogger(t *testing.T) {
	if _, ok := Get().(*NullLogger); !ok {
		t.Errorf("expected NullLogger before Init, got %T", Get())
	}
}

func TestInit_DoubleInitFails(t *testing.T) {
	if err := Init(Config{Level: LevelInfo}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer Shutdown()

	if err := Init(Config{Level: LevelInfo}); err == nil {
		t.Error("second Init should fail")
	}
}

func TestFileOutput(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "logs", "hubsync.log")

	cfg := Config{
		Level:  LevelDebug,
		Format: FormatJSON,
		File:   FileConfig{Enabled: true, Path: path, MaxSizeMB: 1},
	}
	if err := Init(cfg); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	Get().Info("upload complete", "path", "/sounds/a.wav", "bytes", 100)

	if err := Shutdown(); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	if !strings.Contains(string(data), "upload complete") {
		t.Errorf("log file missing entry: %s", data)
	}
}
