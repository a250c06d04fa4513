package remotefs

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/scalefx/hubsync/internal/codec"
	"github.com/scalefx/hubsync/internal/domain"
	"github.com/scalefx/hubsync/internal/testutil"
)

// consoleSim answers console commands from a canned reply table. Keys
// are full command strings including the --json suffix when present.
type consoleSim struct {
	replies map[string][]string
}

func newConsoleView(replies map[string][]string) *View {
	sim := &consoleSim{replies: replies}
	dev := &testutil.DeviceSim{OnWrite: func(d *testutil.DeviceSim, p []byte) {
		cmd := strings.TrimSpace(string(p))
		for _, line := range sim.replies[cmd] {
			d.Say("%s", line)
		}
	}}
	c := codec.New(dev)
	c.SetPollInterval(time.Millisecond)
	return NewView(c)
}

func TestListTree_JSONMode(t *testing.T) {
	v := newConsoleView(map[string][]string{
		"sd ls /sounds --json": {
			`{"status": "ok", "entries": [` +
				`{"name": "Boot.WAV", "type": "file", "size": 100},` +
				`{"name": "fx", "type": "dir"}]}`,
		},
		"sd ls /sounds/fx --json": {
			`{"status": "ok", "entries": [{"name": "horn.wav", "type": "file", "size": 42}]}`,
		},
	})

	records, err := v.ListTree("/sounds")
	if err != nil {
		t.Fatalf("ListTree failed: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d: %v", len(records), records)
	}

	boot, ok := records["boot.wav"]
	if !ok {
		t.Fatal("missing folded key boot.wav")
	}
	if boot.Path != "Boot.WAV" || boot.Size != 100 {
		t.Errorf("unexpected record: %+v", boot)
	}

	horn, ok := records["fx/horn.wav"]
	if !ok {
		t.Fatal("missing nested record fx/horn.wav")
	}
	if horn.Path != "fx/horn.wav" || horn.Size != 42 {
		t.Errorf("unexpected nested record: %+v", horn)
	}
}

func TestListTree_TextFallback(t *testing.T) {
	// Firmware without JSON support echoes the table for both forms.
	table := []string{"a.wav  100", "sub/", "junk line without size"}
	v := newConsoleView(map[string][]string{
		"sd ls /sounds --json":     table,
		"sd ls /sounds":            table,
		"sd ls /sounds/sub --json": {"deep.wav  7"},
		"sd ls /sounds/sub":        {"deep.wav  7"},
	})

	records, err := v.ListTree("/sounds")
	if err != nil {
		t.Fatalf("ListTree failed: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d: %v", len(records), records)
	}
	if records["a.wav"].Size != 100 {
		t.Errorf("a.wav size = %d, want 100", records["a.wav"].Size)
	}
	if records["sub/deep.wav"].Size != 7 {
		t.Errorf("sub/deep.wav size = %d, want 7", records["sub/deep.wav"].Size)
	}
}

func TestListTree_DepthBound(t *testing.T) {
	// Every directory contains another directory: a cycle in disguise.
	dev := &testutil.DeviceSim{OnWrite: func(d *testutil.DeviceSim, p []byte) {
		cmd := strings.TrimSpace(string(p))
		if strings.HasPrefix(cmd, "sd ls ") && strings.HasSuffix(cmd, "--json") {
			d.Say(`{"status": "ok", "entries": [{"name": "loop", "type": "dir"}]}`)
		}
	}}
	c := codec.New(dev)
	c.SetPollInterval(time.Millisecond)
	v := NewView(c)

	_, err := v.ListTree("/sounds")
	if !errors.Is(err, domain.ErrDepthExceeded) {
		t.Errorf("expected ErrDepthExceeded, got %v", err)
	}
}

func TestList_NotFound(t *testing.T) {
	v := newConsoleView(map[string][]string{
		"sd ls /missing --json": {"ERROR: path not found"},
		"sd ls /missing":        {"ERROR: path not found"},
	})

	_, err := v.List("/missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestInit(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		wantErr bool
	}{
		{"fresh mount", "SD card initialized", false},
		{"already mounted", "ERROR: already initialized", false},
		{"hardware fault", "ERROR: no card detected", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newConsoleView(map[string][]string{"sd init": {tt.reply}})
			err := v.Init()
			if tt.wantErr && !errors.Is(err, domain.ErrDeviceError) {
				t.Errorf("expected ErrDeviceError, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestMkdir_ExistingDirIsFine(t *testing.T) {
	v := newConsoleView(map[string][]string{
		"sd mkdir /sounds/fx": {"ERROR: directory exists"},
	})
	if err := v.Mkdir("/sounds/fx"); err != nil {
		t.Errorf("existing dir should not be an error, got %v", err)
	}
}

func TestMkdir_DeviceError(t *testing.T) {
	v := newConsoleView(map[string][]string{
		"sd mkdir /sounds/fx": {"ERROR: write protected"},
	})
	if err := v.Mkdir("/sounds/fx"); !errors.Is(err, domain.ErrDeviceError) {
		t.Errorf("expected ErrDeviceError, got %v", err)
	}
}

func TestRemove(t *testing.T) {
	v := newConsoleView(map[string][]string{
		"sd rm /sounds/old.wav": {"Deleted /sounds/old.wav"},
		"sd rm /sounds/gone":    {"ERROR: not found"},
	})

	if err := v.Remove("/sounds/old.wav"); err != nil {
		t.Errorf("Remove failed: %v", err)
	}
	if err := v.Remove("/sounds/gone"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStat(t *testing.T) {
	v := newConsoleView(map[string][]string{
		"sd ls /sounds --json": {
			`{"status": "ok", "entries": [{"name": "Boot.WAV", "type": "file", "size": 100}]}`,
		},
	})

	// Lookup is case-insensitive, like the FAT volume itself.
	e, err := v.Stat("/sounds/boot.wav")
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if e.Name != "Boot.WAV" || e.Size != 100 {
		t.Errorf("unexpected entry: %+v", e)
	}

	if _, err := v.Stat("/sounds/nope.wav"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSplitRemote(t *testing.T) {
	tests := []struct {
		path, dir, name string
	}{
		{"/sounds/a.wav", "/sounds", "a.wav"},
		{"/a.wav", "/", "a.wav"},
		{"a.wav", "/", "a.wav"},
		{"/sounds/fx/b.wav", "/sounds/fx", "b.wav"},
	}
	for _, tt := range tests {
		dir, name := splitRemote(tt.path)
		if dir != tt.dir || name != tt.name {
			t.Errorf("splitRemote(%q) = (%q, %q), want (%q, %q)", tt.path, dir, name, tt.dir, tt.name)
		}
	}
}
