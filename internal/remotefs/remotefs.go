// Package remotefs exposes the device's SD-card filesystem over the
// command console. Listing prefers the JSON console mode and falls back
// to parsing the human-readable table when the firmware predates it.
package remotefs

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/scalefx/hubsync/internal/codec"
	"github.com/scalefx/hubsync/internal/domain"
	"github.com/scalefx/hubsync/internal/logger"
)

// MaxListDepth bounds recursive listing. The device volume is shallow;
// anything deeper than this is a cyclic or corrupt directory table.
const MaxListDepth = 16

// View reads and mutates the remote filesystem through a codec.
type View struct {
	c   *codec.Codec
	log logger.Logger
}

// NewView creates a remote filesystem view over an open codec.
func NewView(c *codec.Codec) *View {
	return &View{
		c:   c,
		log: logger.Get().With("component", "remotefs"),
	}
}

// Init mounts the SD card. A volume that is already mounted is fine.
func (v *View) Init() error {
	resp, err := v.c.Send("sd init", codec.DefaultWait)
	if err != nil {
		return err
	}

	text := strings.ToLower(resp.Text())
	if strings.Contains(text, "error") && !strings.Contains(text, "already") {
		return fmt.Errorf("%w: sd init: %s", domain.ErrDeviceError, resp.Text())
	}
	return nil
}

// ListTree walks the remote tree rooted at path and returns one record
// per file, keyed by the case-folded path relative to the root. Record
// paths keep the device's original case.
func (v *View) ListTree(root string) (map[string]domain.FileRecord, error) {
	records := make(map[string]domain.FileRecord)
	if err := v.listInto(root, "", 0, records); err != nil {
		return nil, err
	}
	return records, nil
}

func (v *View) listInto(dir, prefix string, depth int, records map[string]domain.FileRecord) error {
	if depth > MaxListDepth {
		return fmt.Errorf("%w: %s at depth %d", domain.ErrDepthExceeded, dir, depth)
	}

	entries, err := v.List(dir)
	if err != nil {
		return err
	}

	for _, e := range entries {
		rel := joinRel(prefix, e.Name)
		switch e.Type {
		case domain.EntryFile:
			records[domain.FoldKey(rel)] = domain.FileRecord{Path: rel, Size: e.Size}
		case domain.EntryDir:
			sub := joinRemote(dir, e.Name)
			if err := v.listInto(sub, rel, depth+1, records); err != nil {
				return err
			}
		}
	}
	return nil
}

// List returns the immediate entries of a remote directory.
func (v *View) List(dir string) ([]domain.RemoteEntry, error) {
	cmd := "sd ls " + dir

	obj, err := v.c.SendJSON(cmd, codec.ListWait)
	if err == nil && codec.String(obj, "status") == "ok" {
		return parseJSONEntries(obj), nil
	}
	if err != nil {
		v.log.Debug("json listing unavailable, using text mode", "dir", dir, "error", err)
	}

	// Fallback: the firmware answered in plain text or not at all in
	// JSON mode. Re-issue without the flag and parse the table.
	resp, err := v.c.Send(cmd, codec.ListWait)
	if err != nil {
		return nil, err
	}
	if text := strings.ToLower(resp.Text()); strings.Contains(text, "error") {
		if strings.Contains(text, "not found") || strings.Contains(text, "no such") {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, dir)
		}
		return nil, fmt.Errorf("%w: sd ls %s: %s", domain.ErrDeviceError, dir, resp.Text())
	}
	return parseTextEntries(resp.Lines()), nil
}

func parseJSONEntries(obj map[string]any) []domain.RemoteEntry {
	raw, _ := obj["entries"].([]any)
	entries := make([]domain.RemoteEntry, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		name := codec.String(m, "name")
		if name == "" {
			continue
		}
		switch codec.String(m, "type") {
		case "file":
			entries = append(entries, domain.RemoteEntry{
				Name: name,
				Type: domain.EntryFile,
				Size: int64(codec.Int(m, "size")),
			})
		case "dir":
			entries = append(entries, domain.RemoteEntry{Name: name, Type: domain.EntryDir})
		}
	}
	return entries
}

// parseTextEntries parses the plain console table. Files print as
// "name size", directories as "name/".
func parseTextEntries(lines []string) []domain.RemoteEntry {
	var entries []domain.RemoteEntry
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		name := fields[0]
		if strings.HasSuffix(name, "/") {
			entries = append(entries, domain.RemoteEntry{
				Name: strings.TrimSuffix(name, "/"),
				Type: domain.EntryDir,
			})
			continue
		}
		if len(fields) < 2 {
			continue
		}
		size, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			continue
		}
		entries = append(entries, domain.RemoteEntry{Name: name, Type: domain.EntryFile, Size: size})
	}
	return entries
}

// Mkdir creates a remote directory. An existing directory is not an error.
func (v *View) Mkdir(path string) error {
	resp, err := v.c.Send("sd mkdir "+path, codec.DefaultWait)
	if err != nil {
		return err
	}

	text := strings.ToLower(resp.Text())
	if strings.Contains(text, "error") && !strings.Contains(text, "exist") {
		return fmt.Errorf("%w: sd mkdir %s: %s", domain.ErrDeviceError, path, resp.Text())
	}
	return nil
}

// Remove deletes a remote file.
func (v *View) Remove(path string) error {
	resp, err := v.c.Send("sd rm "+path, codec.DefaultWait)
	if err != nil {
		return err
	}

	text := strings.ToLower(resp.Text())
	if strings.Contains(text, "error") {
		if strings.Contains(text, "not found") || strings.Contains(text, "no such") {
			return fmt.Errorf("%w: %s", domain.ErrNotFound, path)
		}
		return fmt.Errorf("%w: sd rm %s: %s", domain.ErrDeviceError, path, resp.Text())
	}
	return nil
}

// Stat looks a single file up by listing its parent directory.
func (v *View) Stat(path string) (domain.RemoteEntry, error) {
	dir, name := splitRemote(path)

	entries, err := v.List(dir)
	if err != nil {
		return domain.RemoteEntry{}, err
	}

	want := domain.FoldKey(name)
	for _, e := range entries {
		if domain.FoldKey(e.Name) == want {
			return e, nil
		}
	}
	return domain.RemoteEntry{}, fmt.Errorf("%w: %s", domain.ErrNotFound, path)
}

// joinRemote joins device path segments with single forward slashes.
func joinRemote(dir, name string) string {
	if dir == "" || dir == "/" {
		return "/" + name
	}
	return strings.TrimSuffix(dir, "/") + "/" + name
}

func joinRel(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

func splitRemote(path string) (dir, name string) {
	trimmed := strings.TrimSuffix(path, "/")
	idx := strings.LastIndex(trimmed, "/")
	if idx < 0 {
		return "/", trimmed
	}
	if idx == 0 {
		return "/", trimmed[1:]
	}
	return trimmed[:idx], trimmed[idx+1:]
}
