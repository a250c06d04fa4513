// Package lock guards a serial port against concurrent hubsync runs.
// Two processes talking over the same console desync the device, so a
// run takes a per-port file lock before opening the channel.
package lock

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultStaleTimeout is how long a lock from an unreachable holder
// survives before it is treated as abandoned.
const DefaultStaleTimeout = 30 * time.Minute

// Info contains metadata about the lock holder
type Info struct {
	PID       int       `json:"pid"`
	Hostname  string    `json:"hostname"`
	StartTime time.Time `json:"start_time"`
	Port      string    `json:"port"`
}

// PortLock is a file-based lock scoped to one serial port
type PortLock struct {
	port         string
	lockPath     string
	staleTimeout time.Duration
	info         *Info
}

// New creates a lock for the given serial port. lockDir defaults to
// the hubsync user config directory.
func New(lockDir, port string) (*PortLock, error) {
	if lockDir == "" {
		configDir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get config dir: %w", err)
		}
		lockDir = filepath.Join(configDir, "hubsync")
	}

	if err := os.MkdirAll(lockDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	return &PortLock{
		port:         port,
		lockPath:     filepath.Join(lockDir, lockFileName(port)),
		staleTimeout: DefaultStaleTimeout,
	}, nil
}

// lockFileName flattens a port path like /dev/ttyACM0 or COM7 into a
// filesystem-safe name.
func lockFileName(port string) string {
	sanitized := strings.NewReplacer("/", "-", "\\", "-", ":", "-").Replace(port)
	sanitized = strings.Trim(sanitized, "-")
	if sanitized == "" {
		sanitized = "default"
	}
	return "port-" + strings.ToLower(sanitized) + ".lock"
}

// SetStaleTimeout sets the abandonment window for unreachable holders
func (l *PortLock) SetStaleTimeout(d time.Duration) {
	l.staleTimeout = d
}

// Acquire attempts to take the port lock. Acquiring a lock this
// instance already holds is a no-op.
func (l *PortLock) Acquire() error {
	if l.info != nil {
		existing, err := l.read()
		if err == nil && l.heldByThisInstance(existing) {
			return nil
		}
	}

	if existing, err := l.read(); err == nil {
		if !l.isStale(existing) {
			return &HeldError{Holder: existing, Port: l.port}
		}
		if err := os.Remove(l.lockPath); err != nil {
			return fmt.Errorf("failed to remove stale lock: %w", err)
		}
	}

	hostname, _ := os.Hostname()
	info := &Info{
		PID:       os.Getpid(),
		Hostname:  hostname,
		StartTime: time.Now(),
		Port:      l.port,
	}

	// O_EXCL makes creation atomic against a racing second run.
	file, err := os.OpenFile(l.lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		if os.IsExist(err) {
			existing, readErr := l.read()
			if readErr != nil {
				return fmt.Errorf("lock acquisition race: %w", err)
			}
			return &HeldError{Holder: existing, Port: l.port}
		}
		return fmt.Errorf("failed to create lock file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(info); err != nil {
		os.Remove(l.lockPath)
		return fmt.Errorf("failed to write lock info: %w", err)
	}

	l.info = info
	return nil
}

// Release releases the lock if this instance holds it
func (l *PortLock) Release() error {
	if l.info == nil {
		return nil
	}

	existing, err := l.read()
	if err != nil {
		l.info = nil
		return nil
	}

	if !l.heldByThisInstance(existing) {
		l.info = nil
		return fmt.Errorf("lock on %s was taken over by another process", l.port)
	}

	if err := os.Remove(l.lockPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove lock file: %w", err)
	}

	l.info = nil
	return nil
}

// IsLocked reports whether a live lock exists for the port
func (l *PortLock) IsLocked() bool {
	info, err := l.read()
	if err != nil {
		return false
	}
	return !l.isStale(info)
}

// Holder returns the current lock holder, if any
func (l *PortLock) Holder() (*Info, error) {
	info, err := l.read()
	if err != nil {
		return nil, err
	}
	if l.isStale(info) {
		return nil, fmt.Errorf("lock is stale")
	}
	return info, nil
}

// ForceRelease removes the lock file regardless of holder.
// Use only when the holder is known to be dead.
func (l *PortLock) ForceRelease() error {
	if err := os.Remove(l.lockPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to force remove lock: %w", err)
	}
	l.info = nil
	return nil
}

func (l *PortLock) read() (*Info, error) {
	data, err := os.ReadFile(l.lockPath)
	if err != nil {
		return nil, err
	}

	var info Info
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("invalid lock file format: %w", err)
	}
	return &info, nil
}

// isStale reports whether the holder is gone. On this host the holder
// process is checked directly; a holder on another host (shared config
// dir) falls back to the timeout.
func (l *PortLock) isStale(info *Info) bool {
	hostname, _ := os.Hostname()

	if info.Hostname == hostname {
		return !processExists(info.PID)
	}

	return time.Since(info.StartTime) > l.staleTimeout
}

func (l *PortLock) heldByThisInstance(info *Info) bool {
	if l.info == nil {
		return false
	}
	hostname, _ := os.Hostname()
	return info.PID == os.Getpid() &&
		info.Hostname == hostname &&
		l.info.StartTime.Equal(info.StartTime)
}

// HeldError reports that another process holds the port
type HeldError struct {
	Holder *Info
	Port   string
}

func (e *HeldError) Error() string {
	if e.Holder != nil {
		return fmt.Sprintf("port %s is in use by PID %d on %s since %s",
			e.Port, e.Holder.PID, e.Holder.Hostname,
			e.Holder.StartTime.Format(time.RFC3339))
	}
	return fmt.Sprintf("port %s is in use", e.Port)
}

// IsHeldError checks if an error is a HeldError
func IsHeldError(err error) bool {
	_, ok := err.(*HeldError)
	return ok
}
