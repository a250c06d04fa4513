package testutil

import (
	"bytes"
	"fmt"
	"io"
	"sync"
	"time"
)

// DeviceSim implements channel.Channel in memory for protocol tests.
//
// The engine under test is single-threaded, so the write handler runs
// synchronously inside Write and queues the device's reply bytes for
// subsequent Read calls. An empty queue reads as (0, nil), matching the
// expired-timeout contract of the real serial channel.
type DeviceSim struct {
	mu sync.Mutex

	// OnWrite is invoked with every host write. It plays the device's
	// side of the protocol by calling Say or Emit.
	OnWrite func(d *DeviceSim, p []byte)

	out    bytes.Buffer
	closed bool
}

// Say queues a CRLF-terminated response line
func (d *DeviceSim) Say(format string, args ...any) {
	d.out.WriteString(fmt.Sprintf(format, args...))
	d.out.WriteString("\r\n")
}

// Emit queues raw bytes without a terminator
func (d *DeviceSim) Emit(p []byte) {
	d.out.Write(p)
}

// Read pops queued device output; empty queue behaves as a timed-out read
func (d *DeviceSim) Read(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return 0, io.ErrClosedPipe
	}
	if d.out.Len() == 0 {
		return 0, nil
	}
	return d.out.Read(p)
}

// Write hands host bytes to the scripted device
func (d *DeviceSim) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return 0, io.ErrClosedPipe
	}
	if d.OnWrite != nil {
		d.OnWrite(d, p)
	}
	return len(p), nil
}

// SetReadTimeout is a no-op; the simulator never blocks
func (d *DeviceSim) SetReadTimeout(time.Duration) error {
	return nil
}

// ResetInputBuffer discards queued device output
func (d *DeviceSim) ResetInputBuffer() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.out.Reset()
	return nil
}

// Close marks the channel failed; subsequent I/O errors
func (d *DeviceSim) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

// Pending returns the unread device output, for assertions
func (d *DeviceSim) Pending() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]byte(nil), d.out.Bytes()...)
}
