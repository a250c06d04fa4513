package channel

import (
	"fmt"
	"time"

	"go.bug.st/serial"
)

// DefaultBaudRate matches the device console
const DefaultBaudRate = 115200

// SerialChannel implements Channel over a physical or USB-CDC serial port
type SerialChannel struct {
	port serial.Port
	name string
}

// OpenSerial opens the named port at the given baud rate. A zero baud rate
// selects DefaultBaudRate. The port starts with a 1s read timeout; callers
// adjust per wait state.
func OpenSerial(name string, baud int) (*SerialChannel, error) {
	if baud == 0 {
		baud = DefaultBaudRate
	}

	port, err := serial.Open(name, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}

	if err := port.SetReadTimeout(time.Second); err != nil {
		port.Close()
		return nil, fmt.Errorf("set read timeout on %s: %w", name, err)
	}

	return &SerialChannel{port: port, name: name}, nil
}

// Name returns the port name this channel was opened on
func (c *SerialChannel) Name() string {
	return c.name
}

// Read reads available bytes, returning (0, nil) on timeout
func (c *SerialChannel) Read(p []byte) (int, error) {
	return c.port.Read(p)
}

// Write writes bytes to the port
func (c *SerialChannel) Write(p []byte) (int, error) {
	return c.port.Write(p)
}

// SetReadTimeout bounds subsequent reads
func (c *SerialChannel) SetReadTimeout(d time.Duration) error {
	return c.port.SetReadTimeout(d)
}

// ResetInputBuffer discards any pending inbound bytes
func (c *SerialChannel) ResetInputBuffer() error {
	return c.port.ResetInputBuffer()
}

// Close closes the port
func (c *SerialChannel) Close() error {
	return c.port.Close()
}
