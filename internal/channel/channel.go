// Package channel provides the duplex byte stream connecting the host to
// the device console, plus port discovery. Everything above this package
// treats the connection as an abstract Channel.
package channel

import (
	"io"
	"time"
)

// Channel is a duplex byte stream with a settable read timeout.
//
// Contract: Read blocks until at least one byte is available or the read
// timeout expires; an expired timeout returns (0, nil), not an error. A
// returned error means the channel itself has failed and the run must stop.
type Channel interface {
	io.ReadWriteCloser

	// SetReadTimeout bounds every subsequent Read call
	SetReadTimeout(d time.Duration) error

	// ResetInputBuffer discards bytes received but not yet read, so a
	// prior exchange's trailing output cannot bleed into the next one
	ResetInputBuffer() error
}
