// Package transfer drives the chunked upload and download protocols on top
// of a raw device channel: command issuance, readiness handshake, payload
// movement, acknowledgement discipline, and completion detection.
package transfer

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/scalefx/hubsync/internal/channel"
	"github.com/scalefx/hubsync/internal/domain"
	"github.com/scalefx/hubsync/internal/logger"
)

// Software flow control bytes the device interleaves with text output
// while its write buffer fills
const (
	xoff = 0x13
	xon  = 0x11
)

// Options are the protocol parameters for one engine. Chunk size and ack
// mode must match the firmware variant being addressed; a mismatched chunk
// size desyncs the protocol.
type Options struct {
	// Verb is the storage namespace prefix ("sd" or "flash")
	Verb string

	// AckMode is the per-chunk acknowledgement discipline
	AckMode domain.AckMode

	// ChunkSize is the payload bytes per write (64, 128 or 512 observed)
	ChunkSize int

	// ReadyTimeout bounds the READY/SIZE handshake
	ReadyTimeout time.Duration

	// ChunkTimeout bounds each per-chunk ack wait; long, because a chunk
	// can trigger a flash erase on the device
	ChunkTimeout time.Duration

	// CompleteTimeout bounds the final terminal-token wait
	CompleteTimeout time.Duration

	// PollInterval is the sleep between read attempts in wait loops
	PollInterval time.Duration

	// InterChunkDelay paces unacknowledged streaming so the device UART
	// buffer is not overwhelmed; applies to AckNone only
	InterChunkDelay time.Duration
}

// DefaultOptions returns the parameters for the SD storage firmware
func DefaultOptions() Options {
	return Options{
		Verb:            "sd",
		AckMode:         domain.AckNone,
		ChunkSize:       512,
		ReadyTimeout:    5 * time.Second,
		ChunkTimeout:    30 * time.Second,
		CompleteTimeout: 10 * time.Second,
		PollInterval:    10 * time.Millisecond,
		InterChunkDelay: 10 * time.Millisecond,
	}
}

// Engine drives transfers over a single channel. Not safe for concurrent
// use: the channel carries one logical exchange at a time.
type Engine struct {
	ch   channel.Channel
	opts Options

	rx      []byte
	paused  bool
	filter  bool
	svcLog  logger.Logger
}

// NewEngine creates an engine with the given options, filling zero fields
// from DefaultOptions
func NewEngine(ch channel.Channel, opts Options) *Engine {
	def := DefaultOptions()
	if opts.Verb == "" {
		opts.Verb = def.Verb
	}
	if opts.AckMode == "" {
		opts.AckMode = def.AckMode
	}
	if opts.ChunkSize == 0 {
		opts.ChunkSize = def.ChunkSize
	}
	if opts.ReadyTimeout == 0 {
		opts.ReadyTimeout = def.ReadyTimeout
	}
	if opts.ChunkTimeout == 0 {
		opts.ChunkTimeout = def.ChunkTimeout
	}
	if opts.CompleteTimeout == 0 {
		opts.CompleteTimeout = def.CompleteTimeout
	}
	if opts.PollInterval == 0 {
		opts.PollInterval = def.PollInterval
	}

	return &Engine{ch: ch, opts: opts, svcLog: logger.Get().With("component", "transfer")}
}

// reset clears engine state and the channel's inbound buffer before a
// new exchange
func (e *Engine) reset(filterFlow bool) error {
	e.rx = e.rx[:0]
	e.paused = false
	e.filter = filterFlow

	if err := e.ch.ResetInputBuffer(); err != nil {
		return fmt.Errorf("%w: reset input: %v", domain.ErrChannelFailure, err)
	}
	return e.ch.SetReadTimeout(e.opts.PollInterval)
}

// pump performs one bounded read, appending to the receive buffer.
// With flow filtering enabled, XOFF/XON control bytes are consumed and
// tracked instead of buffered; they arrive interleaved with text and must
// be honored on every read opportunity.
func (e *Engine) pump() (bool, error) {
	buf := make([]byte, 4096)
	n, err := e.ch.Read(buf)
	if err != nil {
		return false, fmt.Errorf("%w: read: %v", domain.ErrChannelFailure, err)
	}
	if n == 0 {
		return false, nil
	}

	if !e.filter {
		e.rx = append(e.rx, buf[:n]...)
		return true, nil
	}

	for _, b := range buf[:n] {
		switch b {
		case xoff:
			e.paused = true
			e.svcLog.Debug("flow control: XOFF, pausing writes")
		case xon:
			e.paused = false
			e.svcLog.Debug("flow control: XON, resuming writes")
		default:
			e.rx = append(e.rx, b)
		}
	}
	return true, nil
}

// popLine carves the next non-empty line out of the receive buffer
func (e *Engine) popLine() (string, bool) {
	for {
		idx := bytes.IndexByte(e.rx, '\n')
		if idx < 0 {
			return "", false
		}
		line := strings.TrimSpace(strings.TrimRight(string(e.rx[:idx]), "\r"))
		e.rx = e.rx[idx+1:]
		if line != "" {
			return line, true
		}
	}
}

// nextLine waits for the next complete line until the deadline.
// ok=false means the deadline passed with no line.
func (e *Engine) nextLine(deadline time.Time) (string, bool, error) {
	for {
		if line, ok := e.popLine(); ok {
			return line, true, nil
		}
		if !time.Now().Before(deadline) {
			return "", false, nil
		}

		got, err := e.pump()
		if err != nil {
			return "", false, err
		}
		if !got {
			time.Sleep(e.opts.PollInterval)
		}
	}
}

// takeBuffered hands back everything in the receive buffer; used when the
// protocol switches from line waits to raw payload
func (e *Engine) takeBuffered() []byte {
	out := e.rx
	e.rx = nil
	return out
}

// awaitFlowResume blocks while the device holds XOFF, honoring deadline
func (e *Engine) awaitFlowResume(deadline time.Time) error {
	for e.paused {
		if !time.Now().Before(deadline) {
			return fmt.Errorf("%w: flow control stalled (no XON)", domain.ErrNotReady)
		}
		got, err := e.pump()
		if err != nil {
			return err
		}
		if !got {
			time.Sleep(e.opts.PollInterval)
		}
	}
	return nil
}

// isTerminal reports whether a line ends a transfer successfully
func isTerminal(line string) bool {
	return strings.Contains(line, "SUCCESS") || line == "DONE"
}

// isError reports whether a line is a device-reported failure
func isError(line string) bool {
	return strings.Contains(line, "ERROR")
}
