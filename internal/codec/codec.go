// Package codec frames commands for the device console and decodes the
// text responses that come back. The console is half-duplex: one command,
// one response window, nothing else in flight.
package codec

import (
	"fmt"
	"strings"
	"time"

	"github.com/scalefx/hubsync/internal/channel"
	"github.com/scalefx/hubsync/internal/domain"
)

// WaitPolicy describes how long to wait for a response and how to decide
// that no more data is coming
type WaitPolicy struct {
	// Initial is slept before the first read, giving the device time to
	// start answering
	Initial time.Duration

	// Total bounds the whole response window
	Total time.Duration

	// IdleGap ends the window once no bytes arrive for this long after
	// at least one byte was received
	IdleGap time.Duration
}

// WaitFixed waits d, then drains whatever arrived until a short idle gap.
// Mirrors the plain command round trip the device console expects.
func WaitFixed(d time.Duration) WaitPolicy {
	return WaitPolicy{Initial: d, Total: d + 2*time.Second, IdleGap: 100 * time.Millisecond}
}

// WaitIdle polls for up to total, ending early once input goes quiet for gap
func WaitIdle(total, gap time.Duration) WaitPolicy {
	return WaitPolicy{Total: total, IdleGap: gap}
}

// Codec issues commands on a Channel and accumulates their responses
type Codec struct {
	ch   channel.Channel
	poll time.Duration
}

// New creates a codec bound to the given channel
func New(ch channel.Channel) *Codec {
	return &Codec{ch: ch, poll: 10 * time.Millisecond}
}

// SetPollInterval overrides the sleep between read attempts; used by tests
func (c *Codec) SetPollInterval(d time.Duration) {
	c.poll = d
}

// Channel exposes the underlying channel for payload phases that bypass
// line-oriented decoding
func (c *Codec) Channel() channel.Channel {
	return c.ch
}

// Drain clears stale buffered input. Every command send starts with this
// so a prior exchange's trailing output cannot bleed into the response.
func (c *Codec) Drain() error {
	if err := c.ch.ResetInputBuffer(); err != nil {
		return fmt.Errorf("%w: drain: %v", domain.ErrChannelFailure, err)
	}
	return nil
}

// Send writes cmd as a CRLF-terminated ASCII line and accumulates the
// response per policy. A response with zero bytes is returned as an empty
// Response, not an error; only channel faults are fatal.
func (c *Codec) Send(cmd string, policy WaitPolicy) (Response, error) {
	if err := c.Drain(); err != nil {
		return Response{}, err
	}

	if _, err := c.ch.Write([]byte(cmd + "\r\n")); err != nil {
		return Response{}, fmt.Errorf("%w: write %q: %v", domain.ErrChannelFailure, cmd, err)
	}

	if policy.Initial > 0 {
		time.Sleep(policy.Initial)
	}

	raw, err := c.collect(policy)
	if err != nil {
		return Response{}, err
	}

	return Response{cmd: cmd, raw: raw}, nil
}

// collect reads until the idle gap or total window elapses
func (c *Codec) collect(policy WaitPolicy) ([]byte, error) {
	var (
		raw      []byte
		buf      = make([]byte, 4096)
		deadline = time.Now().Add(policy.Total)
		lastData = time.Now()
	)

	if err := c.ch.SetReadTimeout(c.poll); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrChannelFailure, err)
	}

	for time.Now().Before(deadline) {
		n, err := c.ch.Read(buf)
		if err != nil {
			return nil, fmt.Errorf("%w: read: %v", domain.ErrChannelFailure, err)
		}
		if n > 0 {
			raw = append(raw, buf[:n]...)
			lastData = time.Now()
			continue
		}

		if len(raw) > 0 && time.Since(lastData) >= policy.IdleGap {
			break
		}
		time.Sleep(c.poll)
	}

	return raw, nil
}

// Response is the accumulated text read after one command
type Response struct {
	cmd string
	raw []byte
}

// Empty returns true if the device sent nothing before the window closed
func (r Response) Empty() bool {
	return len(r.raw) == 0
}

// Raw returns the undecoded response bytes
func (r Response) Raw() []byte {
	return r.raw
}

// Text returns the trimmed response with the command echo line removed
func (r Response) Text() string {
	return strings.Join(r.Lines(), "\n")
}

// Lines splits the response into trimmed lines, dropping the echo of the
// sent command and bare prompt lines
func (r Response) Lines() []string {
	rawLines := strings.Split(string(r.raw), "\n")
	lines := make([]string, 0, len(rawLines))

	for i, line := range rawLines {
		line = strings.TrimRight(line, "\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if i == 0 && r.isEcho(trimmed) {
			continue
		}
		if strings.HasPrefix(trimmed, ">") && strings.TrimSpace(strings.TrimPrefix(trimmed, ">")) == r.cmd {
			continue
		}
		lines = append(lines, trimmed)
	}

	return lines
}

// isEcho reports whether the first response line is the device echoing the
// command, with or without its prompt marker
func (r Response) isEcho(line string) bool {
	if r.cmd == "" {
		return false
	}
	stripped := strings.TrimSpace(strings.TrimPrefix(line, ">"))
	return stripped == r.cmd || strings.HasPrefix(line, r.cmd)
}
