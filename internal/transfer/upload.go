package transfer

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/scalefx/hubsync/internal/domain"
)

// Upload streams a local file to the device per the configured ack mode.
//
// Handshake: "<verb> upload <remote> <size>", then READY within
// ReadyTimeout. Payload moves in ChunkSize writes; after each chunk the
// ack discipline decides whether and how long to wait. A terminal success
// token arriving before the host believes all chunks are sent is still
// success: the device buffers and may finish first.
func (e *Engine) Upload(spec domain.TransferSpec) (domain.TransferResult, error) {
	file, err := os.Open(spec.LocalPath)
	if err != nil {
		return domain.TransferResult{}, fmt.Errorf("%w: open %s: %v", domain.ErrPlanningError, spec.LocalPath, err)
	}
	defer file.Close()

	if err := e.reset(true); err != nil {
		return domain.TransferResult{}, err
	}

	cmd := fmt.Sprintf("%s upload %s %d\r\n", e.opts.Verb, spec.RemotePath, spec.SizeBytes)
	if _, err := e.ch.Write([]byte(cmd)); err != nil {
		return domain.TransferResult{}, fmt.Errorf("%w: write command: %v", domain.ErrChannelFailure, err)
	}
	e.svcLog.Debug("upload started", "remote", spec.RemotePath, "size", spec.SizeBytes, "mode", string(e.opts.AckMode))

	if err := e.awaitReady(); err != nil {
		return domain.TransferResult{}, err
	}

	var (
		sent     int64
		finished bool
		detail   string
		buf      = make([]byte, e.opts.ChunkSize)
	)

	for sent < spec.SizeBytes && !finished {
		deadline := time.Now().Add(e.opts.ChunkTimeout)
		if err := e.awaitFlowResume(deadline); err != nil {
			return domain.TransferResult{BytesMoved: sent}, err
		}

		n, err := file.Read(buf)
		if n == 0 {
			if err != nil {
				return domain.TransferResult{BytesMoved: sent}, fmt.Errorf("%w: read %s: %v", domain.ErrPlanningError, spec.LocalPath, err)
			}
			break
		}

		if _, err := e.ch.Write(buf[:n]); err != nil {
			return domain.TransferResult{BytesMoved: sent}, fmt.Errorf("%w: write chunk: %v", domain.ErrChannelFailure, err)
		}
		sent += int64(n)

		finished, detail, err = e.ackChunk(sent)
		if err != nil {
			return domain.TransferResult{BytesMoved: sent}, err
		}
	}

	if finished {
		return domain.TransferResult{BytesMoved: sent, Outcome: domain.OutcomeSuccess, Detail: detail}, nil
	}
	return e.awaitCompletion(sent)
}

// awaitReady waits for the READY handshake line
func (e *Engine) awaitReady() error {
	deadline := time.Now().Add(e.opts.ReadyTimeout)
	for {
		line, ok, err := e.nextLine(deadline)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: no READY within %s", domain.ErrNotReady, e.opts.ReadyTimeout)
		}
		if isError(line) {
			return fmt.Errorf("%w: %s", domain.ErrDeviceError, line)
		}
		if strings.Contains(line, "READY") {
			return nil
		}
		// informational chatter before READY is ignored
	}
}

// ackChunk applies the configured ack discipline after one chunk.
// finished=true means the device declared the transfer complete early.
func (e *Engine) ackChunk(sent int64) (finished bool, detail string, err error) {
	switch e.opts.AckMode {
	case domain.AckToken:
		return e.ackToken(sent)
	case domain.AckChunk:
		return e.ackStrict(sent)
	default:
		return e.ackStream()
	}
}

// ackStream is the AckNone discipline: no wait, but every read opportunity
// still services flow control and watches for an early ERROR
func (e *Engine) ackStream() (bool, string, error) {
	if _, err := e.pump(); err != nil {
		return false, "", err
	}
	for {
		line, ok := e.popLine()
		if !ok {
			break
		}
		if isError(line) {
			return false, "", fmt.Errorf("%w: %s", domain.ErrDeviceError, line)
		}
		if isTerminal(line) {
			return true, line, nil
		}
		e.svcLog.Debug("device", "line", line)
	}

	if e.opts.InterChunkDelay > 0 {
		time.Sleep(e.opts.InterChunkDelay)
	}
	return false, "", nil
}

// ackToken is the AckToken discipline: wait for NEXT:<n> or a terminal
// token, tolerating slow flash erase cycles
func (e *Engine) ackToken(sent int64) (bool, string, error) {
	deadline := time.Now().Add(e.opts.ChunkTimeout)
	for {
		line, ok, err := e.nextLine(deadline)
		if err != nil {
			return false, "", err
		}
		if !ok {
			return false, "", fmt.Errorf("%w: no ack after %d bytes", domain.ErrNotReady, sent)
		}

		switch {
		case strings.HasPrefix(line, "NEXT:"):
			return false, "", nil
		case isTerminal(line):
			// Device finished before we sent everything it buffered.
			// Success, not desync; remaining data must not be sent.
			return true, line, nil
		case isError(line):
			return false, "", fmt.Errorf("%w: %s", domain.ErrDeviceError, line)
		default:
			e.svcLog.Debug("device", "line", line)
		}
	}
}

// ackStrict is the AckChunk discipline: exactly one OK or DONE per chunk,
// anything else is a protocol violation
func (e *Engine) ackStrict(sent int64) (bool, string, error) {
	deadline := time.Now().Add(e.opts.ChunkTimeout)
	line, ok, err := e.nextLine(deadline)
	if err != nil {
		return false, "", err
	}
	if !ok {
		return false, "", fmt.Errorf("%w: no ack after %d bytes", domain.ErrNotReady, sent)
	}

	switch line {
	case "OK":
		return false, "", nil
	case "DONE":
		return true, line, nil
	default:
		if isError(line) {
			return false, "", fmt.Errorf("%w: %s", domain.ErrDeviceError, line)
		}
		return false, "", fmt.Errorf("%w: expected OK or DONE, got %q", domain.ErrDesync, line)
	}
}

// awaitCompletion waits for the final terminal token after the last chunk.
// Timing out with neither success nor error is OutcomeUnclear: a distinct
// state that callers must never fold into success or hard failure.
func (e *Engine) awaitCompletion(sent int64) (domain.TransferResult, error) {
	deadline := time.Now().Add(e.opts.CompleteTimeout)
	for {
		line, ok, err := e.nextLine(deadline)
		if err != nil {
			return domain.TransferResult{BytesMoved: sent}, err
		}
		if !ok {
			e.svcLog.Warn("transfer status unclear", "sent", sent)
			return domain.TransferResult{BytesMoved: sent, Outcome: domain.OutcomeUnclear},
				fmt.Errorf("%w: no terminal token within %s", domain.ErrStatusUnclear, e.opts.CompleteTimeout)
		}
		if isTerminal(line) {
			return domain.TransferResult{BytesMoved: sent, Outcome: domain.OutcomeSuccess, Detail: line}, nil
		}
		if isError(line) {
			return domain.TransferResult{BytesMoved: sent}, fmt.Errorf("%w: %s", domain.ErrDeviceError, line)
		}
		e.svcLog.Debug("device", "line", line)
	}
}
