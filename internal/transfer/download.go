package transfer

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/scalefx/hubsync/internal/domain"
)

// Download retrieves a remote file.
//
// Handshake: "<verb> download <remote>" answered by "SIZE: <n>" then
// "READY"; the host confirms with "START" and reads until exactly the
// announced byte count is on disk. The stream interleaves binary payload
// with PROGRESS:/SUCCESS: marker lines; the newline demux is inherently
// fragile when binary data itself contains a newline followed by a marker
// string, a known limitation of the device protocol.
func (e *Engine) Download(spec domain.TransferSpec) (domain.TransferResult, error) {
	if err := e.reset(false); err != nil {
		return domain.TransferResult{}, err
	}

	cmd := fmt.Sprintf("%s download %s\r\n", e.opts.Verb, spec.RemotePath)
	if _, err := e.ch.Write([]byte(cmd)); err != nil {
		return domain.TransferResult{}, fmt.Errorf("%w: write command: %v", domain.ErrChannelFailure, err)
	}

	size, err := e.awaitSizeAndReady()
	if err != nil {
		return domain.TransferResult{}, err
	}
	e.svcLog.Debug("download started", "remote", spec.RemotePath, "size", size)

	if _, err := e.ch.Write([]byte("START\n")); err != nil {
		return domain.TransferResult{}, fmt.Errorf("%w: write START: %v", domain.ErrChannelFailure, err)
	}

	file, err := os.Create(spec.LocalPath)
	if err != nil {
		return domain.TransferResult{}, fmt.Errorf("%w: create %s: %v", domain.ErrPlanningError, spec.LocalPath, err)
	}
	defer file.Close()

	written, err := e.receivePayload(file, size)
	if err != nil {
		return domain.TransferResult{BytesMoved: written}, err
	}

	e.drainStatusTail()
	e.svcLog.Debug("download complete", "remote", spec.RemotePath, "bytes", written)
	return domain.TransferResult{BytesMoved: written, Outcome: domain.OutcomeSuccess}, nil
}

// awaitSizeAndReady parses the SIZE line and waits for READY
func (e *Engine) awaitSizeAndReady() (int64, error) {
	var (
		size     int64 = -1
		deadline       = time.Now().Add(e.opts.ReadyTimeout)
	)

	for {
		line, ok, err := e.nextLine(deadline)
		if err != nil {
			return 0, err
		}
		if !ok {
			return 0, fmt.Errorf("%w: no SIZE/READY within %s", domain.ErrNotReady, e.opts.ReadyTimeout)
		}

		switch {
		case strings.HasPrefix(line, "SIZE:"):
			v, perr := strconv.ParseInt(strings.TrimSpace(strings.TrimPrefix(line, "SIZE:")), 10, 64)
			if perr != nil {
				return 0, fmt.Errorf("%w: bad SIZE line %q", domain.ErrDesync, line)
			}
			size = v
		case strings.Contains(line, "READY"):
			if size < 0 {
				return 0, fmt.Errorf("%w: READY before SIZE", domain.ErrDesync)
			}
			return size, nil
		case isError(line):
			return 0, fmt.Errorf("%w: %s", domain.ErrDeviceError, line)
		default:
			e.svcLog.Debug("device", "line", line)
		}
	}
}

// receivePayload writes exactly size payload bytes to file, demuxing
// marker lines out of the stream. The inactivity deadline refreshes on
// every received byte.
func (e *Engine) receivePayload(file *os.File, size int64) (int64, error) {
	var written int64
	deadline := time.Now().Add(e.opts.ChunkTimeout)

	// Bytes already buffered during the handshake belong to the payload
	pending := e.takeBuffered()

	for written < size {
		if len(pending) > 0 {
			n, err := e.sinkChunk(file, pending, size-written)
			if err != nil {
				return written, err
			}
			written += n
			pending = nil
			deadline = time.Now().Add(e.opts.ChunkTimeout)
			continue
		}

		if !time.Now().Before(deadline) {
			return written, fmt.Errorf("%w: stream stalled at %d/%d bytes", domain.ErrNotReady, written, size)
		}

		got, err := e.pump()
		if err != nil {
			return written, err
		}
		if got {
			pending = e.takeBuffered()
		} else {
			time.Sleep(e.opts.PollInterval)
		}
	}

	return written, nil
}

// sinkChunk demuxes one received buffer and writes its payload portion,
// capped at the remaining expected byte count
func (e *Engine) sinkChunk(file *os.File, chunk []byte, remaining int64) (int64, error) {
	payload := e.demux(chunk)
	if int64(len(payload)) > remaining {
		payload = payload[:remaining]
	}
	if len(payload) == 0 {
		return 0, nil
	}
	if _, err := file.Write(payload); err != nil {
		return 0, fmt.Errorf("%w: write local file: %v", domain.ErrPlanningError, err)
	}
	return int64(len(payload)), nil
}

// demux splits a received buffer on newline bytes and removes marker
// lines. A newline preceding a marker segment is framing and is dropped
// with it; a newline between two payload segments is payload and is kept.
// The trailing segment with no following newline is always payload.
func (e *Engine) demux(chunk []byte) []byte {
	if !bytes.ContainsRune(chunk, '\n') {
		return chunk
	}

	parts := bytes.Split(chunk, []byte{'\n'})
	var (
		out      []byte
		prevKept bool
	)

	for i, part := range parts {
		if isMarker(part) {
			e.svcLog.Debug("device", "line", strings.TrimSpace(string(part)))
			prevKept = false
			continue
		}
		if i > 0 && prevKept {
			out = append(out, '\n')
		}
		out = append(out, part...)
		prevKept = true
	}

	return out
}

// isMarker reports whether a demuxed segment is a textual status line
func isMarker(part []byte) bool {
	return bytes.Contains(part, []byte("PROGRESS:")) || bytes.Contains(part, []byte("SUCCESS:"))
}

// drainStatusTail reads and logs any trailing status lines after the
// payload completed
func (e *Engine) drainStatusTail() {
	deadline := time.Now().Add(200 * time.Millisecond)
	for {
		got, err := e.pump()
		if err != nil {
			return
		}
		if !got {
			if !time.Now().Before(deadline) {
				break
			}
			time.Sleep(e.opts.PollInterval)
			continue
		}
		deadline = time.Now().Add(200 * time.Millisecond)
	}

	for {
		line, ok := e.popLine()
		if !ok {
			break
		}
		e.svcLog.Debug("device", "line", line)
	}
}
