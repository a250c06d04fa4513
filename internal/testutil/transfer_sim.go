package testutil

import (
	"bytes"
	"strconv"
	"strings"
)

// Ack disciplines understood by the upload simulator. String values match
// domain.AckMode; testutil avoids importing domain to stay dependency-free.
const (
	SimAckNone  = "none"
	SimAckToken = "token"
	SimAckChunk = "chunk"
)

// UploadSim scripts the device side of an upload. It parses the
// "<verb> upload <path> <size>" command, answers READY, acknowledges
// payload per the configured discipline, and records received bytes.
type UploadSim struct {
	Mode string

	// FailReady makes the handshake answer ERROR instead of READY
	FailReady bool

	// Mute makes the device never answer the handshake
	Mute bool

	// EarlySuccessAt, when > 0 in token mode, emits the terminal SUCCESS
	// once at least this many bytes arrived, instead of a NEXT token.
	// Models device-side buffering finishing before the sender does.
	EarlySuccessAt int64

	// XOFFAt, when > 0, injects an XOFF byte followed by XON once this
	// many bytes arrived, exercising the sender's flow-control path
	XOFFAt int64

	// Received accumulates the payload for round-trip assertions
	Received bytes.Buffer

	// Path and Size are filled from the parsed command
	Path string
	Size int64

	cmdBuf    bytes.Buffer
	streaming bool
	done      bool
	flowSent  bool
}

// NewUploadDevice wires an UploadSim to a fresh DeviceSim
func NewUploadDevice(mode string) (*DeviceSim, *UploadSim) {
	sim := &UploadSim{Mode: mode}
	dev := &DeviceSim{OnWrite: sim.handle}
	return dev, sim
}

func (s *UploadSim) handle(d *DeviceSim, p []byte) {
	if !s.streaming {
		s.cmdBuf.Write(p)
		line, ok := takeLine(&s.cmdBuf)
		if !ok {
			return
		}
		s.acceptCommand(d, line)
		return
	}
	if s.done {
		return
	}

	s.Received.Write(p)
	got := int64(s.Received.Len())

	if s.XOFFAt > 0 && got >= s.XOFFAt && !s.flowSent {
		s.flowSent = true
		d.Emit([]byte{0x13, 0x11})
	}

	switch s.Mode {
	case SimAckToken:
		if s.EarlySuccessAt > 0 && got >= s.EarlySuccessAt {
			s.finish(d)
			return
		}
		if got >= s.Size {
			s.finish(d)
			return
		}
		d.Say("NEXT:%d", got)

	case SimAckChunk:
		if got >= s.Size {
			s.done = true
			d.Say("DONE")
			return
		}
		d.Say("OK")

	default: // SimAckNone
		if got >= s.Size {
			s.finish(d)
		}
	}
}

func (s *UploadSim) acceptCommand(d *DeviceSim, line string) {
	fields := strings.Fields(line)
	if len(fields) < 4 || fields[1] != "upload" {
		d.Say("ERROR: bad command")
		return
	}
	s.Path = fields[2]
	s.Size, _ = strconv.ParseInt(fields[3], 10, 64)

	if s.Mute {
		return
	}
	if s.FailReady {
		d.Say("ERROR: storage not available")
		return
	}

	d.Say("READY")
	s.streaming = true

	if s.Size == 0 {
		s.finish(d)
	}
}

func (s *UploadSim) finish(d *DeviceSim) {
	s.done = true
	d.Say("SUCCESS: wrote %d bytes to %s", s.Received.Len(), s.Path)
}

// DownloadSim scripts the device side of a download: SIZE/READY handshake,
// then payload interleaved with marker lines after the START confirmation.
type DownloadSim struct {
	// Content is the remote file payload to serve
	Content []byte

	// Missing makes the handshake answer ERROR (file not found)
	Missing bool

	// WithProgress interleaves a PROGRESS marker halfway through the payload
	WithProgress bool

	cmdBuf  bytes.Buffer
	started bool
}

// NewDownloadDevice wires a DownloadSim to a fresh DeviceSim
func NewDownloadDevice(content []byte) (*DeviceSim, *DownloadSim) {
	sim := &DownloadSim{Content: content}
	dev := &DeviceSim{OnWrite: sim.handle}
	return dev, sim
}

func (s *DownloadSim) handle(d *DeviceSim, p []byte) {
	s.cmdBuf.Write(p)
	line, ok := takeLine(&s.cmdBuf)
	if !ok {
		return
	}

	if !s.started {
		if s.Missing {
			d.Say("ERROR: file not found")
			return
		}
		d.Say("SIZE: %d", len(s.Content))
		d.Say("READY")
		s.started = true
		return
	}

	if strings.TrimSpace(line) != "START" {
		d.Say("ERROR: expected START")
		return
	}

	if s.WithProgress && len(s.Content) > 1 {
		half := len(s.Content) / 2
		d.Emit(s.Content[:half])
		d.Emit([]byte("\nPROGRESS: 50%\n"))
		d.Emit(s.Content[half:])
	} else {
		d.Emit(s.Content)
	}
	d.Emit([]byte("\nSUCCESS: read complete\n"))
}

// takeLine pops one newline-terminated line from buf, if present
func takeLine(buf *bytes.Buffer) (string, bool) {
	data := buf.Bytes()
	idx := bytes.IndexByte(data, '\n')
	if idx < 0 {
		return "", false
	}
	line := strings.TrimRight(string(data[:idx]), "\r")
	buf.Next(idx + 1)
	return line, true
}
