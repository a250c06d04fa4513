package domain

// Direction indicates which way a transfer moves bytes
type Direction int

const (
	// DirUpload moves a local file to the device
	DirUpload Direction = iota
	// DirDownload moves a remote file to the local filesystem
	DirDownload
)

// AckMode is the acknowledgement discipline governing how the sender paces
// chunked data against device confirmations. Which mode applies is decided
// by the firmware variant being addressed, not negotiated on the wire.
type AckMode string

const (
	// AckNone streams all bytes and waits only for a final terminal token.
	// Used by firmware that buffers the whole payload in RAM before writing.
	AckNone AckMode = "none"

	// AckToken waits for a NEXT:<n> token after every chunk, with a long
	// per-chunk timeout since a chunk may trigger a slow flash erase/write.
	AckToken AckMode = "token"

	// AckChunk waits for exactly one OK or DONE line per chunk
	AckChunk AckMode = "chunk"
)

// IsValid checks if the ack mode is a known value
func (m AckMode) IsValid() bool {
	switch m {
	case AckNone, AckToken, AckChunk:
		return true
	}
	return false
}

// TransferSpec describes a single file transfer. Created per transfer,
// consumed once, immutable while the transfer runs.
type TransferSpec struct {
	Direction  Direction
	LocalPath  string
	RemotePath string

	// SizeBytes is the local file size for uploads; filled from the
	// device's SIZE line for downloads
	SizeBytes int64
}

// Outcome is the terminal state of a transfer
type Outcome int

const (
	// OutcomeSuccess means the device confirmed completion
	OutcomeSuccess Outcome = iota

	// OutcomeUnclear means the transfer finished sending but no terminal
	// token arrived before timeout. Distinct from both success and failure.
	OutcomeUnclear
)

// String returns the string representation of the outcome
func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeUnclear:
		return "unclear"
	default:
		return "unknown"
	}
}

// TransferResult reports what a completed transfer actually did
type TransferResult struct {
	// BytesMoved is the number of payload bytes sent or received
	BytesMoved int64

	// Outcome is the terminal state
	Outcome Outcome

	// Detail carries the device's final status line, if any
	Detail string
}
