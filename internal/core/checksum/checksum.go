// Package checksum computes streaming content hashes for transfer
// verification. MD5 is the default: the check guards against transfer
// corruption, not adversaries, and the embedded side uses MD5 too.
package checksum

import (
	"context"
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
)

// Algorithm selects the hashing algorithm
type Algorithm string

const (
	// MD5 matches the device firmware's transfer checksum
	MD5 Algorithm = "md5"
	// SHA256 for callers that want a stronger digest
	SHA256 Algorithm = "sha256"
)

// Options configures the calculator
type Options struct {
	// MaxSize: files larger than this are refused (0 = unlimited)
	MaxSize int64

	// BufferSize: streaming read buffer size
	BufferSize int
}

// DefaultOptions returns options sized for device media files
func DefaultOptions() Options {
	return Options{
		MaxSize:    100 * 1024 * 1024,
		BufferSize: 32 * 1024,
	}
}

// Calculator computes content hashes
type Calculator interface {
	Calculate(ctx context.Context, reader io.Reader, algo Algorithm) (string, error)
	File(ctx context.Context, path string, algo Algorithm) (string, error)
}

// DefaultCalculator implements Calculator with streaming reads
type DefaultCalculator struct {
	opts Options
}

// NewCalculator creates a calculator with the given options
func NewCalculator(opts Options) *DefaultCalculator {
	return &DefaultCalculator{opts: opts}
}

// NewDefaultCalculator creates a calculator with default options
func NewDefaultCalculator() *DefaultCalculator {
	return NewCalculator(DefaultOptions())
}

// Calculate streams the reader through the hasher and returns the
// hex-encoded digest.
func (c *DefaultCalculator) Calculate(ctx context.Context, reader io.Reader, algo Algorithm) (string, error) {
	var h hash.Hash
	switch algo {
	case MD5:
		h = md5.New()
	case SHA256:
		h = sha256.New()
	default:
		return "", fmt.Errorf("unsupported algorithm: %s", algo)
	}

	var limited io.Reader = reader
	if c.opts.MaxSize > 0 {
		limited = io.LimitReader(reader, c.opts.MaxSize+1)
	}

	buffer := make([]byte, c.opts.BufferSize)
	total := int64(0)

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		n, err := limited.Read(buffer)
		if n > 0 {
			total += int64(n)
			if c.opts.MaxSize > 0 && total > c.opts.MaxSize {
				return "", fmt.Errorf("file size exceeds maximum (%d bytes)", c.opts.MaxSize)
			}
			if _, hashErr := h.Write(buffer[:n]); hashErr != nil {
				return "", fmt.Errorf("hash write error: %w", hashErr)
			}
		}

		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read error: %w", err)
		}
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// File hashes a file on disk.
func (c *DefaultCalculator) File(ctx context.Context, path string, algo Algorithm) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	return c.Calculate(ctx, f, algo)
}

// IsSupported reports whether the algorithm is known
func IsSupported(algo Algorithm) bool {
	switch algo {
	case MD5, SHA256:
		return true
	default:
		return false
	}
}
