// Package verify checks outcomes after the fact: that the firmware a
// device reports matches what was just flashed, and that a file that
// made a round trip through the device came back byte-identical.
package verify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/scalefx/hubsync/internal/codec"
	"github.com/scalefx/hubsync/internal/core/checksum"
	"github.com/scalefx/hubsync/internal/domain"
)

// Outcome classifies a firmware check. Unverifiable means the device
// answered but its reply carried no readable version, which is not the
// same as a mismatch.
type Outcome int

const (
	Verified Outcome = iota
	Mismatch
	Unverifiable
)

// String returns the outcome name
func (o Outcome) String() string {
	switch o {
	case Verified:
		return "verified"
	case Mismatch:
		return "mismatch"
	case Unverifiable:
		return "unverifiable"
	default:
		return "unknown"
	}
}

// FirmwareResult reports what the device said it is running.
type FirmwareResult struct {
	Outcome       Outcome
	ActualVersion string
	ActualBuild   int
}

// Text-mode fallbacks for firmware that predates the JSON console.
var (
	versionTextRe = regexp.MustCompile(`(?i)(?:Firmware|Version)[:\s]+v?(\d+\.\d+\.\d+)`)
	buildTextRe   = regexp.MustCompile(`(?i)Build[:\s]+(\d+)`)
)

// Firmware asks the device for its version and compares against the
// expected version and build number. A leading "v" on either side of
// the version is ignored.
func Firmware(c *codec.Codec, expectedVersion string, expectedBuild int) (FirmwareResult, error) {
	resp, err := c.Send("version --json", codec.DefaultWait)
	if err != nil {
		return FirmwareResult{Outcome: Unverifiable}, err
	}
	if resp.Empty() {
		return FirmwareResult{Outcome: Unverifiable}, fmt.Errorf("%w: version", domain.ErrNoResponse)
	}

	version, build, ok := parseVersion(resp)
	if !ok {
		return FirmwareResult{Outcome: Unverifiable},
			fmt.Errorf("%w: no version in reply: %s", domain.ErrVerificationMismatch, resp.Text())
	}

	result := FirmwareResult{ActualVersion: version, ActualBuild: build}
	if normalizeVersion(version) == normalizeVersion(expectedVersion) && build == expectedBuild {
		result.Outcome = Verified
		return result, nil
	}

	result.Outcome = Mismatch
	return result, fmt.Errorf("%w: device runs %s build %d, expected %s build %d",
		domain.ErrVerificationMismatch, version, build, expectedVersion, expectedBuild)
}

func parseVersion(resp codec.Response) (version string, build int, ok bool) {
	if obj, err := resp.JSON(); err == nil {
		version = codec.String(obj, "firmware")
		build = codec.Int(obj, "build")
		if version != "" {
			return version, build, true
		}
	}

	text := resp.Text()
	vm := versionTextRe.FindStringSubmatch(text)
	bm := buildTextRe.FindStringSubmatch(text)
	if vm == nil {
		return "", 0, false
	}
	if bm != nil {
		build, _ = strconv.Atoi(bm[1])
	}
	return vm[1], build, true
}

func normalizeVersion(v string) string {
	return strings.TrimPrefix(strings.TrimSpace(v), "v")
}

// IntegrityResult reports a local byte-level comparison of two files.
type IntegrityResult struct {
	SizeA       int64
	SizeB       int64
	HashA       string
	HashB       string
	Identical   bool
	FirstDiffAt int64 // -1 when identical or sizes differ before any byte diff
}

// CompareFiles verifies that two local files are byte-identical,
// reporting sizes, checksums, and the offset of the first differing
// byte. Used after a download round trip.
func CompareFiles(ctx context.Context, pathA, pathB string) (IntegrityResult, error) {
	result := IntegrityResult{FirstDiffAt: -1}

	infoA, err := os.Stat(pathA)
	if err != nil {
		return result, err
	}
	infoB, err := os.Stat(pathB)
	if err != nil {
		return result, err
	}
	result.SizeA = infoA.Size()
	result.SizeB = infoB.Size()

	calc := checksum.NewCalculator(checksum.Options{BufferSize: 32 * 1024})
	if result.HashA, err = calc.File(ctx, pathA, checksum.MD5); err != nil {
		return result, err
	}
	if result.HashB, err = calc.File(ctx, pathB, checksum.MD5); err != nil {
		return result, err
	}

	if result.SizeA == result.SizeB && result.HashA == result.HashB {
		result.Identical = true
		return result, nil
	}

	if offset, err := firstDiff(ctx, pathA, pathB); err == nil {
		result.FirstDiffAt = offset
	}

	return result, fmt.Errorf("%w: %s and %s differ (sizes %d/%d, first diff at %d)",
		domain.ErrVerificationMismatch, pathA, pathB, result.SizeA, result.SizeB, result.FirstDiffAt)
}

// firstDiff returns the offset of the first byte where the files
// diverge, or the shorter length when one file is a prefix of the other.
func firstDiff(ctx context.Context, pathA, pathB string) (int64, error) {
	fa, err := os.Open(pathA)
	if err != nil {
		return -1, err
	}
	defer fa.Close()

	fb, err := os.Open(pathB)
	if err != nil {
		return -1, err
	}
	defer fb.Close()

	const chunk = 64 * 1024
	bufA := make([]byte, chunk)
	bufB := make([]byte, chunk)
	offset := int64(0)

	for {
		select {
		case <-ctx.Done():
			return -1, ctx.Err()
		default:
		}

		na, errA := io.ReadFull(fa, bufA)
		nb, errB := io.ReadFull(fb, bufB)

		n := na
		if nb < n {
			n = nb
		}
		if idx := firstDiffIndex(bufA[:n], bufB[:n]); idx >= 0 {
			return offset + int64(idx), nil
		}
		offset += int64(n)

		if na != nb {
			return offset, nil
		}
		if errA == io.EOF || errA == io.ErrUnexpectedEOF {
			if errB == io.EOF || errB == io.ErrUnexpectedEOF {
				return -1, nil
			}
			return offset, nil
		}
		if errA != nil {
			return -1, errA
		}
		if errB != nil {
			return -1, errB
		}
	}
}

func firstDiffIndex(a, b []byte) int {
	if bytes.Equal(a, b) {
		return -1
	}
	for i := range a {
		if a[i] != b[i] {
			return i
		}
	}
	return -1
}
