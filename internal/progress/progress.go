// Package progress reports sync run activity to the terminal. Output
// follows the one-line-per-file pattern: "[i/n] name (size) [reason]...
// OK" with the verdict appended when the file finishes.
package progress

import (
	"fmt"
	"io"
	"sync"

	"github.com/scalefx/hubsync/internal/domain"
)

// Reporter receives sync run events
type Reporter interface {
	// PlanReady announces the plan before any transfer starts
	PlanReady(plan *domain.SyncPlan)
	// FileStart begins one upload; index is 1-based
	FileStart(index, total int, item domain.UploadItem)
	// FileDone finishes the current upload with its verdict
	FileDone(outcome domain.Outcome, err error)
	// Deleted reports one orphan removal
	Deleted(path string, err error)
	// Summary closes the run
	Summary(stats domain.TransferStats)
}

// ConsoleReporter writes human-readable progress lines
type ConsoleReporter struct {
	mu  sync.Mutex
	out io.Writer
}

// NewConsoleReporter creates a reporter writing to out
func NewConsoleReporter(out io.Writer) *ConsoleReporter {
	return &ConsoleReporter{out: out}
}

// PlanReady prints the plan summary
func (r *ConsoleReporter) PlanReady(plan *domain.SyncPlan) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprintf(r.out, "To upload: %d files (%s)\n",
		len(plan.ToUpload), FormatBytes(plan.TotalUploadBytes()))
	fmt.Fprintf(r.out, "To skip:   %d files (unchanged)\n", len(plan.ToSkip))
	if len(plan.ToDelete) > 0 {
		fmt.Fprintf(r.out, "To delete: %d files\n", len(plan.ToDelete))
	}
	if plan.InSync() {
		fmt.Fprintln(r.out, "Already in sync")
	}
}

// FileStart prints the per-file prefix and leaves the line open
func (r *ConsoleReporter) FileStart(index, total int, item domain.UploadItem) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprintf(r.out, "[%d/%d] %s (%s) [%s]... ",
		index, total, item.Path, FormatBytes(item.Size), item.Reason)
}

// FileDone closes the per-file line with a verdict
func (r *ConsoleReporter) FileDone(outcome domain.Outcome, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch {
	case err == nil && outcome == domain.OutcomeSuccess:
		fmt.Fprintln(r.out, "OK")
	case outcome == domain.OutcomeUnclear:
		fmt.Fprintln(r.out, "UNCLEAR (no completion status)")
	default:
		fmt.Fprintf(r.out, "FAIL (%v)\n", err)
	}
}

// Deleted prints one orphan removal line
func (r *ConsoleReporter) Deleted(path string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err != nil {
		fmt.Fprintf(r.out, "Deleting %s... FAIL (%v)\n", path, err)
		return
	}
	fmt.Fprintf(r.out, "Deleting %s... OK\n", path)
}

// Summary prints the final counters
func (r *ConsoleReporter) Summary(stats domain.TransferStats) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprintf(r.out, "Uploaded: %d  Skipped: %d  Deleted: %d  Errors: %d",
		stats.Uploaded, stats.Skipped, stats.Deleted, stats.Errors)
	if stats.Unclear > 0 {
		fmt.Fprintf(r.out, "  Unclear: %d", stats.Unclear)
	}
	fmt.Fprintf(r.out, "  (%s transferred)\n", FormatBytes(stats.BytesTransferred))
}

// NullReporter is a no-op reporter
type NullReporter struct{}

func (NullReporter) PlanReady(*domain.SyncPlan)                {}
func (NullReporter) FileStart(int, int, domain.UploadItem)     {}
func (NullReporter) FileDone(domain.Outcome, error)            {}
func (NullReporter) Deleted(string, error)                     {}
func (NullReporter) Summary(domain.TransferStats)              {}

// FormatBytes formats bytes into a human-readable string
func FormatBytes(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/GB)
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/MB)
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/KB)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// FormatSpeed formats bytes per second into a human-readable string
func FormatSpeed(bytesPerSecond float64) string {
	return FormatBytes(int64(bytesPerSecond)) + "/s"
}
