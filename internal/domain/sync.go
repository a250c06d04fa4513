package domain

// UploadReason explains why a file was scheduled for upload
type UploadReason string

const (
	// ReasonNew means no remote file shares the folded key
	ReasonNew UploadReason = "new"

	// ReasonModified means a remote file exists but its size differs
	ReasonModified UploadReason = "modified"
)

// UploadItem is one file scheduled for upload
type UploadItem struct {
	// Path is the original-case relative path
	Path string

	// Size in bytes
	Size int64

	// Reason for the upload
	Reason UploadReason
}

// SyncPlan is the deterministic result of comparing a local snapshot
// against the remote tree. Derived fresh each run; never persisted.
type SyncPlan struct {
	// ToUpload lists new and modified files, sorted by path
	ToUpload []UploadItem

	// ToSkip lists unchanged files, sorted by path
	ToSkip []string

	// ToDelete lists remote orphans from the pre-sync snapshot, in
	// original remote case, sorted by path. Empty unless deletion was
	// requested when the plan was built.
	ToDelete []string
}

// InSync returns true if the plan requires no device writes
func (p *SyncPlan) InSync() bool {
	return len(p.ToUpload) == 0 && len(p.ToDelete) == 0
}

// TotalUploadBytes returns the byte count the plan will move
func (p *SyncPlan) TotalUploadBytes() int64 {
	var total int64
	for _, item := range p.ToUpload {
		total += item.Size
	}
	return total
}

// TransferStats accumulates per-file outcomes across a sync run.
// Reset when the sync service is constructed.
type TransferStats struct {
	Uploaded         int
	Skipped          int
	Deleted          int
	Errors           int
	Unclear          int
	BytesTransferred int64
}

// HardFailure returns true if the run should exit nonzero.
// Unclear outcomes are diagnostics, never hard failures.
func (s TransferStats) HardFailure() bool {
	return s.Errors > 0
}
