// Package service orchestrates full runs against a device: the sync
// flow (scan, list, plan, transfer) and the config push flow. The CLI
// is a thin shell around this package.
package service

import (
	"context"
	"errors"
	"path"

	"github.com/scalefx/hubsync/internal/core/planner"
	"github.com/scalefx/hubsync/internal/domain"
	"github.com/scalefx/hubsync/internal/localfs"
	"github.com/scalefx/hubsync/internal/logger"
	"github.com/scalefx/hubsync/internal/progress"
)

// Uploader moves one local file to the device
type Uploader interface {
	Upload(spec domain.TransferSpec) (domain.TransferResult, error)
}

// RemoteFS is the slice of the device filesystem the sync flow needs
type RemoteFS interface {
	Init() error
	ListTree(root string) (map[string]domain.FileRecord, error)
	Mkdir(path string) error
	Remove(path string) error
	Stat(path string) (domain.RemoteEntry, error)
}

// SyncService mirrors a local tree onto the device
type SyncService struct {
	uploader Uploader
	remote   RemoteFS
	reporter progress.Reporter
	log      logger.Logger
}

// NewSyncService creates a sync service over an uploader and a remote view
func NewSyncService(uploader Uploader, remote RemoteFS) *SyncService {
	return &SyncService{
		uploader: uploader,
		remote:   remote,
		log:      logger.Get().With("component", "service"),
	}
}

// SetProgressReporter sets the progress reporter for sync runs
func (s *SyncService) SetProgressReporter(reporter progress.Reporter) {
	s.reporter = reporter
}

func (s *SyncService) getReporter() progress.Reporter {
	if s.reporter != nil {
		return s.reporter
	}
	return progress.NullReporter{}
}

// Sync mirrors source onto the device folder dest. Per-file failures
// are counted and the run continues; only a dead channel aborts. The
// returned stats are valid even when an error is returned.
func (s *SyncService) Sync(ctx context.Context, source, dest string, deleteOrphans bool) (domain.TransferStats, error) {
	stats := domain.TransferStats{}
	reporter := s.getReporter()

	s.log.Info("sync starting", "source", source, "dest", dest, "delete_orphans", deleteOrphans)

	scanner, err := localfs.NewScanner(source)
	if err != nil {
		return stats, err
	}
	local, err := scanner.Scan()
	if err != nil {
		return stats, err
	}
	s.log.Info("local scan complete", "files", len(local))

	if err := s.remote.Init(); err != nil {
		return stats, err
	}

	remote, err := s.remote.ListTree(dest)
	if err != nil {
		// A fresh card has no dest folder yet; everything is new.
		if !errors.Is(err, domain.ErrNotFound) {
			return stats, err
		}
		remote = nil
	}
	s.log.Info("remote scan complete", "files", len(remote))

	plan := planner.Plan(local, remote, deleteOrphans)
	stats.Skipped = len(plan.ToSkip)
	reporter.PlanReady(plan)

	if plan.InSync() {
		reporter.Summary(stats)
		return stats, nil
	}

	if len(plan.ToUpload) > 0 {
		if err := s.ensureDirs(dest, plan); err != nil {
			return stats, err
		}
	}

	for i, item := range plan.ToUpload {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		reporter.FileStart(i+1, len(plan.ToUpload), item)

		spec := domain.TransferSpec{
			Direction:  domain.DirUpload,
			LocalPath:  scanner.AbsPath(item.Path),
			RemotePath: joinRemote(dest, item.Path),
			SizeBytes:  item.Size,
		}

		result, err := s.uploader.Upload(spec)
		reporter.FileDone(result.Outcome, err)

		switch {
		case err == nil:
			stats.Uploaded++
			stats.BytesTransferred += result.BytesMoved
		case errors.Is(err, domain.ErrStatusUnclear):
			stats.Unclear++
			stats.BytesTransferred += result.BytesMoved
			s.log.Warn("upload status unclear", "path", item.Path)
		case errors.Is(err, domain.ErrChannelFailure):
			stats.Errors++
			s.log.Error("channel failure, aborting run", "path", item.Path, "error", err)
			reporter.Summary(stats)
			return stats, err
		default:
			stats.Errors++
			s.log.Error("upload failed", "path", item.Path, "error", err)
		}
	}

	for _, orphan := range plan.ToDelete {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		err := s.remote.Remove(joinRemote(dest, orphan))
		reporter.Deleted(orphan, err)

		if err != nil {
			if errors.Is(err, domain.ErrChannelFailure) {
				stats.Errors++
				reporter.Summary(stats)
				return stats, err
			}
			stats.Errors++
			s.log.Error("delete failed", "path", orphan, "error", err)
			continue
		}
		stats.Deleted++
	}

	reporter.Summary(stats)
	s.log.Info("sync finished",
		"uploaded", stats.Uploaded,
		"skipped", stats.Skipped,
		"deleted", stats.Deleted,
		"errors", stats.Errors,
		"unclear", stats.Unclear,
		"bytes", stats.BytesTransferred,
	)
	return stats, nil
}

// ensureDirs creates the destination folder and every parent directory
// the plan needs, shallow-first.
func (s *SyncService) ensureDirs(dest string, plan *domain.SyncPlan) error {
	if err := s.remote.Mkdir(dest); err != nil {
		return err
	}
	for _, dir := range planner.ParentDirs(plan) {
		if err := s.remote.Mkdir(joinRemote(dest, dir)); err != nil {
			return err
		}
	}
	return nil
}

func joinRemote(dest, rel string) string {
	return path.Join("/", dest, rel)
}
