// Package planner computes the work needed to make the device mirror
// the local tree. Comparison is case-insensitive because the device
// volume is FAT: paths are matched by their folded keys while the plan
// carries original-case paths for display and for device commands.
package planner

import (
	"path"
	"sort"
	"strings"

	"github.com/scalefx/hubsync/internal/domain"
)

// Plan compares the local scan against the remote snapshot taken before
// the sync. A file uploads when it is absent remotely or when its size
// differs; equal sizes skip. Orphans (remote files with no local
// counterpart) are listed for deletion only when deleteOrphans is set.
func Plan(local, remote map[string]domain.FileRecord, deleteOrphans bool) *domain.SyncPlan {
	plan := &domain.SyncPlan{}

	for key, rec := range local {
		remoteRec, found := remote[key]
		switch {
		case !found:
			plan.ToUpload = append(plan.ToUpload, domain.UploadItem{
				Path:   rec.Path,
				Size:   rec.Size,
				Reason: domain.ReasonNew,
			})
		case remoteRec.Size != rec.Size:
			plan.ToUpload = append(plan.ToUpload, domain.UploadItem{
				Path:   rec.Path,
				Size:   rec.Size,
				Reason: domain.ReasonModified,
			})
		default:
			plan.ToSkip = append(plan.ToSkip, rec.Path)
		}
	}

	if deleteOrphans {
		for key, rec := range remote {
			if _, found := local[key]; !found {
				plan.ToDelete = append(plan.ToDelete, rec.Path)
			}
		}
	}

	// Map iteration order is random; sort for stable output and logs.
	sort.Slice(plan.ToUpload, func(i, j int) bool {
		return plan.ToUpload[i].Path < plan.ToUpload[j].Path
	})
	sort.Strings(plan.ToSkip)
	sort.Strings(plan.ToDelete)

	return plan
}

// ParentDirs returns the distinct parent directories of the planned
// uploads, shallow-first, so each mkdir has an existing parent. Files
// at the tree root contribute nothing.
func ParentDirs(plan *domain.SyncPlan) []string {
	seen := make(map[string]bool)
	var dirs []string

	for _, item := range plan.ToUpload {
		dir := path.Dir(item.Path)
		for dir != "." && dir != "/" {
			if !seen[dir] {
				seen[dir] = true
				dirs = append(dirs, dir)
			}
			dir = path.Dir(dir)
		}
	}

	sort.Slice(dirs, func(i, j int) bool {
		di := strings.Count(dirs[i], "/")
		dj := strings.Count(dirs[j], "/")
		if di != dj {
			return di < dj
		}
		return dirs[i] < dirs[j]
	})

	return dirs
}
