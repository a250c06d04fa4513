package planner

import (
	"reflect"
	"testing"

	"github.com/scalefx/hubsync/internal/domain"
)

func files(pairs ...any) map[string]domain.FileRecord {
	m := make(map[string]domain.FileRecord)
	for i := 0; i < len(pairs); i += 2 {
		p := pairs[i].(string)
		size := int64(pairs[i+1].(int))
		m[domain.FoldKey(p)] = domain.FileRecord{Path: p, Size: size}
	}
	return m
}

func TestPlan_Classification(t *testing.T) {
	local := files("new.wav", 10, "changed.wav", 20, "same.wav", 30)
	remote := files("changed.wav", 19, "same.wav", 30, "orphan.wav", 5)

	plan := Plan(local, remote, true)

	wantUpload := []domain.UploadItem{
		{Path: "changed.wav", Size: 20, Reason: domain.ReasonModified},
		{Path: "new.wav", Size: 10, Reason: domain.ReasonNew},
	}
	if !reflect.DeepEqual(plan.ToUpload, wantUpload) {
		t.Errorf("ToUpload = %+v, want %+v", plan.ToUpload, wantUpload)
	}
	if !reflect.DeepEqual(plan.ToSkip, []string{"same.wav"}) {
		t.Errorf("ToSkip = %v", plan.ToSkip)
	}
	if !reflect.DeepEqual(plan.ToDelete, []string{"orphan.wav"}) {
		t.Errorf("ToDelete = %v", plan.ToDelete)
	}
}

func TestPlan_OrphansKeptWithoutDeleteFlag(t *testing.T) {
	local := files("a.wav", 1)
	remote := files("a.wav", 1, "orphan.wav", 5)

	plan := Plan(local, remote, false)

	if len(plan.ToDelete) != 0 {
		t.Errorf("ToDelete = %v, want empty without delete flag", plan.ToDelete)
	}
	if !plan.InSync() {
		t.Error("plan with only a preserved orphan should count as in sync")
	}
}

func TestPlan_CaseInsensitiveMatch(t *testing.T) {
	// FAT treats a.wav and A.WAV as the same file.
	local := files("Sounds/A.WAV", 100)
	remote := files("sounds/a.wav", 100)

	plan := Plan(local, remote, true)

	if len(plan.ToUpload) != 0 {
		t.Errorf("case-variant same-size file should skip, got uploads %+v", plan.ToUpload)
	}
	if len(plan.ToDelete) != 0 {
		t.Errorf("case-variant file is not an orphan, got deletes %v", plan.ToDelete)
	}
	if !reflect.DeepEqual(plan.ToSkip, []string{"Sounds/A.WAV"}) {
		t.Errorf("ToSkip = %v", plan.ToSkip)
	}
}

func TestPlan_CaseVariantSizeChangeIsModified(t *testing.T) {
	local := files("A.WAV", 120)
	remote := files("a.wav", 100)

	plan := Plan(local, remote, true)

	if len(plan.ToUpload) != 1 || plan.ToUpload[0].Reason != domain.ReasonModified {
		t.Fatalf("expected one modified upload, got %+v", plan.ToUpload)
	}
	// The device path keeps the local spelling; FAT resolves it to the
	// existing entry either way.
	if plan.ToUpload[0].Path != "A.WAV" {
		t.Errorf("upload path = %q", plan.ToUpload[0].Path)
	}
}

func TestPlan_Idempotent(t *testing.T) {
	local := files("a.wav", 1, "sub/b.wav", 2)

	// After a clean sync the remote snapshot equals the local scan.
	plan := Plan(local, local, true)

	if !plan.InSync() {
		t.Errorf("second run should be a no-op, got %+v", plan)
	}
}

func TestPlan_EmptySides(t *testing.T) {
	if plan := Plan(nil, nil, true); !plan.InSync() {
		t.Errorf("empty plan should be in sync: %+v", plan)
	}

	plan := Plan(files("a.wav", 1), nil, true)
	if len(plan.ToUpload) != 1 || plan.ToUpload[0].Reason != domain.ReasonNew {
		t.Errorf("fresh device should upload everything: %+v", plan)
	}

	plan = Plan(nil, files("a.wav", 1), true)
	if !reflect.DeepEqual(plan.ToDelete, []string{"a.wav"}) {
		t.Errorf("empty local with delete flag removes everything: %+v", plan)
	}
}

func TestPlan_TotalUploadBytes(t *testing.T) {
	plan := Plan(files("a.wav", 10, "b.wav", 32), nil, false)
	if got := plan.TotalUploadBytes(); got != 42 {
		t.Errorf("TotalUploadBytes = %d, want 42", got)
	}
}

func TestParentDirs_ShallowFirstDistinct(t *testing.T) {
	plan := &domain.SyncPlan{ToUpload: []domain.UploadItem{
		{Path: "fx/deep/one.wav"},
		{Path: "fx/two.wav"},
		{Path: "fx/deep/three.wav"},
		{Path: "ambient/four.wav"},
		{Path: "root.wav"},
	}}

	got := ParentDirs(plan)
	want := []string{"ambient", "fx", "fx/deep"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParentDirs = %v, want %v", got, want)
	}
}

func TestParentDirs_RootOnlyUploads(t *testing.T) {
	plan := &domain.SyncPlan{ToUpload: []domain.UploadItem{{Path: "a.wav"}}}
	if got := ParentDirs(plan); len(got) != 0 {
		t.Errorf("ParentDirs = %v, want empty", got)
	}
}
