package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"

	"github.com/scalefx/hubsync/internal/domain"
	"github.com/scalefx/hubsync/internal/testutil"
)

// fakeUploader records uploads and fails paths listed in failWith
type fakeUploader struct {
	uploads  []domain.TransferSpec
	failWith map[string]error
}

func (f *fakeUploader) Upload(spec domain.TransferSpec) (domain.TransferResult, error) {
	f.uploads = append(f.uploads, spec)
	if err, ok := f.failWith[spec.RemotePath]; ok {
		if errors.Is(err, domain.ErrStatusUnclear) {
			return domain.TransferResult{BytesMoved: spec.SizeBytes, Outcome: domain.OutcomeUnclear}, err
		}
		return domain.TransferResult{}, err
	}
	return domain.TransferResult{BytesMoved: spec.SizeBytes, Outcome: domain.OutcomeSuccess}, nil
}

// fakeRemote holds a flat remote tree keyed by folded path
type fakeRemote struct {
	files     map[string]domain.FileRecord
	listErr   error
	mkdirs    []string
	removed   []string
	removeErr map[string]error
}

func newFakeRemote(pairs ...any) *fakeRemote {
	r := &fakeRemote{files: make(map[string]domain.FileRecord)}
	for i := 0; i < len(pairs); i += 2 {
		p := pairs[i].(string)
		r.files[domain.FoldKey(p)] = domain.FileRecord{Path: p, Size: int64(pairs[i+1].(int))}
	}
	return r
}

func (f *fakeRemote) Init() error { return nil }

func (f *fakeRemote) ListTree(root string) (map[string]domain.FileRecord, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.files, nil
}

func (f *fakeRemote) Mkdir(path string) error {
	f.mkdirs = append(f.mkdirs, path)
	return nil
}

func (f *fakeRemote) Remove(path string) error {
	if err, ok := f.removeErr[path]; ok {
		return err
	}
	f.removed = append(f.removed, path)
	return nil
}

func (f *fakeRemote) Stat(path string) (domain.RemoteEntry, error) {
	return domain.RemoteEntry{}, fmt.Errorf("%w: %s", domain.ErrNotFound, path)
}

func TestSync_UploadsNewAndModified(t *testing.T) {
	dir := t.TempDir()
	testutil.CreateTestFile(t, dir, "new.wav", make([]byte, 10))
	testutil.CreateTestFile(t, dir, "changed.wav", make([]byte, 20))
	testutil.CreateTestFile(t, dir, "same.wav", make([]byte, 30))

	up := &fakeUploader{}
	remote := newFakeRemote("changed.wav", 19, "same.wav", 30)
	svc := NewSyncService(up, remote)

	stats, err := svc.Sync(context.Background(), dir, "/sounds", false)
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}

	if stats.Uploaded != 2 || stats.Skipped != 1 || stats.Errors != 0 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.BytesTransferred != 30 {
		t.Errorf("BytesTransferred = %d, want 30", stats.BytesTransferred)
	}

	var got []string
	for _, spec := range up.uploads {
		got = append(got, spec.RemotePath)
	}
	sort.Strings(got)
	want := []string{"/sounds/changed.wav", "/sounds/new.wav"}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("uploaded paths = %v, want %v", got, want)
	}
}

func TestSync_CreatesParentDirsShallowFirst(t *testing.T) {
	dir := t.TempDir()
	testutil.CreateTestFile(t, dir, "fx/deep/a.wav", []byte("x"))

	up := &fakeUploader{}
	remote := newFakeRemote()
	svc := NewSyncService(up, remote)

	if _, err := svc.Sync(context.Background(), dir, "/sounds", false); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}

	want := []string{"/sounds", "/sounds/fx", "/sounds/fx/deep"}
	if len(remote.mkdirs) != 3 {
		t.Fatalf("mkdirs = %v, want %v", remote.mkdirs, want)
	}
	for i := range want {
		if remote.mkdirs[i] != want[i] {
			t.Errorf("mkdirs[%d] = %q, want %q", i, remote.mkdirs[i], want[i])
		}
	}
}

func TestSync_DeletesOrphansOnlyWithFlag(t *testing.T) {
	dir := t.TempDir()
	testutil.CreateTestFile(t, dir, "keep.wav", []byte("x"))

	remote := newFakeRemote("keep.wav", 1, "orphan.wav", 5)
	svc := NewSyncService(&fakeUploader{}, remote)

	stats, err := svc.Sync(context.Background(), dir, "/sounds", false)
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if stats.Deleted != 0 || len(remote.removed) != 0 {
		t.Errorf("nothing should be deleted without the flag: %+v, removed %v", stats, remote.removed)
	}

	stats, err = svc.Sync(context.Background(), dir, "/sounds", true)
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if stats.Deleted != 1 {
		t.Errorf("Deleted = %d, want 1", stats.Deleted)
	}
	if len(remote.removed) != 1 || remote.removed[0] != "/sounds/orphan.wav" {
		t.Errorf("removed = %v", remote.removed)
	}
}

func TestSync_PerFileErrorDoesNotAbort(t *testing.T) {
	dir := t.TempDir()
	testutil.CreateTestFile(t, dir, "bad.wav", []byte("x"))
	testutil.CreateTestFile(t, dir, "good.wav", []byte("y"))

	up := &fakeUploader{failWith: map[string]error{
		"/sounds/bad.wav": fmt.Errorf("%w: write failed", domain.ErrDeviceError),
	}}
	svc := NewSyncService(up, newFakeRemote())

	stats, err := svc.Sync(context.Background(), dir, "/sounds", false)
	if err != nil {
		t.Fatalf("per-file error must not fail the run: %v", err)
	}

	if stats.Uploaded != 1 || stats.Errors != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if !stats.HardFailure() {
		t.Error("a device error counts as a hard failure")
	}
}

func TestSync_ChannelFailureAborts(t *testing.T) {
	dir := t.TempDir()
	testutil.CreateTestFile(t, dir, "a.wav", []byte("x"))
	testutil.CreateTestFile(t, dir, "b.wav", []byte("y"))

	up := &fakeUploader{failWith: map[string]error{
		"/sounds/a.wav": fmt.Errorf("%w: port gone", domain.ErrChannelFailure),
	}}
	svc := NewSyncService(up, newFakeRemote())

	_, err := svc.Sync(context.Background(), dir, "/sounds", false)
	if !errors.Is(err, domain.ErrChannelFailure) {
		t.Errorf("expected ErrChannelFailure to abort, got %v", err)
	}
	if len(up.uploads) != 1 {
		t.Errorf("run should stop after the channel died, got %d uploads", len(up.uploads))
	}
}

func TestSync_UnclearCountsSeparately(t *testing.T) {
	dir := t.TempDir()
	testutil.CreateTestFile(t, dir, "a.wav", make([]byte, 8))

	up := &fakeUploader{failWith: map[string]error{
		"/sounds/a.wav": domain.ErrStatusUnclear,
	}}
	svc := NewSyncService(up, newFakeRemote())

	stats, err := svc.Sync(context.Background(), dir, "/sounds", false)
	if err != nil {
		t.Fatalf("unclear outcome must not fail the run: %v", err)
	}

	if stats.Unclear != 1 || stats.Errors != 0 || stats.Uploaded != 0 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.BytesTransferred != 8 {
		t.Errorf("unclear transfers still moved bytes: %+v", stats)
	}
	if stats.HardFailure() {
		t.Error("unclear alone is not a hard failure")
	}
}

func TestSync_FreshCardListsNotFound(t *testing.T) {
	dir := t.TempDir()
	testutil.CreateTestFile(t, dir, "a.wav", []byte("x"))

	remote := newFakeRemote()
	remote.listErr = fmt.Errorf("%w: /sounds", domain.ErrNotFound)
	up := &fakeUploader{}
	svc := NewSyncService(up, remote)

	stats, err := svc.Sync(context.Background(), dir, "/sounds", true)
	if err != nil {
		t.Fatalf("missing dest folder should mean empty remote: %v", err)
	}
	if stats.Uploaded != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestSync_InSyncDoesNothing(t *testing.T) {
	dir := t.TempDir()
	testutil.CreateTestFile(t, dir, "a.wav", []byte("x"))

	up := &fakeUploader{}
	remote := newFakeRemote("a.wav", 1)
	svc := NewSyncService(up, remote)

	stats, err := svc.Sync(context.Background(), dir, "/sounds", true)
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if len(up.uploads) != 0 || len(remote.mkdirs) != 0 {
		t.Errorf("in-sync run must not touch the device: uploads %v, mkdirs %v",
			up.uploads, remote.mkdirs)
	}
	if stats.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", stats.Skipped)
	}
}

func TestSync_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	testutil.CreateTestFile(t, dir, "a.wav", []byte("x"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := NewSyncService(&fakeUploader{}, newFakeRemote())
	if _, err := svc.Sync(ctx, dir, "/sounds", false); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
