package unionfs

import (
	"testing"

	"github.com/spf13/afero"
)

func newTestUFS(t *testing.T) (*UnionFS, afero.Fs, afero.Fs) {
	t.Helper()
	ro := afero.NewMemMapFs()
	rw := afero.NewMemMapFs()
	ufs := New(WithReadOnlyBranch(ro), WithReadWriteBranch(rw))
	return ufs, ro, rw
}

// newOsTestUFS backs both branches with real directories on disk instead of
// afero.MemMapFs. MemMapFs implements neither afero.Linker nor
// afero.LinkReader, so any test that needs Symlink/Readlink to actually
// succeed (rather than degrade to the documented unsupported-backend error)
// needs a backend that does.
func newOsTestUFS(t *testing.T) (*UnionFS, afero.Fs, afero.Fs) {
	t.Helper()
	ro := afero.NewBasePathFs(afero.NewOsFs(), t.TempDir())
	rw := afero.NewBasePathFs(afero.NewOsFs(), t.TempDir())
	ufs := New(WithReadOnlyBranch(ro), WithReadWriteBranch(rw))
	return ufs, ro, rw
}

func TestReadThroughToRO(t *testing.T) {
	ufs, ro, _ := newTestUFS(t)
	if err := afero.WriteFile(ro, "/test.txt", []byte("base content"), 0644); err != nil {
		t.Fatal(err)
	}

	data, err := afero.ReadFile(ufs, "/test.txt")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "base content" {
		t.Fatalf("got %q", data)
	}
}

func TestWriteGoesToRW(t *testing.T) {
	ufs, _, rw := newTestUFS(t)

	if err := afero.WriteFile(ufs, "/new.txt", []byte("new content"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := rw.Stat("/new.txt"); err != nil {
		t.Fatalf("expected file on RW branch: %v", err)
	}

	data, err := afero.ReadFile(ufs, "/new.txt")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "new content" {
		t.Fatalf("got %q", data)
	}
}

func TestWriteTriggersCopyUp(t *testing.T) {
	ufs, ro, rw := newTestUFS(t)
	if err := afero.WriteFile(ro, "/cfg.yml", []byte("base: config"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := afero.WriteFile(ufs, "/cfg.yml", []byte("modified: config"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := rw.Stat("/cfg.yml"); err != nil {
		t.Fatalf("expected copy-up onto RW: %v", err)
	}

	data, err := afero.ReadFile(ro, "/cfg.yml")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "base: config" {
		t.Fatalf("RO branch should be unchanged, got %q", data)
	}

	data, err = afero.ReadFile(ufs, "/cfg.yml")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "modified: config" {
		t.Fatalf("union should see modified content, got %q", data)
	}
}

func TestRemoveROEntryCreatesWhiteout(t *testing.T) {
	ufs, ro, _ := newTestUFS(t)
	if err := afero.WriteFile(ro, "/file.txt", []byte("content"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := ufs.Remove("/file.txt"); err != nil {
		t.Fatalf("remove: %v", err)
	}

	if _, err := ufs.Stat("/file.txt"); !IsNotFound(err) {
		t.Fatalf("expected NotFound, got %v", err)
	}

	if _, err := ro.Stat("/file.txt"); err != nil {
		t.Fatalf("RO branch entry should still exist: %v", err)
	}
}

func TestRemoveNonExistentReturnsNotFound(t *testing.T) {
	ufs, _, _ := newTestUFS(t)
	err := ufs.Remove("/nope.txt")
	if !IsNotFound(err) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestRWEntryShadowsRO(t *testing.T) {
	ufs, ro, rw := newTestUFS(t)
	if err := afero.WriteFile(ro, "/shared.txt", []byte("ro"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := afero.WriteFile(rw, "/shared.txt", []byte("rw"), 0644); err != nil {
		t.Fatal(err)
	}

	data, err := afero.ReadFile(ufs, "/shared.txt")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "rw" {
		t.Fatalf("RW should shadow RO, got %q", data)
	}
}
