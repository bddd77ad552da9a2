package unionfs

import (
	"testing"
	"time"

	"github.com/spf13/afero"
)

func TestChmodOnROFileCreatesME(t *testing.T) {
	ufs, ro, rw := newTestUFS(t)
	if err := afero.WriteFile(ro, "/file.txt", []byte("content"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := ufs.Chmod("/file.txt", 0600); err != nil {
		t.Fatalf("chmod: %v", err)
	}

	mePath, err := toME("/file.txt")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := rw.Stat(mePath.Path); err != nil {
		t.Fatalf("expected ME sidecar, got: %v", err)
	}
	if _, err := rw.Stat("/file.txt"); err == nil {
		t.Fatalf("chmod alone should not copy up data")
	}

	info, err := ufs.Stat("/file.txt")
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Fatalf("expected merged mode 0600, got %v", info.Mode().Perm())
	}
}

func TestChownOnROFileMergesIntoGetattr(t *testing.T) {
	ufs, ro, _ := newTestUFS(t)
	if err := afero.WriteFile(ro, "/owned.txt", []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := ufs.Chown("/owned.txt", 1000, 1000); err != nil {
		t.Fatalf("chown: %v", err)
	}

	stat, err := ufs.getattr("/owned.txt")
	if err != nil {
		t.Fatal(err)
	}
	if stat.Uid != 1000 || stat.Gid != 1000 {
		t.Fatalf("expected uid/gid 1000, got %d/%d", stat.Uid, stat.Gid)
	}
}

func TestCopyUpConsumesME(t *testing.T) {
	ufs, ro, rw := newTestUFS(t)
	if err := afero.WriteFile(ro, "/f.txt", []byte("base"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := ufs.Chown("/f.txt", 42, 42); err != nil {
		t.Fatal(err)
	}

	if err := afero.WriteFile(ufs, "/f.txt", []byte("new data"), 0644); err != nil {
		t.Fatalf("write (copy-up): %v", err)
	}

	mePath, err := toME("/f.txt")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := rw.Stat(mePath.Path); err == nil {
		t.Fatalf("ME sidecar should be consumed by copy-up")
	}

	stat, err := ufs.getattr("/f.txt")
	if err != nil {
		t.Fatal(err)
	}
	if stat.Uid != 42 || stat.Gid != 42 {
		t.Fatalf("copy-up should carry over ME owner, got %d/%d", stat.Uid, stat.Gid)
	}
}

func TestSetMETwiceUpdatesExistingSidecar(t *testing.T) {
	ufs, ro, _ := newTestUFS(t)
	if err := afero.WriteFile(ro, "/a.txt", []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := ufs.Chmod("/a.txt", 0600); err != nil {
		t.Fatal(err)
	}
	if err := ufs.Chown("/a.txt", 7, 8); err != nil {
		t.Fatal(err)
	}

	stat, err := ufs.getattr("/a.txt")
	if err != nil {
		t.Fatal(err)
	}
	if stat.Mode.Perm() != 0600 {
		t.Fatalf("expected mode 0600 to survive a later chown, got %v", stat.Mode.Perm())
	}
	if stat.Uid != 7 || stat.Gid != 8 {
		t.Fatalf("expected uid/gid 7/8, got %d/%d", stat.Uid, stat.Gid)
	}
}

func TestChtimesOnROFile(t *testing.T) {
	ufs, ro, _ := newTestUFS(t)
	if err := afero.WriteFile(ro, "/t.txt", []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	want := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	if err := ufs.Chtimes("/t.txt", want, want); err != nil {
		t.Fatal(err)
	}

	stat, err := ufs.getattr("/t.txt")
	if err != nil {
		t.Fatal(err)
	}
	if !stat.Mtime.Equal(want) {
		t.Fatalf("expected mtime %v, got %v", want, stat.Mtime)
	}
}

// TestChtimesDistinguishesAtimeFromMtime guards against getattr collapsing
// atime/mtime/ctime to a single value, which afero.MemMapFs's own Stat
// would do on its own since it only tracks one timestamp internally.
func TestChtimesDistinguishesAtimeFromMtime(t *testing.T) {
	ufs, ro, _ := newTestUFS(t)
	if err := afero.WriteFile(ro, "/t.txt", []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	atime := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	mtime := time.Date(2021, 6, 7, 8, 9, 10, 0, time.UTC)
	if err := ufs.Chtimes("/t.txt", atime, mtime); err != nil {
		t.Fatal(err)
	}

	stat, err := ufs.getattr("/t.txt")
	if err != nil {
		t.Fatal(err)
	}
	if !stat.Atime.Equal(atime) {
		t.Fatalf("expected atime %v, got %v", atime, stat.Atime)
	}
	if !stat.Mtime.Equal(mtime) {
		t.Fatalf("expected mtime %v, got %v", mtime, stat.Mtime)
	}
}

// TestSetattrPreservesCtimeAcrossModeUpdate guards P3's getattr.ctime
// requirement: updating only the mode on an already-deported RO file must
// not disturb the ctime recorded when the ME sidecar was first created.
func TestSetattrPreservesCtimeAcrossModeUpdate(t *testing.T) {
	ufs, ro, _ := newTestUFS(t)
	if err := afero.WriteFile(ro, "/c.txt", []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := ufs.Chown("/c.txt", 1, 1); err != nil {
		t.Fatal(err)
	}
	first, err := ufs.getattr("/c.txt")
	if err != nil {
		t.Fatal(err)
	}

	if err := ufs.Chmod("/c.txt", 0600); err != nil {
		t.Fatal(err)
	}
	second, err := ufs.getattr("/c.txt")
	if err != nil {
		t.Fatal(err)
	}

	if !second.Ctime.Equal(first.Ctime) {
		t.Fatalf("expected ctime to survive a later chmod, got %v want %v", second.Ctime, first.Ctime)
	}
}
