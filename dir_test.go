package unionfs

import (
	"io"
	"testing"

	"github.com/spf13/afero"
)

func TestReaddirMergesBranchesAndHidesReserved(t *testing.T) {
	ufs, ro, rw := newTestUFS(t)
	if err := ro.MkdirAll("/dir", 0755); err != nil {
		t.Fatal(err)
	}
	if err := rw.MkdirAll("/dir", 0755); err != nil {
		t.Fatal(err)
	}
	if err := afero.WriteFile(ro, "/dir/a.txt", []byte("a"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := afero.WriteFile(ro, "/dir/b.txt", []byte("b"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := afero.WriteFile(rw, "/dir/c.txt", []byte("c"), 0644); err != nil {
		t.Fatal(err)
	}

	whPath, err := toWhiteout("/dir/b.txt")
	if err != nil {
		t.Fatal(err)
	}
	if err := afero.WriteFile(rw, whPath.Path, nil, 0644); err != nil {
		t.Fatal(err)
	}
	mePath, err := toME("/dir/a.txt")
	if err != nil {
		t.Fatal(err)
	}
	if err := afero.WriteFile(rw, mePath.Path, nil, 0644); err != nil {
		t.Fatal(err)
	}

	d := newUnionDir(ufs, "/dir")
	defer d.Close()

	names, err := d.Readdirnames(-1)
	if err != nil && err != io.EOF {
		t.Fatal(err)
	}

	got := map[string]bool{}
	for _, n := range names {
		got[n] = true
	}
	if got["b.txt"] {
		t.Fatalf("whited-out entry should not appear: %v", names)
	}
	if !got["a.txt"] || !got["c.txt"] {
		t.Fatalf("expected a.txt and c.txt, got %v", names)
	}
	if len(names) != 2 {
		t.Fatalf("expected exactly 2 entries (reserved names hidden), got %v", names)
	}
}

func TestReaddirRWBeforeRO(t *testing.T) {
	ufs, ro, rw := newTestUFS(t)
	if err := ro.MkdirAll("/dir", 0755); err != nil {
		t.Fatal(err)
	}
	if err := rw.MkdirAll("/dir", 0755); err != nil {
		t.Fatal(err)
	}
	if err := afero.WriteFile(ro, "/dir/only-ro.txt", []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := afero.WriteFile(rw, "/dir/only-rw.txt", []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	d := newUnionDir(ufs, "/dir")
	defer d.Close()
	names, _ := d.Readdirnames(-1)

	if len(names) != 2 || names[0] != "only-rw.txt" {
		t.Fatalf("expected RW entries before RO entries, got %v", names)
	}
}

func TestIsEmptyDirAccountsForWhiteouts(t *testing.T) {
	ufs, ro, _ := newTestUFS(t)
	if err := ro.MkdirAll("/d", 0755); err != nil {
		t.Fatal(err)
	}
	if err := afero.WriteFile(ro, "/d/only.txt", []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	empty, err := ufs.isEmptyDir("/d")
	if err != nil {
		t.Fatal(err)
	}
	if empty {
		t.Fatalf("expected /d to be non-empty before whiteout")
	}

	if err := ufs.createWhiteout("/d/only.txt"); err != nil {
		t.Fatal(err)
	}

	empty, err = ufs.isEmptyDir("/d")
	if err != nil {
		t.Fatal(err)
	}
	if !empty {
		t.Fatalf("expected /d to be empty once its only RO entry is whited out")
	}
}
