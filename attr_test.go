package unionfs

import (
	"testing"

	"github.com/spf13/afero"
)

func TestSetattrOnRWFileAppliesDirectly(t *testing.T) {
	ufs, _, _ := newTestUFS(t)
	if err := afero.WriteFile(ufs, "/rw.txt", []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := ufs.Chmod("/rw.txt", 0755); err != nil {
		t.Fatal(err)
	}

	mePath, err := toME("/rw.txt")
	if err != nil {
		t.Fatal(err)
	}
	if _, statErr := ufs.rw.Stat(mePath.Path); statErr == nil {
		t.Fatalf("RW-origin setattr must not create an ME sidecar")
	}

	info, err := ufs.Stat("/rw.txt")
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0755 {
		t.Fatalf("expected mode 0755, got %v", info.Mode().Perm())
	}
}

func TestGetattrMergesTypeBitsFromDataFile(t *testing.T) {
	ufs, ro, _ := newTestUFS(t)
	if err := ro.Mkdir("/d", 0755); err != nil {
		t.Fatal(err)
	}

	if err := ufs.Chmod("/d", 0700); err != nil {
		t.Fatal(err)
	}

	stat, err := ufs.getattr("/d")
	if err != nil {
		t.Fatal(err)
	}
	if !stat.IsDir {
		t.Fatalf("expected merged attr to preserve directory type bit")
	}
	if stat.Mode.Perm() != 0700 {
		t.Fatalf("expected merged permission 0700, got %v", stat.Mode.Perm())
	}
}
