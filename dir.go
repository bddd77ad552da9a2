package unionfs

import (
	"io"
	"os"
	"path"
	"time"

	"github.com/spf13/afero"
)

// unionDir implements afero.File for directories, merging the RW and RO
// branch listings for a single logical directory.
type unionDir struct {
	ufs     *UnionFS
	path    string
	entries []os.FileInfo
	offset  int
	closed  bool
}

func newUnionDir(ufs *UnionFS, logical string) *unionDir {
	return &unionDir{ufs: ufs, path: logical}
}

// Close closes the directory handle.
func (d *unionDir) Close() error {
	d.closed = true
	return nil
}

func (d *unionDir) Read(p []byte) (int, error)              { return 0, os.ErrInvalid }
func (d *unionDir) ReadAt(p []byte, off int64) (int, error) { return 0, os.ErrInvalid }
func (d *unionDir) Write(p []byte) (int, error)             { return 0, os.ErrInvalid }
func (d *unionDir) WriteAt(p []byte, off int64) (int, error) {
	return 0, os.ErrInvalid
}
func (d *unionDir) Truncate(size int64) error         { return os.ErrInvalid }
func (d *unionDir) WriteString(s string) (int, error) { return 0, os.ErrInvalid }

// Seek seeks within the merged directory listing. Only io.SeekEnd loads the
// listing; the other modes just move the offset.
func (d *unionDir) Seek(offset int64, whence int) (int64, error) {
	if d.closed {
		return 0, os.ErrClosed
	}

	switch whence {
	case io.SeekStart:
		d.offset = int(offset)
	case io.SeekCurrent:
		d.offset += int(offset)
	case io.SeekEnd:
		if d.entries == nil {
			if err := d.loadEntries(); err != nil {
				return 0, err
			}
		}
		d.offset = len(d.entries) + int(offset)
	}

	if d.offset < 0 {
		d.offset = 0
	}
	return int64(d.offset), nil
}

func (d *unionDir) Name() string {
	return path.Base(d.path)
}

// Readdir returns the next count merged entries, or all of them if count
// is non-positive.
func (d *unionDir) Readdir(count int) ([]os.FileInfo, error) {
	if d.closed {
		return nil, os.ErrClosed
	}
	if d.entries == nil {
		if err := d.loadEntries(); err != nil {
			return nil, err
		}
	}

	if d.offset >= len(d.entries) {
		if count > 0 {
			return nil, io.EOF
		}
		return nil, nil
	}

	var end int
	if count <= 0 {
		end = len(d.entries)
	} else {
		end = d.offset + count
		if end > len(d.entries) {
			end = len(d.entries)
		}
	}

	result := d.entries[d.offset:end]
	d.offset = end

	if count > 0 && len(result) == 0 {
		return nil, io.EOF
	}
	return result, nil
}

func (d *unionDir) Readdirnames(count int) ([]string, error) {
	infos, err := d.Readdir(count)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(infos))
	for i, info := range infos {
		names[i] = info.Name()
	}
	return names, nil
}

func (d *unionDir) Stat() (os.FileInfo, error) {
	if d.closed {
		return nil, os.ErrClosed
	}
	stat, err := d.ufs.getattr(d.path)
	if err != nil {
		return nil, err
	}
	return &statFileInfo{name: path.Base(d.path), stat: stat}, nil
}

func (d *unionDir) Sync() error { return nil }

// loadEntries merges the RW and RO listings for d.path: RW entries first,
// in the order the backing Fs returns them, then RO entries not already
// seen, skipping whiteout/ME sidecars and any name a whiteout hides.
// This never re-sorts by name - two branches in stable precedence order is
// already well-defined without one.
func (d *unionDir) loadEntries() error {
	d.ufs.mu.RLock()
	ro, rw := d.ufs.ro, d.ufs.rw
	d.ufs.mu.RUnlock()

	seen := make(map[string]bool)
	whiteouts := make(map[string]bool)
	var entries []os.FileInfo

	if rw != nil {
		dir, err := rw.Open(d.path)
		if err == nil {
			rwEntries, rerr := dir.Readdir(-1)
			dir.Close()
			if rerr != nil {
				return newError(KindIO, "readdir", d.path, rerr)
			}
			for _, entry := range rwEntries {
				name := entry.Name()
				switch classify(name) {
				case NameWhiteout:
					if target, ok := whiteoutTarget(name); ok {
						whiteouts[target] = true
					}
					continue
				case NameME:
					continue
				}
				if seen[name] {
					continue
				}
				seen[name] = true
				entries = append(entries, entry)
			}
		} else if !os.IsNotExist(err) {
			return newError(KindIO, "readdir", d.path, err)
		}
	}

	if ro != nil {
		dir, err := ro.Open(d.path)
		if err == nil {
			roEntries, rerr := dir.Readdir(-1)
			dir.Close()
			if rerr != nil {
				return newError(KindIO, "readdir", d.path, rerr)
			}
			for _, entry := range roEntries {
				name := entry.Name()
				if classify(name) != NameNormal || seen[name] || whiteouts[name] {
					continue
				}
				seen[name] = true
				entries = append(entries, entry)
			}
		} else if !os.IsNotExist(err) {
			return newError(KindIO, "readdir", d.path, err)
		}
	}

	d.entries = entries
	return nil
}

// statFileInfo adapts a Stat back into an os.FileInfo, used where a merged
// attribute (possibly ME-composed) must be returned through an
// afero.File.Stat() call rather than a raw branch stat.
type statFileInfo struct {
	name string
	stat Stat
}

func (s *statFileInfo) Name() string      { return s.name }
func (s *statFileInfo) Size() int64       { return s.stat.Size }
func (s *statFileInfo) Mode() os.FileMode { return s.stat.Mode }
func (s *statFileInfo) ModTime() time.Time {
	return s.stat.Mtime
}
func (s *statFileInfo) IsDir() bool      { return s.stat.IsDir }
func (s *statFileInfo) Sys() interface{} { return nil }

var _ afero.File = (*unionDir)(nil)
var _ os.FileInfo = (*statFileInfo)(nil)
