/*
Package unionfs implements a two-branch union filesystem: a single
read-write branch overlaid on a single read-only branch, presented as one
namespace.

# Overview

A logical path resolves against the RW branch first, falling back to the
RO branch when RW has no entry. Deleting an entry that only exists on RO
cannot physically remove it, so deletion is recorded as a whiteout marker
(".wh.<name>") on the RW branch instead; the Branch Resolver treats a
whited-out name as not found regardless of RO presence.

# Key Features

  - RW-over-RO branch resolution with whiteout-based deletion
  - Copy-up on write: an RO file is materialised onto RW the first time a
    write-intent operation touches it
  - Deported metadata (ME) files: changing the owner, times, or mode of an
    otherwise-unmodified RO file is recorded in a ".me.<name>" sidecar
    rather than forcing a full data copy-up
  - Directory merging in stable RW-then-RO order, hiding whiteout/ME names
  - Per-path latching to serialise concurrent mutations on the same path
  - Full afero.Fs interface compatibility

# Basic Usage

	package main

	import "github.com/spf13/afero"
	import "github.com/twobranch/unionfs"

	func main() {
	    ro := afero.NewOsFs()
	    rw := afero.NewMemMapFs()

	    ufs := unionfs.New(
	        unionfs.WithReadOnlyBranch(ro),
	        unionfs.WithReadWriteBranch(rw),
	    )

	    // Reads fall through to the RO branch if RW has no entry.
	    data, err := afero.ReadFile(ufs, "/etc/config.yml")

	    // Writes always land on the RW branch, copying up first if needed.
	    err = afero.WriteFile(ufs, "/etc/config.yml", []byte("key: value"), 0644)
	}

# Deported Metadata

Changing the mode, owner, or times of a file that is still served from RO
does not copy its data. Instead, a zero-size ME sidecar records the
changed attributes; getattr composes the RO data file's file-type bits
with the ME record's owner/times/alterable-mode bits on every subsequent
read, until something actually writes the file's data and triggers a real
copy-up (which then consumes and deletes the ME file).

# Whiteouts

Deleting a file that exists on RO creates a whiteout marker on RW rather
than touching RO:

	ufs.Remove("/file.txt")
	_, err := ufs.Stat("/file.txt")  // os.ErrNotExist

The entry remains physically present on the RO branch; only the union's
view of it changes.

# Compatibility

UnionFS implements the afero.Fs interface and can be used as a drop-in
replacement wherever afero filesystems are accepted.

# Limitations

  - Exactly two branches: no N-layer stacking
  - No cross-filesystem rename
  - Symlink support depends on what the branch's afero.Fs implements:
    afero.OsFs supports it; afero.MemMapFs does not, so Symlink/Readlink
    return an I/O error on that backend, and so does Link of an RO-origin
    source, which falls back to a symlink
  - No afero backend supports hard links, so Link of an RW-origin source
    returns a CrossBranch error unless the RW branch has its own Link
    method
  - No persisted extended attributes beyond what ME records carry
  - atime/ctime are read from the real platform stat structure only on
    linux; elsewhere (and for any branch backed by afero.MemMapFs) they
    come from an in-memory overlay keyed by concrete path, so they do not
    survive a process restart
*/
package unionfs
