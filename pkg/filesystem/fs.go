package filesystem

import (
	"io/fs"

	"github.com/spf13/afero"
)

// Attr is the inode identity behind a path
type Attr struct {
	UID   int
	GID   int
	Dev   uint64
	Inode uint64
	Major uint32
	Minor uint32
}

// FS is an afero filesystem that also knows about links, ownership and
// device nodes
type FS interface {
	afero.Fs

	// Lstat stats name without following a final symlink
	Lstat(name string) (fs.FileInfo, error)
	Readlink(name string) (string, error)
	Symlink(oldname, newname string) error
	// Lchown changes ownership without following a final symlink
	Lchown(name string, uid, gid int) error
	// Mknod creates a fifo when dev is false, else a device node
	Mknod(name string, mode fs.FileMode, dev bool, major, minor uint32) error
	// Attrs returns the inode identity of name. The boolean is false
	// when the backing filesystem does not track ownership.
	Attrs(name string) (Attr, bool, error)
}

// From returns fsys as an FS, choosing the OS implementation for
// afero.OsFs
func From(fsys afero.Fs) FS {
	switch f := fsys.(type) {
	case FS:
		return f
	case *afero.OsFs:
		return NewOS()
	default:
		return NewAferoFS(fsys)
	}
}
