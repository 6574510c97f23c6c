package filesystem

import (
	"io/fs"
	"os"

	"github.com/spf13/afero"
)

// osFS implements FS using the OS filesystem
type osFS struct {
	afero.Fs
}

// NewOS creates a new OS filesystem implementation
func NewOS() FS {
	return &osFS{Fs: afero.NewOsFs()}
}

func (o *osFS) Lstat(name string) (fs.FileInfo, error) {
	return os.Lstat(name)
}

func (o *osFS) Readlink(name string) (string, error) {
	return os.Readlink(name)
}

func (o *osFS) Symlink(oldname, newname string) error {
	return os.Symlink(oldname, newname)
}

func (o *osFS) Lchown(name string, uid, gid int) error {
	return os.Lchown(name, uid, gid)
}

func (o *osFS) Mknod(name string, mode fs.FileMode, dev bool, major, minor uint32) error {
	return mknod(name, mode, dev, major, minor)
}

func (o *osFS) Attrs(name string) (Attr, bool, error) {
	return attrs(name)
}
