package filesystem

import (
	"io/fs"
	"os"

	"github.com/arthur-debert/fsmerge/pkg/errors"
	"github.com/spf13/afero"
)

// aferoFS implements FS over an arbitrary afero filesystem
type aferoFS struct {
	afero.Fs
}

// NewAferoFS adapts fsys. Links are supported only when fsys implements
// afero's optional Lstater, LinkReader and Linker interfaces; device
// nodes never are.
func NewAferoFS(fsys afero.Fs) FS {
	return &aferoFS{Fs: fsys}
}

func (a *aferoFS) Lstat(name string) (fs.FileInfo, error) {
	if l, ok := a.Fs.(afero.Lstater); ok {
		info, _, err := l.LstatIfPossible(name)
		return info, err
	}
	return a.Fs.Stat(name)
}

func (a *aferoFS) Readlink(name string) (string, error) {
	if r, ok := a.Fs.(afero.LinkReader); ok {
		return r.ReadlinkIfPossible(name)
	}
	return "", unsupported("readlink", name)
}

func (a *aferoFS) Symlink(oldname, newname string) error {
	if l, ok := a.Fs.(afero.Linker); ok {
		return l.SymlinkIfPossible(oldname, newname)
	}
	return unsupported("symlink", newname)
}

func (a *aferoFS) Lchown(name string, uid, gid int) error {
	info, err := a.Lstat(name)
	if err != nil {
		return err
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return nil
	}
	return a.Fs.Chown(name, uid, gid)
}

func (a *aferoFS) Mknod(name string, _ fs.FileMode, _ bool, _, _ uint32) error {
	return unsupported("mknod", name)
}

func (a *aferoFS) Attrs(name string) (Attr, bool, error) {
	if _, err := a.Lstat(name); err != nil {
		return Attr{}, false, err
	}
	return Attr{}, false, nil
}

func unsupported(op, name string) error {
	return errors.Newf(errors.ErrNotSupported, "%s not supported by this filesystem", op).
		WithDetail("path", name)
}
