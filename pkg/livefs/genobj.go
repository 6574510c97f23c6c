package livefs

import (
	"io"
	"io/fs"

	"github.com/arthur-debert/fsmerge/pkg/errors"
	"github.com/arthur-debert/fsmerge/pkg/filesystem"
	"github.com/arthur-debert/fsmerge/pkg/fsobj"
)

// FileSource reads a regular file from a filesystem each time it is opened
type FileSource struct {
	fs   filesystem.FS
	path string
}

// NewFileSource returns a source for path on fsys
func NewFileSource(fsys filesystem.FS, path string) *FileSource {
	return &FileSource{fs: fsys, path: path}
}

// Path returns the on-disk path
func (s *FileSource) Path() string { return s.path }

func (s *FileSource) Open() (io.ReadCloser, error) {
	return s.fs.Open(s.path)
}

// GenObj builds the object for location from the entry at diskPath,
// without following a final symlink.
func GenObj(fsys filesystem.FS, diskPath, location string) (fsobj.Object, error) {
	info, err := fsys.Lstat(diskPath)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "cannot stat %s", diskPath)
	}
	attr, owned, err := fsys.Attrs(diskPath)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "cannot stat %s", diskPath)
	}

	opts := []fsobj.Option{
		fsobj.WithMode(fsobj.ModeFromFileMode(info.Mode())),
		fsobj.WithMtime(fsobj.TimeToMtime(info.ModTime())),
	}
	if owned {
		opts = append(opts, fsobj.WithUID(attr.UID), fsobj.WithGID(attr.GID))
	}

	mode := info.Mode()
	switch {
	case mode.IsDir():
		return fsobj.NewDir(location, opts...), nil
	case mode&fs.ModeSymlink != 0:
		target, err := fsys.Readlink(diskPath)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrFileAccess, "cannot read link %s", diskPath)
		}
		return fsobj.NewSymlink(location, target, opts...), nil
	case mode&fs.ModeNamedPipe != 0:
		return fsobj.NewFifo(location, opts...), nil
	case mode&fs.ModeDevice != 0:
		char := mode&fs.ModeCharDevice != 0
		return fsobj.NewDevice(location, attr.Major, attr.Minor, char, opts...), nil
	case mode.IsRegular():
		f := fsobj.NewFile(location, NewFileSource(fsys, diskPath), fsobj.SizeChksum(info.Size()), opts...)
		if owned {
			f.Dev, f.Inode = &attr.Dev, &attr.Inode
		}
		return f, nil
	}
	return nil, errors.Newf(errors.ErrUnsupportedEntryType, "cannot represent %s (%s)", diskPath, mode.Type()).
		WithDetail("name", location)
}

