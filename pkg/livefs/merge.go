package livefs

import (
	"cmp"
	"io"
	"io/fs"
	"os"
	"slices"

	"github.com/arthur-debert/fsmerge/pkg/contents"
	"github.com/arthur-debert/fsmerge/pkg/errors"
	"github.com/arthur-debert/fsmerge/pkg/filesystem"
	"github.com/arthur-debert/fsmerge/pkg/fsobj"
	"github.com/arthur-debert/fsmerge/pkg/logging"
	"github.com/arthur-debert/fsmerge/pkg/paths"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// Callback is told about each object just before it is applied or removed
type Callback func(fsobj.Object)

// MergeOption configures MergeContents
type MergeOption func(*merger)

// WithOwnership controls whether uid/gid are applied. The default is to
// apply them only when running as root.
func WithOwnership(chown bool) MergeOption {
	return func(m *merger) { m.chown = chown }
}

type merger struct {
	fs     filesystem.FS
	offset string
	chown  bool
	logger zerolog.Logger
}

// MergeContents writes set below offset: directories first, parents
// before children, then everything else in set order. Existing
// non-directories in the way are replaced; existing directories and
// symlinks standing in for directories are kept.
func MergeContents(fsys filesystem.FS, offset string, set *contents.Set, cb Callback, opts ...MergeOption) error {
	m := &merger{
		fs:     fsys,
		offset: offset,
		chown:  os.Geteuid() == 0,
		logger: logging.GetLogger("livefs"),
	}
	for _, opt := range opts {
		opt(m)
	}

	dirs := set.Dirs().SortedBy(func(a, b fsobj.Object) int {
		return cmp.Compare(a.Path(), b.Path())
	})
	for obj := range dirs.All() {
		if err := m.apply(obj, cb); err != nil {
			return err
		}
	}
	for obj := range set.IterDirs(true) {
		if err := m.apply(obj, cb); err != nil {
			return err
		}
	}
	return nil
}

func (m *merger) apply(obj fsobj.Object, cb Callback) error {
	if cb != nil {
		cb(obj)
	}
	p := paths.Under(m.offset, obj.Path())
	meta := obj.Metadata()
	perm := fsobj.FileMode(meta.Mode)

	if _, isDir := obj.(fsobj.Dir); isDir {
		if m.isLink(p) {
			return nil
		}
	} else if err := m.clear(p); err != nil {
		return err
	}

	var err error
	switch o := obj.(type) {
	case fsobj.Dir:
		err = m.mkdir(p, perm)
	case fsobj.File:
		err = m.writeFile(p, o, perm)
	case fsobj.Symlink:
		err = m.fs.Symlink(o.Target, p)
		if err != nil {
			return errors.Wrapf(err, errors.ErrSymlinkCreate, "cannot link %s", p)
		}
		return m.own(p, meta)
	case fsobj.Fifo:
		err = m.fs.Mknod(p, perm, false, 0, 0)
	case fsobj.Device:
		devMode := perm | fs.ModeDevice
		if o.Char {
			devMode |= fs.ModeCharDevice
		}
		err = m.fs.Mknod(p, devMode, true, o.Major, o.Minor)
	default:
		return errors.Newf(errors.ErrUnsupportedEntryType, "cannot merge %s", obj)
	}
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileCreate, "cannot create %s", p)
	}

	if err := m.fs.Chmod(p, perm); err != nil {
		return errors.Wrapf(err, errors.ErrFileAccess, "cannot chmod %s", p)
	}
	if err := m.own(p, meta); err != nil {
		return err
	}
	if _, isDir := obj.(fsobj.Dir); !isDir {
		mt := meta.ModTime()
		if err := m.fs.Chtimes(p, mt, mt); err != nil {
			return errors.Wrapf(err, errors.ErrFileAccess, "cannot set times on %s", p)
		}
	}
	m.logger.Trace().Str("path", p).Stringer("kind", obj.Kind()).Msg("Merged")
	return nil
}

// clear removes a non-directory at p so something else can take its place
func (m *merger) clear(p string) error {
	info, err := m.fs.Lstat(p)
	if err != nil {
		if errors.IsNotExist(err) {
			return nil
		}
		return errors.Wrapf(err, errors.ErrFileAccess, "cannot stat %s", p)
	}
	if info.IsDir() {
		return errors.Newf(errors.ErrAlreadyExists, "directory in the way of %s", p).
			WithDetail("path", p)
	}
	if err := m.fs.Remove(p); err != nil {
		return errors.Wrapf(err, errors.ErrFileAccess, "cannot replace %s", p)
	}
	return nil
}

func (m *merger) isLink(p string) bool {
	info, err := m.fs.Lstat(p)
	return err == nil && info.Mode()&fs.ModeSymlink != 0
}

func (m *merger) mkdir(p string, perm fs.FileMode) error {
	info, err := m.fs.Lstat(p)
	switch {
	case err == nil && info.IsDir():
		return nil
	case err == nil:
		return errors.Newf(errors.ErrDirCreate, "%s exists and is not a directory", p)
	case !errors.IsNotExist(err):
		return err
	}
	if err := m.fs.MkdirAll(p, perm.Perm()); err != nil {
		return errors.Wrapf(err, errors.ErrDirCreate, "cannot create %s", p)
	}
	return nil
}

func (m *merger) writeFile(p string, f fsobj.File, perm fs.FileMode) error {
	out, err := m.fs.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm.Perm())
	if err != nil {
		return err
	}
	if f.Data == nil {
		return out.Close()
	}
	in, err := f.Data.Open()
	if err != nil {
		out.Close()
		return err
	}
	defer in.Close()
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func (m *merger) own(p string, meta fsobj.Meta) error {
	if !m.chown {
		return nil
	}
	if err := m.fs.Lchown(p, meta.UID, meta.GID); err != nil {
		return errors.Wrapf(err, errors.ErrFileAccess, "cannot chown %s", p)
	}
	return nil
}

// UnmergeContents removes set from below offset. Non-directories go
// first; directories follow deepest first and are left in place when
// something else still lives in them. Entries already gone are ignored,
// as are on-disk entries whose kind no longer matches.
func UnmergeContents(fsys filesystem.FS, offset string, set *contents.Set, cb Callback) error {
	logger := logging.GetLogger("livefs")

	for obj := range set.IterDirs(true) {
		p := paths.Under(offset, obj.Path())
		info, err := fsys.Lstat(p)
		if err != nil {
			if errors.IsNotExist(err) {
				continue
			}
			return errors.Wrapf(err, errors.ErrFileAccess, "cannot stat %s", p)
		}
		if info.IsDir() {
			logger.Warn().Str("path", p).Msg("Directory found where a file was recorded, leaving it")
			continue
		}
		if cb != nil {
			cb(obj)
		}
		if err := fsys.Remove(p); err != nil && !errors.IsNotExist(err) {
			return errors.Wrapf(err, errors.ErrFileAccess, "cannot remove %s", p)
		}
	}

	dirs := set.Dirs().Objects()
	slices.SortFunc(dirs, func(a, b fsobj.Object) int {
		if c := cmp.Compare(paths.Depth(b.Path()), paths.Depth(a.Path())); c != 0 {
			return c
		}
		return cmp.Compare(b.Path(), a.Path())
	})
	for _, obj := range dirs {
		p := paths.Under(offset, obj.Path())
		info, err := fsys.Lstat(p)
		if err != nil {
			if errors.IsNotExist(err) {
				continue
			}
			return errors.Wrapf(err, errors.ErrFileAccess, "cannot stat %s", p)
		}
		if !info.IsDir() {
			continue
		}
		entries, err := afero.ReadDir(fsys, p)
		if err != nil {
			return errors.Wrapf(err, errors.ErrFileAccess, "cannot list %s", p)
		}
		if len(entries) > 0 {
			logger.Debug().Str("path", p).Int("entries", len(entries)).Msg("Directory not empty, keeping it")
			continue
		}
		if cb != nil {
			cb(obj)
		}
		if err := fsys.Remove(p); err != nil && !errors.IsNotExist(err) {
			return errors.Wrapf(err, errors.ErrFileAccess, "cannot remove %s", p)
		}
	}
	return nil
}
