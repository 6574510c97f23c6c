package archive

import (
	"archive/tar"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/arthur-debert/fsmerge/pkg/contents"
	"github.com/arthur-debert/fsmerge/pkg/errors"
	"github.com/arthur-debert/fsmerge/pkg/fsobj"
	"github.com/arthur-debert/fsmerge/pkg/paths"
	"github.com/spf13/afero"
)

// WriteOptions controls how a set is written
type WriteOptions struct {
	Compression Compression
	// AbsolutePaths writes member names as locations instead of ./relative
	AbsolutePaths bool
}

// WriteSet writes set to w as an uncompressed tar stream. Directories are
// written first, sorted by path, followed by everything else in set order.
func WriteSet(set *contents.Set, w io.Writer, absolute bool) error {
	tw := tar.NewWriter(w)

	dirs := set.Dirs().Objects()
	slices.SortFunc(dirs, func(a, b fsobj.Object) int {
		return strings.Compare(a.Path(), b.Path())
	})
	for _, dir := range dirs {
		if err := writeObject(tw, dir, absolute); err != nil {
			return err
		}
	}
	for obj := range set.IterDirs(true) {
		if err := writeObject(tw, obj, absolute); err != nil {
			return err
		}
	}

	if err := tw.Close(); err != nil {
		return errors.Wrap(err, errors.ErrArchiveWrite, "failed to finish tar stream")
	}
	return nil
}

// CreateFile writes set as a tar archive at path on fs
func CreateFile(fs afero.Fs, path string, set *contents.Set, opts WriteOptions) (err error) {
	f, err := fs.Create(path)
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileCreate, "failed to create archive %s", path)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.Wrapf(cerr, errors.ErrArchiveWrite, "failed to close archive %s", path)
		}
	}()

	cw, err := compress(f, opts.Compression)
	if err != nil {
		return err
	}
	if err := WriteSet(set, cw, opts.AbsolutePaths); err != nil {
		_ = cw.Close()
		return err
	}
	if err := cw.Close(); err != nil {
		return errors.Wrapf(err, errors.ErrArchiveWrite, "failed to flush %s stream", opts.Compression)
	}
	return nil
}

func writeObject(tw *tar.Writer, obj fsobj.Object, absolute bool) error {
	meta := obj.Metadata()
	hdr := &tar.Header{
		Name:    memberName(obj.Path(), absolute),
		Mode:    int64(meta.Mode),
		Uid:     meta.UID,
		Gid:     meta.GID,
		ModTime: meta.ModTime(),
		Format:  tar.FormatPAX,
	}

	var data fsobj.DataSource
	switch o := obj.(type) {
	case fsobj.File:
		size, err := sizeOf(o)
		if err != nil {
			return err
		}
		hdr.Typeflag = tar.TypeReg
		hdr.Size = size
		data = o.Data
	case fsobj.Dir:
		hdr.Typeflag = tar.TypeDir
		hdr.Name += paths.Separator
	case fsobj.Symlink:
		hdr.Typeflag = tar.TypeSymlink
		hdr.Linkname = o.Target
	case fsobj.Fifo:
		hdr.Typeflag = tar.TypeFifo
	case fsobj.Device:
		hdr.Typeflag = tar.TypeBlock
		if o.Char {
			hdr.Typeflag = tar.TypeChar
		}
		hdr.Devmajor = int64(o.Major)
		hdr.Devminor = int64(o.Minor)
	}

	if err := tw.WriteHeader(hdr); err != nil {
		return errors.Wrapf(err, errors.ErrArchiveWrite, "failed to write header for %s", obj.Path())
	}
	if data == nil || hdr.Size == 0 {
		return nil
	}
	rc, err := data.Open()
	if err != nil {
		return errors.Wrapf(err, errors.ErrArchiveWrite, "failed to open data for %s", obj.Path())
	}
	defer func() { _ = rc.Close() }()
	if _, err := io.Copy(tw, rc); err != nil {
		return errors.Wrapf(err, errors.ErrArchiveWrite, "failed to write data for %s", obj.Path())
	}
	return nil
}

func memberName(loc string, absolute bool) string {
	if absolute {
		return loc
	}
	return "./" + strings.TrimPrefix(loc, paths.Separator)
}

// sizeOf returns the recorded size of f, reading the data when no size
// was recorded
func sizeOf(f fsobj.File) (int64, error) {
	if size := f.Size(); size >= 0 {
		return size, nil
	}
	if f.Data == nil {
		return 0, nil
	}
	sums, err := fsobj.Checksum(f.Data)
	if err != nil {
		return 0, errors.Wrapf(err, errors.ErrArchiveWrite, "failed to size %s", f.Location)
	}
	return strconv.ParseInt(sums[fsobj.ChksumSize], 10, 64)
}
