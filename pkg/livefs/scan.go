package livefs

import (
	"io/fs"

	"github.com/arthur-debert/fsmerge/pkg/contents"
	"github.com/arthur-debert/fsmerge/pkg/errors"
	"github.com/arthur-debert/fsmerge/pkg/filesystem"
	"github.com/arthur-debert/fsmerge/pkg/fsobj"
	"github.com/arthur-debert/fsmerge/pkg/logging"
	"github.com/arthur-debert/fsmerge/pkg/paths"
	"github.com/spf13/afero"
)

// Scan walks the subtree at root, a location below offset, into a mutable
// set. The filesystem root itself is never included.
func Scan(fsys filesystem.FS, offset, root string) (*contents.Set, error) {
	logger := logging.GetLogger("livefs")
	set := contents.New()
	base := paths.Under(offset, root)

	err := afero.Walk(fsys, base, func(p string, _ fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		loc, ok := paths.Strip(offset, p)
		if !ok || loc == paths.Separator {
			return nil
		}
		obj, err := GenObj(fsys, p, loc)
		if err != nil {
			return err
		}
		return set.Add(obj)
	})
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "cannot scan %s", base)
	}
	logger.Debug().Str("root", base).Int("entries", set.Len()).Msg("Scanned subtree")
	return set, nil
}

// Rescan regenerates every entry of set from what is below offset now.
// Entries that no longer exist are dropped with a warning; any other
// error aborts. Order and orderedness follow set.
func Rescan(fsys filesystem.FS, offset string, set *contents.Set) (*contents.Set, error) {
	logger := logging.GetLogger("livefs")
	objs := make([]fsobj.Object, 0, set.Len())
	for obj := range set.All() {
		fresh, err := GenObj(fsys, paths.Under(offset, obj.Path()), obj.Path())
		if err != nil {
			if errors.IsNotExist(err) {
				logger.Warn().Str("path", obj.Path()).Msg("Entry vanished, dropping it")
				continue
			}
			return nil, err
		}
		objs = append(objs, fresh)
	}
	if set.IsOrdered() {
		return contents.NewOrdered(objs...), nil
	}
	return contents.New(objs...), nil
}

// AddChecksums returns set with every regular file carrying its full
// size and BLAKE3 checksums
func AddChecksums(set *contents.Set) (*contents.Set, error) {
	var failed error
	out := set.Map(func(obj fsobj.Object) fsobj.Object {
		f, ok := obj.(fsobj.File)
		if !ok || f.Data == nil || failed != nil {
			return obj
		}
		sums, err := fsobj.Checksum(f.Data)
		if err != nil {
			failed = errors.Wrapf(err, errors.ErrFileAccess, "cannot checksum %s", f.Location)
			return obj
		}
		f.Chksums = sums
		return f
	})
	if failed != nil {
		return nil, failed
	}
	return out, nil
}
