package commands

import (
	"path/filepath"

	"github.com/arthur-debert/fsmerge/pkg/archive"
	"github.com/arthur-debert/fsmerge/pkg/errors"
	"github.com/arthur-debert/fsmerge/pkg/livefs"
	"github.com/arthur-debert/fsmerge/pkg/logging"
)

// Pack writes the installed files of name to a tar archive at out. The
// recorded entries are read back from disk, so local edits are packed and
// vanished entries are left out. Compression follows the suffix of out,
// falling back to the configured default for an unrecognized suffix.
func Pack(env Env, name, out string) error {
	logger := logging.GetLogger("commands.pack")
	logger.Debug().Str("package", name).Str("out", out).Msg("Executing command")

	cfg := env.config()
	recorded, err := env.Store().Read(name)
	if err != nil {
		return err
	}
	set, err := livefs.Rescan(env.FS, cfg.Root, recorded)
	if err != nil {
		return err
	}

	comp := archive.DetectCompression(out)
	if comp == archive.CompressionNone && !archive.IsPlainTar(out) {
		comp, err = archive.ParseCompression(cfg.Archive.Compression)
		if err != nil {
			return err
		}
	}
	if comp == archive.CompressionBzip2 {
		return errors.Newf(errors.ErrNotSupported, "cannot write bzip2 archives: %s", out)
	}

	if err := env.FS.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return errors.Wrapf(err, errors.ErrDirCreate, "cannot create %s", filepath.Dir(out))
	}
	opts := archive.WriteOptions{Compression: comp, AbsolutePaths: cfg.Archive.AbsolutePaths}
	if err := archive.CreateFile(env.FS, out, set, opts); err != nil {
		return err
	}
	logger.Info().Str("package", name).Str("out", out).Stringer("compression", comp).
		Int("entries", set.Len()).Msg("Packed")
	return nil
}
