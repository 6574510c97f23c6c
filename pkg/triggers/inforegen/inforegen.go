// Package inforegen rebuilds GNU info directory indexes after merges that
// touched the info page directories.
package inforegen

import (
	"path/filepath"
	"slices"
	"strings"

	"github.com/arthur-debert/fsmerge/pkg/contents"
	"github.com/arthur-debert/fsmerge/pkg/errors"
	"github.com/arthur-debert/fsmerge/pkg/logging"
	"github.com/arthur-debert/fsmerge/pkg/mtime"
	"github.com/arthur-debert/fsmerge/pkg/paths"
	"github.com/arthur-debert/fsmerge/pkg/spawn"
	"github.com/arthur-debert/fsmerge/pkg/triggers"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

const (
	Label         = "gnu info regen"
	DefaultBinary = "install-info"
)

// DefaultLocations are the info page directories watched
var DefaultLocations = []string{"/usr/share/info"}

// index files install-info maintains; never fed back to it
var indexFiles = []string{"dir", "dir.old"}

// Trigger regenerates info indexes
type Trigger struct {
	triggers.Base
	fs        afero.Fs
	runner    spawn.Runner
	watcher   *mtime.Watcher
	logger    zerolog.Logger
	locations []string
	binary    string
}

// Option configures a Trigger
type Option func(*Trigger)

// WithLocations overrides DefaultLocations
func WithLocations(locs ...string) Option {
	return func(t *Trigger) { t.locations = locs }
}

// WithBinary overrides DefaultBinary
func WithBinary(bin string) Option {
	return func(t *Trigger) { t.binary = bin }
}

// WithWatcher replaces the mtime watcher
func WithWatcher(w *mtime.Watcher) Option {
	return func(t *Trigger) { t.watcher = w }
}

// New returns an info regeneration trigger
func New(fsys afero.Fs, runner spawn.Runner, opts ...Option) *Trigger {
	t := &Trigger{
		Base: triggers.NewBase(Label,
			[]triggers.Hook{triggers.HookPreMerge, triggers.HookPostMerge, triggers.HookPreUnmerge, triggers.HookPostUnmerge},
			triggers.WithRequirement(triggers.RequireNone())),
		fs:        fsys,
		runner:    runner,
		logger:    logging.GetLogger("inforegen"),
		locations: DefaultLocations,
		binary:    DefaultBinary,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.watcher == nil {
		t.watcher = mtime.New(fsys)
	}
	return t
}

func (t *Trigger) Run(eng *triggers.Engine, _ triggers.Changesets) error {
	bin, err := t.runner.FindBinary(t.binary)
	if err != nil {
		t.logger.Debug().Str("binary", t.binary).Msg("Indexer not found, skipping")
		return nil
	}

	dirs := make([]string, len(t.locations))
	for i, loc := range t.locations {
		dirs[i] = paths.Under(eng.Offset(), loc)
	}

	phase := eng.Phase()
	if phase.IsPre() {
		// replace runs pre_unmerge after the merge; keep the earlier snapshot
		if t.watcher.Armed() {
			return nil
		}
		return t.watcher.SetState(dirs)
	}
	if phase == triggers.HookPostMerge && eng.Mode() == triggers.ModeReplace {
		return nil
	}

	saved := t.watcher.Snapshot()
	if saved == nil {
		saved = contents.NewOrdered()
	}
	current, err := t.watcher.Current(dirs)
	if err != nil {
		return err
	}
	t.watcher.Reset()

	for obj := range saved.Difference(current).All() {
		for _, name := range indexFiles {
			if err := t.fs.Remove(filepath.Join(obj.Path(), name)); err == nil {
				t.logger.Debug().Str("dir", obj.Path()).Str("index", name).Msg("Removed stale index")
			}
		}
	}

	var bad []string
	for obj := range current.All() {
		prev, ok := saved.Get(obj.Path())
		if ok && prev.Metadata().Mtime == obj.Metadata().Mtime {
			continue
		}
		failed, err := t.regen(eng, bin, obj.Path())
		if err != nil {
			return err
		}
		bad = append(bad, failed...)
	}
	if len(bad) > 0 {
		slices.Sort(bad)
		return triggers.Warning(t, "bad info files: %s", strings.Join(bad, ", "))
	}
	return nil
}

// regen rebuilds the index of dir and returns the files the indexer
// complained about
func (t *Trigger) regen(eng *triggers.Engine, bin, dir string) ([]string, error) {
	entries, err := afero.ReadDir(t.fs, dir)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "cannot list %s", dir)
	}
	for _, name := range indexFiles {
		if err := t.fs.Remove(filepath.Join(dir, name)); err != nil && !errors.IsNotExist(err) {
			return nil, errors.Wrapf(err, errors.ErrFileAccess, "cannot remove %s index", dir)
		}
	}

	index := filepath.Join(dir, "dir")
	var bad []string
	for _, entry := range entries {
		if !entry.Mode().IsRegular() || slices.Contains(indexFiles, entry.Name()) {
			continue
		}
		file := filepath.Join(dir, entry.Name())
		res, err := t.runner.Run(eng.Context(), bin, "--quiet", file, "--dir-file", index)
		if err != nil {
			t.logger.Warn().Err(err).Str("file", file).Msg("Indexer failed to run")
			bad = append(bad, file)
			continue
		}
		if acceptable(res.Output()) {
			continue
		}
		t.logger.Debug().Str("file", file).Str("output", res.Output()).Msg("Indexer rejected file")
		bad = append(bad, file)
	}
	t.logger.Info().Str("dir", dir).Int("files", len(entries)).Int("bad", len(bad)).Msg("Regenerated info index")
	return bad, nil
}

func acceptable(output string) bool {
	return output == "" ||
		strings.Contains(output, "already exists") ||
		strings.Contains(output, "warning: no info dir entry")
}
