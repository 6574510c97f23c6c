// Package ldconfig keeps the dynamic linker cache current: it watches the
// library directories named in ld.so.conf across a merge and reruns
// ldconfig when any of them changed.
package ldconfig

import (
	"bufio"
	"bytes"
	"strings"

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
	// DefaultConfPath is the ld.so.conf location relative to the offset
	DefaultConfPath = "etc/ld.so.conf"
	DefaultBinary   = "ldconfig"
)

// DefaultLibDirs are watched when there is no ld.so.conf
var DefaultLibDirs = []string{"usr/lib", "usr/lib64", "usr/lib32", "lib", "lib64", "lib32"}

// Trigger reruns ldconfig after merges that touch library directories
type Trigger struct {
	triggers.Base
	fs      afero.Fs
	runner  spawn.Runner
	watcher *mtime.Watcher
	logger  zerolog.Logger

	confPath string
	binary   string
}

// Option configures a Trigger
type Option func(*Trigger)

// WithConfPath overrides DefaultConfPath
func WithConfPath(p string) Option {
	return func(t *Trigger) { t.confPath = strings.TrimLeft(p, paths.Separator) }
}

// WithBinary overrides DefaultBinary
func WithBinary(bin string) Option {
	return func(t *Trigger) { t.binary = bin }
}

// WithWatcher replaces the mtime watcher
func WithWatcher(w *mtime.Watcher) Option {
	return func(t *Trigger) { t.watcher = w }
}

// New returns an ldconfig trigger working on fsys
func New(fsys afero.Fs, runner spawn.Runner, opts ...Option) *Trigger {
	t := &Trigger{
		Base: triggers.NewBase("ldconfig",
			[]triggers.Hook{triggers.HookPreMerge, triggers.HookPostMerge, triggers.HookPreUnmerge, triggers.HookPostUnmerge},
			triggers.WithPriority(10),
			triggers.WithRequirement(triggers.RequireNone())),
		fs:       fsys,
		runner:   runner,
		logger:   logging.GetLogger("ldconfig"),
		confPath: DefaultConfPath,
		binary:   DefaultBinary,
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
	offset := eng.Offset()
	locations, err := t.LibDirs(offset)
	if err != nil {
		return err
	}
	if eng.Phase().IsPre() {
		return t.watcher.SetState(locations)
	}

	changed, err := t.watcher.CheckState(locations)
	switch {
	case errors.IsErrorCode(err, errors.ErrNotArmed):
		changed = true
	case err != nil:
		return err
	}
	if !changed {
		t.logger.Debug().Msg("Library directories unchanged, skipping ldconfig")
		return nil
	}
	return t.regen(eng)
}

func (t *Trigger) regen(eng *triggers.Engine) error {
	res, err := t.runner.Run(eng.Context(), t.binary, "-r", eng.Offset())
	if err != nil {
		return triggers.Warning(t, "ldconfig could not run: %v", err)
	}
	if !res.Success() {
		return triggers.Warning(t, "ldconfig returned %d from execution", res.ExitCode)
	}
	return nil
}

// LibDirs returns the on-disk library directories below offset. A
// missing ld.so.conf is created empty and DefaultLibDirs are used.
func (t *Trigger) LibDirs(offset string) ([]string, error) {
	conf := paths.Under(offset, t.confPath)
	data, err := afero.ReadFile(t.fs, conf)
	var dirs []string
	switch {
	case err == nil:
		dirs = parseConf(data)
	case errors.IsNotExist(err):
		if err := t.createConf(conf); err != nil {
			return nil, err
		}
		dirs = DefaultLibDirs
	default:
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "cannot read %s", conf)
	}

	out := make([]string, len(dirs))
	for i, d := range dirs {
		out[i] = paths.Under(offset, d)
	}
	return out, nil
}

func (t *Trigger) createConf(conf string) error {
	if err := t.fs.MkdirAll(paths.Dir(conf), 0o755); err != nil {
		return triggers.Block(t, "failed creating %s: %v", paths.Dir(conf), err)
	}
	if err := afero.WriteFile(t.fs, conf, nil, 0o644); err != nil {
		return triggers.Block(t, "failed creating %s: %v", conf, err)
	}
	t.logger.Info().Str("path", conf).Msg("Created empty ld.so.conf")
	return nil
}

// parseConf returns the entries of an ld.so.conf, relative to the root.
// Comments run from # to the end of the line; blank lines are skipped.
func parseConf(data []byte) []string {
	var dirs []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line, _, _ := strings.Cut(scanner.Text(), "#")
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		dirs = append(dirs, strings.TrimLeft(line, paths.Separator))
	}
	return dirs
}
