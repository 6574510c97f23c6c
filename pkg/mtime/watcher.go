// Package mtime snapshots directory modification times so that callers
// can tell whether anything in a set of directories changed between two
// points in time.
//
// Filesystems with whole-second timestamps cannot tell apart two writes
// that land in the same second. SetState therefore never records a
// timestamp in the current second: timestamps at or after it are pushed
// into the past on disk, and SetState returns only once the clock has
// moved past the second it observed.
package mtime

import (
	"math"
	"time"

	"github.com/arthur-debert/fsmerge/pkg/contents"
	"github.com/arthur-debert/fsmerge/pkg/errors"
	"github.com/arthur-debert/fsmerge/pkg/fsobj"
	"github.com/arthur-debert/fsmerge/pkg/logging"
	"github.com/arthur-debert/fsmerge/pkg/paths"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// DefaultGuard is how far into the past future timestamps are pushed
const DefaultGuard = 2 * time.Second

// Watcher snapshots the mtimes of a fixed list of directories
type Watcher struct {
	fs     afero.Fs
	guard  time.Duration
	now    func() time.Time
	sleep  func(time.Duration)
	logger zerolog.Logger

	locations []string
	saved     *contents.Set
}

// Option configures a Watcher
type Option func(*Watcher)

// WithClock replaces the wall clock
func WithClock(now func() time.Time, sleep func(time.Duration)) Option {
	return func(w *Watcher) {
		w.now = now
		w.sleep = sleep
	}
}

// WithGuard sets how far future timestamps are pushed into the past
func WithGuard(d time.Duration) Option {
	return func(w *Watcher) { w.guard = d }
}

// New returns an unarmed watcher over fs
func New(fs afero.Fs, opts ...Option) *Watcher {
	w := &Watcher{
		fs:     fs,
		guard:  DefaultGuard,
		now:    time.Now,
		sleep:  time.Sleep,
		logger: logging.GetLogger("mtime"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Armed reports whether SetState has captured a snapshot
func (w *Watcher) Armed() bool { return w.saved != nil }

// Snapshot returns the armed snapshot, a frozen set of directories, or nil
func (w *Watcher) Snapshot() *contents.Set { return w.saved }

// Locations returns the locations passed to the last SetState
func (w *Watcher) Locations() []string { return w.locations }

// SetState snapshots the directories among locations. Missing paths,
// dangling symlinks and non-directories are skipped.
func (w *Watcher) SetState(locations []string) error {
	dirs, err := w.scan(locations)
	if err != nil {
		return err
	}

	now := w.now()
	cutoff := float64(now.Unix())
	past := math.Max(cutoff-w.guard.Seconds(), 0)

	snapshot := contents.New()
	resets := 0
	for _, dir := range dirs {
		if dir.Mtime > cutoff {
			ts := fsobj.MtimeToTime(past)
			if err := w.fs.Chtimes(dir.Location, ts, ts); err != nil {
				return errors.Wrapf(err, errors.ErrFileAccess, "failed to reset mtime of %s", dir.Location)
			}
			w.logger.Debug().
				Str("path", dir.Location).
				Float64("mtime", dir.Mtime).
				Float64("reset", past).
				Msg("Reset future mtime")
			dir = fsobj.Change(dir, fsobj.WithMtime(past)).(fsobj.Dir)
			resets++
		}
		if err := snapshot.Add(dir); err != nil {
			return err
		}
	}

	if resets > 0 {
		w.sleepPast(now)
	} else {
		for obj := range snapshot.All() {
			// equality matters: a filesystem without sub-second
			// timestamps reports exactly the floored second
			if math.Floor(obj.Metadata().Mtime) == cutoff {
				w.sleep(time.Second)
				break
			}
		}
	}

	w.locations = append([]string(nil), locations...)
	w.saved = snapshot.Freeze()
	return nil
}

// sleepPast blocks until the clock has left the second containing t
func (w *Watcher) sleepPast(t time.Time) {
	boundary := t.Truncate(time.Second)
	if boundary.Equal(t) {
		return
	}
	boundary = boundary.Add(time.Second)
	if cur := w.now(); cur.Before(boundary) {
		w.sleep(boundary.Sub(cur))
	}
}

// CheckState rescans and reports whether the set of directories or any
// directory mtime differs from the armed snapshot. A nil locations reuses
// the locations given to SetState.
func (w *Watcher) CheckState(locations []string) (bool, error) {
	if w.saved == nil {
		return false, errors.New(errors.ErrNotArmed, "mtime watcher has no snapshot")
	}
	if locations == nil {
		locations = w.locations
	}
	current, err := w.Current(locations)
	if err != nil {
		return false, err
	}
	if !current.Equal(w.saved) {
		return true, nil
	}
	for obj := range current.All() {
		prev, _ := w.saved.Get(obj.Path())
		if obj.Metadata().Mtime != prev.Metadata().Mtime {
			return true, nil
		}
	}
	return false, nil
}

// Current returns a frozen set of the directories among locations as
// they are now, without touching the snapshot
func (w *Watcher) Current(locations []string) (*contents.Set, error) {
	dirs, err := w.scan(locations)
	if err != nil {
		return nil, err
	}
	current := contents.New()
	for _, dir := range dirs {
		if err := current.Add(dir); err != nil {
			return nil, err
		}
	}
	return current.Freeze(), nil
}

// Reset drops the snapshot
func (w *Watcher) Reset() {
	w.saved = nil
	w.locations = nil
}

func (w *Watcher) scan(locations []string) ([]fsobj.Dir, error) {
	var dirs []fsobj.Dir
	for _, loc := range locations {
		fi, err := w.fs.Stat(loc)
		if err != nil {
			if errors.IsNotExist(err) {
				continue
			}
			return nil, errors.Wrapf(err, errors.ErrFileAccess, "failed to stat %s", loc)
		}
		if !fi.IsDir() {
			continue
		}
		dirs = append(dirs, fsobj.NewDir(paths.Normalize(loc),
			fsobj.WithMode(fsobj.ModeFromFileMode(fi.Mode())),
			fsobj.WithMtime(fsobj.TimeToMtime(fi.ModTime()))))
	}
	return dirs, nil
}
