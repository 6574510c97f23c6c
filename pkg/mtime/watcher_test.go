package mtime

import (
	"testing"
	"time"

	"github.com/arthur-debert/fsmerge/pkg/errors"
	"github.com/arthur-debert/fsmerge/pkg/testutil"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T, now time.Time) (afero.Fs, *testutil.FakeClock, *Watcher) {
	t.Helper()
	fs := afero.NewMemMapFs()
	clock := testutil.NewFakeClock(now)
	return fs, clock, New(fs, WithClock(clock.Now, clock.Sleep))
}

func mkdir(t *testing.T, fs afero.Fs, path string, mtime time.Time) {
	t.Helper()
	require.NoError(t, fs.MkdirAll(path, 0o755))
	require.NoError(t, fs.Chtimes(path, mtime, mtime))
}

var base = testutil.DefaultTime

func TestCheckState_NotArmed(t *testing.T) {
	_, _, w := setup(t, base)
	assert.False(t, w.Armed())
	_, err := w.CheckState(nil)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrNotArmed))
}

func TestSetState_SkipsMissingAndFiles(t *testing.T) {
	fs, clock, w := setup(t, base.Add(300*time.Millisecond))
	mkdir(t, fs, "/usr/lib", base.Add(-time.Hour))
	require.NoError(t, afero.WriteFile(fs, "/usr/file", []byte("x"), 0o644))

	require.NoError(t, w.SetState([]string{"/usr/lib", "/usr/file", "/usr/missing"}))

	assert.True(t, w.Armed())
	assert.Equal(t, []string{"/usr/lib"}, w.Snapshot().Locations())
	assert.Empty(t, clock.Slept(), "old timestamps need no pause")
}

func TestSetState_ResetsFutureTimestamps(t *testing.T) {
	now := base.Add(400 * time.Millisecond)
	fs, clock, w := setup(t, now)
	mkdir(t, fs, "/lib", base.Add(10*time.Second))

	require.NoError(t, w.SetState([]string{"/lib"}))

	fi, err := fs.Stat("/lib")
	require.NoError(t, err)
	assert.Equal(t, base.Add(-2*time.Second).Unix(), fi.ModTime().Unix(), "on-disk mtime pushed into the past")

	dir, _ := w.Snapshot().Get("/lib")
	assert.Equal(t, float64(base.Unix()-2), dir.Metadata().Mtime)

	require.Len(t, clock.Slept(), 1)
	assert.Equal(t, 600*time.Millisecond, clock.Slept()[0])
	assert.Equal(t, base.Add(time.Second), clock.Now(), "returns on the next second boundary")
}

func TestSetState_CurrentSecondPauses(t *testing.T) {
	fs, clock, w := setup(t, base.Add(300*time.Millisecond))
	mkdir(t, fs, "/lib", base)

	require.NoError(t, w.SetState([]string{"/lib"}))

	assert.Equal(t, []time.Duration{time.Second}, clock.Slept())
	dir, _ := w.Snapshot().Get("/lib")
	assert.Equal(t, float64(base.Unix()), dir.Metadata().Mtime, "current second is kept, not reset")
}

func TestCheckState_NoFalsePositiveWithinSameSecond(t *testing.T) {
	fs, clock, w := setup(t, base.Add(100*time.Millisecond))
	mkdir(t, fs, "/lib", base)

	require.NoError(t, w.SetState([]string{"/lib"}))
	require.Greater(t, clock.Now().Unix(), base.Unix(), "SetState crossed the second boundary")

	changed, err := w.CheckState(nil)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestCheckState_DetectsChanges(t *testing.T) {
	tests := []struct {
		name   string
		change func(t *testing.T, fs afero.Fs)
	}{
		{"mtime bumped", func(t *testing.T, fs afero.Fs) {
			require.NoError(t, fs.Chtimes("/lib", base.Add(5*time.Second), base.Add(5*time.Second)))
		}},
		{"directory removed", func(t *testing.T, fs afero.Fs) {
			require.NoError(t, fs.RemoveAll("/usr/lib"))
		}},
		{"directory appeared", func(t *testing.T, fs afero.Fs) {
			mkdir(t, fs, "/lib64", base.Add(-time.Hour))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs, _, w := setup(t, base)
			mkdir(t, fs, "/lib", base.Add(-time.Hour))
			mkdir(t, fs, "/usr/lib", base.Add(-time.Hour))
			watched := []string{"/lib", "/usr/lib", "/lib64"}
			require.NoError(t, w.SetState(watched))

			unchanged, err := w.CheckState(nil)
			require.NoError(t, err)
			require.False(t, unchanged)

			tt.change(t, fs)
			changed, err := w.CheckState(nil)
			require.NoError(t, err)
			assert.True(t, changed)
		})
	}
}

func TestSetState_Rearm(t *testing.T) {
	fs, _, w := setup(t, base)
	mkdir(t, fs, "/lib", base.Add(-time.Hour))
	require.NoError(t, w.SetState([]string{"/lib"}))

	require.NoError(t, fs.Chtimes("/lib", base.Add(-time.Minute), base.Add(-time.Minute)))
	require.NoError(t, w.SetState([]string{"/lib"}))

	changed, err := w.CheckState([]string{"/lib"})
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestCurrentAndReset(t *testing.T) {
	fs, _, w := setup(t, base)
	mkdir(t, fs, "/usr/share/info", base.Add(-time.Hour))
	require.NoError(t, w.SetState([]string{"/usr/share/info"}))

	mkdir(t, fs, "/usr/share/info", base.Add(-time.Minute))
	current, err := w.Current([]string{"/usr/share/info", "/nope"})
	require.NoError(t, err)
	assert.True(t, current.IsFrozen())
	assert.Equal(t, []string{"/usr/share/info"}, current.Locations())

	prev, _ := w.Snapshot().Get("/usr/share/info")
	now, _ := current.Get("/usr/share/info")
	assert.NotEqual(t, prev.Metadata().Mtime, now.Metadata().Mtime, "Current leaves the snapshot alone")

	w.Reset()
	assert.False(t, w.Armed())
	assert.Nil(t, w.Locations())
}
