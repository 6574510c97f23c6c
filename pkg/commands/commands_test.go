package commands_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/arthur-debert/fsmerge/pkg/archive"
	"github.com/arthur-debert/fsmerge/pkg/commands"
	"github.com/arthur-debert/fsmerge/pkg/config"
	"github.com/arthur-debert/fsmerge/pkg/contents"
	"github.com/arthur-debert/fsmerge/pkg/errors"
	"github.com/arthur-debert/fsmerge/pkg/filesystem"
	"github.com/arthur-debert/fsmerge/pkg/fsobj"
	"github.com/arthur-debert/fsmerge/pkg/spawn"
	"github.com/arthur-debert/fsmerge/pkg/testutil"
	"github.com/arthur-debert/fsmerge/pkg/triggers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	env    *testutil.TestEnvironment
	cmdEnv commands.Env
	runner *testutil.MockRunner
	obs    *testutil.RecordingObserver
}

// newFixture returns an in-memory install root with the maintenance
// triggers switched off
func newFixture(t *testing.T) *fixture {
	t.Helper()
	env := testutil.NewTestEnvironment(t, testutil.EnvMemoryOnly)

	cfg := config.Default()
	cfg.Root = env.Root
	cfg.DBDir = env.DBDir
	cfg.Ldconfig.Enabled = false
	cfg.Info.Enabled = false

	runner := &testutil.MockRunner{}
	obs := &testutil.RecordingObserver{}
	return &fixture{
		env:    env,
		runner: runner,
		obs:    obs,
		cmdEnv: commands.Env{
			FS:       filesystem.From(env.FS),
			Config:   cfg,
			Runner:   runner,
			Reporter: &testutil.RecordingReporter{},
			Observer: obs,
		},
	}
}

func file(loc, content string) fsobj.File {
	return fsobj.NewFile(loc, fsobj.NewBytesSource([]byte(content)), fsobj.SizeChksum(int64(len(content))),
		fsobj.WithMode(0o644), fsobj.WithMtime(float64(testutil.DefaultTime.Unix())))
}

// writeArchive packs objs into a tar at path outside the install root
func (f *fixture) writeArchive(t *testing.T, path string, objs ...fsobj.Object) string {
	t.Helper()
	require.NoError(t, f.env.FS.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, archive.CreateFile(f.env.FS, path, contents.NewOrdered(objs...), archive.WriteOptions{}))
	return path
}

func TestMerge(t *testing.T) {
	f := newFixture(t)
	pkg := f.writeArchive(t, "/pkgs/tool-1.tar",
		fsobj.NewDir("/usr/bin", fsobj.WithMode(0o755)),
		file("/usr/bin/tool", "v1"),
		file("/usr/share/doc/tool/README", "docs"),
	)

	res, err := commands.Merge(context.Background(), f.cmdEnv, "tool", pkg)
	require.NoError(t, err)

	assert.Equal(t, triggers.ModeInstall, res.Mode)
	assert.NotEmpty(t, res.RunID)
	// missing parents are added by normalization
	assert.Equal(t, 7, res.Installed)
	assert.Equal(t, "v1", f.env.ReadFile("/usr/bin/tool"))
	assert.Equal(t, "docs", f.env.ReadFile("/usr/share/doc/tool/README"))
	assert.Contains(t, f.obs.Installed, "/usr/bin/tool")

	recorded, err := f.cmdEnv.Store().Read("tool")
	require.NoError(t, err)
	assert.True(t, recorded.Has("/usr/bin/tool"))
	assert.True(t, recorded.Has("/usr/share/doc"))
}

func TestMerge_AlreadyMerged(t *testing.T) {
	f := newFixture(t)
	pkg := f.writeArchive(t, "/pkgs/tool.tar", file("/opt/tool", "x"))

	_, err := commands.Merge(context.Background(), f.cmdEnv, "tool", pkg)
	require.NoError(t, err)

	_, err = commands.Merge(context.Background(), f.cmdEnv, "tool", pkg)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrAlreadyExists))
}

func TestMerge_MissingArchive(t *testing.T) {
	f := newFixture(t)

	_, err := commands.Merge(context.Background(), f.cmdEnv, "tool", "/pkgs/none.tar")
	require.Error(t, err)
	assert.False(t, f.cmdEnv.Store().Has("tool"))
}

func TestMerge_PrunesConfiguredPatterns(t *testing.T) {
	f := newFixture(t)
	f.cmdEnv.Config.Prune.Patterns = []string{"*.la"}
	pkg := f.writeArchive(t, "/pkgs/lib.tar",
		file("/usr/lib/libx.so", "elf"),
		file("/usr/lib/libx.la", "libtool"),
	)

	_, err := commands.Merge(context.Background(), f.cmdEnv, "lib", pkg)
	require.NoError(t, err)

	assert.True(t, f.env.Exists("/usr/lib/libx.so"))
	assert.False(t, f.env.Exists("/usr/lib/libx.la"))
	recorded, err := f.cmdEnv.Store().Read("lib")
	require.NoError(t, err)
	assert.False(t, recorded.Has("/usr/lib/libx.la"))
}

func TestReplace(t *testing.T) {
	f := newFixture(t)
	v1 := f.writeArchive(t, "/pkgs/tool-1.tar",
		file("/usr/bin/tool", "v1"),
		file("/usr/share/tool/old.dat", "old"),
	)
	v2 := f.writeArchive(t, "/pkgs/tool-2.tar",
		file("/usr/bin/tool", "v2"),
		file("/usr/bin/helper", "new"),
	)
	ctx := context.Background()

	_, err := commands.Merge(ctx, f.cmdEnv, "tool", v1)
	require.NoError(t, err)

	res, err := commands.Replace(ctx, f.cmdEnv, "tool", v2)
	require.NoError(t, err)
	assert.Equal(t, triggers.ModeReplace, res.Mode)
	// old.dat and the directories only it used
	assert.Equal(t, 3, res.Removed)

	assert.Equal(t, "v2", f.env.ReadFile("/usr/bin/tool"))
	assert.Equal(t, "new", f.env.ReadFile("/usr/bin/helper"))
	assert.False(t, f.env.Exists("/usr/share/tool/old.dat"))
	assert.False(t, f.env.Exists("/usr/share"))

	recorded, err := f.cmdEnv.Store().Read("tool")
	require.NoError(t, err)
	assert.True(t, recorded.Has("/usr/bin/helper"))
	assert.False(t, recorded.Has("/usr/share/tool/old.dat"))
}

func TestReplace_WithoutRecordMerges(t *testing.T) {
	f := newFixture(t)
	pkg := f.writeArchive(t, "/pkgs/tool.tar", file("/opt/tool", "x"))

	res, err := commands.Replace(context.Background(), f.cmdEnv, "tool", pkg)
	require.NoError(t, err)
	assert.Equal(t, triggers.ModeInstall, res.Mode)
	assert.True(t, f.cmdEnv.Store().Has("tool"))
}

func TestUnmerge(t *testing.T) {
	f := newFixture(t)
	pkg := f.writeArchive(t, "/pkgs/tool.tar",
		file("/usr/bin/tool", "v1"),
		file("/usr/share/tool/data", "d"),
	)
	f.env.WriteFile("/usr/bin/other", "not ours")
	ctx := context.Background()

	_, err := commands.Merge(ctx, f.cmdEnv, "tool", pkg)
	require.NoError(t, err)

	res, err := commands.Unmerge(ctx, f.cmdEnv, "tool")
	require.NoError(t, err)
	assert.Equal(t, triggers.ModeUninstall, res.Mode)

	assert.False(t, f.env.Exists("/usr/bin/tool"))
	assert.False(t, f.env.Exists("/usr/share/tool"))
	assert.False(t, f.env.Exists("/usr/share"))
	// shared directory still holds a foreign file
	assert.True(t, f.env.Exists("/usr/bin/other"))
	assert.Contains(t, f.obs.Removed, "/usr/bin/tool")
	assert.False(t, f.cmdEnv.Store().Has("tool"))
}

func TestUnmerge_Unknown(t *testing.T) {
	f := newFixture(t)

	_, err := commands.Unmerge(context.Background(), f.cmdEnv, "ghost")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrRecordNotFound))
}

func TestListArchive(t *testing.T) {
	f := newFixture(t)
	pkg := f.writeArchive(t, "/pkgs/tool.tar", file("/usr/bin/tool", "hello"))

	entries, err := commands.ListArchive(f.cmdEnv, pkg)
	require.NoError(t, err)

	require.Len(t, entries, 3)
	assert.Equal(t, "/usr", entries[0].Path)
	assert.Equal(t, "/usr/bin", entries[1].Path)
	last := entries[2]
	assert.Equal(t, "file", last.Kind)
	assert.Equal(t, "/usr/bin/tool", last.Path)
	assert.Equal(t, "0644", last.Mode)
	assert.Equal(t, int64(5), last.Size)
}

func TestPack(t *testing.T) {
	f := newFixture(t)
	pkg := f.writeArchive(t, "/pkgs/tool.tar",
		file("/usr/bin/tool", "v1"),
		file("/etc/tool.conf", "conf"),
	)
	_, err := commands.Merge(context.Background(), f.cmdEnv, "tool", pkg)
	require.NoError(t, err)
	// local edits end up in the pack
	f.env.WriteFile("/etc/tool.conf", "edited")

	out := "/backup/tool.tar.zst"
	require.NoError(t, commands.Pack(f.cmdEnv, "tool", out))

	entries, err := commands.ListArchive(f.cmdEnv, out)
	require.NoError(t, err)
	var locs []string
	for _, e := range entries {
		locs = append(locs, e.Path)
		if e.Path == "/etc/tool.conf" {
			assert.Equal(t, int64(len("edited")), e.Size)
		}
	}
	assert.ElementsMatch(t, []string{"/usr", "/usr/bin", "/usr/bin/tool", "/etc", "/etc/tool.conf"}, locs)
}

func TestPack_Bzip2Refused(t *testing.T) {
	f := newFixture(t)
	pkg := f.writeArchive(t, "/pkgs/tool.tar", file("/opt/tool", "x"))
	_, err := commands.Merge(context.Background(), f.cmdEnv, "tool", pkg)
	require.NoError(t, err)

	err = commands.Pack(f.cmdEnv, "tool", "/backup/tool.tar.bz2")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrNotSupported))
}

func TestRegen(t *testing.T) {
	f := newFixture(t)
	f.cmdEnv.Config.Regen.Jobs = 2
	ctx := context.Background()
	for _, name := range []string{"a", "b"} {
		pkg := f.writeArchive(t, "/pkgs/"+name+".tar", file("/opt/"+name, name))
		_, err := commands.Merge(ctx, f.cmdEnv, name, pkg)
		require.NoError(t, err)
	}
	f.env.WriteFile("/opt/a", "changed on disk")

	res, err := commands.Regen(ctx, f.cmdEnv, nil)
	require.NoError(t, err)
	assert.Empty(t, res.Errors)
	assert.Equal(t, 2, res.Stats.Produced)
	assert.Equal(t, 2, res.Stats.Processed)

	recorded, err := f.cmdEnv.Store().Read("a")
	require.NoError(t, err)
	obj, ok := recorded.Get("/opt/a")
	require.True(t, ok)
	tool := obj.(fsobj.File)
	assert.Equal(t, int64(len("changed on disk")), tool.Size())
	assert.Contains(t, tool.Chksums, fsobj.ChksumBlake3)
}

func TestRegen_UnknownPackageIsCollected(t *testing.T) {
	f := newFixture(t)

	res, err := commands.Regen(context.Background(), f.cmdEnv, []string{"ghost"})
	require.NoError(t, err)
	require.Len(t, res.Errors, 1)
	assert.True(t, errors.IsErrorCode(res.Errors[0], errors.ErrRecordNotFound))
}

func TestEnvUpdate(t *testing.T) {
	f := newFixture(t)
	f.cmdEnv.Config.Ldconfig.Enabled = true
	f.runner.On("Run", "ldconfig", []string{"-r", f.env.Root}).Return(spawn.Result{ExitCode: 0}, nil)

	warnings, err := commands.EnvUpdate(context.Background(), f.cmdEnv)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	f.runner.AssertExpectations(t)
	// a missing ld.so.conf is created
	assert.True(t, f.env.Exists("/etc/ld.so.conf"))
}

func TestEnvUpdate_FailureIsAWarning(t *testing.T) {
	f := newFixture(t)
	f.cmdEnv.Config.Ldconfig.Enabled = true
	f.runner.On("Run", "ldconfig", []string{"-r", f.env.Root}).Return(spawn.Result{ExitCode: 1}, nil)

	warnings, err := commands.EnvUpdate(context.Background(), f.cmdEnv)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.True(t, errors.IsErrorCode(warnings[0], errors.ErrTriggerWarning))
}

func TestEnvUpdate_Disabled(t *testing.T) {
	f := newFixture(t)

	warnings, err := commands.EnvUpdate(context.Background(), f.cmdEnv)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Empty(t, f.runner.Calls)
}
