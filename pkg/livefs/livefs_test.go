package livefs_test

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/arthur-debert/fsmerge/pkg/archive"
	"github.com/arthur-debert/fsmerge/pkg/contents"
	"github.com/arthur-debert/fsmerge/pkg/errors"
	"github.com/arthur-debert/fsmerge/pkg/filesystem"
	"github.com/arthur-debert/fsmerge/pkg/fsobj"
	"github.com/arthur-debert/fsmerge/pkg/livefs"
	"github.com/arthur-debert/fsmerge/pkg/testutil"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func payload() *contents.Set {
	return contents.NewOrdered(
		fsobj.NewDir("/usr"),
		fsobj.NewDir("/usr/bin", fsobj.WithMode(0o750)),
		fsobj.NewFile("/usr/bin/tool", fsobj.NewBytesSource([]byte("#!/bin/sh\n")), fsobj.SizeChksum(10),
			fsobj.WithMode(0o755), fsobj.WithMtime(1600000000)),
		fsobj.NewFile("/usr/empty", nil, fsobj.SizeChksum(0)),
	)
}

func TestMergeContents(t *testing.T) {
	env := testutil.NewTestEnvironment(t, testutil.EnvMemoryOnly)
	fsys := filesystem.From(env.FS)

	var seen []string
	err := livefs.MergeContents(fsys, env.Root, payload(), func(obj fsobj.Object) {
		seen = append(seen, obj.Path())
	}, livefs.WithOwnership(false))
	require.NoError(t, err)

	assert.Equal(t, []string{"/usr", "/usr/bin", "/usr/bin/tool", "/usr/empty"}, seen)
	assert.Equal(t, "#!/bin/sh\n", env.ReadFile("/usr/bin/tool"))
	assert.Equal(t, "", env.ReadFile("/usr/empty"))

	info, err := env.FS.Stat(env.Path("/usr/bin/tool"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())
	assert.Equal(t, int64(1600000000), info.ModTime().Unix())

	info, err = env.FS.Stat(env.Path("/usr/bin"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o750), info.Mode().Perm())
}

type countingFs struct {
	afero.Fs
	opens map[string]int
}

func (c *countingFs) Open(name string) (afero.File, error) {
	c.opens[name]++
	return c.Fs.Open(name)
}

func TestMergeContents_StreamsArchiveOnce(t *testing.T) {
	objs := []fsobj.Object{fsobj.NewDir("/usr"), fsobj.NewDir("/usr/share")}
	for i := range 50 {
		body := fmt.Sprintf("file %d", i)
		objs = append(objs, fsobj.NewFile(fmt.Sprintf("/usr/share/f%02d", i),
			fsobj.NewBytesSource([]byte(body)), fsobj.SizeChksum(int64(len(body)))))
	}
	store := &countingFs{Fs: afero.NewMemMapFs(), opens: map[string]int{}}
	require.NoError(t, archive.CreateFile(store, "/pkg.tar.zst", contents.NewOrdered(objs...),
		archive.WriteOptions{Compression: archive.CompressionZstd}))

	src, err := archive.OpenFile(store, "/pkg.tar.zst", archive.CompressionNone)
	require.NoError(t, err)
	defer func() { _ = src.Close() }()
	set, err := archive.Convert(src)
	require.NoError(t, err)

	env := testutil.NewTestEnvironment(t, testutil.EnvMemoryOnly)
	require.NoError(t, livefs.MergeContents(filesystem.From(env.FS), env.Root, set, nil, livefs.WithOwnership(false)))

	assert.Equal(t, 2, store.opens["/pkg.tar.zst"], "one pass for headers, one for member data")
	assert.Equal(t, "file 0", env.ReadFile("/usr/share/f00"))
	assert.Equal(t, "file 49", env.ReadFile("/usr/share/f49"))
}

func TestMergeContents_ReplacesFiles(t *testing.T) {
	env := testutil.NewTestEnvironment(t, testutil.EnvMemoryOnly)
	env.WriteFile("/usr/bin/tool", "old")

	require.NoError(t, livefs.MergeContents(filesystem.From(env.FS), env.Root, payload(), nil, livefs.WithOwnership(false)))
	assert.Equal(t, "#!/bin/sh\n", env.ReadFile("/usr/bin/tool"))
}

func TestMergeContents_DirectoryInTheWay(t *testing.T) {
	env := testutil.NewTestEnvironment(t, testutil.EnvMemoryOnly)
	env.MkdirAll("/usr/empty")

	err := livefs.MergeContents(filesystem.From(env.FS), env.Root, payload(), nil, livefs.WithOwnership(false))
	assert.True(t, errors.IsErrorCode(err, errors.ErrAlreadyExists))
}

func TestUnmergeContents(t *testing.T) {
	env := testutil.NewTestEnvironment(t, testutil.EnvMemoryOnly)
	fsys := filesystem.From(env.FS)
	require.NoError(t, livefs.MergeContents(fsys, env.Root, payload(), nil, livefs.WithOwnership(false)))
	env.WriteFile("/usr/other", "belongs to someone else")

	var removed []string
	err := livefs.UnmergeContents(fsys, env.Root, payload(), func(obj fsobj.Object) {
		removed = append(removed, obj.Path())
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"/usr/bin/tool", "/usr/empty", "/usr/bin"}, removed)
	assert.False(t, env.Exists("/usr/bin"))
	assert.True(t, env.Exists("/usr"), "non-empty directories stay")
	assert.True(t, env.Exists("/usr/other"))

	require.NoError(t, livefs.UnmergeContents(fsys, env.Root, payload(), nil), "already removed entries are ignored")
}

func TestScanAndRescan(t *testing.T) {
	env := testutil.NewTestEnvironment(t, testutil.EnvMemoryOnly)
	fsys := filesystem.From(env.FS)
	env.WriteFile("/etc/a.conf", "a")
	env.WriteFile("/etc/sub/b.conf", "bb")

	set, err := livefs.Scan(fsys, env.Root, "/etc")
	require.NoError(t, err)
	assert.Equal(t, []string{"/etc", "/etc/a.conf", "/etc/sub", "/etc/sub/b.conf"}, set.Locations())

	obj, ok := set.Get("/etc/sub/b.conf")
	require.True(t, ok)
	f := obj.(fsobj.File)
	assert.Equal(t, int64(2), f.Size())
	src, ok := f.Data.(*livefs.FileSource)
	require.True(t, ok)
	assert.Equal(t, env.Path("/etc/sub/b.conf"), src.Path())

	require.NoError(t, env.FS.Remove(env.Path("/etc/a.conf")))
	env.WriteFile("/etc/sub/b.conf", "longer")

	fresh, err := livefs.Rescan(fsys, env.Root, set.Freeze())
	require.NoError(t, err)
	assert.Equal(t, []string{"/etc", "/etc/sub", "/etc/sub/b.conf"}, fresh.Locations())
	obj, _ = fresh.Get("/etc/sub/b.conf")
	assert.Equal(t, int64(6), obj.(fsobj.File).Size())
}

func TestScan_WholeRootSkipsRoot(t *testing.T) {
	env := testutil.NewTestEnvironment(t, testutil.EnvMemoryOnly)
	env.WriteFile("/a", "x")

	set, err := livefs.Scan(filesystem.From(env.FS), env.Root, "/")
	require.NoError(t, err)
	assert.Equal(t, []string{"/a"}, set.Locations())
}

func TestAddChecksums(t *testing.T) {
	set := contents.New(
		fsobj.NewFile("/a", fsobj.NewBytesSource([]byte("abc")), nil),
		fsobj.NewDir("/d"),
	)
	out, err := livefs.AddChecksums(set)
	require.NoError(t, err)

	obj, _ := out.Get("/a")
	sums := obj.(fsobj.File).Chksums
	assert.Equal(t, "3", sums[fsobj.ChksumSize])
	assert.Len(t, sums[fsobj.ChksumBlake3], 64)
}

func TestGenObj_OS(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("posix only")
	}
	dir := t.TempDir()
	fsys := filesystem.NewOS()
	require.NoError(t, afero.WriteFile(fsys, filepath.Join(dir, "f"), []byte("data"), 0o640))
	require.NoError(t, os.Symlink("f", filepath.Join(dir, "l")))
	require.NoError(t, fsys.Mknod(filepath.Join(dir, "p"), 0o600, false, 0, 0))

	obj, err := livefs.GenObj(fsys, filepath.Join(dir, "f"), "/f")
	require.NoError(t, err)
	f := obj.(fsobj.File)
	assert.Equal(t, uint32(0o640), f.Mode)
	assert.Equal(t, os.Getuid(), f.UID)
	require.NotNil(t, f.Inode)

	obj, err = livefs.GenObj(fsys, filepath.Join(dir, "l"), "/l")
	require.NoError(t, err)
	assert.Equal(t, fsobj.NewSymlink("/l", "f").Target, obj.(fsobj.Symlink).Target)

	obj, err = livefs.GenObj(fsys, filepath.Join(dir, "p"), "/p")
	require.NoError(t, err)
	assert.Equal(t, fsobj.KindFifo, obj.Kind())

	_, err = livefs.GenObj(fsys, filepath.Join(dir, "missing"), "/missing")
	assert.True(t, errors.IsNotExist(err))
}

func TestMergeContents_SymlinksOnDisk(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("posix only")
	}
	root := t.TempDir()
	fsys := filesystem.NewOS()
	set := contents.NewOrdered(
		fsobj.NewDir("/lib"),
		fsobj.NewFile("/lib/libx.so.1", fsobj.NewBytesSource([]byte("elf")), nil),
		fsobj.NewSymlink("/lib/libx.so", "libx.so.1"),
	)
	require.NoError(t, livefs.MergeContents(fsys, root, set, nil, livefs.WithOwnership(false)))

	target, err := os.Readlink(filepath.Join(root, "lib", "libx.so"))
	require.NoError(t, err)
	assert.Equal(t, "libx.so.1", target)

	require.NoError(t, livefs.UnmergeContents(fsys, root, set, nil))
	_, err = os.Lstat(filepath.Join(root, "lib"))
	assert.True(t, os.IsNotExist(err))
}
