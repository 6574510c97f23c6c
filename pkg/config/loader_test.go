package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/arthur-debert/fsmerge/pkg/errors"
	"github.com/arthur-debert/fsmerge/pkg/paths"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv(paths.EnvConfigFile, filepath.Join(t.TempDir(), "absent.toml"))
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "/", cfg.Root)
	assert.Equal(t, "/var/db/fsmerge", cfg.DBDir)
	assert.Equal(t, "zstd", cfg.Archive.Compression)
	assert.False(t, cfg.Engine.AbortOnMissingChangeset)
	assert.True(t, cfg.Ldconfig.Enabled)
	assert.Equal(t, "etc/ld.so.conf", cfg.Ldconfig.ConfPath)
	assert.Equal(t, []string{"/usr/share/info"}, cfg.Info.Locations)
	assert.Equal(t, 250, cfg.Perms.BadUID)
	assert.Equal(t, 0, cfg.Perms.GoodUID)
	assert.Empty(t, cfg.Prune.Patterns)
	assert.Equal(t, 250*time.Millisecond, time.Duration(cfg.Regen.PollInterval))
}

func TestLoadConfiguration_MissingDefaultFileIsFine(t *testing.T) {
	isolate(t)

	cfg, err := LoadConfiguration("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadConfiguration_ExplicitMissingFile(t *testing.T) {
	isolate(t)

	_, err := LoadConfiguration(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrConfigLoad))
}

func TestLoadConfiguration_FileOverridesDefaults(t *testing.T) {
	isolate(t)
	p := writeConfig(t, `
root = "/mnt/target"

[archive]
compression = "lz4"

[prune]
patterns = ["*.la", "usr/share/doc/*"]

[regen]
jobs = 3
poll_interval = "1s"
`)

	cfg, err := LoadConfiguration(p)
	require.NoError(t, err)

	assert.Equal(t, "/mnt/target", cfg.Root)
	assert.Equal(t, "lz4", cfg.Archive.Compression)
	assert.Equal(t, []string{"*.la", "usr/share/doc/*"}, cfg.Prune.Patterns)
	assert.Equal(t, 3, cfg.Regen.Jobs)
	assert.Equal(t, time.Second, time.Duration(cfg.Regen.PollInterval))
	// untouched keys keep their defaults
	assert.Equal(t, "/var/db/fsmerge", cfg.DBDir)
	assert.True(t, cfg.Perms.FixOwnership)
}

func TestLoadConfiguration_ConfigFileFromEnv(t *testing.T) {
	p := writeConfig(t, "db_dir = \"/srv/db\"\n")
	t.Setenv(paths.EnvConfigFile, p)

	cfg, err := LoadConfiguration("")
	require.NoError(t, err)
	assert.Equal(t, "/srv/db", cfg.DBDir)
}

func TestLoadConfiguration_EnvOverridesFile(t *testing.T) {
	isolate(t)
	p := writeConfig(t, "[log]\nverbosity = 1\n")
	t.Setenv("FSMERGE_LOG__VERBOSITY", "3")
	t.Setenv("FSMERGE_ENGINE__ABORT_ON_MISSING_CHANGESET", "true")
	t.Setenv("FSMERGE_INFO__LOCATIONS", "/a/info,/b/info")

	cfg, err := LoadConfiguration(p)
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Log.Verbosity)
	assert.True(t, cfg.Engine.AbortOnMissingChangeset)
	assert.Equal(t, []string{"/a/info", "/b/info"}, cfg.Info.Locations)
}

func TestLoadConfiguration_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"syntax", "root = \n"},
		{"unknown compression", "[archive]\ncompression = \"rar\"\n"},
		{"bzip2 cannot be written", "[archive]\ncompression = \"bzip2\"\n"},
		{"negative jobs", "[regen]\njobs = -1\n"},
		{"bad duration", "[regen]\npoll_interval = \"soon\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			_, err := LoadConfiguration(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.True(t, errors.IsErrorCode(err, errors.ErrConfigParse), "got %v", err)
		})
	}
}

func TestValidate_EmptyRootMeansSlash(t *testing.T) {
	cfg := Default()
	cfg.Root = ""
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "/", cfg.Root)
}

func TestDump_RoundTrips(t *testing.T) {
	isolate(t)
	cfg := Default()
	cfg.Prune.Patterns = []string{"*.a"}
	cfg.Regen.PollInterval = Duration(2 * time.Second)

	out, err := Dump(cfg)
	require.NoError(t, err)
	assert.Regexp(t, `poll_interval = ['"]2s['"]`, out)

	loaded, err := LoadConfiguration(writeConfig(t, out))
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
