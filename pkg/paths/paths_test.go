package paths

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", "/"},
		{"/", "/"},
		{"usr/lib", "/usr/lib"},
		{"//usr///lib/", "/usr/lib"},
		{"/usr/./lib/../lib64", "/usr/lib64"},
		{"/../etc", "/etc"},
		{"./usr", "/usr"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in), "Normalize(%q)", tt.in)
	}
}

func TestIsDescendant(t *testing.T) {
	assert.True(t, IsDescendant("/usr", "/usr/lib"))
	assert.True(t, IsDescendant("/usr", "/usr/lib/x.so"))
	assert.True(t, IsDescendant("/", "/usr"))
	assert.False(t, IsDescendant("/usr/lib", "/usr/lib64"))
	assert.False(t, IsDescendant("/usr/lib", "/usr/lib"))
	assert.False(t, IsDescendant("/", "/"))
	assert.True(t, IsWithin("/usr/lib", "/usr/lib"))
}

func TestRebase(t *testing.T) {
	got, ok := Rebase("/usr/lib/x.so", "/usr/lib", "/usr/lib64")
	assert.True(t, ok)
	assert.Equal(t, "/usr/lib64/x.so", got)

	got, ok = Rebase("/usr/lib", "/usr/lib", "/usr/lib64")
	assert.True(t, ok)
	assert.Equal(t, "/usr/lib64", got)

	got, ok = Rebase("/usr/lib64/x.so", "/usr/lib", "/opt")
	assert.False(t, ok)
	assert.Equal(t, "/usr/lib64/x.so", got)
}

func TestParents(t *testing.T) {
	assert.Equal(t, []string{"/usr", "/usr/lib"}, Parents("/usr/lib/x.so"))
	assert.Empty(t, Parents("/usr"))
	assert.Empty(t, Parents("/"))
}

func TestResolve(t *testing.T) {
	assert.Equal(t, "/usr/lib64", Resolve("/usr/lib", "lib64"))
	assert.Equal(t, "/usr/lib64", Resolve("/usr/lib", "/usr/lib64"))
	assert.Equal(t, "/lib64", Resolve("/usr/lib", "../../lib64"))
	assert.Equal(t, "/usr/share", Resolve("/usr/lib", "./share/"))
}

func TestUnderAndStrip(t *testing.T) {
	assert.Equal(t, "/usr/lib", Under("", "/usr/lib"))
	assert.Equal(t, "/usr/lib", Under("/", "/usr/lib"))
	assert.Equal(t, "/tmp/root/usr/lib", Under("/tmp/root", "/usr/lib"))
	assert.Equal(t, "/tmp/root", Under("/tmp/root/", "/"))

	loc, ok := Strip("/tmp/root", "/tmp/root/usr/lib")
	assert.True(t, ok)
	assert.Equal(t, "/usr/lib", loc)

	loc, ok = Strip("/tmp/root", "/tmp/root")
	assert.True(t, ok)
	assert.Equal(t, "/", loc)

	_, ok = Strip("/tmp/root", "/tmp/rootless/x")
	assert.False(t, ok)
}

func TestDepth(t *testing.T) {
	assert.Equal(t, 0, Depth("/"))
	assert.Equal(t, 1, Depth("/usr"))
	assert.Equal(t, 3, Depth("/usr/lib/x.so"))
}

func TestConfigFileOverride(t *testing.T) {
	t.Setenv(EnvConfigFile, "/etc/fsmerge.toml")
	assert.Equal(t, "/etc/fsmerge.toml", ConfigFile())
}

func TestLogFileOverride(t *testing.T) {
	t.Setenv(EnvLogFile, "/var/log/fsmerge.log")
	got, err := LogFile()
	assert.NoError(t, err)
	assert.Equal(t, "/var/log/fsmerge.log", got)
}
