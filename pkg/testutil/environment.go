package testutil

import (
	"path/filepath"
	"testing"

	"github.com/arthur-debert/fsmerge/pkg/paths"
	"github.com/spf13/afero"
)

// EnvType defines the type of test environment
type EnvType int

const (
	EnvMemoryOnly EnvType = iota // Pure in-memory, no real filesystem
	EnvIsolated                  // Real filesystem in temp directory
)

// TestEnvironment provides an install root and record database for tests
type TestEnvironment struct {
	FS afero.Fs
	// Root is the install offset packages are merged below
	Root string
	// DBDir holds installed-contents records
	DBDir string

	Clock *FakeClock
	Type  EnvType

	t *testing.T
}

// NewTestEnvironment creates a new test environment
func NewTestEnvironment(t *testing.T, envType EnvType) *TestEnvironment {
	t.Helper()

	env := &TestEnvironment{t: t, Type: envType, Clock: NewFakeClock(DefaultTime)}
	switch envType {
	case EnvMemoryOnly:
		env.FS = afero.NewMemMapFs()
		env.Root = "/root"
		env.DBDir = "/var/db/fsmerge"
	case EnvIsolated:
		dir := t.TempDir()
		env.FS = afero.NewOsFs()
		env.Root = filepath.Join(dir, "root")
		env.DBDir = filepath.Join(dir, "db")
	}

	for _, dir := range []string{env.Root, env.DBDir} {
		if err := env.FS.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("failed to create %s: %v", dir, err)
		}
	}
	return env
}

// Path maps a location below the install root
func (e *TestEnvironment) Path(loc string) string {
	return paths.Under(e.Root, loc)
}

// WriteFile writes a file at a location below the install root
func (e *TestEnvironment) WriteFile(loc, content string) {
	e.t.Helper()
	WriteFiles(e.t, e.FS, map[string]string{e.Path(loc): content})
}

// MkdirAll creates a directory at a location below the install root
func (e *TestEnvironment) MkdirAll(loc string) {
	e.t.Helper()
	if err := e.FS.MkdirAll(e.Path(loc), 0o755); err != nil {
		e.t.Fatalf("failed to create %s: %v", loc, err)
	}
}

// Exists reports whether a location below the install root exists
func (e *TestEnvironment) Exists(loc string) bool {
	ok, err := afero.Exists(e.FS, e.Path(loc))
	return err == nil && ok
}

// ReadFile reads a location below the install root
func (e *TestEnvironment) ReadFile(loc string) string {
	e.t.Helper()
	b, err := afero.ReadFile(e.FS, e.Path(loc))
	if err != nil {
		e.t.Fatalf("failed to read %s: %v", loc, err)
	}
	return string(b)
}
