package style

import (
	"bytes"
	"os"
	"testing"

	"github.com/arthur-debert/fsmerge/pkg/fsobj"
	"github.com/stretchr/testify/assert"
)

func TestColorEnabled(t *testing.T) {
	var buf bytes.Buffer
	assert.False(t, ColorEnabled(&buf, false), "buffers are never terminals")
	assert.False(t, ColorEnabled(os.Stdout, true))

	t.Setenv("NO_COLOR", "1")
	assert.False(t, ColorEnabled(os.Stdout, false))
}

func TestPlainStylesRenderUnchanged(t *testing.T) {
	s := NewStyles(false)
	assert.Equal(t, "/usr/bin", s.ForKind(fsobj.KindDir).Render("/usr/bin"))
	assert.Equal(t, "oops", s.Error.Render("oops"))
}

func TestTerminal(t *testing.T) {
	var buf bytes.Buffer
	term := NewTerminal(&buf, NewStyles(false))

	term.Error("UNSAFE world writable SetUID: %s", "/usr/bin/x")
	term.Warn("world writable file: %s", "/tmp/y")
	term.Info("pruning: %s", "/usr/lib/z.la")
	term.Installing(fsobj.NewFile("/quiet", nil, nil))

	assert.Equal(t, "!!! UNSAFE world writable SetUID: /usr/bin/x\n"+
		" *  world writable file: /tmp/y\n"+
		">>> pruning: /usr/lib/z.la\n", buf.String())

	buf.Reset()
	term.Verbose = true
	term.Installing(fsobj.NewDir("/usr"))
	term.Removing(fsobj.NewSymlink("/lib", "usr/lib"))
	assert.Equal(t, ">>> /usr\n<<< /lib\n", buf.String())
}

func TestNewStyles_Colors(t *testing.T) {
	s := NewStyles(true)

	assert.Equal(t, kindPalette[fsobj.KindDir], s.ForKind(fsobj.KindDir).GetForeground())
	assert.True(t, s.ForKind(fsobj.KindDir).GetBold())
	assert.Equal(t, kindPalette[fsobj.KindFifo], s.ForKind(fsobj.KindFifo).GetForeground())
	assert.Equal(t, fileColor, s.ForKind(fsobj.KindFile).GetForeground())
	assert.True(t, s.Error.GetBold())
	assert.False(t, s.Info.GetBold())
}
