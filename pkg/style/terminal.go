package style

import (
	"fmt"
	"io"
	"sync"

	"github.com/arthur-debert/fsmerge/pkg/fsobj"
	"github.com/arthur-debert/fsmerge/pkg/triggers"
)

// Terminal prints trigger reports and merge progress for a person
// watching. Per-entry progress is only shown when Verbose is set.
type Terminal struct {
	Verbose bool

	mu     sync.Mutex
	out    io.Writer
	styles Styles
}

// NewTerminal writes to out using styles
func NewTerminal(out io.Writer, styles Styles) *Terminal {
	return &Terminal{out: out, styles: styles}
}

func (t *Terminal) line(prefix string, msg string, args []interface{}) {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, _ = fmt.Fprintf(t.out, "%s %s\n", prefix, fmt.Sprintf(msg, args...))
}

func (t *Terminal) Error(msg string, args ...interface{}) {
	t.line(t.styles.Error.Render("!!!"), msg, args)
}

func (t *Terminal) Warn(msg string, args ...interface{}) {
	t.line(t.styles.Warning.Render(" * "), msg, args)
}

func (t *Terminal) Info(msg string, args ...interface{}) {
	t.line(t.styles.Info.Render(">>>"), msg, args)
}

func (t *Terminal) Installing(obj fsobj.Object) {
	if t.Verbose {
		t.line(t.styles.Success.Render(">>>"), "%s", []interface{}{t.styles.ForKind(obj.Kind()).Render(obj.Path())})
	}
}

func (t *Terminal) Removing(obj fsobj.Object) {
	if t.Verbose {
		t.line(t.styles.Error.Render("<<<"), "%s", []interface{}{t.styles.ForKind(obj.Kind()).Render(obj.Path())})
	}
}

var (
	_ triggers.Reporter = (*Terminal)(nil)
	_ triggers.Observer = (*Terminal)(nil)
)
