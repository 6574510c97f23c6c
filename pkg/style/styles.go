package style

import (
	"io"
	"os"

	"github.com/arthur-debert/fsmerge/pkg/fsobj"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Styles is the palette one output stream renders with
type Styles struct {
	Muted   lipgloss.Style
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style

	kinds map[fsobj.Kind]lipgloss.Style
	file  lipgloss.Style
}

// NewStyles returns the palette, or plain styles when color is false
func NewStyles(color bool) Styles {
	role := func(r Role) lipgloss.Style {
		if !color {
			return lipgloss.NewStyle()
		}
		return lipgloss.NewStyle().Foreground(palette[r]).Bold(boldRoles[r])
	}
	s := Styles{
		Muted:   role(RoleMuted),
		Success: role(RoleSuccess),
		Error:   role(RoleError),
		Warning: role(RoleWarning),
		Info:    role(RoleInfo),
		kinds:   make(map[fsobj.Kind]lipgloss.Style, len(kindPalette)),
		file:    lipgloss.NewStyle(),
	}
	if !color {
		return s
	}
	s.file = s.file.Foreground(fileColor)
	for kind, c := range kindPalette {
		s.kinds[kind] = lipgloss.NewStyle().Foreground(c).Bold(kind == fsobj.KindDir)
	}
	return s
}

// ForKind returns the style paths of kind are rendered with
func (s Styles) ForKind(kind fsobj.Kind) lipgloss.Style {
	if st, ok := s.kinds[kind]; ok {
		return st
	}
	return s.file
}

// ColorEnabled reports whether w is a terminal that should get colors.
// NO_COLOR in the environment and noColor both turn colors off.
func ColorEnabled(w io.Writer, noColor bool) bool {
	if noColor || os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Indent pads s by level steps of two spaces
func Indent(s string, level int) string {
	return lipgloss.NewStyle().PaddingLeft(level * 2).Render(s)
}
