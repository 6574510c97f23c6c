package style

import (
	"github.com/arthur-debert/fsmerge/pkg/fsobj"
	"github.com/charmbracelet/lipgloss"
)

// Role names what a piece of output is, independent of how it is colored
type Role int

const (
	RoleMuted Role = iota
	RoleSuccess
	RoleError
	RoleWarning
	RoleInfo
)

// palette holds the light/dark pair of every role
var palette = map[Role]lipgloss.AdaptiveColor{
	RoleMuted:   {Light: "#6C757D", Dark: "#ADB5BD"},
	RoleSuccess: {Light: "#28A745", Dark: "#4CDD76"},
	RoleError:   {Light: "#DC3545", Dark: "#FF6B7D"},
	RoleWarning: {Light: "#B7791F", Dark: "#FFD54F"},
	RoleInfo:    {Light: "#17A2B8", Dark: "#4DD0E1"},
}

// kindPalette colors entry paths by object kind; regular files use
// fileColor
var kindPalette = map[fsobj.Kind]lipgloss.AdaptiveColor{
	fsobj.KindDir:     {Light: "#0EA5E9", Dark: "#38BDF8"},
	fsobj.KindSymlink: {Light: "#8B5CF6", Dark: "#A78BFA"},
	fsobj.KindFifo:    {Light: "#D97706", Dark: "#FBBF24"},
	fsobj.KindDevice:  {Light: "#D97706", Dark: "#FBBF24"},
}

var fileColor = lipgloss.AdaptiveColor{Light: "#007ACC", Dark: "#3D9EFF"}

// boldRoles render in bold on top of their color
var boldRoles = map[Role]bool{RoleSuccess: true, RoleError: true, RoleWarning: true}
