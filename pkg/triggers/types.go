package triggers

import (
	"fmt"
	"slices"
	"strings"

	"github.com/arthur-debert/fsmerge/pkg/contents"
	"github.com/arthur-debert/fsmerge/pkg/errors"
)

// Hook names a point in the merge lifecycle
type Hook string

const (
	HookSanityCheck Hook = "sanity_check"
	HookPreMerge    Hook = "pre_merge"
	HookMerge       Hook = "merge"
	HookPostMerge   Hook = "post_merge"
	HookPreUnmerge  Hook = "pre_unmerge"
	HookUnmerge     Hook = "unmerge"
	HookPostUnmerge Hook = "post_unmerge"
)

// AllHooks lists every hook in lifecycle order
var AllHooks = []Hook{
	HookSanityCheck,
	HookPreMerge,
	HookMerge,
	HookPostMerge,
	HookPreUnmerge,
	HookUnmerge,
	HookPostUnmerge,
}

// Known reports whether h is one of AllHooks
func (h Hook) Known() bool { return slices.Contains(AllHooks, h) }

// IsPre reports whether h runs before the filesystem is touched
func (h Hook) IsPre() bool { return strings.HasPrefix(string(h), "pre_") }

// Mode is the kind of operation an engine performs
type Mode int

const (
	ModeInstall Mode = iota + 1
	ModeReplace
	ModeUninstall
)

var (
	// InstallingModes are the modes that put files on disk
	InstallingModes = []Mode{ModeReplace, ModeInstall}
	// UninstallingModes are the modes that take files off disk
	UninstallingModes = []Mode{ModeReplace, ModeUninstall}
)

func (m Mode) String() string {
	switch m {
	case ModeInstall:
		return "install"
	case ModeReplace:
		return "replace"
	case ModeUninstall:
		return "uninstall"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode parses a mode name
func ParseMode(name string) (Mode, error) {
	for _, m := range []Mode{ModeInstall, ModeReplace, ModeUninstall} {
		if m.String() == name {
			return m, nil
		}
	}
	return 0, errors.Newf(errors.ErrInvalidInput, "unknown engine mode %q", name)
}

// Sequence returns the hooks Execute runs for m
func (m Mode) Sequence() []Hook {
	install := []Hook{HookSanityCheck, HookPreMerge, HookMerge, HookPostMerge}
	uninstall := []Hook{HookPreUnmerge, HookUnmerge, HookPostUnmerge}
	switch m {
	case ModeInstall:
		return install
	case ModeUninstall:
		return uninstall
	case ModeReplace:
		return append(install, uninstall...)
	}
	return nil
}

// Changeset names
const (
	CsetInstall   = "install"
	CsetUninstall = "uninstall"
	CsetNew       = "new_cset"
	CsetOld       = "old_cset"
)

// Changesets maps changeset names to content sets
type Changesets map[string]*contents.Set

// Requirement declares which changesets a trigger receives
type Requirement struct {
	all  bool
	keys []string
}

// RequireAll passes every changeset the engine has
func RequireAll() Requirement { return Requirement{all: true} }

// RequireNone passes no changesets
func RequireNone() Requirement { return Requirement{} }

// Require passes exactly the named changesets; each must be present
func Require(keys ...string) Requirement { return Requirement{keys: keys} }

// All reports whether every changeset is passed
func (r Requirement) All() bool { return r.all }

// Keys returns the required names; nil when All
func (r Requirement) Keys() []string { return r.keys }

func (r Requirement) String() string {
	if r.all {
		return "all"
	}
	return "[" + strings.Join(r.keys, ",") + "]"
}

// Slice returns the subset of csets named by r. The sets are shared, not
// copied, so triggers can mutate them for later triggers.
func (r Requirement) Slice(csets Changesets) (Changesets, error) {
	if r.all {
		return csets, nil
	}
	out := make(Changesets, len(r.keys))
	var missing []string
	for _, key := range r.keys {
		cset, ok := csets[key]
		if !ok || cset == nil {
			missing = append(missing, key)
			continue
		}
		out[key] = cset
	}
	if len(missing) > 0 {
		return nil, errors.Newf(errors.ErrMissingChangeset,
			"missing required changesets: %s", strings.Join(missing, ", ")).
			WithDetail("missing", missing)
	}
	return out, nil
}
