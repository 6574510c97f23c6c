package triggers

import (
	"github.com/arthur-debert/fsmerge/pkg/contents"
	"github.com/arthur-debert/fsmerge/pkg/errors"
)

// BuildChangesets assembles the named changesets for mode.
//
// pending is the normalized payload being installed and installed is the
// recorded contents of the package on disk; either may be nil when mode
// does not use it. "install" and "new_cset" are the same mutable copy of
// pending, so sanity triggers that rewrite new_cset change what gets
// merged. For replace, "uninstall" holds what is installed but no longer
// shipped; Engine.Execute recomputes it before the unmerge hooks.
func BuildChangesets(mode Mode, pending, installed *contents.Set) (Changesets, error) {
	if installed == nil {
		installed = contents.NewOrdered()
	}
	csets := Changesets{CsetOld: installed.Freeze()}

	switch mode {
	case ModeInstall, ModeReplace:
		if pending == nil {
			return nil, errors.Newf(errors.ErrInvalidInput, "%s needs a payload", mode)
		}
		install := pending.Clone(true)
		csets[CsetInstall] = install
		csets[CsetNew] = install
		if mode == ModeReplace {
			csets[CsetUninstall] = installed.Difference(pending).Clone(true)
		}
	case ModeUninstall:
		csets[CsetUninstall] = installed.Clone(true)
	default:
		return nil, errors.Newf(errors.ErrInvalidInput, "unknown engine mode %s", mode)
	}
	return csets, nil
}
