// Package fsops provides the triggers that actually put a changeset on
// disk and take it off again.
package fsops

import (
	"github.com/arthur-debert/fsmerge/pkg/filesystem"
	"github.com/arthur-debert/fsmerge/pkg/fsobj"
	"github.com/arthur-debert/fsmerge/pkg/livefs"
	"github.com/arthur-debert/fsmerge/pkg/triggers"
)

// Merge writes the install changeset below the engine offset
type Merge struct {
	triggers.Base
	fs   filesystem.FS
	opts []livefs.MergeOption
}

// NewMerge returns the merge trigger
func NewMerge(fsys filesystem.FS, opts ...livefs.MergeOption) *Merge {
	return &Merge{
		Base: triggers.NewBase("merge", []triggers.Hook{triggers.HookMerge},
			triggers.WithModes(triggers.InstallingModes...),
			triggers.WithRequirement(triggers.Require(triggers.CsetInstall))),
		fs:   fsys,
		opts: opts,
	}
}

func (m *Merge) Run(eng *triggers.Engine, csets triggers.Changesets) error {
	var cb livefs.Callback
	if obs := eng.Observer(); obs != nil {
		cb = func(obj fsobj.Object) { obs.Installing(obj) }
	}
	return livefs.MergeContents(m.fs, eng.Offset(), csets[triggers.CsetInstall], cb, m.opts...)
}

// Unmerge removes the uninstall changeset from below the engine offset
type Unmerge struct {
	triggers.Base
	fs filesystem.FS
}

// NewUnmerge returns the unmerge trigger
func NewUnmerge(fsys filesystem.FS) *Unmerge {
	return &Unmerge{
		Base: triggers.NewBase("unmerge", []triggers.Hook{triggers.HookUnmerge},
			triggers.WithModes(triggers.UninstallingModes...),
			triggers.WithRequirement(triggers.Require(triggers.CsetUninstall))),
		fs: fsys,
	}
}

func (u *Unmerge) Run(eng *triggers.Engine, csets triggers.Changesets) error {
	var cb livefs.Callback
	if obs := eng.Observer(); obs != nil {
		cb = func(obj fsobj.Object) { obs.Removing(obj) }
	}
	return livefs.UnmergeContents(u.fs, eng.Offset(), csets[triggers.CsetUninstall], cb)
}
