// Package perms holds sanity-check triggers that police ownership and
// permission bits of a payload before it is merged.
package perms

import (
	"github.com/arthur-debert/fsmerge/pkg/contents"
	"github.com/arthur-debert/fsmerge/pkg/fsobj"
	"github.com/arthur-debert/fsmerge/pkg/triggers"
)

func sanityBase(label string) triggers.Base {
	return triggers.NewBase(label, []triggers.Hook{triggers.HookSanityCheck},
		triggers.WithModes(triggers.InstallingModes...),
		triggers.WithRequirement(triggers.Require(triggers.CsetNew)))
}

// rewrite replaces every member matching pick with change(member)
func rewrite(cset *contents.Set, pick func(fsobj.Object) bool, change func(fsobj.Object) fsobj.Object) ([]fsobj.Object, error) {
	var hits []fsobj.Object
	for obj := range cset.All() {
		if pick(obj) {
			hits = append(hits, obj)
		}
	}
	if change == nil || len(hits) == 0 {
		return hits, nil
	}
	changed := make([]fsobj.Object, len(hits))
	for i, obj := range hits {
		changed[i] = change(obj)
	}
	return hits, cset.Update(changed...)
}

// FixUID silently rewrites entries owned by Bad to Good
type FixUID struct {
	triggers.Base
	Bad  int
	Good int
}

// NewFixUID returns a FixUID trigger
func NewFixUID(bad, good int) *FixUID {
	return &FixUID{Base: sanityBase("fix uid perms"), Bad: bad, Good: good}
}

func (t *FixUID) Run(_ *triggers.Engine, csets triggers.Changesets) error {
	_, err := rewrite(csets[triggers.CsetNew],
		func(obj fsobj.Object) bool { return obj.Metadata().UID == t.Bad },
		func(obj fsobj.Object) fsobj.Object { return fsobj.Change(obj, fsobj.WithUID(t.Good)) })
	return err
}

// FixGID silently rewrites entries grouped to Bad to Good
type FixGID struct {
	triggers.Base
	Bad  int
	Good int
}

// NewFixGID returns a FixGID trigger
func NewFixGID(bad, good int) *FixGID {
	return &FixGID{Base: sanityBase("fix gid perms"), Bad: bad, Good: good}
}

func (t *FixGID) Run(_ *triggers.Engine, csets triggers.Changesets) error {
	_, err := rewrite(csets[triggers.CsetNew],
		func(obj fsobj.Object) bool { return obj.Metadata().GID == t.Bad },
		func(obj fsobj.Object) fsobj.Object { return fsobj.Change(obj, fsobj.WithGID(t.Good)) })
	return err
}

// FixSetBits reports world writable entries carrying setuid or setgid as
// errors. With Fix set the setuid and setgid bits are stripped.
type FixSetBits struct {
	triggers.Base
	Fix bool
}

// NewFixSetBits returns a FixSetBits trigger
func NewFixSetBits(fix bool) *FixSetBits {
	return &FixSetBits{Base: sanityBase("fix set bits"), Fix: fix}
}

func (t *FixSetBits) Run(eng *triggers.Engine, csets triggers.Changesets) error {
	unsafe := func(obj fsobj.Object) bool {
		mode := obj.Metadata().Mode
		return mode&(fsobj.ModeSetUID|fsobj.ModeSetGID) != 0 && mode&fsobj.ModeWorldWritable != 0
	}
	var strip func(fsobj.Object) fsobj.Object
	if t.Fix {
		strip = func(obj fsobj.Object) fsobj.Object {
			mode := obj.Metadata().Mode &^ (fsobj.ModeSetUID | fsobj.ModeSetGID)
			return fsobj.Change(obj, fsobj.WithMode(mode))
		}
	}
	hits, err := rewrite(csets[triggers.CsetNew], unsafe, strip)
	if r := eng.Reporter(); r != nil {
		for _, obj := range hits {
			if obj.Metadata().Mode&fsobj.ModeSetUID != 0 {
				r.Error("UNSAFE world writable SetUID: %s", obj.Path())
			} else {
				r.Error("UNSAFE world writable SetGID: %s", obj.Path())
			}
		}
	}
	return err
}

// DetectWorldWritable reports world writable entries as warnings. With
// Fix set the world writable bit is stripped. Without a reporter and
// without Fix it does nothing.
type DetectWorldWritable struct {
	triggers.Base
	Fix bool
}

// NewDetectWorldWritable returns a DetectWorldWritable trigger
func NewDetectWorldWritable(fix bool) *DetectWorldWritable {
	return &DetectWorldWritable{Base: sanityBase("detect world writable"), Fix: fix}
}

func (t *DetectWorldWritable) Run(eng *triggers.Engine, csets triggers.Changesets) error {
	r := eng.Reporter()
	if r == nil && !t.Fix {
		return nil
	}
	writable := func(obj fsobj.Object) bool {
		// symlink permissions are meaningless
		return obj.Kind() != fsobj.KindSymlink && obj.Metadata().Mode&fsobj.ModeWorldWritable != 0
	}
	var strip func(fsobj.Object) fsobj.Object
	if t.Fix {
		strip = func(obj fsobj.Object) fsobj.Object {
			return fsobj.Change(obj, fsobj.WithMode(obj.Metadata().Mode&^fsobj.ModeWorldWritable))
		}
	}
	hits, err := rewrite(csets[triggers.CsetNew], writable, strip)
	if r != nil {
		for _, obj := range hits {
			r.Warn("world writable file: %s", obj.Path())
		}
	}
	return err
}
