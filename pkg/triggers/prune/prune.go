// Package prune drops unwanted entries from a payload before it is merged.
package prune

import (
	"path"
	"strings"

	"github.com/arthur-debert/fsmerge/pkg/errors"
	"github.com/arthur-debert/fsmerge/pkg/fsobj"
	"github.com/arthur-debert/fsmerge/pkg/paths"
	"github.com/arthur-debert/fsmerge/pkg/triggers"
)

// Predicate reports whether an entry should be removed
type Predicate func(fsobj.Object) bool

// Trigger removes every new_cset entry matching its predicate
type Trigger struct {
	triggers.Base
	match Predicate
}

// New returns a prune trigger
func New(match Predicate) *Trigger {
	return &Trigger{
		Base: triggers.NewBase("prune files", []triggers.Hook{triggers.HookPreMerge},
			triggers.WithModes(triggers.InstallingModes...),
			triggers.WithRequirement(triggers.Require(triggers.CsetNew))),
		match: match,
	}
}

func (t *Trigger) Run(eng *triggers.Engine, csets triggers.Changesets) error {
	cset := csets[triggers.CsetNew]
	var removal []fsobj.Object
	for obj := range cset.All() {
		if t.match(obj) {
			removal = append(removal, obj)
		}
	}
	if r := eng.Reporter(); r != nil {
		for _, obj := range removal {
			r.Info("pruning: %s", obj.Path())
		}
	}
	return cset.DifferenceUpdate(removal...)
}

// GlobPredicate matches entries against shell patterns. A pattern with a
// slash is matched against the whole location, anything else against
// the last path element.
func GlobPredicate(patterns []string) (Predicate, error) {
	var full, base []string
	for _, p := range patterns {
		if _, err := path.Match(p, ""); err != nil {
			return nil, errors.Wrapf(err, errors.ErrInvalidInput, "bad prune pattern %q", p)
		}
		if strings.Contains(p, paths.Separator) {
			full = append(full, paths.Normalize(p))
		} else {
			base = append(base, p)
		}
	}
	return func(obj fsobj.Object) bool {
		loc := obj.Path()
		for _, p := range full {
			if ok, _ := path.Match(p, loc); ok {
				return true
			}
		}
		name := paths.Base(loc)
		for _, p := range base {
			if ok, _ := path.Match(p, name); ok {
				return true
			}
		}
		return false
	}, nil
}
