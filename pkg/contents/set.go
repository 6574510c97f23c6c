package contents

import (
	"iter"
	"slices"
	"strings"

	"github.com/arthur-debert/fsmerge/pkg/errors"
	"github.com/arthur-debert/fsmerge/pkg/fsobj"
	"github.com/arthur-debert/fsmerge/pkg/paths"
	"github.com/tidwall/btree"
)

// Set is a path-keyed collection of filesystem objects
type Set struct {
	entries *btree.Map[string, fsobj.Object]
	// order is the iteration order of an ordered set; nil otherwise
	order   []string
	ordered bool
	frozen  bool
}

// New returns a mutable set holding objs. Later objects replace earlier
// ones at the same location.
func New(objs ...fsobj.Object) *Set {
	s := &Set{entries: btree.NewMap[string, fsobj.Object](0)}
	for _, obj := range objs {
		s.insert(obj)
	}
	return s
}

// NewOrdered returns a frozen set that iterates objs in the given order.
// A duplicate location keeps its first position and takes the later object.
func NewOrdered(objs ...fsobj.Object) *Set {
	s := &Set{entries: btree.NewMap[string, fsobj.Object](0), ordered: true}
	for _, obj := range objs {
		s.insert(obj)
	}
	s.frozen = true
	return s
}

// empty returns an unfrozen set of the same ordering as s
func (s *Set) empty() *Set {
	return &Set{entries: btree.NewMap[string, fsobj.Object](0), ordered: s.ordered}
}

// seal freezes out when s is frozen, so results keep the variant of s
func (s *Set) seal(out *Set) *Set {
	out.frozen = s.frozen
	return out
}

func (s *Set) insert(obj fsobj.Object) {
	loc := obj.Path()
	if _, replaced := s.entries.Set(loc, obj); !replaced && s.ordered {
		s.order = append(s.order, loc)
	}
}

func (s *Set) removeAll(locs map[string]struct{}) {
	removed := false
	for loc := range locs {
		if _, ok := s.entries.Delete(loc); ok {
			removed = true
		}
	}
	if removed && s.ordered {
		s.order = slices.DeleteFunc(s.order, func(loc string) bool {
			_, gone := locs[loc]
			return gone
		})
	}
}

func (s *Set) checkMutable(op string) error {
	if s.frozen {
		return errors.Newf(errors.ErrFrozenSet, "%s on a frozen content set", op)
	}
	return nil
}

// IsFrozen reports whether the set rejects mutation
func (s *Set) IsFrozen() bool { return s.frozen }

// IsOrdered reports whether the set iterates in a recorded order rather
// than by location
func (s *Set) IsOrdered() bool { return s.ordered }

// Len returns the number of objects
func (s *Set) Len() int { return s.entries.Len() }

// Has reports whether an object exists at loc
func (s *Set) Has(loc string) bool {
	_, ok := s.entries.Get(paths.Normalize(loc))
	return ok
}

// Get returns the object at loc
func (s *Set) Get(loc string) (fsobj.Object, bool) {
	return s.entries.Get(paths.Normalize(loc))
}

// Contains reports whether an object Equal to obj is in the set
func (s *Set) Contains(obj fsobj.Object) bool {
	cur, ok := s.entries.Get(obj.Path())
	return ok && fsobj.Equal(cur, obj)
}

// All iterates the objects in set order
func (s *Set) All() iter.Seq[fsobj.Object] {
	return func(yield func(fsobj.Object) bool) {
		if s.ordered {
			for _, loc := range s.order {
				obj, _ := s.entries.Get(loc)
				if !yield(obj) {
					return
				}
			}
			return
		}
		s.entries.Scan(func(_ string, obj fsobj.Object) bool {
			return yield(obj)
		})
	}
}

// Objects returns the objects in set order
func (s *Set) Objects() []fsobj.Object {
	out := make([]fsobj.Object, 0, s.Len())
	for obj := range s.All() {
		out = append(out, obj)
	}
	return out
}

// Locations returns the locations in set order
func (s *Set) Locations() []string {
	out := make([]string, 0, s.Len())
	for obj := range s.All() {
		out = append(out, obj.Path())
	}
	return out
}

// Add inserts obj, replacing any object at the same location
func (s *Set) Add(obj fsobj.Object) error {
	if err := s.checkMutable("add"); err != nil {
		return err
	}
	s.insert(obj)
	return nil
}

// Discard removes the object at loc if there is one
func (s *Set) Discard(loc string) error {
	if err := s.checkMutable("discard"); err != nil {
		return err
	}
	s.removeAll(map[string]struct{}{paths.Normalize(loc): {}})
	return nil
}

// Update inserts every object; later objects win at the same location
func (s *Set) Update(objs ...fsobj.Object) error {
	if err := s.checkMutable("update"); err != nil {
		return err
	}
	for _, obj := range objs {
		s.insert(obj)
	}
	return nil
}

// DifferenceUpdate removes every location occupied by objs
func (s *Set) DifferenceUpdate(objs ...fsobj.Object) error {
	if err := s.checkMutable("difference_update"); err != nil {
		return err
	}
	locs := make(map[string]struct{}, len(objs))
	for _, obj := range objs {
		locs[obj.Path()] = struct{}{}
	}
	s.removeAll(locs)
	return nil
}

// Clone copies the set. A mutable clone of an ordered set keeps its order,
// appending new locations at the end; a frozen clone fixes the current
// iteration order.
func (s *Set) Clone(mutable bool) *Set {
	if !mutable {
		return NewOrdered(s.Objects()...)
	}
	out := &Set{entries: s.entries.Copy(), ordered: s.ordered}
	if s.ordered {
		out.order = slices.Clone(s.order)
	}
	return out
}

// Freeze returns a frozen copy in the current iteration order
func (s *Set) Freeze() *Set {
	return s.Clone(false)
}

// Filter returns the objects for which keep returns true, in set order,
// as a set of the same variant
func (s *Set) Filter(keep func(fsobj.Object) bool) *Set {
	out := s.empty()
	for obj := range s.All() {
		if keep(obj) {
			out.insert(obj)
		}
	}
	return s.seal(out)
}

func ofKind(k fsobj.Kind) func(fsobj.Object) bool {
	return func(obj fsobj.Object) bool { return obj.Kind() == k }
}

// Dirs returns the directories
func (s *Set) Dirs() *Set { return s.Filter(ofKind(fsobj.KindDir)) }

// Links returns the symlinks
func (s *Set) Links() *Set { return s.Filter(ofKind(fsobj.KindSymlink)) }

// Files returns the regular files
func (s *Set) Files() *Set { return s.Filter(ofKind(fsobj.KindFile)) }

// IterDirs iterates directories, or everything but directories when invert is set
func (s *Set) IterDirs(invert bool) iter.Seq[fsobj.Object] {
	return func(yield func(fsobj.Object) bool) {
		for obj := range s.All() {
			if (obj.Kind() == fsobj.KindDir) != invert {
				if !yield(obj) {
					return
				}
			}
		}
	}
}

// ChildNodes returns every object strictly below loc. Matching is by
// path segment: /usr/lib64 is not a child of /usr/lib.
func (s *Set) ChildNodes(loc string) *Set {
	loc = paths.Normalize(loc)
	if s.ordered {
		return s.Filter(func(obj fsobj.Object) bool {
			return paths.IsDescendant(loc, obj.Path())
		})
	}
	prefix := loc
	if prefix != paths.Separator {
		prefix += paths.Separator
	}
	out := s.empty()
	s.entries.Ascend(prefix, func(key string, obj fsobj.Object) bool {
		if !strings.HasPrefix(key, prefix) {
			return false
		}
		out.insert(obj)
		return true
	})
	return s.seal(out)
}

// ChangeOffset returns a copy with every location rebased from oldPrefix
// to newPrefix. Every member must lie within oldPrefix.
func (s *Set) ChangeOffset(oldPrefix, newPrefix string) (*Set, error) {
	oldPrefix = paths.Normalize(oldPrefix)
	newPrefix = paths.Normalize(newPrefix)
	out := s.empty()
	for obj := range s.All() {
		loc, ok := paths.Rebase(obj.Path(), oldPrefix, newPrefix)
		if !ok {
			return nil, errors.Newf(errors.ErrInvalidInput,
				"%s is not within offset %s", obj.Path(), oldPrefix)
		}
		out.insert(fsobj.WithLocation(obj, loc))
	}
	return s.seal(out), nil
}

// AddMissingDirectories inserts a directory for every ancestor of every
// member that is not present yet. Synthesized directories are mode 0755,
// owned by root, and carry the mtime of the member that required them.
func (s *Set) AddMissingDirectories() error {
	if err := s.checkMutable("add_missing_directories"); err != nil {
		return err
	}
	var missing []fsobj.Object
	seen := make(map[string]struct{})
	for obj := range s.All() {
		for _, parent := range paths.Parents(obj.Path()) {
			if _, ok := seen[parent]; ok {
				continue
			}
			seen[parent] = struct{}{}
			if _, ok := s.entries.Get(parent); ok {
				continue
			}
			missing = append(missing, fsobj.NewDir(parent,
				fsobj.WithMode(0o755), fsobj.WithMtime(obj.Metadata().Mtime)))
		}
	}
	for _, dir := range missing {
		s.insert(dir)
	}
	return nil
}

// SortedBy returns a frozen set ordered by cmp; ties keep set order
func (s *Set) SortedBy(cmp func(a, b fsobj.Object) int) *Set {
	objs := s.Objects()
	slices.SortStableFunc(objs, cmp)
	return NewOrdered(objs...)
}

// Map returns a set of the same variant with fn applied to every member,
// in set order. fn must not change locations; use ChangeOffset for that.
func (s *Set) Map(fn func(fsobj.Object) fsobj.Object) *Set {
	out := s.empty()
	for obj := range s.All() {
		out.insert(fn(obj))
	}
	return s.seal(out)
}
