package contents

import (
	"github.com/arthur-debert/fsmerge/pkg/fsobj"
)

// Union returns the members of s and other. Objects from other replace
// objects of s at the same location; new locations follow s's order.
func (s *Set) Union(other *Set) *Set {
	out := s.Clone(true)
	for obj := range other.All() {
		out.insert(obj)
	}
	return s.seal(out)
}

// Difference returns the members of s whose location is absent from other
func (s *Set) Difference(other *Set) *Set {
	return s.Filter(func(obj fsobj.Object) bool {
		return !other.Has(obj.Path())
	})
}

// Intersection returns the members of s whose location is present in other
func (s *Set) Intersection(other *Set) *Set {
	return s.Filter(func(obj fsobj.Object) bool {
		return other.Has(obj.Path())
	})
}

// IsSubset reports whether every location of s is present in other
func (s *Set) IsSubset(other *Set) bool {
	for obj := range s.All() {
		if !other.Has(obj.Path()) {
			return false
		}
	}
	return true
}

// Equal reports whether both sets hold Equal objects at the same
// locations. Order, ownership, mode and mtime are ignored.
func (s *Set) Equal(other *Set) bool {
	if s.Len() != other.Len() {
		return false
	}
	for obj := range s.All() {
		cur, ok := other.Get(obj.Path())
		if !ok || !fsobj.Equal(obj, cur) {
			return false
		}
	}
	return true
}
