package contents

import (
	"slices"
	"testing"

	"github.com/arthur-debert/fsmerge/pkg/fsobj"
	"github.com/arthur-debert/fsmerge/pkg/paths"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

var locations = []string{
	"/a", "/a/b", "/a/b/c", "/b", "/b/x", "/usr", "/usr/lib", "/usr/lib64", "/usr/lib/a.so",
}

func genObjects() gopter.Gen {
	return gen.SliceOf(gen.IntRange(0, len(locations)-1)).Map(func(idxs []int) []fsobj.Object {
		objs := make([]fsobj.Object, len(idxs))
		for i, idx := range idxs {
			if i%3 == 0 {
				objs[i] = fsobj.NewDir(locations[idx])
			} else {
				objs[i] = fsobj.NewFile(locations[idx], nil, nil)
			}
		}
		return objs
	})
}

func TestSetProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("locations are unique", prop.ForAll(
		func(objs []fsobj.Object) bool {
			seen := map[string]bool{}
			for _, loc := range NewOrdered(objs...).Locations() {
				if seen[loc] {
					return false
				}
				seen[loc] = true
			}
			return true
		},
		genObjects(),
	))

	properties.Property("union and difference partition", prop.ForAll(
		func(x, y []fsobj.Object) bool {
			a, b := New(x...), New(y...)
			u := a.Union(b)
			return u.Len() == a.Difference(b).Len()+b.Len() &&
				a.IsSubset(u) && b.IsSubset(u)
		},
		genObjects(), genObjects(),
	))

	properties.Property("intersection is commutative on locations", prop.ForAll(
		func(x, y []fsobj.Object) bool {
			a, b := New(x...), New(y...)
			return slices.Equal(a.Intersection(b).Locations(), b.Intersection(a).Locations())
		},
		genObjects(), genObjects(),
	))

	properties.Property("freezing keeps order", prop.ForAll(
		func(objs []fsobj.Object) bool {
			s := NewOrdered(objs...)
			return slices.Equal(s.Clone(true).Freeze().Locations(), s.Locations())
		},
		genObjects(),
	))

	properties.Property("missing directories close the tree", prop.ForAll(
		func(objs []fsobj.Object) bool {
			s := New(objs...)
			if err := s.AddMissingDirectories(); err != nil {
				return false
			}
			for obj := range s.All() {
				for _, dir := range paths.Parents(obj.Path()) {
					if !s.Has(dir) {
						return false
					}
				}
			}
			return !s.Has("/")
		},
		genObjects(),
	))

	properties.TestingRun(t)
}
