package archive

import (
	"cmp"
	"io"
	"reflect"
	"slices"
	"strings"

	"github.com/arthur-debert/fsmerge/pkg/contents"
	"github.com/arthur-debert/fsmerge/pkg/errors"
	"github.com/arthur-debert/fsmerge/pkg/fsobj"
	"github.com/arthur-debert/fsmerge/pkg/logging"
	"github.com/arthur-debert/fsmerge/pkg/paths"
)

// Convert reads every entry of src and returns the normalized, frozen
// content set. An empty source yields an empty set.
func Convert(src Source) (*contents.Set, error) {
	logger := logging.GetLogger("archive")
	defer logging.LogOperationStart(logger, "convert")()

	objs, positions, err := readObjects(src)
	if err != nil {
		return nil, err
	}
	set := contents.New(objs...)

	raw := set.Links().Objects()
	links, err := resolveLinks(raw)
	if err != nil {
		return nil, err
	}
	if err := set.DifferenceUpdate(raw...); err != nil {
		return nil, err
	}
	for _, link := range links {
		if err := set.Add(link); err != nil {
			return nil, err
		}
	}

	if err := relocate(set, links); err != nil {
		return nil, err
	}
	if err := set.AddMissingDirectories(); err != nil {
		return nil, err
	}

	out := set.SortedBy(mergeOrder(positions))
	logger.Debug().
		Int("entries", len(objs)).
		Int("links", len(links)).
		Int("objects", out.Len()).
		Msg("archive normalized")
	return out, nil
}

// readObjects converts entries and records the stream position of every
// regular file, keyed by its data source
func readObjects(src Source) ([]fsobj.Object, map[fsobj.DataSource]int, error) {
	var objs []fsobj.Object
	positions := make(map[fsobj.DataSource]int)
	files := 0
	for {
		e, err := src.Next()
		if err == io.EOF {
			return objs, positions, nil
		}
		if err != nil {
			return nil, nil, errors.Wrap(err, errors.ErrArchiveRead, "failed to read archive entry")
		}
		obj, err := toObject(e)
		if err != nil {
			return nil, nil, err
		}
		if obj == nil {
			continue
		}
		if f, ok := obj.(fsobj.File); ok {
			if !reflect.TypeOf(f.Data).Comparable() {
				return nil, nil, errors.Newf(errors.ErrInvalidInput,
					"data source %T of %s is not comparable", f.Data, f.Location).
					WithDetail("location", f.Location)
			}
			positions[f.Data] = files
			files++
		}
		objs = append(objs, obj)
	}
}

// toObject converts one entry; it returns nil for entries that are skipped
func toObject(e *Entry) (fsobj.Object, error) {
	loc := paths.Normalize(strings.Trim(e.Name, paths.Separator))
	opts := []fsobj.Option{
		fsobj.WithUID(e.UID),
		fsobj.WithGID(e.GID),
		fsobj.WithMode(e.Mode),
		fsobj.WithMtime(e.Mtime),
	}

	switch e.Type {
	case TypeDir:
		if loc == paths.Separator {
			return nil, nil
		}
		return fsobj.NewDir(loc, opts...), nil
	case TypeFile:
		data := e.Data
		if data == nil {
			data = fsobj.NewBytesSource(nil)
		}
		var chksums map[string]string
		if e.Size > 0 || e.Data == nil {
			chksums = fsobj.SizeChksum(e.Size)
		}
		return fsobj.NewFile(loc, data, chksums, opts...), nil
	case TypeSymlink:
		return fsobj.NewSymlink(loc, e.Linkname, opts...), nil
	case TypeHardlink:
		// hardlinks are not tracked; they become symlinks to the member
		return fsobj.NewSymlink(loc, paths.Normalize(e.Linkname), opts...), nil
	case TypeFifo:
		return fsobj.NewFifo(loc, opts...), nil
	case TypeCharDevice, TypeBlockDevice:
		return fsobj.NewDevice(loc, e.Major, e.Minor, e.Type == TypeCharDevice, opts...), nil
	}
	return nil, errors.Newf(errors.ErrUnsupportedEntryType,
		"unsupported entry type %q for %s", byte(e.Type), e.Name).
		WithDetail("name", e.Name)
}

// maxLocationLen bounds how long a rewritten location may grow; nothing
// longer than PATH_MAX can be created on disk.
const maxLocationLen = 4096

type pendingLink struct {
	link fsobj.Symlink
	// locations this symlink has been rewritten through
	visited map[string]struct{}
}

// resolveLinks relocates symlinks that live below other symlinks until no
// symlink is nested under another. A symlink that returns to a location it
// already held can never settle.
func resolveLinks(objs []fsobj.Object) ([]fsobj.Symlink, error) {
	pending := make([]*pendingLink, len(objs))
	for i, obj := range objs {
		link := obj.(fsobj.Symlink)
		pending[i] = &pendingLink{link: link, visited: map[string]struct{}{link.Location: {}}}
	}

	for {
		slices.SortStableFunc(pending, func(a, b *pendingLink) int {
			return strings.Compare(a.link.Location, b.link.Location)
		})
		changed, err := rewriteFirstParent(pending)
		if err != nil {
			return nil, err
		}
		if !changed {
			break
		}
	}

	out := make([]fsobj.Symlink, len(pending))
	for i, p := range pending {
		out[i] = p.link
	}
	return out, nil
}

// rewriteFirstParent finds the first symlink, in path order, with symlinks
// below it and moves those under its resolved target
func rewriteFirstParent(pending []*pendingLink) (bool, error) {
	for _, parent := range pending {
		from := parent.link.Location
		changed := false
		for _, child := range pending {
			if child == parent || !paths.IsDescendant(from, child.link.Location) {
				continue
			}
			loc, err := follow(child.link.Location, parent.link, child.visited)
			if err != nil {
				return false, err
			}
			child.link = fsobj.WithLocation(child.link, loc).(fsobj.Symlink)
			changed = true
		}
		if changed {
			return true, nil
		}
	}
	return false, nil
}

// follow rebases loc from link onto its target and records the result in
// visited. Revisiting a location, or growing past any valid path, is a
// cycle.
func follow(loc string, link fsobj.Symlink, visited map[string]struct{}) (string, error) {
	target := link.ResolvedTarget()
	if paths.IsWithin(link.Location, target) {
		return "", cycleError(loc, link.Location)
	}
	next, _ := paths.Rebase(loc, link.Location, target)
	if _, seen := visited[next]; seen || len(next) > maxLocationLen {
		return "", cycleError(loc, link.Location)
	}
	visited[next] = struct{}{}
	return next, nil
}

// relocate moves every non-symlink below a symlink to where that symlink
// points. The deepest enclosing symlink applies first and the chase
// repeats until the location is free of symlinked ancestors.
func relocate(set *contents.Set, links []fsobj.Symlink) error {
	if len(links) == 0 {
		return nil
	}
	byLoc := make(map[string]fsobj.Symlink, len(links))
	for _, link := range links {
		byLoc[link.Location] = link
	}

	var removed, moved []fsobj.Object
	for obj := range set.All() {
		if obj.Kind() == fsobj.KindSymlink {
			continue
		}
		loc, err := chase(obj.Path(), byLoc)
		if err != nil {
			return err
		}
		if loc != obj.Path() {
			removed = append(removed, obj)
			moved = append(moved, fsobj.WithLocation(obj, loc))
		}
	}

	if err := set.DifferenceUpdate(removed...); err != nil {
		return err
	}
	return set.Update(moved...)
}

func chase(loc string, links map[string]fsobj.Symlink) (string, error) {
	var visited map[string]struct{}
	for {
		link, ok := deepestLink(loc, links)
		if !ok {
			return loc, nil
		}
		if visited == nil {
			visited = map[string]struct{}{loc: {}}
		}
		next, err := follow(loc, link, visited)
		if err != nil {
			return "", err
		}
		loc = next
	}
}

func deepestLink(loc string, links map[string]fsobj.Symlink) (fsobj.Symlink, bool) {
	parents := paths.Parents(loc)
	for i := len(parents) - 1; i >= 0; i-- {
		if link, ok := links[parents[i]]; ok {
			return link, true
		}
	}
	return fsobj.Symlink{}, false
}

func cycleError(loc, link string) error {
	return errors.Newf(errors.ErrSymlinkCycle, "symlink cycle: %s resolves through %s again", loc, link).
		WithDetail("location", loc).
		WithDetail("link", link)
}

const (
	tierDir = iota
	tierSpecial
	tierFile
)

func tierOf(obj fsobj.Object) int {
	switch obj.Kind() {
	case fsobj.KindDir:
		return tierDir
	case fsobj.KindFile:
		return tierFile
	}
	return tierSpecial
}

// mergeOrder sorts directories by path, then symlinks and special files by
// path, then regular files by archive position. Files without a recorded
// position follow the positioned ones, by path.
func mergeOrder(positions map[fsobj.DataSource]int) func(a, b fsobj.Object) int {
	return func(a, b fsobj.Object) int {
		ta, tb := tierOf(a), tierOf(b)
		if ta != tb {
			return cmp.Compare(ta, tb)
		}
		if ta == tierFile {
			pa, okA := positions[a.(fsobj.File).Data]
			pb, okB := positions[b.(fsobj.File).Data]
			switch {
			case okA && okB && pa != pb:
				return cmp.Compare(pa, pb)
			case okA && !okB:
				return -1
			case okB && !okA:
				return 1
			}
		}
		return strings.Compare(a.Path(), b.Path())
	}
}
