package paths

import (
	"path"
	"strings"
)

// Separator is the location separator. Locations are always slash separated,
// independent of the host platform.
const Separator = "/"

// Normalize returns the canonical form of a location: absolute, with
// repeated separators collapsed, "." and ".." resolved, and no trailing
// separator except for the root.
func Normalize(loc string) string {
	if loc == "" {
		return Separator
	}
	return path.Clean(Separator + loc)
}

// Join joins elements into a normalized location
func Join(elem ...string) string {
	return Normalize(path.Join(elem...))
}

// Dir returns the parent location. The parent of the root is the root.
func Dir(loc string) string {
	return path.Dir(Normalize(loc))
}

// Base returns the last segment of a location
func Base(loc string) string {
	return path.Base(Normalize(loc))
}

// IsDescendant reports whether child lies strictly below parent.
// Both arguments must already be normalized.
func IsDescendant(parent, child string) bool {
	if parent == child {
		return false
	}
	if parent == Separator {
		return strings.HasPrefix(child, Separator)
	}
	return strings.HasPrefix(child, parent+Separator)
}

// IsWithin reports whether loc equals parent or lies below it
func IsWithin(parent, loc string) bool {
	return parent == loc || IsDescendant(parent, loc)
}

// Rebase replaces the oldPrefix segment of loc with newPrefix.
// The boolean is false, and loc is returned unchanged, when loc is not
// within oldPrefix.
func Rebase(loc, oldPrefix, newPrefix string) (string, bool) {
	if loc == oldPrefix {
		return Normalize(newPrefix), true
	}
	if !IsDescendant(oldPrefix, loc) {
		return loc, false
	}
	rest := strings.TrimPrefix(loc, oldPrefix)
	return Join(newPrefix, rest), true
}

// Parents returns every ancestor of loc from the top down, excluding the
// root and loc itself. Parents("/usr/lib/x.so") is ["/usr", "/usr/lib"].
func Parents(loc string) []string {
	loc = Normalize(loc)
	var parents []string
	for dir := path.Dir(loc); dir != Separator; dir = path.Dir(dir) {
		parents = append(parents, dir)
	}
	for i, j := 0, len(parents)-1; i < j; i, j = i+1, j-1 {
		parents[i], parents[j] = parents[j], parents[i]
	}
	return parents
}

// Depth returns the number of segments in a location; the root has depth 0
func Depth(loc string) int {
	loc = Normalize(loc)
	if loc == Separator {
		return 0
	}
	return strings.Count(loc, Separator)
}

// Resolve resolves a link target against the directory containing loc.
// Absolute targets are normalized as-is.
func Resolve(loc, target string) string {
	if strings.HasPrefix(target, Separator) {
		return Normalize(target)
	}
	return Join(Dir(loc), target)
}

// Under maps a location onto the filesystem below offset. An empty offset
// is treated as the root.
func Under(offset, loc string) string {
	if offset == "" || offset == Separator {
		return Normalize(loc)
	}
	return path.Clean(offset + Separator + strings.TrimPrefix(loc, Separator))
}

// Strip is the inverse of Under: it maps an on-disk path below offset back
// to a location. The boolean is false when p is outside offset.
func Strip(offset, p string) (string, bool) {
	if offset == "" || offset == Separator {
		return Normalize(p), true
	}
	offset = path.Clean(offset)
	p = path.Clean(p)
	if p == offset {
		return Separator, true
	}
	if !strings.HasPrefix(p, offset+Separator) {
		return "", false
	}
	return Normalize(strings.TrimPrefix(p, offset)), true
}
