// Package fsobj models the filesystem objects that make up a package
// payload: regular files, directories, symlinks, fifos and device nodes.
//
// Objects are immutable values. Every "mutation" goes through Change or
// WithLocation and yields a new object; content sets key objects by
// location and rely on that.
//
// Two objects are Equal when they have the same kind, the same location and
// the same kind-specific identity (link target, device numbers). Ownership,
// mode and mtime do not take part, so "the set changed" is a weaker question
// than "an attribute changed".
package fsobj
