// Package livefs connects content sets to a real directory tree: it
// builds objects from what is on disk, walks subtrees into sets, and
// applies or removes sets below an install offset.
package livefs
