// Package contents provides Set, the path-keyed collection of filesystem
// objects that represents a package payload or a snapshot of a live
// directory tree.
//
// A Set holds at most one object per location; inserting an object at an
// occupied location replaces the previous one. Sets come in two variants:
//
//   - mutable sets, used while a payload is being assembled, which iterate
//     in location order unless they were cloned from an ordered set;
//   - frozen sets, which only support reads and set algebra. Their
//     iteration order is fixed when they are frozen and every copy or
//     filter keeps it.
package contents
