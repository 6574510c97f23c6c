// Package triggers implements the hook engine that drives a merge or
// unmerge. Triggers bind to named hooks with a priority; the engine runs
// every trigger of a hook in ascending priority, handing each one only the
// changesets it declared.
//
// A trigger may return:
//   - nil, to continue;
//   - an error built with Warning, which is logged and collected but does
//     not stop the hook;
//   - an error built with Block, or any other error, which aborts the
//     whole operation.
package triggers
