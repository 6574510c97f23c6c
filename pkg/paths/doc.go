// Package paths provides centralized path handling for fsmerge.
//
// It covers two concerns:
//
//   - Locations: the absolute, normalized paths that identify filesystem
//     objects inside a package payload. A location always has a single
//     leading separator and no trailing separator except for the root.
//     Descendant tests work on path segments, so /usr/lib is not a parent
//     of /usr/lib64.
//   - Tool directories: where fsmerge keeps its own configuration and log
//     files, following the XDG Base Directory specification.
//
// # Environment Variables
//
//   - FSMERGE_CONFIG: explicit configuration file path
//   - FSMERGE_LOG_FILE: explicit log file path
package paths
