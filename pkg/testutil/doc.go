// Package testutil provides utilities for testing fsmerge components.
//
// Key components:
//   - TestEnvironment: an afero filesystem with an install root and a
//     record database, either in memory or under a temp directory
//   - FakeClock: a controllable clock for the mtime watcher
//   - MockTrigger, MockRunner: stand-ins for triggers and external tools
//   - RecordingReporter, RecordingObserver: capture what triggers report
//
// Usage guidelines:
//   - Most tests should use EnvMemoryOnly for speed and isolation
//   - Only tests of real filesystem behavior (symlinks, device nodes,
//     ownership) need EnvIsolated
//   - All test data should be defined inline, not in external files
package testutil
