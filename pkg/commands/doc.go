// Package commands implements the operations behind the fsmerge CLI:
// merging, unmerging and replacing packages against the installed
// contents database, listing and repacking archives, bulk record
// regeneration and env-update. Each operation takes an Env and returns a
// result the CLI renders; nothing here prints.
package commands
