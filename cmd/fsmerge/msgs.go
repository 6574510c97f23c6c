package fsmerge

// Short messages (one-liners)
const (
	// Command descriptions
	MsgRootShort      = "Merge package archives into a live filesystem"
	MsgContentsShort  = "List the normalized contents of an archive"
	MsgMergeShort     = "Merge a package archive"
	MsgUnmergeShort   = "Remove an installed package"
	MsgReplaceShort   = "Replace an installed package with a new archive"
	MsgPackShort      = "Write an installed package back to an archive"
	MsgListShort      = "List installed packages"
	MsgRegenShort     = "Regenerate installed package records from disk"
	MsgEnvUpdateShort = "Regenerate the dynamic linker cache"
	MsgConfigShort    = "Print the effective configuration"
	MsgVersionShort   = "Print version information"

	// Status messages
	MsgMerged       = "%s %s: %d entries installed\n"
	MsgReplaced     = "%s %s: %d entries installed, %d removed\n"
	MsgUnmerged     = "%s %s: %d entries removed\n"
	MsgPacked       = "%s %s -> %s\n"
	MsgNoPackages   = "No packages installed."
	MsgRegenSummary = "Regenerated %d of %d packages in %s\n"
	MsgEnvUpdated   = "Linker cache updated below %s\n"
	MsgSkipped      = "trigger skipped: %v"

	// Error messages
	MsgErrFormat    = "unknown format %q, want text or yaml"
	MsgErrRegen     = "%d packages failed to regenerate"
	MsgErrNoCommand = "no command specified"

	// Flag descriptions
	MsgFlagVerbose   = "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)"
	MsgFlagConfig    = "Config file (default $XDG_CONFIG_HOME/fsmerge/config.toml)"
	MsgFlagRoot      = "Filesystem root to merge below (overrides config)"
	MsgFlagDBDir     = "Installed-contents database directory (overrides config)"
	MsgFlagNoColor   = "Disable colored output"
	MsgFlagFormat    = "Output format: text or yaml"
	MsgFlagInstalled = "Treat the argument as an installed package name"
	MsgFlagDefaults  = "Print the commented default configuration instead"
)

// Long descriptions
const (
	MsgRootLong = `fsmerge merges package archives into a live filesystem and keeps a
record of what every package installed.

Archives are normalized before merging: symlinked directories inside the
payload are resolved, hardlinks become symlinks and missing parent
directories are added. Maintenance triggers run around each merge to fix
ownership, report unsafe permissions, and refresh the linker cache and
the info directory index.`

	MsgReplaceLong = `Replace merges the new archive over the installed package and then
removes everything the old version installed that the new one no longer
ships. A package that is not installed yet is merged.`

	MsgRegenLong = `Regen rescans the files of the named packages, or of every installed
package, and rewrites their records with current metadata and full
checksums. Packages are processed in parallel.`
)
