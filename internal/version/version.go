package version

// Build information set by ldflags
var (
	Version = "dev"     // -X github.com/arthur-debert/fsmerge/internal/version.Version=...
	Commit  = "unknown" // -X github.com/arthur-debert/fsmerge/internal/version.Commit=...
	Date    = "unknown" // -X github.com/arthur-debert/fsmerge/internal/version.Date=...
)

