package paths

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

// Environment variable names
const (
	// EnvConfigFile overrides the configuration file location
	EnvConfigFile = "FSMERGE_CONFIG"

	// EnvLogFile overrides the log file location
	EnvLogFile = "FSMERGE_LOG_FILE"
)

// AppDirName is the directory name used below the XDG base directories
const AppDirName = "fsmerge"

// ConfigFile returns the user configuration file path. The file need not
// exist.
func ConfigFile() string {
	if p := os.Getenv(EnvConfigFile); p != "" {
		return p
	}
	return filepath.Join(xdg.ConfigHome, AppDirName, "config.toml")
}

// LogFile returns the log file path, creating its parent directory
func LogFile() (string, error) {
	if p := os.Getenv(EnvLogFile); p != "" {
		return p, nil
	}
	return xdg.StateFile(filepath.Join(AppDirName, "fsmerge.log"))
}
