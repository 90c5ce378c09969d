package utils

import (
	"os"
	"path/filepath"
	"runtime"
)

const AppName = "AppMovin"

// DataDir returns the process-private directory holding the index, the
// storage config and the default managed directory.
//
// Windows: %AppData%\AppMovin, macOS: ~/Library/Application Support/AppMovin,
// Linux: $XDG_CONFIG_HOME/AppMovin or ~/.config/AppMovin.
func DataDir() string {
	if base, err := os.UserConfigDir(); err == nil && base != "" {
		return filepath.Join(base, AppName)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "_data")
	}
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(home, "AppData", "Roaming", AppName)
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", AppName)
	default:
		return filepath.Join(home, ".config", AppName)
	}
}

// EnsureDir creates path and its parents.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0o755)
}
