package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"

	"github.com/projgen/projgen/internal/constants"
)

// ConfigDirectory returns the per-user config directory.
//
// Locations:
//   - Unix: $XDG_CONFIG_HOME/projgen (usually ~/.config/projgen)
//   - macOS: ~/Library/Application Support/projgen
//   - Windows: %LOCALAPPDATA%\projgen
func ConfigDirectory() string {
	return filepath.Join(xdg.ConfigHome, constants.AppDirName)
}

// DefaultConfigPath returns the INI config file location.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDirectory(), constants.ConfigFileName)
}

// LogDirectory returns the directory holding GUI log files.
func LogDirectory() string {
	return filepath.Join(ConfigDirectory(), "logs")
}

// DefaultExtractionRoot returns <home>/Downloads/generated_project.
// The home directory is looked up on every call so that $HOME changes are
// honoured.
func DefaultExtractionRoot() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, filepath.FromSlash(constants.ExtractionSubpath)), nil
}

// ResolveAbsolutePath expands a leading ~ and converts path to an absolute
// path. Unlike filepath.EvalSymlinks it does not require path to exist.
func ResolveAbsolutePath(path string) (string, error) {
	if path == "" {
		return os.Getwd()
	}

	if path == "~" || strings.HasPrefix(path, "~/") || strings.HasPrefix(path, `~\`) {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(home, path[1:])
	}

	return filepath.Abs(path)
}
