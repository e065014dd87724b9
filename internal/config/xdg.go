// Package config provides XDG path helpers.
package config

import (
	"os"
	"path/filepath"
)

// XDGConfigHome returns the XDG config home or a default fallback.
func XDGConfigHome() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".config")
}

// XDGDataHome returns the XDG data home or a default fallback.
func XDGDataHome() string {
	if v := os.Getenv("XDG_DATA_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".local", "share")
}

// DefaultToolsDir returns the default directory for tool documents.
func DefaultToolsDir() string {
	return filepath.Join(XDGConfigHome(), "keydrill", "tools")
}

// DefaultDBPath returns the default path for the SQLite database.
func DefaultDBPath() string {
	return filepath.Join(XDGDataHome(), "keydrill", "keydrill.db")
}

// DefaultConfigPath returns the default TOML config path.
func DefaultConfigPath() string {
	return filepath.Join(XDGConfigHome(), "keydrill", "config.toml")
}

// CaptureFilePath returns the fixed path the interceptor appends key tokens to.
// The interceptor owns this location; changing it requires rebuilding the binary.
func CaptureFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(".", "hotkey-trainer", "captured_keys.txt")
	}
	return filepath.Join(home, "hotkey-trainer", "captured_keys.txt")
}

// InterceptorPath returns the expected location of the interceptor binary.
func InterceptorPath() string {
	return filepath.Join("build", "key-interceptor")
}
