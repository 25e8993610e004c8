package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// LogFileName is the GUI log file inside LogDirectory.
const LogFileName = "sgdesk.log"

// LogDirectory returns the directory sgdesk writes its log file to.
//
// Locations:
//   - Windows: %LOCALAPPDATA%\sgdesk\logs
//   - Unix: ~/.config/sgdesk/logs
func LogDirectory() string {
	if runtime.GOOS == "windows" {
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return filepath.Join(os.TempDir(), "sgdesk-logs")
			}
			localAppData = filepath.Join(homeDir, "AppData", "Local")
		}
		return filepath.Join(localAppData, "sgdesk", "logs")
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(os.TempDir(), "sgdesk-logs")
		}
		return filepath.Join(homeDir, ".config", "sgdesk", "logs")
	}
	return filepath.Join(configDir, "sgdesk", "logs")
}

// OpenLogFile creates the log directory (0700) and opens the log file for appending.
func OpenLogFile() (*os.File, error) {
	if err := os.MkdirAll(LogDirectory(), 0700); err != nil {
		return nil, err
	}
	return os.OpenFile(filepath.Join(LogDirectory(), LogFileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
}
