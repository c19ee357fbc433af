package logging

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultLogDir returns the default log directory (~/.fdblayer/logs/).
// Falls back to the temp directory if the home directory is unavailable.
func DefaultLogDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".fdblayer", "logs")
	}
	return filepath.Join(home, ".fdblayer", "logs")
}

// DefaultLogPath returns the default store log path.
func DefaultLogPath() string {
	return filepath.Join(DefaultLogDir(), "store.log")
}

// FindLogFile locates the log file for the `fdbctl logs` command.
// An explicit path takes precedence; otherwise the default path is used.
func FindLogFile(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err == nil {
			return explicit, nil
		}
		return "", fmt.Errorf("log file not found: %s", explicit)
	}

	path := DefaultLogPath()
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	return "", fmt.Errorf("no log file found; expected at: %s", path)
}

// EnsureLogDir creates the log directory if it doesn't already exist.
func EnsureLogDir() error {
	return os.MkdirAll(DefaultLogDir(), 0o755)
}
