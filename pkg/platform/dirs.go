// Package platform resolves per-OS application directories.
package platform

import (
	"os"
	"path/filepath"
	"runtime"
)

// Dirs holds the resolved config and data directories for the app.
type Dirs struct {
	Config string
	Data   string
}

// AppDirs resolves and creates the config and data directories for appName
// following each platform's conventions (XDG on Linux, Application Support
// on macOS, AppData on Windows).
func AppDirs(appName string) (*Dirs, error) {
	var dirs Dirs

	switch runtime.GOOS {
	case "linux":
		dirs.Config = envDir("XDG_CONFIG_HOME", appName, ".config")
		dirs.Data = envDir("XDG_DATA_HOME", appName, ".local", "share")
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		dirs.Config = filepath.Join(home, "Library", "Application Support", appName)
		dirs.Data = dirs.Config
	case "windows":
		dirs.Config = envDir("APPDATA", appName, "AppData", "Roaming")
		dirs.Data = envDir("LOCALAPPDATA", appName, "AppData", "Local")
	default:
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		dirs.Config = filepath.Join(home, "."+appName)
		dirs.Data = dirs.Config
	}

	for _, dir := range []string{dirs.Config, dirs.Data} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	return &dirs, nil
}

// DownloadsDir returns the user's downloads directory. The directory is not
// created; callers that scan it must tolerate its absence.
func DownloadsDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	if runtime.GOOS == "linux" {
		if dir := os.Getenv("XDG_DOWNLOAD_DIR"); dir != "" {
			return dir, nil
		}
	}
	return filepath.Join(home, "Downloads"), nil
}

// envDir uses the environment override when set, otherwise the conventional
// location under the home directory.
func envDir(envVar, appName string, homeParts ...string) string {
	if base := os.Getenv(envVar); base != "" {
		return filepath.Join(base, appName)
	}
	home, _ := os.UserHomeDir()
	parts := append([]string{home}, homeParts...)
	parts = append(parts, appName)
	return filepath.Join(parts...)
}
