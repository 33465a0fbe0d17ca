// Package userpath handles "~" in paths taken from config.yml and flags.
package userpath

import (
	"os"
	"path/filepath"
	"strings"
)

// Expand replaces a leading "~" or "~/" with the home directory. Other
// forms, including "~user", are returned unchanged.
func Expand(path string) string {
	path = strings.TrimSpace(path)
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return path
	}
	if path == "~" {
		return home
	}
	return filepath.Join(home, path[2:])
}

// Shorten is the display form of path with the home directory as "~".
func Shorten(path string) string {
	if path == "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" || home == string(filepath.Separator) {
		return path
	}
	if path == home {
		return "~"
	}
	if rest, ok := strings.CutPrefix(path, home+string(filepath.Separator)); ok {
		return "~/" + rest
	}
	return path
}
