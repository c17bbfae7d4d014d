//go:build windows

package platform

import (
	"os"
	"os/exec"
	"path/filepath"
)

func getDataDir() string {
	appDataDir := os.Getenv("APPDATA")
	if appDataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "."
		}
		return filepath.Join(home, "."+AppName)
	}
	return filepath.Join(appDataDir, AppDisplayName)
}

func openFile(path string) error {
	// The empty string after start is the window title
	cmd := exec.Command("cmd", "/c", "start", "", path)
	return cmd.Start()
}
