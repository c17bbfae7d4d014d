//go:build darwin

package platform

import (
	"os"
	"os/exec"
	"path/filepath"
)

func getDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, "Library", "Application Support", AppDisplayName)
}

func openFile(path string) error {
	cmd := exec.Command("open", path)
	return cmd.Start()
}
