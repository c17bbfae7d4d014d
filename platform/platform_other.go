//go:build !linux && !darwin && !windows

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
	return filepath.Join(home, "."+AppName)
}

func openFile(path string) error {
	return exec.Command("xdg-open", path).Start()
}
