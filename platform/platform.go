// Package platform provides cross-platform utilities for directory paths and
// opening files with the desktop's default application.
package platform

// AppName is the application name used for directory naming
const AppName = "ascii-stereogram"

// AppDisplayName is the display name used on Windows and macOS
const AppDisplayName = "ASCII Stereogram"

// GetDataDir returns the application data directory holding config.json and
// the render history.
// Windows: %APPDATA%\ASCII Stereogram
// macOS: ~/Library/Application Support/ASCII Stereogram
// Linux: $XDG_DATA_HOME/ascii-stereogram or ~/.local/share/ascii-stereogram
func GetDataDir() string {
	return getDataDir()
}

// OpenFile opens a file with the default application.
// Windows: uses "cmd /c start"
// macOS: uses "open"
// Linux: uses "xdg-open"
func OpenFile(path string) error {
	return openFile(path)
}
