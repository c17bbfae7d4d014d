package appconfig

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stevecastle/asciistereo/platform"
	"github.com/stevecastle/asciistereo/stereogram"
	"github.com/stevecastle/asciistereo/textio"
)

// Config holds the defaults shared by the command line tool and the server.
type Config struct {
	// History database path
	DBPath string `json:"dbPath"`

	// HTTP server settings
	ListenAddr   string `json:"listenAddr"`
	HistoryLimit int    `json:"historyLimit"`

	// Generation defaults
	DefaultShift   int     `json:"defaultShift"`
	DefaultRescale float64 `json:"defaultRescale"`
	Workers        int     `json:"workers"`
	InputEncoding  string  `json:"inputEncoding"`

	// Credentials guarding destructive server routes
	AdminUser     string `json:"adminUser"`
	AdminPassword string `json:"adminPassword"`
	JWTSecret     string `json:"jwtSecret"`
	// TokenTTL is a Go duration string, e.g. "168h"
	TokenTTL string `json:"tokenTTL"`
}

// DefaultTokenTTL is the lifetime of login tokens when the config has none.
const DefaultTokenTTL = "168h"

// TokenDuration parses TokenTTL. An empty value means DefaultTokenTTL.
func (c Config) TokenDuration() (time.Duration, error) {
	v := c.TokenTTL
	if v == "" {
		v = DefaultTokenTTL
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid tokenTTL %q: %w", c.TokenTTL, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid tokenTTL %q: must be positive", c.TokenTTL)
	}
	return d, nil
}

var (
	cfgMu sync.RWMutex
	cfg   Config
)

// DefaultDBPath returns the default history database path.
// Uses the platform-specific data directory.
func DefaultDBPath() string {
	return filepath.Join(platform.GetDataDir(), "history.db")
}

// DefaultConfigDir returns the default config directory path.
func DefaultConfigDir() string {
	return platform.GetDataDir()
}

// defaultConfig returns a Config populated with sensible defaults.
func defaultConfig() Config {
	return Config{
		DBPath:         DefaultDBPath(),
		ListenAddr:     "127.0.0.1:8090",
		HistoryLimit:   20,
		DefaultShift:   stereogram.DefaultShift,
		DefaultRescale: 1,
		Workers:        runtime.GOMAXPROCS(0),
		InputEncoding:  textio.DefaultEncoding,
		AdminUser:      "admin",
		AdminPassword:  uuid.NewString(),
		JWTSecret:      uuid.New().String(),
		TokenTTL:       DefaultTokenTTL,
	}
}

// Get returns a copy of the current in-memory config.
func Get() Config {
	cfgMu.RLock()
	defer cfgMu.RUnlock()
	return cfg
}

// Set replaces the in-memory config.
func Set(c Config) {
	cfgMu.Lock()
	cfg = c
	cfgMu.Unlock()
}

func isJSONObject(raw []byte) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '{'
}

func deepMergeJSON(dst, src map[string]json.RawMessage) {
	for k, v := range src {
		if existing, ok := dst[k]; ok && isJSONObject(existing) && isJSONObject(v) {
			var dstObj map[string]json.RawMessage
			var srcObj map[string]json.RawMessage
			if err := json.Unmarshal(existing, &dstObj); err != nil {
				dst[k] = v
				continue
			}
			if err := json.Unmarshal(v, &srcObj); err != nil {
				dst[k] = v
				continue
			}
			deepMergeJSON(dstObj, srcObj)
			merged, err := json.Marshal(dstObj)
			if err != nil {
				dst[k] = v
				continue
			}
			dst[k] = merged
			continue
		}
		dst[k] = v
	}
}

// ConfigPath returns the full path to the default config.json file.
func ConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.json")
}

// Load reads the default config file, see LoadFrom.
func Load() (Config, string, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom reads the config at path and updates the in-memory config. It returns
// the config and path. A missing file is created with default values; missing
// fields are filled in from the defaults.
func LoadFrom(path string) (Config, string, error) {
	configDir := filepath.Dir(path)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return Config{}, "", fmt.Errorf("failed to create config directory %s: %w", configDir, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			def := defaultConfig()
			if _, saveErr := SaveTo(path, def); saveErr != nil {
				return Config{}, path, fmt.Errorf("failed to create default config file: %w", saveErr)
			}
			return def, path, nil
		}
		return Config{}, path, fmt.Errorf("failed to read config file at %s: %w", path, err)
	}

	var c Config
	if err := json.Unmarshal(data, &c); err != nil {
		return Config{}, path, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	def := defaultConfig()
	needsSave := false

	if c.DBPath == "" {
		c.DBPath = def.DBPath
		needsSave = true
	}
	if c.ListenAddr == "" {
		c.ListenAddr = def.ListenAddr
	}
	if c.HistoryLimit <= 0 {
		c.HistoryLimit = def.HistoryLimit
	}
	if c.DefaultShift < stereogram.MinShift {
		c.DefaultShift = def.DefaultShift
	}
	if c.DefaultRescale == 0 {
		c.DefaultRescale = def.DefaultRescale
	}
	if c.Workers <= 0 {
		c.Workers = def.Workers
	}
	if c.InputEncoding == "" {
		c.InputEncoding = def.InputEncoding
	}
	if c.AdminUser == "" {
		c.AdminUser = def.AdminUser
	}
	if c.AdminPassword == "" {
		c.AdminPassword = def.AdminPassword
		needsSave = true
	}
	if c.TokenTTL == "" {
		c.TokenTTL = def.TokenTTL
	}
	if c.JWTSecret == "" {
		c.JWTSecret = def.JWTSecret
		needsSave = true
	}

	// Persist generated secrets so they survive restarts
	if needsSave {
		if _, saveErr := SaveTo(path, c); saveErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to save updated config: %v\n", saveErr)
		}
	}

	Set(c)
	return c, path, nil
}

// Save writes the config to the default path. Returns the path.
func Save(c Config) (string, error) {
	return SaveTo(ConfigPath(), c)
}

// SaveTo merges c into the JSON file at path, keeping keys it does not know
// about, and creates the directory as needed.
func SaveTo(path string, c Config) (string, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return path, fmt.Errorf("failed to create config directory: %w", err)
	}
	base := map[string]json.RawMessage{}
	if existing, readErr := os.ReadFile(path); readErr == nil {
		var tmp map[string]json.RawMessage
		if err := json.Unmarshal(existing, &tmp); err == nil {
			base = tmp
		}
	}

	marshaled, err := json.Marshal(c)
	if err != nil {
		return path, fmt.Errorf("failed to marshal config: %w", err)
	}
	incoming := map[string]json.RawMessage{}
	if err := json.Unmarshal(marshaled, &incoming); err != nil {
		return path, fmt.Errorf("failed to map config JSON: %w", err)
	}

	deepMergeJSON(base, incoming)

	mergedData, err := json.MarshalIndent(base, "", "  ")
	if err != nil {
		return path, fmt.Errorf("failed to marshal merged config: %w", err)
	}
	if err := os.WriteFile(path, mergedData, 0600); err != nil {
		return path, fmt.Errorf("failed to write config file: %w", err)
	}
	Set(c)
	return path, nil
}
