package appconfig

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestDefaultConfig verifies default configuration values
func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.DefaultShift != 20 {
		t.Errorf("Default DefaultShift = %d; want 20", cfg.DefaultShift)
	}
	if cfg.DefaultRescale != 1 {
		t.Errorf("Default DefaultRescale = %f; want 1", cfg.DefaultRescale)
	}
	if cfg.InputEncoding != "utf-8" {
		t.Errorf("Default InputEncoding = %q; want %q", cfg.InputEncoding, "utf-8")
	}
	if cfg.ListenAddr != "127.0.0.1:8090" {
		t.Errorf("Default ListenAddr = %q; want %q", cfg.ListenAddr, "127.0.0.1:8090")
	}
	if cfg.Workers < 1 {
		t.Errorf("Default Workers = %d; want >= 1", cfg.Workers)
	}
	if cfg.JWTSecret == "" || cfg.AdminPassword == "" {
		t.Error("Default secrets should be generated")
	}
	if filepath.Base(cfg.DBPath) != "history.db" {
		t.Errorf("Default DBPath should end with 'history.db'; got %q", cfg.DBPath)
	}
}

// TestTokenDuration verifies tokenTTL parsing
func TestTokenDuration(t *testing.T) {
	tests := []struct {
		ttl     string
		want    time.Duration
		wantErr bool
	}{
		{"", 7 * 24 * time.Hour, false},
		{"168h", 7 * 24 * time.Hour, false},
		{"30m", 30 * time.Minute, false},
		{"soon", 0, true},
		{"-1h", 0, true},
		{"0s", 0, true},
	}
	for _, tt := range tests {
		got, err := Config{TokenTTL: tt.ttl}.TokenDuration()
		if (err != nil) != tt.wantErr {
			t.Errorf("TokenDuration(%q) error = %v; wantErr %v", tt.ttl, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("TokenDuration(%q) = %v; want %v", tt.ttl, got, tt.want)
		}
	}
	if defaultConfig().TokenTTL != DefaultTokenTTL {
		t.Errorf("Default TokenTTL = %q; want %q", defaultConfig().TokenTTL, DefaultTokenTTL)
	}
}

// TestDefaultSecretsDiffer verifies each default config gets fresh secrets
func TestDefaultSecretsDiffer(t *testing.T) {
	a, b := defaultConfig(), defaultConfig()
	if a.JWTSecret == b.JWTSecret {
		t.Error("JWTSecret should differ between default configs")
	}
	if a.AdminPassword == a.JWTSecret {
		t.Error("AdminPassword and JWTSecret should be independent")
	}
}

// TestGetSet verifies Get/Set functions for in-memory config
func TestGetSet(t *testing.T) {
	original := Get()
	defer Set(original)

	testConfig := Config{
		DBPath:       "/test/path/history.db",
		ListenAddr:   ":9999",
		DefaultShift: 33,
	}

	Set(testConfig)

	retrieved := Get()

	if retrieved.DBPath != testConfig.DBPath {
		t.Errorf("Get().DBPath = %q; want %q", retrieved.DBPath, testConfig.DBPath)
	}
	if retrieved.ListenAddr != testConfig.ListenAddr {
		t.Errorf("Get().ListenAddr = %q; want %q", retrieved.ListenAddr, testConfig.ListenAddr)
	}
	if retrieved.DefaultShift != testConfig.DefaultShift {
		t.Errorf("Get().DefaultShift = %d; want %d", retrieved.DefaultShift, testConfig.DefaultShift)
	}
}

// TestIsJSONObject tests the JSON object detection helper
func TestIsJSONObject(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{`{}`, true},
		{`{"key": "value"}`, true},
		{`  {  }  `, true},
		{`[]`, false},
		{`"string"`, false},
		{`123`, false},
		{`null`, false},
		{``, false},
	}

	for _, tt := range tests {
		result := isJSONObject([]byte(tt.input))
		if result != tt.expected {
			t.Errorf("isJSONObject(%q) = %v; want %v", tt.input, result, tt.expected)
		}
	}
}

// TestDeepMergeJSON tests the JSON merge functionality
func TestDeepMergeJSON(t *testing.T) {
	tests := []struct {
		name     string
		dst      string
		src      string
		expected string
	}{
		{
			name:     "Simple merge",
			dst:      `{"a": "1"}`,
			src:      `{"b": "2"}`,
			expected: `{"a":"1","b":"2"}`,
		},
		{
			name:     "Override value",
			dst:      `{"a": "1"}`,
			src:      `{"a": "2"}`,
			expected: `{"a":"2"}`,
		},
		{
			name:     "Nested merge",
			dst:      `{"nested": {"a": "1"}}`,
			src:      `{"nested": {"b": "2"}}`,
			expected: `{"nested":{"a":"1","b":"2"}}`,
		},
		{
			name:     "Add new nested",
			dst:      `{"a": "1"}`,
			src:      `{"nested": {"b": "2"}}`,
			expected: `{"a":"1","nested":{"b":"2"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var dst map[string]json.RawMessage
			var src map[string]json.RawMessage

			json.Unmarshal([]byte(tt.dst), &dst)
			json.Unmarshal([]byte(tt.src), &src)

			deepMergeJSON(dst, src)

			result, _ := json.Marshal(dst)

			// Parse both for comparison (order-independent)
			var resultMap, expectedMap map[string]interface{}
			json.Unmarshal(result, &resultMap)
			json.Unmarshal([]byte(tt.expected), &expectedMap)

			if !mapsEqual(resultMap, expectedMap) {
				t.Errorf("deepMergeJSON result = %s; want %s", result, tt.expected)
			}
		})
	}
}

// mapsEqual compares two maps recursively
func mapsEqual(a, b map[string]interface{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		bv, ok := b[k]
		if !ok {
			return false
		}
		if !valuesEqual(v, bv) {
			return false
		}
	}
	return true
}

func valuesEqual(a, b interface{}) bool {
	switch av := a.(type) {
	case map[string]interface{}:
		bv, ok := b.(map[string]interface{})
		if !ok {
			return false
		}
		return mapsEqual(av, bv)
	default:
		return a == b
	}
}

// TestLoadCreatesDefaultFile verifies a missing config file is created
func TestLoadCreatesDefaultFile(t *testing.T) {
	original := Get()
	defer Set(original)

	path := filepath.Join(t.TempDir(), "nested", "config.json")
	c, gotPath, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom error = %v", err)
	}
	if gotPath != path {
		t.Errorf("LoadFrom path = %q; want %q", gotPath, path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not created: %v", err)
	}
	if c.DefaultShift != 20 {
		t.Errorf("DefaultShift = %d; want 20", c.DefaultShift)
	}
	if Get().JWTSecret != c.JWTSecret {
		t.Error("LoadFrom should update the in-memory config")
	}
}

// TestLoadFillsMissingFields verifies partial files are completed and secrets persisted
func TestLoadFillsMissingFields(t *testing.T) {
	original := Get()
	defer Set(original)

	path := filepath.Join(t.TempDir(), "config.json")
	partial := `{"defaultShift": 40, "listenAddr": ":8000", "theme": {"dark": true}}`
	if err := os.WriteFile(path, []byte(partial), 0644); err != nil {
		t.Fatal(err)
	}

	c, _, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom error = %v", err)
	}
	if c.DefaultShift != 40 {
		t.Errorf("DefaultShift = %d; want 40", c.DefaultShift)
	}
	if c.ListenAddr != ":8000" {
		t.Errorf("ListenAddr = %q; want %q", c.ListenAddr, ":8000")
	}
	if c.DefaultRescale != 1 || c.HistoryLimit != 20 || c.InputEncoding != "utf-8" {
		t.Errorf("missing fields not defaulted: %+v", c)
	}

	// Generated secrets and unknown keys must be on disk now
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var onDisk map[string]interface{}
	if err := json.Unmarshal(data, &onDisk); err != nil {
		t.Fatalf("saved config is not valid JSON: %v", err)
	}
	if onDisk["jwtSecret"] != c.JWTSecret {
		t.Errorf("jwtSecret on disk = %v; want %q", onDisk["jwtSecret"], c.JWTSecret)
	}
	if _, ok := onDisk["theme"]; !ok {
		t.Error("unknown key 'theme' should be preserved on save")
	}
}

// TestLoadInvalidShiftFallsBack verifies an unusable shift is replaced by the default
func TestLoadInvalidShiftFallsBack(t *testing.T) {
	original := Get()
	defer Set(original)

	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"defaultShift": 1, "jwtSecret": "s", "adminPassword": "p"}`), 0644); err != nil {
		t.Fatal(err)
	}
	c, _, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom error = %v", err)
	}
	if c.DefaultShift != 20 {
		t.Errorf("DefaultShift = %d; want 20", c.DefaultShift)
	}
	if c.JWTSecret != "s" || c.AdminPassword != "p" {
		t.Error("existing secrets must be kept")
	}
}

// TestLoadInvalidJSON verifies parse errors are reported
func TestLoadInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{not json`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := LoadFrom(path); err == nil {
		t.Error("LoadFrom with invalid JSON succeeded; want error")
	}
}

// TestConfigJSONMarshal verifies Config can be marshaled to JSON
func TestConfigJSONMarshal(t *testing.T) {
	cfg := defaultConfig()
	cfg.DBPath = "/test/history.db"

	data, err := json.Marshal(cfg)
	if err != nil {
		t.Fatalf("json.Marshal error = %v", err)
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("Result is not valid JSON: %v", err)
	}

	expectedKeys := []string{"dbPath", "listenAddr", "historyLimit", "defaultShift", "defaultRescale", "workers", "inputEncoding", "adminUser", "adminPassword", "jwtSecret"}
	for _, key := range expectedKeys {
		if _, ok := parsed[key]; !ok {
			t.Errorf("Expected key %q not found in JSON output", key)
		}
	}
}

// TestConfigConcurrency tests concurrent access to Get/Set
func TestConfigConcurrency(t *testing.T) {
	// Save original and restore after test
	original := Get()
	defer Set(original)

	done := make(chan bool)

	// Writer goroutine
	go func() {
		for i := 0; i < 100; i++ {
			Set(Config{DBPath: "/path"})
		}
		done <- true
	}()

	// Reader goroutine
	go func() {
		for i := 0; i < 100; i++ {
			_ = Get()
		}
		done <- true
	}()

	// Wait for both to complete
	<-done
	<-done
}
