// Package config provides configuration management for fusion.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/goccy/go-json"
)

const (
	// DefaultWorkerPort is the default HTTP worker port.
	DefaultWorkerPort = 37800
	// DefaultMaxConns is the default SQLite connection pool size.
	DefaultMaxConns = 4

	dataDirName      = ".fusion"
	dbFileName       = "fusion.db"
	settingsFileName = "settings.json"
	legacyFileName   = "legacy-store.json"
	markerFileName   = ".migration-done"
)

// Config holds runtime configuration. Values come from settings.json with
// defaults filled in for anything unset.
type Config struct {
	WorkerPort       int
	MaxConns         int
	DBPath           string
	LegacyStorePath  string
	TrackingEndpoint string
	Debug            bool
}

// settings is the on-disk shape of settings.json. Keys mirror the
// environment variable names so a setting can live in either place.
type settings struct {
	WorkerPort       int    `json:"FUSION_WORKER_PORT"`
	MaxConns         int    `json:"FUSION_MAX_CONNS"`
	LegacyStorePath  string `json:"FUSION_LEGACY_STORE_PATH"`
	TrackingEndpoint string `json:"FUSION_TRACKING_ENDPOINT"`
	Debug            bool   `json:"FUSION_DEBUG"`
}

var (
	globalMu  sync.Mutex
	globalCfg *Config
)

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		WorkerPort:      DefaultWorkerPort,
		MaxConns:        DefaultMaxConns,
		DBPath:          DBPath(),
		LegacyStorePath: LegacyStorePath(),
	}
}

// Load reads settings.json and overlays it on the defaults. A missing or
// unparseable settings file is not an error; the defaults are returned.
func Load() (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(SettingsPath())
	if err != nil {
		return cfg, nil
	}

	var s settings
	if err := json.Unmarshal(data, &s); err != nil {
		return cfg, nil
	}

	if s.WorkerPort > 0 {
		cfg.WorkerPort = s.WorkerPort
	}
	if s.MaxConns > 0 {
		cfg.MaxConns = s.MaxConns
	}
	if s.LegacyStorePath != "" {
		cfg.LegacyStorePath = s.LegacyStorePath
	}
	if s.TrackingEndpoint != "" {
		cfg.TrackingEndpoint = s.TrackingEndpoint
	}
	cfg.Debug = s.Debug

	return cfg, nil
}

// Get returns the cached global configuration, loading it on first use.
func Get() *Config {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalCfg == nil {
		cfg, err := Load()
		if err != nil {
			cfg = Default()
		}
		globalCfg = cfg
	}
	return globalCfg
}

// GetWorkerPort returns the worker port, preferring the FUSION_WORKER_PORT
// environment variable over the loaded configuration.
func GetWorkerPort() int {
	if env := os.Getenv("FUSION_WORKER_PORT"); env != "" {
		if port, err := strconv.Atoi(env); err == nil && port > 0 {
			return port
		}
	}
	return Get().WorkerPort
}

// DataDir returns the fusion data directory under the user's home.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, dataDirName)
}

// DBPath returns the SQLite database path.
func DBPath() string {
	return filepath.Join(DataDir(), dbFileName)
}

// SettingsPath returns the settings file path.
func SettingsPath() string {
	return filepath.Join(DataDir(), settingsFileName)
}

// LegacyStorePath returns the default legacy key-value snapshot path.
func LegacyStorePath() string {
	return filepath.Join(DataDir(), legacyFileName)
}

// MigrationMarkerPath returns the path of the marker file recording that the
// legacy migration already ran. The migration restarts the process when it
// completes; the marker keeps the restart from re-triggering it.
func MigrationMarkerPath() string {
	return filepath.Join(DataDir(), markerFileName)
}

// EnsureDataDir creates the data directory if needed.
func EnsureDataDir() error {
	return os.MkdirAll(DataDir(), 0750)
}

// EnsureSettings creates an empty settings file if none exists.
func EnsureSettings() error {
	path := SettingsPath()
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	return os.WriteFile(path, []byte("{}\n"), 0600)
}

// EnsureAll performs full initialization of the data directory.
func EnsureAll() error {
	if err := EnsureDataDir(); err != nil {
		return err
	}
	return EnsureSettings()
}
