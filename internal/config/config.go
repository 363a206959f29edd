// Package config resolves rolodex settings.
//
// Settings are layered, later sources winning:
//
//  1. Defaults
//  2. YAML config file (~/.rolodex/config.yaml, or --config)
//  3. .env file in the working directory
//  4. ROLODEX_* environment variables
//  5. Command-line flags (applied by the caller)
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/roach88/rolodex/internal/store"
)

// Default values.
const (
	DefaultDatabase       = "contacts"
	DefaultListen         = "127.0.0.1:8420"
	DefaultMergedCacheTTL = 30 * time.Second

	// FileName is the config file looked up in the data dir.
	FileName = "config.yaml"

	// EnvPrefix prefixes every environment override.
	EnvPrefix = "ROLODEX_"
)

// Config holds resolved settings.
type Config struct {
	DataDir        string        `yaml:"dataDir"`
	Database       string        `yaml:"database"`
	SchemaVersion  int           `yaml:"schemaVersion"`
	Listen         string        `yaml:"listen"`
	MergedCacheTTL time.Duration `yaml:"mergedCacheTTL"`
}

// Default returns the built-in settings. DataDir falls back to ".rolodex"
// in the working directory when the home directory is unknown.
func Default() Config {
	dir := ".rolodex"
	if home, err := os.UserHomeDir(); err == nil {
		dir = filepath.Join(home, ".rolodex")
	}
	return Config{
		DataDir:        dir,
		Database:       DefaultDatabase,
		SchemaVersion:  store.CurrentSchemaVersion,
		Listen:         DefaultListen,
		MergedCacheTTL: DefaultMergedCacheTTL,
	}
}

// Sources controls where Load looks. Zero values use the process
// environment and the default file locations.
type Sources struct {
	// File is an explicit config file; it must exist when set.
	File string

	// DataDir, when set, replaces the default and environment data dir
	// before the config file is located.
	DataDir string

	// EnvFile is the dotenv file to read; empty means ".env". A missing
	// dotenv file is ignored.
	EnvFile string

	// Getenv reads the environment; nil means os.Getenv.
	Getenv func(string) string
}

// Load resolves settings from defaults, the config file, the dotenv file
// and the environment.
func Load(src Sources) (Config, error) {
	cfg := Default()

	getenv := src.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	dotenv, err := readDotenv(src.EnvFile)
	if err != nil {
		return Config{}, err
	}
	lookup := func(key string) string {
		if v := getenv(EnvPrefix + key); v != "" {
			return v
		}
		return dotenv[EnvPrefix+key]
	}

	// The data dir can come from the environment and decides where the
	// default config file lives.
	if dir := lookup("DATA_DIR"); dir != "" {
		cfg.DataDir = dir
	}
	if src.DataDir != "" {
		cfg.DataDir = src.DataDir
	}

	path, mustExist := src.File, true
	if path == "" {
		if p := lookup("CONFIG"); p != "" {
			path = p
		} else {
			path, mustExist = filepath.Join(cfg.DataDir, FileName), false
		}
	}
	if err := loadFile(&cfg, path, mustExist); err != nil {
		return Config{}, err
	}

	if err := applyEnv(&cfg, lookup); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the resolved settings are usable.
func (c Config) Validate() error {
	if c.DataDir == "" {
		return errors.New("config: dataDir is required")
	}
	if c.Database == "" {
		return errors.New("config: database is required")
	}
	if c.SchemaVersion < 1 || c.SchemaVersion > store.CurrentSchemaVersion {
		return fmt.Errorf("config: schemaVersion %d is not between 1 and %d", c.SchemaVersion, store.CurrentSchemaVersion)
	}
	if c.MergedCacheTTL < 0 {
		return fmt.Errorf("config: mergedCacheTTL %s is negative", c.MergedCacheTTL)
	}
	return nil
}

func readDotenv(path string) (map[string]string, error) {
	if path == "" {
		path = ".env"
	}
	env, err := godotenv.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return env, nil
}

// loadFile overlays the YAML file at path onto cfg. Keys absent from the
// file keep their current values.
func loadFile(cfg *Config, path string, mustExist bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !mustExist {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config, lookup func(string) string) error {
	if v := lookup("DATABASE"); v != "" {
		cfg.Database = v
	}
	if v := lookup("LISTEN"); v != "" {
		cfg.Listen = v
	}
	if v := lookup("SCHEMA_VERSION"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: %sSCHEMA_VERSION: %w", EnvPrefix, err)
		}
		cfg.SchemaVersion = n
	}
	if v := lookup("MERGED_CACHE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: %sMERGED_CACHE_TTL: %w", EnvPrefix, err)
		}
		cfg.MergedCacheTTL = d
	}
	return nil
}
