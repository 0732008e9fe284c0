// Package config loads config.yaml from the configuration directory.
//
// The file is created with defaults on first run. Values from the
// environment (WANDERPLAN_HOME_CURRENCY, WANDERPLAN_LANGUAGE,
// WANDERPLAN_LOG_LEVEL, WANDERPLAN_SYNC_STRATEGY) override the file. An
// optional .env file is loaded into the environment first.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/TomasRacil/WanderPlan-sub000/pkg/types"
)

// FileName is the configuration file inside the config directory.
const FileName = "config.yaml"

// Config keys.
const (
	KeyBackend      = "backend"
	KeyDataDir      = "data_dir"
	KeySyncStrategy = "sync_strategy"
	KeyHomeCurrency = "home_currency"
	KeyLanguage     = "language"
	KeyLogLevel     = "log_level"
)

// EnvPrefix prefixes the environment overrides.
const EnvPrefix = "WANDERPLAN"

// Config is the resolved CLI configuration.
type Config struct {
	Backend      string `yaml:"backend"`
	DataDir      string `yaml:"data_dir,omitempty"`
	SyncStrategy string `yaml:"sync_strategy"`
	HomeCurrency string `yaml:"home_currency"`
	Language     string `yaml:"language"`
	LogLevel     string `yaml:"log_level"`
}

// Defaults returns the configuration written on first run.
func Defaults() Config {
	return Config{
		Backend:      types.BackendSQLite,
		SyncStrategy: types.SyncImmediate,
		HomeCurrency: "EUR",
		Language:     "en",
		LogLevel:     "info",
	}
}

// Store returns the backend configuration for dataDir.
func (c Config) Store(dataDir string) types.Config {
	return types.Config{
		Backend:      c.Backend,
		DataDir:      dataDir,
		SyncStrategy: c.SyncStrategy,
	}
}

// LoadDotEnv loads path into the environment if it exists. Variables that
// are already set win.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Load reads config.yaml from configDir, creating the directory and a default
// file when missing.
func Load(configDir string) (Config, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return Config{}, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := WriteDefault(configDir); err != nil {
		return Config{}, fmt.Errorf("ensure default config: %w", err)
	}

	def := Defaults()
	v := viper.New()
	v.SetDefault(KeyBackend, def.Backend)
	v.SetDefault(KeySyncStrategy, def.SyncStrategy)
	v.SetDefault(KeyHomeCurrency, def.HomeCurrency)
	v.SetDefault(KeyLanguage, def.Language)
	v.SetDefault(KeyLogLevel, def.LogLevel)
	v.SetConfigFile(filepath.Join(configDir, FileName))
	v.SetConfigType("yaml")

	// data_dir stays out of the environment binding: WANDERPLAN_DATA_DIR ranks
	// below config.yaml and is handled by the paths package.
	v.SetEnvPrefix(EnvPrefix)
	for _, key := range []string{KeySyncStrategy, KeyHomeCurrency, KeyLanguage, KeyLogLevel} {
		if err := v.BindEnv(key); err != nil {
			return Config{}, err
		}
	}

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg := Config{
		Backend:      v.GetString(KeyBackend),
		DataDir:      v.GetString(KeyDataDir),
		SyncStrategy: v.GetString(KeySyncStrategy),
		HomeCurrency: strings.ToUpper(v.GetString(KeyHomeCurrency)),
		Language:     v.GetString(KeyLanguage),
		LogLevel:     v.GetString(KeyLogLevel),
	}
	if err := cfg.Store("").Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid %s: %w", FileName, err)
	}
	return cfg, nil
}

const header = "# wanderplan configuration\n# data_dir is optional; --data-dir and WANDERPLAN_DATA_DIR also set it.\n\n"

// WriteDefault writes a default config.yaml into configDir unless one exists.
func WriteDefault(configDir string) error {
	path := filepath.Join(configDir, FileName)
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}

	data, err := yaml.Marshal(Defaults())
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, append([]byte(header), data...), 0o644)
}

// SetDataDir records dataDir in configDir's config.yaml, keeping the other
// values.
func SetDataDir(configDir, dataDir string) error {
	path := filepath.Join(configDir, FileName)
	cfg := Defaults()
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return fmt.Errorf("parse %s: %w", FileName, err)
		}
	}
	cfg.DataDir = dataDir
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, append([]byte(header), data...), 0o644)
}
