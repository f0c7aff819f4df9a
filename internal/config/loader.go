package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

const (
	configDir  = ".floatgate"
	configFile = "config"
	configType = "yaml"
)

// Load reads the configuration from ~/.floatgate/config.yaml and the
// environment. Returns an empty config if the file does not exist; the
// FLOATGATE_DB_URL (or DATABASE_URL) environment variable always wins over
// the file.
func Load() (*Config, error) {
	dir, err := configDirPath()
	if err != nil {
		return nil, fmt.Errorf("config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigName(configFile)
	v.SetConfigType(configType)
	v.AddConfigPath(dir)

	v.SetEnvPrefix("FLOATGATE")
	v.AutomaticEnv()
	_ = v.BindEnv("database_url", "FLOATGATE_DB_URL", "DATABASE_URL")

	// Defaults
	v.SetDefault("preferences.query_timeout", 30)
	v.SetDefault("preferences.max_rows", 10000)

	cfg := &Config{}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to ~/.floatgate/config.yaml. The database
// URL is environment-only and never persisted.
func Save(cfg *Config) error {
	dir, err := configDirPath()
	if err != nil {
		return fmt.Errorf("config dir: %w", err)
	}
	return saveTo(cfg, filepath.Join(dir, configFile+"."+configType))
}

func saveTo(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	v := viper.New()
	v.Set("connections", cfg.Connections)
	v.Set("preferences", cfg.Preferences)

	return v.WriteConfigAs(path)
}

func configDirPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, configDir), nil
}
