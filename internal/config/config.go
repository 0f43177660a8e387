// Package config loads the CLI's YAML configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const defaultServer = "https://app.scrumwise.io"

// Config is the ~/.scrumwise/config.yaml contents. Flags and environment
// variables override it per command.
type Config struct {
	Server         string `yaml:"server"`
	CredentialsDir string `yaml:"credentialsDir"`
	CacheDir       string `yaml:"cacheDir"`
	Cache          bool   `yaml:"cache"`
}

// Load reads the config file at path. With an empty path it tries
// ~/.scrumwise/config.yaml and falls back to defaults when no file exists;
// an explicitly given path must exist.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if path == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, ".scrumwise", "config.yaml")
		}
	}

	cfg := &Config{Server: defaultServer}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if cfg.Server == "" {
		cfg.Server = defaultServer
	}

	return cfg, nil
}
