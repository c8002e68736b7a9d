// Package config loads the CLI configuration: built-in defaults, then an
// optional YAML file, then environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the resolved CLI configuration.
type Config struct {
	ServerURL string `yaml:"server_url"`
	WSURL     string `yaml:"ws_url"`
	Role      string `yaml:"role"`
	CacheDir  string `yaml:"cache_dir"`
	Debug     bool   `yaml:"debug"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		ServerURL: "http://localhost:8000",
		WSURL:     "ws://localhost:8000/ws/notifications/",
		Role:      "user",
	}
}

// Load resolves the configuration. When path is empty, ~/.parkctl/config.yaml
// is used if present; a missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if path == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, ".parkctl", "config.yaml")
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		case os.IsNotExist(err) && !explicit:
			// Defaults only.
		default:
			return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PARKCTL_SERVER_URL"); v != "" {
		cfg.ServerURL = v
	}
	if v := os.Getenv("PARKCTL_WS_URL"); v != "" {
		cfg.WSURL = v
	}
	if v := os.Getenv("PARKCTL_ROLE"); v != "" {
		cfg.Role = v
	}
	if v := os.Getenv("PARKCTL_CACHE_DIR"); v != "" {
		cfg.CacheDir = v
	}
	if v := os.Getenv("PARKCTL_DEBUG"); v == "true" || v == "1" {
		cfg.Debug = true
	}
}
