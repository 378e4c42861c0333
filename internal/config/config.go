// internal/config/config.go
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server ServerConfig `yaml:"server"`

	// ExcludedFolders are infrastructure-owned folders that save, stop
	// and restore must never touch. Empty means the standard set.
	ExcludedFolders []string `yaml:"excluded_folders"`
}

// ---- SERVER ----

type ServerConfig struct {
	URL      string `yaml:"url"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`

	TimeoutSec int `yaml:"timeout_sec"`

	// Insecure disables TLS certificate verification. ArcGIS Server
	// installs commonly run on self-signed certificates.
	Insecure bool `yaml:"insecure"`
}

// Load reads and parses a YAML config file.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return &cfg, nil
}
