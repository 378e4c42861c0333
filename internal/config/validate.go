// internal/config/validate.go
package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg.Server.URL == "" {
		return errors.New("config: server.url required")
	}

	u, err := url.Parse(cfg.Server.URL)
	if err != nil {
		return fmt.Errorf("config: server.url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("config: server.url scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("config: server.url has no host")
	}

	if cfg.Server.Username == "" {
		return errors.New("config: server.username required")
	}
	if cfg.Server.Password == "" {
		return errors.New("config: server.password required")
	}

	if cfg.Server.TimeoutSec < 0 {
		return fmt.Errorf("config: server.timeout_sec must be >= 0, got %d", cfg.Server.TimeoutSec)
	}

	for _, f := range cfg.ExcludedFolders {
		if f == "" {
			return errors.New("config: excluded_folders must not contain empty names")
		}
	}

	return nil
}
