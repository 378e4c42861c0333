// internal/config/normalize.go
package config

import "strings"

// DefaultTimeoutSec is applied when the config leaves the timeout unset.
const DefaultTimeoutSec = 30

// DefaultExcludedFolders returns the standard infrastructure-owned
// folders. Server-managed content lives here; touching it during a
// fleet transition breaks hosted layers and utility services.
func DefaultExcludedFolders() []string {
	return []string{"Hosted", "System", "Utilities"}
}

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	cfg.Server.URL = strings.TrimRight(cfg.Server.URL, "/")

	if cfg.Server.TimeoutSec == 0 {
		cfg.Server.TimeoutSec = DefaultTimeoutSec
	}

	if len(cfg.ExcludedFolders) == 0 {
		cfg.ExcludedFolders = DefaultExcludedFolders()
	}
}
