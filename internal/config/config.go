// SPDX-License-Identifier: Apache-2.0

package config

import (
	"time"
)

// ClientConfig is the top-level configuration container for the calib-keeper
// client. It aggregates all sub-configurations and is populated by merging
// values from environment variables, command-line overrides, and an optional
// JSON file.
//
// Struct tags:
//   - envPrefix: prefix applied to all nested env tag lookups (caarlos0/env).
//   - env: direct environment variable name for scalar fields.
type ClientConfig struct {
	// Adapter holds settings for the outbound push transport.
	Adapter Adapter `envPrefix:"ADAPTER_"`

	// Storage holds the local record store settings.
	Storage Storage `envPrefix:"STORAGE_"`

	// Sync holds retry and trigger policy settings.
	Sync Sync `envPrefix:"SYNC_"`

	// Log holds client logging settings.
	Log Log `envPrefix:"LOG_"`

	// JSONFilePath is the optional path to a JSON configuration file.
	// When non-empty, the file is parsed and merged on top of the values
	// already loaded from environment variables and overrides.
	// Populated via the CONFIG environment variable or the -c / --config flag.
	JSONFilePath string `env:"CONFIG"`
}

// Adapter holds network settings for the push transport.
type Adapter struct {
	// BaseURL is the calibration server base URL (e.g. "http://localhost:8080").
	// Env: ADAPTER_BASE_URL
	BaseURL string `env:"BASE_URL"`

	// AuthToken is the bearer token attached to every push request.
	// Authentication itself is handled server-side; the client only carries
	// the token. Env: ADAPTER_AUTH_TOKEN
	AuthToken string `env:"AUTH_TOKEN"`

	// RequestTimeout is the per-request timeout for push and ping calls
	// (e.g. "15s"). Env: ADAPTER_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`
}

// Storage holds local persistence settings.
type Storage struct {
	// DSN is the SQLite file path of the local record store.
	// Env: STORAGE_DSN
	DSN string `env:"DSN"`

	// BroadcastDir is the directory used for the cross-instance sync
	// broadcast file. Defaults to the DSN directory when empty.
	// Env: STORAGE_BROADCAST_DIR
	BroadcastDir string `env:"BROADCAST_DIR"`
}

// Sync holds the retry and trigger policy settings of the sync engine.
type Sync struct {
	// MaxAttempts bounds delivery attempts per record within one run.
	// Env: SYNC_MAX_ATTEMPTS
	MaxAttempts int `env:"MAX_ATTEMPTS"`

	// BaseDelay is the first retry delay; subsequent delays grow
	// exponentially (base delay × 2^attempt). Env: SYNC_BASE_DELAY
	BaseDelay time.Duration `env:"BASE_DELAY"`

	// Debounce is the quiet period after a save before a sync run is
	// scheduled; rapid saves coalesce into one run. Env: SYNC_DEBOUNCE
	Debounce time.Duration `env:"DEBOUNCE"`

	// PingInterval is how often the connectivity probe checks the server.
	// Env: SYNC_PING_INTERVAL
	PingInterval time.Duration `env:"PING_INTERVAL"`
}

// Log holds logging settings for the client process.
type Log struct {
	// Path is the rotated log file location. Empty means stdout.
	// Env: LOG_PATH
	Path string `env:"PATH_FILE"`
}

// Default values applied by [ClientConfig.applyDefaults] for fields left
// unset by every configuration source.
const (
	DefaultRequestTimeout = 15 * time.Second
	DefaultMaxAttempts    = 5
	DefaultBaseDelay      = time.Second
	DefaultDebounce       = 800 * time.Millisecond
	DefaultPingInterval   = 30 * time.Second
)

func (cfg *ClientConfig) applyDefaults() {
	if cfg.Adapter.RequestTimeout <= 0 {
		cfg.Adapter.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.Sync.MaxAttempts <= 0 {
		cfg.Sync.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.Sync.BaseDelay <= 0 {
		cfg.Sync.BaseDelay = DefaultBaseDelay
	}
	if cfg.Sync.Debounce <= 0 {
		cfg.Sync.Debounce = DefaultDebounce
	}
	if cfg.Sync.PingInterval <= 0 {
		cfg.Sync.PingInterval = DefaultPingInterval
	}
}

// GetClientConfig loads, merges, and validates the client configuration from
// all available sources in the following priority order (last source wins for
// non-zero fields):
//  1. Environment variables
//  2. Command-line overrides
//  3. JSON file (path resolved from sources 1 and 2)
//
// overrides carries values collected from CLI flags; a nil overrides is
// treated as empty. Returns a fully populated *ClientConfig or an error if
// any source fails to load or the final config fails validation.
func GetClientConfig(overrides *ClientConfig) (*ClientConfig, error) {
	return newConfigBuilder().
		withEnv().
		withOverrides(overrides).
		withJSON().
		build()
}
