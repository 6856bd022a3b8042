package appconfig

import (
	"os"
	"path/filepath"
	"time"

	"pkt.systems/sayam/schema"
)

// Config is the top-level application configuration.
type Config struct {
	ConfigVersion int           `mapstructure:"config_version" yaml:"config_version"`
	StateDir      string        `mapstructure:"state_dir" yaml:"state_dir"`
	Backend       BackendConfig `mapstructure:"backend" yaml:"backend"`
	Browser       BrowserConfig `mapstructure:"browser" yaml:"browser"`
}

// CurrentConfigVersion marks the supported config version.
const CurrentConfigVersion = 1

// BackendConfig configures the realtime link to the agent backend.
type BackendConfig struct {
	URL                      string `mapstructure:"url" yaml:"url"`
	ReconnectIntervalSeconds int    `mapstructure:"reconnect_interval_seconds" yaml:"reconnect_interval_seconds"`
	RevealDelayMillis        int    `mapstructure:"reveal_delay_millis" yaml:"reveal_delay_millis"`
	LogMaxEntries            int    `mapstructure:"log_max_entries" yaml:"log_max_entries"`
}

// BrowserConfig configures the embedded browser.
type BrowserConfig struct {
	StartURL       string   `mapstructure:"start_url" yaml:"start_url"`
	Headless       bool     `mapstructure:"headless" yaml:"headless"`
	BlockedDomains []string `mapstructure:"blocked_domains" yaml:"blocked_domains"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, err
	}
	return Config{
		ConfigVersion: CurrentConfigVersion,
		StateDir:      filepath.Join(home, ".sayam", "state"),
		Backend: BackendConfig{
			URL:                      schema.DefaultBackendURL,
			ReconnectIntervalSeconds: int(schema.DefaultReconnectInterval / time.Second),
			RevealDelayMillis:        int(schema.DefaultRevealDelay / time.Millisecond),
			LogMaxEntries:            0,
		},
		Browser: BrowserConfig{
			StartURL:       schema.DefaultStartURL,
			Headless:       false,
			BlockedDomains: append([]string(nil), schema.DefaultBlockedDomains...),
		},
	}, nil
}

// DefaultConfigPath returns the standard config path.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".sayam", "config.yaml"), nil
}

// SessionConfig converts the loaded config into the session controller's
// config shape.
func (c Config) SessionConfig() schema.SessionConfig {
	return schema.SessionConfig{
		BackendURL:        c.Backend.URL,
		StateDir:          c.StateDir,
		ReconnectInterval: time.Duration(c.Backend.ReconnectIntervalSeconds) * time.Second,
		RevealDelay:       time.Duration(c.Backend.RevealDelayMillis) * time.Millisecond,
		LogMaxEntries:     c.Backend.LogMaxEntries,
	}
}

// BrowserSchemaConfig converts the loaded config into the browser
// controller's config shape.
func (c Config) BrowserSchemaConfig() schema.BrowserConfig {
	return schema.BrowserConfig{
		StartURL:       c.Browser.StartURL,
		BlockedDomains: append([]string(nil), c.Browser.BlockedDomains...),
		Headless:       c.Browser.Headless,
	}
}
