package appconfig

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Load reads configuration from the provided path. If path is empty, uses DefaultConfigPath.
func Load(path string) (Config, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return Config{}, err
		}
		path = defaultPath
	}

	cfg, err := DefaultConfig()
	if err != nil {
		return Config{}, err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetDefault("config_version", cfg.ConfigVersion)
	v.SetDefault("state_dir", cfg.StateDir)
	v.SetDefault("backend.url", cfg.Backend.URL)
	v.SetDefault("backend.reconnect_interval_seconds", cfg.Backend.ReconnectIntervalSeconds)
	v.SetDefault("backend.reveal_delay_millis", cfg.Backend.RevealDelayMillis)
	v.SetDefault("backend.log_max_entries", cfg.Backend.LogMaxEntries)
	v.SetDefault("browser.start_url", cfg.Browser.StartURL)
	v.SetDefault("browser.headless", cfg.Browser.Headless)
	v.SetDefault("browser.blocked_domains", cfg.Browser.BlockedDomains)

	configLoaded := false
	if err := v.ReadInConfig(); err != nil {
		// A missing file means defaults; anything else is fatal.
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if !notFound && !os.IsNotExist(err) {
			return Config{}, err
		}
	} else {
		configLoaded = true
	}

	if configLoaded {
		if !v.IsSet("config_version") {
			return Config{}, fmt.Errorf("config_version is required; expected %d", CurrentConfigVersion)
		}
		if v.GetInt("config_version") != CurrentConfigVersion {
			return Config{}, fmt.Errorf("unsupported config_version %d; expected %d", v.GetInt("config_version"), CurrentConfigVersion)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	expandConfigEnv(&cfg)
	if err := validateBackendConfig(cfg.Backend); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validateBackendConfig(cfg BackendConfig) error {
	backendURL := strings.TrimSpace(cfg.URL)
	if backendURL == "" {
		return fmt.Errorf("backend.url is required")
	}
	parsed, err := url.Parse(backendURL)
	if err != nil || (parsed.Scheme != "ws" && parsed.Scheme != "wss") {
		return fmt.Errorf("backend.url must be a ws:// or wss:// endpoint (e.g. %s)", "ws://127.0.0.1:8000/ws")
	}
	if cfg.ReconnectIntervalSeconds < 0 {
		return fmt.Errorf("backend.reconnect_interval_seconds must not be negative")
	}
	if cfg.RevealDelayMillis < 0 {
		return fmt.Errorf("backend.reveal_delay_millis must not be negative")
	}
	return nil
}

func expandConfigEnv(cfg *Config) {
	if cfg == nil {
		return
	}
	cfg.StateDir = expandEnv(cfg.StateDir)
	cfg.Backend.URL = expandEnv(cfg.Backend.URL)
	cfg.Browser.StartURL = expandEnv(cfg.Browser.StartURL)
}

func expandEnv(value string) string {
	if value == "" {
		return value
	}
	return os.Expand(value, func(key string) string {
		if key == "" {
			return ""
		}
		if val, ok := lookupEnv(key); ok {
			return val
		}
		return "$" + key
	})
}

func lookupEnv(key string) (string, bool) {
	if val, ok := os.LookupEnv(key); ok {
		return val, true
	}
	switch key {
	case "UID":
		return fmt.Sprintf("%d", os.Getuid()), true
	case "GID":
		return fmt.Sprintf("%d", os.Getgid()), true
	}
	return "", false
}

// WriteDefault writes the default config to the target path.
func WriteDefault(path string, overwrite bool) (string, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return "", err
		}
		path = defaultPath
	}

	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("config already exists at %s", path)
		}
	}

	cfg, err := DefaultConfig()
	if err != nil {
		return "", err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", err
	}
	return path, nil
}
