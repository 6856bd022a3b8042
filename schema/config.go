package schema

import (
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// SessionConfig defines defaults and limits for the session controller.
type SessionConfig struct {
	// BackendURL is the realtime endpoint of the agent backend.
	BackendURL string
	// StateDir holds persisted study session snapshots.
	StateDir string
	// ReconnectInterval is the fixed delay between reconnect attempts.
	// Deliberately fixed, not exponential: the backend is a local
	// endpoint and the interval doubles as UX pacing for the offline
	// badge.
	ReconnectInterval time.Duration
	// RevealDelay is the minimum time between the user's send and the
	// reveal of the agent's response. UX pacing, not a performance knob.
	RevealDelay time.Duration
	// LogMaxEntries caps the conversation log; 0 means unbounded.
	LogMaxEntries int
}

// DefaultBackendURL is the fixed local realtime endpoint.
const DefaultBackendURL = "ws://127.0.0.1:8000/ws"

// DefaultReconnectInterval matches the reference reconnect pacing.
const DefaultReconnectInterval = 3 * time.Second

// DefaultRevealDelay is the artificial response latency floor.
const DefaultRevealDelay = 900 * time.Millisecond

// NormalizeSessionConfig applies defaults and validates the config.
func NormalizeSessionConfig(cfg SessionConfig) (SessionConfig, error) {
	if strings.TrimSpace(cfg.BackendURL) == "" {
		cfg.BackendURL = DefaultBackendURL
	}
	parsed, err := url.Parse(cfg.BackendURL)
	if err != nil || (parsed.Scheme != "ws" && parsed.Scheme != "wss") {
		return SessionConfig{}, errors.New("backend url must be a ws:// or wss:// endpoint")
	}
	if cfg.StateDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return SessionConfig{}, err
		}
		cfg.StateDir = filepath.Join(home, ".sayam", "state")
	}
	if cfg.ReconnectInterval <= 0 {
		cfg.ReconnectInterval = DefaultReconnectInterval
	}
	if cfg.RevealDelay < 0 {
		cfg.RevealDelay = DefaultRevealDelay
	}
	return cfg, nil
}

// BrowserConfig defines defaults and limits for the browser controller.
type BrowserConfig struct {
	// StartURL is loaded into the first tab.
	StartURL string
	// BlockedDomains are the domain suffixes blocked during study mode.
	BlockedDomains []string
	// BlockedPage is the placeholder document shown for blocked requests.
	BlockedPage string
	// Headless runs the surface owner without a visible window.
	Headless bool
}

// DefaultStartURL is the initial tab destination.
const DefaultStartURL = "https://www.google.com"

// DefaultBlockedDomains is the static study mode blocklist.
var DefaultBlockedDomains = []string{
	"reddit.com", "youtube.com", "twitter.com", "x.com",
	"instagram.com", "tiktok.com", "facebook.com", "twitch.tv",
	"netflix.com", "hulu.com", "snapchat.com",
}

// DefaultBlockedPage is a static, locally rendered placeholder document.
const DefaultBlockedPage = `data:text/html,<!DOCTYPE html><html><head><style>` +
	`body{margin:0;display:flex;flex-direction:column;align-items:center;justify-content:center;height:100vh;` +
	`background:%230c1220;color:%23f0c050;font-family:system-ui,sans-serif;text-align:center;}` +
	`h1{font-size:2.5rem;margin:0 0 12px}p{color:rgba(255,240,200,0.55);font-size:1rem;max-width:360px;line-height:1.6}` +
	`</style></head><body><h1>&#128218; Blocked</h1>` +
	`<p>This site is blocked while Study Mode is active. Stay focused!</p></body></html>`

// NormalizeBrowserConfig applies defaults and validates the config.
func NormalizeBrowserConfig(cfg BrowserConfig) (BrowserConfig, error) {
	if strings.TrimSpace(cfg.StartURL) == "" {
		cfg.StartURL = DefaultStartURL
	}
	if _, err := url.Parse(cfg.StartURL); err != nil {
		return BrowserConfig{}, ErrInvalidURL
	}
	if len(cfg.BlockedDomains) == 0 {
		cfg.BlockedDomains = append([]string(nil), DefaultBlockedDomains...)
	}
	domains := make([]string, 0, len(cfg.BlockedDomains))
	for _, domain := range cfg.BlockedDomains {
		domain = strings.ToLower(strings.TrimSpace(domain))
		domain = strings.TrimPrefix(domain, "*.")
		domain = strings.Trim(domain, ".")
		if domain == "" {
			continue
		}
		domains = append(domains, domain)
	}
	if len(domains) == 0 {
		return BrowserConfig{}, errors.New("blocklist must contain at least one domain")
	}
	cfg.BlockedDomains = domains
	if cfg.BlockedPage == "" {
		cfg.BlockedPage = DefaultBlockedPage
	}
	return cfg, nil
}
