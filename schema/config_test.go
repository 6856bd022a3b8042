package schema

import (
	"strings"
	"testing"
	"time"
)

func TestNormalizeSessionConfigDefaults(t *testing.T) {
	cfg, err := NormalizeSessionConfig(SessionConfig{StateDir: t.TempDir()})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.BackendURL != DefaultBackendURL {
		t.Fatalf("expected default backend url, got %q", cfg.BackendURL)
	}
	if cfg.ReconnectInterval != 3*time.Second {
		t.Fatalf("expected 3s reconnect interval, got %v", cfg.ReconnectInterval)
	}
	if cfg.RevealDelay != 0 {
		t.Fatalf("expected zero reveal delay preserved, got %v", cfg.RevealDelay)
	}
}

func TestNormalizeSessionConfigRejectsHTTP(t *testing.T) {
	_, err := NormalizeSessionConfig(SessionConfig{BackendURL: "http://127.0.0.1:8000/ws", StateDir: t.TempDir()})
	if err == nil {
		t.Fatal("expected error for non-websocket scheme")
	}
}

func TestNormalizeBrowserConfigDomains(t *testing.T) {
	cfg, err := NormalizeBrowserConfig(BrowserConfig{
		BlockedDomains: []string{" Reddit.com ", "*.youtube.com", "", "x.com."},
	})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	want := []string{"reddit.com", "youtube.com", "x.com"}
	if len(cfg.BlockedDomains) != len(want) {
		t.Fatalf("expected %d domains, got %v", len(want), cfg.BlockedDomains)
	}
	for i, domain := range want {
		if cfg.BlockedDomains[i] != domain {
			t.Fatalf("domain %d: expected %q, got %q", i, domain, cfg.BlockedDomains[i])
		}
	}
	if cfg.StartURL != DefaultStartURL {
		t.Fatalf("expected default start url, got %q", cfg.StartURL)
	}
	if !strings.HasPrefix(cfg.BlockedPage, "data:text/html,") {
		t.Fatalf("expected inline blocked page, got %q", cfg.BlockedPage[:20])
	}
}

func TestNormalizeBrowserConfigEmptyBlocklist(t *testing.T) {
	if _, err := NormalizeBrowserConfig(BrowserConfig{BlockedDomains: []string{"  ", "."}}); err == nil {
		t.Fatal("expected error for empty blocklist")
	}
}
