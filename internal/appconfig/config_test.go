package appconfig

import "testing"

func TestDefaultConfigBrowserVisible(t *testing.T) {
	cfg, err := DefaultConfig()
	if err != nil {
		t.Fatalf("default config: %v", err)
	}
	if cfg.Browser.Headless {
		t.Fatalf("expected headless to default false")
	}
	if cfg.ConfigVersion != CurrentConfigVersion {
		t.Fatalf("expected current config version, got %d", cfg.ConfigVersion)
	}
}
