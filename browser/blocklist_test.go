package browser

import (
	"errors"
	"testing"

	"pkt.systems/sayam/schema"
)

func TestExpandPatterns(t *testing.T) {
	patterns := expandPatterns([]string{"reddit.com", "x.com"})
	want := []string{"*://reddit.com/*", "*://*.reddit.com/*", "*://x.com/*", "*://*.x.com/*"}
	if len(patterns) != len(want) {
		t.Fatalf("expected %d patterns, got %v", len(want), patterns)
	}
	for i, pattern := range want {
		if patterns[i] != pattern {
			t.Fatalf("pattern %d: expected %q, got %q", i, pattern, patterns[i])
		}
	}
}

func TestBlockedHost(t *testing.T) {
	domains := []string{"youtube.com", "x.com"}
	tests := []struct {
		url  string
		want bool
	}{
		{"https://youtube.com/watch", true},
		{"https://www.youtube.com/watch", true},
		{"https://music.youtube.com", true},
		{"https://notyoutube.com", false},
		{"https://x.com/home", true},
		{"https://example.com/youtube.com", false},
		{"https://example.com?next=youtube.com", false},
		{"data:text/html,hello", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := blockedHost(tt.url, domains); got != tt.want {
			t.Fatalf("blockedHost(%q): expected %v, got %v", tt.url, tt.want, got)
		}
	}
}

func TestNormalizeTarget(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"example.com", "https://example.com", false},
		{" https://example.com/a ", "https://example.com/a", false},
		{"data:text/html,<h1>hi</h1>", "data:text/html,<h1>hi</h1>", false},
		{"about:blank", "about:blank", false},
		{"", "", true},
		{"   ", "", true},
	}
	for _, tt := range tests {
		got, err := normalizeTarget(tt.in)
		if tt.wantErr {
			if !errors.Is(err, schema.ErrInvalidURL) {
				t.Fatalf("normalizeTarget(%q): expected ErrInvalidURL, got %v", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("normalizeTarget(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("normalizeTarget(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}
