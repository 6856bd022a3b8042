package browser

import (
	"net/url"
	"strings"

	"pkt.systems/sayam/schema"
)

// expandPatterns returns the request blocking URL patterns for a domain
// blocklist. Each domain blocks the apex and every subdomain.
func expandPatterns(domains []string) []string {
	patterns := make([]string, 0, len(domains)*2)
	for _, domain := range domains {
		patterns = append(patterns, "*://"+domain+"/*", "*://*."+domain+"/*")
	}
	return patterns
}

// blockedHost reports whether rawURL points at a blocklisted domain or
// one of its subdomains. Unparsable URLs are not blocked; the request
// layer still catches them via patterns.
func blockedHost(rawURL string, domains []string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return false
	}
	for _, domain := range domains {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}

// normalizeTarget turns user input into a navigable URL. Bare hostnames
// get an https scheme; inline documents pass through untouched.
func normalizeTarget(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", schema.ErrInvalidURL
	}
	if strings.HasPrefix(raw, "data:") || strings.HasPrefix(raw, "about:") {
		return raw, nil
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return "", schema.ErrInvalidURL
	}
	return raw, nil
}
