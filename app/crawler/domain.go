package crawler

import (
	"net/url"
	"strings"
)

// HostOf extracts the host (authority) component of a URL. Malformed or
// schemeless input yields an empty string so callers can treat empty-host
// links as "skip" without error handling.
func HostOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return parsed.Host
}

// SameHost reports whether rawURL resolves to the given host.
func SameHost(rawURL, host string) bool {
	if host == "" {
		return false
	}
	return HostOf(rawURL) == host
}

// IsSubdomainOf reports whether the host of rawURL looks like a subdomain
// of baseHost: a different host that still contains baseHost as a
// substring. Heuristic, matches what link discovery needs.
func IsSubdomainOf(rawURL, baseHost string) bool {
	if baseHost == "" {
		return false
	}
	host := HostOf(rawURL)
	return host != "" && host != baseHost && strings.Contains(host, baseHost)
}
