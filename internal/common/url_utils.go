package common

import (
	"fmt"
	"net/url"
	"strings"
)

// NormalizeListingURL canonicalizes a marketplace listing URL so the same
// listing always produces the same dedup key. Tracking query parameters and
// fragments are stripped, the host is lowercased, and trailing slashes are
// removed from the path.
func NormalizeListingURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("empty listing URL")
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("invalid listing URL %q: %w", raw, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("listing URL %q must be http(s)", raw)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("listing URL %q has no host", raw)
	}

	parsed.Host = strings.ToLower(parsed.Host)
	parsed.RawQuery = ""
	parsed.Fragment = ""
	parsed.Path = strings.TrimRight(parsed.Path, "/")

	return parsed.String(), nil
}
