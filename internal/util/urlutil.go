package util

import (
	"fmt"
	"net/url"
	"strings"
)

// NormalizeBaseURL parses a backend address and returns it as an absolute
// http(s) URL without a trailing slash. Bare "host:port" values get http://.
func NormalizeBaseURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("empty server address")
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid server address %q: %w", raw, err)
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q in server address (valid: http|https)", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("server address %q has no host", raw)
	}
	u.Scheme = scheme
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
