package validation

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var (
	ErrURLRequired  = errors.New("URL is required")
	ErrInvalidURL   = errors.New("invalid listing URL")
	ErrHostMismatch = errors.New("URL is not on the allowed listing site")
)

const maxURLLength = 2048

// ValidateListingURL checks that raw is an absolute http(s) URL on
// allowedHost or one of its subdomains. It returns the trimmed URL.
func ValidateListingURL(raw, allowedHost string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrURLRequired
	}
	if len(raw) > maxURLLength {
		return "", fmt.Errorf("%w: longer than %d characters", ErrInvalidURL, maxURLLength)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: scheme must be http or https", ErrInvalidURL)
	}
	if u.User != nil {
		return "", fmt.Errorf("%w: credentials are not allowed", ErrInvalidURL)
	}

	host := strings.ToLower(u.Hostname())
	allowed := strings.ToLower(strings.TrimSpace(allowedHost))
	if host == "" {
		return "", fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	if allowed == "" || (host != allowed && !strings.HasSuffix(host, "."+allowed)) {
		return "", fmt.Errorf("%w: %s", ErrHostMismatch, host)
	}

	return raw, nil
}
