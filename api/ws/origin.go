package ws

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/PLP-MERN-Stack-Development/real-time-communication-with-socket-io-AaronKimutai/pkg/logger"
)

// NewOriginChecker builds the upgrade-time origin check from the
// configured cross-origin caller list. Requests without an Origin
// header (same-origin callers, CLI clients, tests) are allowed; "*"
// allows every origin.
func NewOriginChecker(origins []string, logg logger.Logger) func(*http.Request) bool {
	allowed, allowAll := NormalizeOrigins(origins, logg)

	return func(r *http.Request) bool {
		originHeader := r.Header.Get("Origin")
		if originHeader == "" {
			return true
		}
		if allowAll {
			return true
		}
		normalized, ok := NormalizeOrigin(originHeader)
		if !ok {
			return false
		}
		if allowed[normalized] {
			return true
		}
		logg.Warnf("blocked connection from disallowed origin %q", originHeader)
		return false
	}
}

// NormalizeOrigins builds the allow set from the configured origin
// list. Shared with the REST CORS middleware so both surfaces accept
// exactly the same callers.
func NormalizeOrigins(origins []string, logg logger.Logger) (map[string]bool, bool) {
	allowed := make(map[string]bool, len(origins))
	allowAll := false

	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		if trimmed == "*" {
			allowAll = true
			continue
		}
		normalized, ok := NormalizeOrigin(trimmed)
		if !ok {
			logg.Warnf("ignoring invalid origin in configuration: %q", origin)
			continue
		}
		allowed[normalized] = true
	}
	return allowed, allowAll
}

// NormalizeOrigin reduces an origin to lowercase scheme://host form.
func NormalizeOrigin(origin string) (string, bool) {
	parsed, err := url.Parse(origin)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", false
	}
	return strings.ToLower(parsed.Scheme) + "://" + strings.ToLower(parsed.Host), true
}
