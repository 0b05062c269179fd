package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/agentstation/fieldmap/internal/server/response"
)

// AuthConfig holds API key authentication settings.
type AuthConfig struct {
	APIKey      string
	HeaderName  string
	PublicPaths []string
}

// DefaultAuthConfig returns the default authentication configuration for
// an API mounted at prefix.
func DefaultAuthConfig(prefix string) AuthConfig {
	return AuthConfig{
		HeaderName:  "X-API-Key",
		PublicPaths: []string{"/health", "/metrics", "/favicon.ico", prefix + "/health", prefix + "/ready"},
	}
}

// Auth rejects requests without the configured API key. Public paths and
// preflight requests pass through.
func Auth(config AuthConfig, logger *zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions || isPublicPath(r.URL.Path, config.PublicPaths) {
				next.ServeHTTP(w, r)
				return
			}

			key := extractAPIKey(r, config.HeaderName)
			if key == "" || subtle.ConstantTimeCompare([]byte(key), []byte(config.APIKey)) != 1 {
				logger.Warn().
					Str("path", r.URL.Path).
					Str("remote_addr", r.RemoteAddr).
					Bool("key_provided", key != "").
					Msg("Authentication failed")
				response.Unauthorized(w, "Invalid or missing API key",
					"Provide a valid API key in the "+config.HeaderName+" header")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func isPublicPath(path string, publicPaths []string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	return false
}

// extractAPIKey reads the custom header first, then a bearer token.
func extractAPIKey(r *http.Request, header string) string {
	if key := r.Header.Get(header); key != "" {
		return key
	}
	return strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
}
