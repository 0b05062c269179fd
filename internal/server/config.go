package server

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/agentstation/fieldmap/pkg/constants"
	"github.com/agentstation/fieldmap/pkg/errors"
)

// Config controls how the API is exposed. The zero value is not usable;
// start from DefaultConfig.
type Config struct {
	Host       string
	Port       int
	PathPrefix string // routes mount under it, e.g. /api/v1

	// CORS is off by default; an empty origin list allows any origin.
	CORSEnabled bool
	CORSOrigins []string

	// API key auth. Health, readiness and metrics stay public.
	AuthEnabled bool
	AuthHeader  string
	APIKey      string

	CacheTTL       time.Duration // catalog query cache
	MetricsEnabled bool

	ReadTimeout  time.Duration
	WriteTimeout time.Duration // 0: streams stay open
	IdleTimeout  time.Duration
}

// DefaultConfig serves on localhost:8080 under /api/v1 with metrics on.
func DefaultConfig() Config {
	return Config{
		Host:           "localhost",
		Port:           8080,
		PathPrefix:     "/api/v1",
		CORSOrigins:    []string{},
		AuthHeader:     "X-API-Key",
		CacheTTL:       constants.CacheTTL,
		MetricsEnabled: true,
		ReadTimeout:    10 * time.Second,
		IdleTimeout:    2 * time.Minute,
	}
}

// Addr is the listen address.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Validate reports settings the server cannot start with.
func (c Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return errors.NewValidationError("port", c.Port, "port must be between 0 and 65535")
	}
	if c.PathPrefix != "" && (!strings.HasPrefix(c.PathPrefix, "/") || strings.HasSuffix(c.PathPrefix, "/")) {
		return errors.NewValidationError("path_prefix", c.PathPrefix,
			fmt.Sprintf("prefix %q must start with / and not end with /", c.PathPrefix))
	}
	if c.AuthEnabled && c.APIKey == "" {
		return errors.NewConfigError("server", "authentication enabled without an API key", nil)
	}
	return nil
}
