package server

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agentstation/fieldmap/pkg/errors"
)

func TestConfigAddr(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "localhost:8080", cfg.Addr())

	cfg.Host = "::1"
	cfg.Port = 9000
	assert.Equal(t, "[::1]:9000", cfg.Addr())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr error
	}{
		{"defaults", func(*Config) {}, nil},
		{"no prefix", func(c *Config) { c.PathPrefix = "" }, nil},
		{"port out of range", func(c *Config) { c.Port = 70000 }, &errors.ValidationError{}},
		{"prefix without slash", func(c *Config) { c.PathPrefix = "api" }, &errors.ValidationError{}},
		{"prefix trailing slash", func(c *Config) { c.PathPrefix = "/api/" }, &errors.ValidationError{}},
		{"auth without key", func(c *Config) { c.AuthEnabled = true }, &errors.ConfigError{}},
		{"auth with key", func(c *Config) {
			c.AuthEnabled = true
			c.APIKey = "k"
		}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.IsType(t, tt.wantErr, err)
		})
	}
}
