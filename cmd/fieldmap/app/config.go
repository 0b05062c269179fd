package app

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agentstation/fieldmap/internal/server"
	"github.com/agentstation/fieldmap/pkg/catalogs"
	"github.com/agentstation/fieldmap/pkg/constants"
	"github.com/agentstation/fieldmap/pkg/errors"
	"github.com/agentstation/fieldmap/pkg/storage/backends"
)

// EnvPrefix prefixes every environment variable read by the CLI,
// e.g. FIELDMAP_STORAGE_BACKEND.
const EnvPrefix = "FIELDMAP"

// Config holds the application configuration loaded from config files,
// environment variables and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Format  string

	// Config file
	ConfigFile string

	// Catalog and overlay sources: a path, an http(s) URL, "embedded" or
	// "embedded:<file>". Descriptions may be "none".
	Catalog      string
	Descriptions string

	// Area selected at startup. Empty selects the default area when the
	// catalog has it.
	Area string

	// AutoReload re-reads shared storage at this interval; zero disables it.
	AutoReload time.Duration

	Storage backends.Config
	Server  server.Config

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
}

// fileConfig mirrors the config file layout.
type fileConfig struct {
	Catalog      string          `mapstructure:"catalog"`
	Descriptions string          `mapstructure:"descriptions"`
	Area         string          `mapstructure:"area"`
	AutoReload   time.Duration   `mapstructure:"auto_reload"`
	Storage      backends.Config `mapstructure:"storage"`
	Server       serverConfig    `mapstructure:"server"`
	Log          logConfig       `mapstructure:"log"`
}

type serverConfig struct {
	Host        string        `mapstructure:"host"`
	Port        int           `mapstructure:"port"`
	PathPrefix  string        `mapstructure:"path_prefix"`
	CORSEnabled bool          `mapstructure:"cors_enabled"`
	CORSOrigins []string      `mapstructure:"cors_origins"`
	AuthEnabled bool          `mapstructure:"auth_enabled"`
	AuthHeader  string        `mapstructure:"auth_header"`
	APIKey      string        `mapstructure:"api_key"`
	CacheTTL    time.Duration `mapstructure:"cache_ttl"`
	Metrics     bool          `mapstructure:"metrics"`
}

type logConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// LoadConfig loads configuration from all sources in order of precedence:
// 1. Command-line flags (applied later by UpdateFromFlags)
// 2. Environment variables (FIELDMAP_*)
// 3. .env files
// 4. Config file (path, or ~/.fieldmap.yaml / ./.fieldmap.yaml)
// 5. Defaults
func LoadConfig(path string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.NewConfigError("config", "cannot read "+path, err)
		}
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".fieldmap")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, errors.NewConfigError("config", "cannot read config file", err)
			}
		}
	}

	var fc fileConfig
	if err := v.Unmarshal(&fc); err != nil {
		return nil, errors.NewConfigError("config", "invalid configuration", err)
	}

	cfg := &Config{
		ConfigFile:   v.ConfigFileUsed(),
		Catalog:      fc.Catalog,
		Descriptions: fc.Descriptions,
		Area:         fc.Area,
		AutoReload:   fc.AutoReload,
		Storage:      fc.Storage,
		LogLevel:     fc.Log.Level,
		LogFormat:    fc.Log.Format,
		LogOutput:    fc.Log.Output,
	}

	cfg.Server = server.DefaultConfig()
	cfg.Server.Host = fc.Server.Host
	cfg.Server.Port = fc.Server.Port
	cfg.Server.PathPrefix = fc.Server.PathPrefix
	cfg.Server.CORSEnabled = fc.Server.CORSEnabled
	cfg.Server.CORSOrigins = fc.Server.CORSOrigins
	cfg.Server.AuthEnabled = fc.Server.AuthEnabled
	cfg.Server.AuthHeader = fc.Server.AuthHeader
	cfg.Server.APIKey = fc.Server.APIKey
	cfg.Server.CacheTTL = fc.Server.CacheTTL
	cfg.Server.MetricsEnabled = fc.Server.Metrics

	if cfg.AutoReload < 0 {
		return nil, errors.NewValidationError("auto_reload", cfg.AutoReload, "must not be negative")
	}
	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv applies to Unmarshal.
func setDefaults(v *viper.Viper) {
	storage := backends.DefaultConfig()
	srv := server.DefaultConfig()

	v.SetDefault("catalog", "")
	v.SetDefault("descriptions", "")
	v.SetDefault("area", "")
	v.SetDefault("auto_reload", time.Duration(0))

	v.SetDefault("storage.backend", string(storage.Backend))
	v.SetDefault("storage.path", storage.Path)
	v.SetDefault("storage.redis.addr", storage.Redis.Addr)
	v.SetDefault("storage.redis.password", "")
	v.SetDefault("storage.redis.db", 0)
	v.SetDefault("storage.redis.prefix", storage.Redis.Prefix)
	v.SetDefault("storage.postgres.dsn", "")
	v.SetDefault("storage.postgres.table", storage.Postgres.Table)
	v.SetDefault("storage.collected_key", storage.CollectedKey)
	v.SetDefault("storage.visibility_key", storage.VisibilityKey)

	v.SetDefault("server.host", srv.Host)
	v.SetDefault("server.port", srv.Port)
	v.SetDefault("server.path_prefix", srv.PathPrefix)
	v.SetDefault("server.cors_enabled", srv.CORSEnabled)
	v.SetDefault("server.cors_origins", srv.CORSOrigins)
	v.SetDefault("server.auth_enabled", srv.AuthEnabled)
	v.SetDefault("server.auth_header", srv.AuthHeader)
	v.SetDefault("server.api_key", "")
	v.SetDefault("server.cache_ttl", srv.CacheTTL)
	v.SetDefault("server.metrics", srv.MetricsEnabled)

	v.SetDefault("log.level", "")
	v.SetDefault("log.format", "auto")
	v.SetDefault("log.output", "stderr")
}

// UpdateFromFlags updates config values from parsed command flags.
// Flag values take precedence over the config file and env vars.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, format, logLevel string) {
	c.Verbose = verbose
	c.Quiet = quiet
	c.NoColor = noColor
	if format != "" {
		c.Format = format
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}

// CatalogSource resolves the catalog location. Without configuration a
// map.json in the working directory wins over the embedded sample.
func (c *Config) CatalogSource() catalogs.Source {
	if c.Catalog == "" && fileExists(constants.DefaultCatalogFile) {
		return catalogs.FromFile(constants.DefaultCatalogFile)
	}
	return catalogs.ParseSource(c.Catalog)
}

// DescriptionsSource resolves the overlay location. ok is false when the
// overlay is disabled.
func (c *Config) DescriptionsSource() (src catalogs.Source, ok bool) {
	switch {
	case strings.EqualFold(c.Descriptions, "none"):
		return catalogs.Source{}, false
	case c.Descriptions != "":
		return catalogs.ParseSource(c.Descriptions), true
	}

	catalog := c.CatalogSource()
	switch catalog.Kind {
	case catalogs.SourceEmbedded:
		return catalogs.Embedded(constants.DefaultDescriptionsFile), true
	case catalogs.SourceFile:
		path := filepath.Join(filepath.Dir(catalog.Location), constants.DefaultDescriptionsFile)
		if fileExists(path) {
			return catalogs.FromFile(path), true
		}
	}
	return catalogs.Source{}, false
}

// loadEnvFiles loads environment variables from .env files. godotenv
// never overrides a set variable, so .env.local is loaded first to win.
func loadEnvFiles() {
	for _, envFile := range []string{".env.local", ".env"} {
		_ = godotenv.Load(envFile)
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
