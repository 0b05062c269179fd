package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/fieldmap/pkg/constants"
)

// Environment variables read by ConfigFromEnv.
const (
	EnvLevel  = "FIELDMAP_LOG_LEVEL"
	EnvFormat = "FIELDMAP_LOG_FORMAT"
	EnvOutput = "FIELDMAP_LOG_OUTPUT"
)

// Config describes where and how much to log.
type Config struct {
	Level  string // trace, debug, info, warn, error, off
	Format string // auto, json, console
	Output string // stderr, stdout, discard or a file path

	NoColor   bool
	AddCaller bool
}

// DefaultConfig logs info and above to stderr, console on a terminal.
func DefaultConfig() *Config {
	return &Config{
		Level:   "info",
		Format:  "auto",
		Output:  "stderr",
		NoColor: os.Getenv("NO_COLOR") != "",
	}
}

// ConfigFromEnv overlays the FIELDMAP_LOG_* variables on DefaultConfig.
func ConfigFromEnv() *Config {
	cfg := DefaultConfig()
	if v := os.Getenv(EnvLevel); v != "" {
		cfg.Level = v
	}
	if v := os.Getenv(EnvFormat); v != "" {
		cfg.Format = v
	}
	if v := os.Getenv(EnvOutput); v != "" {
		cfg.Output = v
	}
	return cfg
}

// NewLoggerFromConfig builds a logger. An unknown level means info and an
// unwritable output path means stderr; logging never fails startup.
func NewLoggerFromConfig(cfg *Config) zerolog.Logger {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	level, err := ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	ctx := zerolog.New(writerFor(cfg)).Level(level).With().Timestamp()
	if cfg.AddCaller || level <= zerolog.DebugLevel {
		ctx = ctx.Caller()
	}
	return ctx.Logger()
}

// ParseLevel accepts zerolog level names plus "warning" and "off".
func ParseLevel(s string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return zerolog.InfoLevel, nil
	case "warning":
		return zerolog.WarnLevel, nil
	case "off", "none":
		return zerolog.Disabled, nil
	}
	return zerolog.ParseLevel(strings.ToLower(s))
}

func writerFor(cfg *Config) io.Writer {
	out := openOutput(cfg.Output)

	format := strings.ToLower(cfg.Format)
	if format == "" || format == "auto" {
		format = "json"
		if f, ok := out.(*os.File); ok && isTerminal(f) {
			format = "console"
		}
	}
	if format == "console" || format == "pretty" {
		return zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen, NoColor: cfg.NoColor}
	}
	return out
}

func openOutput(output string) io.Writer {
	switch strings.ToLower(output) {
	case "", "stderr":
		return os.Stderr
	case "stdout":
		return os.Stdout
	case "discard", "none":
		return io.Discard
	}
	f, err := os.OpenFile(output, os.O_CREATE|os.O_APPEND|os.O_WRONLY, constants.FilePermissions)
	if err != nil {
		return os.Stderr
	}
	return f
}
