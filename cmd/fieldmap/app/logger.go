package app

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/fieldmap/pkg/logging"
)

// NewLogger builds the CLI logger. An explicit level beats -q, which beats
// -v. Conflicts and bad levels are reported through the logger itself.
func NewLogger(config *Config) zerolog.Logger {
	level, warning := logLevel(config)
	logger := logging.NewLoggerFromConfig(&logging.Config{
		Level:     level.String(),
		Format:    config.LogFormat,
		Output:    config.LogOutput,
		NoColor:   config.NoColor,
		AddCaller: level <= zerolog.DebugLevel,
	})
	if warning != "" {
		logger.Warn().Str("log_level", config.LogLevel).Msg(warning)
	}
	return logger
}

func logLevel(config *Config) (zerolog.Level, string) {
	if config.LogLevel != "" {
		level, err := logging.ParseLevel(config.LogLevel)
		if err != nil {
			return zerolog.InfoLevel, "unknown log level, using info"
		}
		return level, ""
	}
	switch {
	case config.Quiet && config.Verbose:
		return zerolog.WarnLevel, "both --verbose and --quiet given, using --quiet"
	case config.Quiet:
		return zerolog.WarnLevel, ""
	case config.Verbose:
		return zerolog.DebugLevel, ""
	}
	return zerolog.InfoLevel, ""
}
