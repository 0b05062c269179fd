// Package logging wraps zerolog for fieldmap. Terminals get the console
// writer, everything else gets JSON.
//
//	log := logging.Default()
//	log.Info().Str("area", "Valley IV:The Hub").Int("items", 42).Msg("Area selected")
//
//	ctx := logging.WithArea(ctx, area)
//	logging.FromContext(ctx).Warn().Err(err).Msg("Persist failed")
package logging

import (
	"os"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// Nop discards everything. Library code falls back to it when handed a nil logger.
var Nop = zerolog.Nop()

var (
	mu            sync.RWMutex
	defaultLogger = NewLoggerFromConfig(ConfigFromEnv())
)

// Default returns the process-wide logger. It is configured from the
// FIELDMAP_LOG_* environment until SetDefault replaces it.
func Default() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return &defaultLogger
}

// SetDefault replaces the process-wide logger.
func SetDefault(logger zerolog.Logger) {
	mu.Lock()
	defaultLogger = logger
	mu.Unlock()
}

// Component returns a child of the default logger tagged with the
// component name, e.g. "store" or "server".
func Component(name string) *zerolog.Logger {
	l := Default().With().Str("component", name).Logger()
	return &l
}

// OrNop returns logger, or Nop when logger is nil.
func OrNop(logger *zerolog.Logger) *zerolog.Logger {
	if logger == nil {
		return &Nop
	}
	return logger
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
