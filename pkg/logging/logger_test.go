package logging_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/fieldmap/pkg/logging"
)

func TestSetDefault(t *testing.T) {
	original := *logging.Default()
	t.Cleanup(func() { logging.SetDefault(original) })

	buf := &bytes.Buffer{}
	logging.SetDefault(zerolog.New(buf))

	logging.Default().Info().Msg("area selected")
	logging.Component("store").Warn().Msg("persist failed")

	assert.Contains(t, buf.String(), "area selected")
	assert.Contains(t, buf.String(), `"component":"store"`)
}

func TestOrNop(t *testing.T) {
	assert.Same(t, &logging.Nop, logging.OrNop(nil))

	l := zerolog.New(&bytes.Buffer{})
	assert.Same(t, &l, logging.OrNop(&l))
}

func TestContextScopes(t *testing.T) {
	tl := logging.NewTestLogger(t)

	ctx := logging.WithLogger(context.Background(), tl.Logger)
	ctx = logging.WithArea(ctx, "Valley IV:The Hub")
	ctx = logging.WithItem(ctx, "hub-001")
	ctx = logging.WithBackend(ctx, "redis")
	ctx = logging.WithRequest(ctx, "req-1", "POST", "/api/v1/reset")

	logging.FromContext(ctx).Info().Msg("toggled")

	entries := tl.Entries()
	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, "Valley IV:The Hub", e["area"])
	assert.Equal(t, "hub-001", e["item_id"])
	assert.Equal(t, "redis", e["backend"])
	assert.Equal(t, "req-1", e["request_id"])
	assert.Equal(t, "POST", e["method"])
	assert.Equal(t, "/api/v1/reset", e["path"])
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	assert.Same(t, logging.Default(), logging.FromContext(context.Background()))
	assert.Same(t, logging.Default(), logging.FromContext(logging.WithLogger(context.Background(), nil)))
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zerolog.Level
		wantErr bool
	}{
		{"", zerolog.InfoLevel, false},
		{"debug", zerolog.DebugLevel, false},
		{"WARN", zerolog.WarnLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"off", zerolog.Disabled, false},
		{"loud", zerolog.NoLevel, true},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := logging.ParseLevel(tc.in)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNewLoggerFromConfig(t *testing.T) {
	tests := []struct {
		name     string
		level    string
		contains []string
		excludes []string
	}{
		{"debug", "debug", []string{`"level":"debug"`, `"level":"info"`}, nil},
		{"error only", "error", []string{`"level":"error"`}, []string{`"level":"info"`}},
		{"unknown means info", "loud", []string{`"level":"info"`}, []string{`"level":"debug"`}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			original := zerolog.GlobalLevel()
			t.Cleanup(func() { zerolog.SetGlobalLevel(original) })

			buf := &bytes.Buffer{}
			logger := logging.NewLoggerFromConfig(&logging.Config{Level: tc.level, Format: "json"}).Output(buf)

			logger.Debug().Msg("d")
			logger.Info().Msg("i")
			logger.Error().Msg("e")

			for _, s := range tc.contains {
				assert.Contains(t, buf.String(), s)
			}
			for _, s := range tc.excludes {
				assert.NotContains(t, buf.String(), s)
			}
		})
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv(logging.EnvLevel, "debug")
	t.Setenv(logging.EnvFormat, "json")
	t.Setenv(logging.EnvOutput, "discard")

	cfg := logging.ConfigFromEnv()
	assert.Equal(t, "debug", cfg.Level)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, "discard", cfg.Output)

	original := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(original) })
	assert.NotPanics(t, func() {
		l := logging.NewLoggerFromConfig(cfg)
		l.Info().Msg("nowhere")
	})
}

func TestTestLogger(t *testing.T) {
	tl := logging.NewTestLogger(t)

	tl.Logger.Info().Msg("message 1")
	tl.Logger.Error().Str("area", "a").Msg("message 2")

	tl.AssertContains(t, "message 1")
	assert.False(t, tl.Contains("message 3"))
	assert.Equal(t, 2, tl.Count())
	assert.Equal(t, "error", tl.Entries()[1]["level"])

	tl.Reset()
	assert.Equal(t, 0, tl.Count())
}
