package log

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   LevelDebug,
		"":        LevelInfo,
		"info":    LevelInfo,
		"warning": LevelWarn,
		"error":   LevelError,
		"off":     LevelNone,
		"bogus":   LevelInfo,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestFromZap_Fields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l := FromZap(zap.New(core))
	assert.Equal(t, LevelInfo, l.GetLevel())

	l.Debug("hidden")
	l.With(String("component", "codec")).Info("Decoded bundle",
		Bool("trusted", false),
		Int("size", 3),
		Int64("big", 1<<40),
		Uint64("sum", 7),
		Duration("took", time.Second),
		Strings("names", []string{"a"}),
		Any("extra", 1.5),
		Error(errors.New("boom")),
		Error(nil))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "Decoded bundle", entry.Message)

	fields := entry.ContextMap()
	assert.Equal(t, "codec", fields["component"])
	assert.Equal(t, false, fields["trusted"])
	assert.Equal(t, int64(3), fields["size"])
	assert.Equal(t, "boom", fields["error"])
	assert.Equal(t, []interface{}{"a"}, fields["names"])
}

func TestLogger_LevelGate(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := FromZap(zap.New(core))

	l.Log(LevelWarn, "kept")
	l.Log(LevelNone, "never")
	l.SetLevel(LevelError)
	l.Log(LevelWarn, "dropped")
	l.Log(LevelError, "kept too")

	assert.Equal(t, []string{"kept", "kept too"}, messages(logs))
}

func TestNop(t *testing.T) {
	l := Nop()
	l.Error("ignored", Error(errors.New("x")))
	assert.Equal(t, LevelNone, l.GetLevel())
	assert.NoError(t, l.Sync())
	assert.Same(t, l, l.WithContext(context.Background()))
	assert.Equal(t, LevelNone, FromZap(nil).GetLevel())
}

func TestProvide(t *testing.T) {
	New(LevelError)
	provided := Provide()
	require.NotNil(t, provided)
	assert.Same(t, provided, Provide(), "the first logger built is shared")
	assert.Same(t, provided, innerLogger)
}

func messages(logs *observer.ObservedLogs) []string {
	var out []string
	for _, e := range logs.All() {
		out = append(out, e.Message)
	}
	return out
}
