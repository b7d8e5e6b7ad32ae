package logging

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedLogger(level zapcore.Level) (Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return &zapLogger{z: zap.New(core)}, logs
}

func TestNewLogger_Defaults(t *testing.T) {
	l, err := NewLogger(LogConfig{})
	require.NoError(t, err)
	assert.NotNil(t, l)
}

func TestNewLogger_ConsoleFormat(t *testing.T) {
	l, err := NewLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, l)
}

func TestLogger_EmitsFields(t *testing.T) {
	l, logs := newObservedLogger(zapcore.DebugLevel)

	l.Info("patent created",
		Int64("patent_id", 42),
		String("actor", "u-1"),
		Bool("imported", false),
		Duration("elapsed", 3*time.Millisecond),
	)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "patent created", entries[0].Message)

	fields := entries[0].ContextMap()
	assert.Equal(t, int64(42), fields["patent_id"])
	assert.Equal(t, "u-1", fields["actor"])
	assert.Equal(t, false, fields["imported"])
}

func TestLogger_LevelFiltering(t *testing.T) {
	l, logs := newObservedLogger(zapcore.WarnLevel)

	l.Debug("noise")
	l.Info("still noise")
	l.Warn("kept")
	l.Error("also kept")

	assert.Equal(t, 2, logs.Len())
}

func TestErr_NilError(t *testing.T) {
	f := Err(nil)
	assert.Equal(t, "error", f.Key)
	assert.Equal(t, "<nil>", f.Value)

	f = Err(errors.New("boom"))
	assert.Equal(t, "boom", f.Value)
}

func TestWith_DoesNotMutateParent(t *testing.T) {
	parent, logs := newObservedLogger(zapcore.DebugLevel)
	child := parent.With(String("component", "importer"))

	parent.Info("from parent")
	child.Info("from child")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.NotContains(t, entries[0].ContextMap(), "component")
	assert.Equal(t, "importer", entries[1].ContextMap()["component"])
}

func TestNamed_AppendsName(t *testing.T) {
	l, logs := newObservedLogger(zapcore.DebugLevel)
	l.Named("http").Info("request handled")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "http", entries[0].LoggerName)
}

func TestSetDefault_IgnoresNil(t *testing.T) {
	orig := Default()
	defer SetDefault(orig)

	SetDefault(nil)
	assert.Equal(t, orig, Default())

	nop := NewNopLogger()
	SetDefault(nop)
	assert.Equal(t, nop, Default())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("WARN"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("whatever"))
}
