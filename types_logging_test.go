package auth

import (
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineFormatsKeyValues(t *testing.T) {
	got := line("login rejected", []any{"user_id", "u1", "attempts", 3})
	assert.Equal(t, "login rejected user_id=u1 attempts=3\n", got)

	got = line("odd args", []any{"dangling"})
	assert.Equal(t, "odd args dangling=(missing)\n", got)
}

func TestNormalizeLogger(t *testing.T) {
	assert.IsType(t, defLogger{}, normalizeLogger(nil))

	custom := NewLogrusLogger(nil, "x")
	assert.Same(t, custom, normalizeLogger(custom))
}

func TestLogrusLoggerFields(t *testing.T) {
	base, hook := test.NewNullLogger()
	base.SetLevel(logrus.DebugLevel)
	logger := NewLogrusLogger(base, "auth")

	logger.Error("store failed", "error", errors.New("db down"), "id", 42)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.ErrorLevel, entry.Level)
	assert.Equal(t, "store failed", entry.Message)
	assert.Equal(t, "auth", entry.Data["logger"])
	assert.Equal(t, "db down", entry.Data["error"])
	assert.Equal(t, 42, entry.Data["id"])

	logger.Debug("dangling", "key")
	entry = hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.DebugLevel, entry.Level)
	assert.Equal(t, "(missing)", entry.Data["key"])
}

func TestLogrusLoggerLevels(t *testing.T) {
	base, hook := test.NewNullLogger()
	base.SetLevel(logrus.InfoLevel)
	logger := NewLogrusLogger(base, "")

	logger.Debug("hidden")
	logger.Info("info")
	logger.Warn("warn")

	require.Len(t, hook.AllEntries(), 2)
	assert.Equal(t, logrus.InfoLevel, hook.AllEntries()[0].Level)
	assert.Equal(t, logrus.WarnLevel, hook.AllEntries()[1].Level)
	_, hasName := hook.AllEntries()[0].Data["logger"]
	assert.False(t, hasName)
}
