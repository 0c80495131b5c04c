package logger

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrettyHandlerRedactsSecrets(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, slog.LevelDebug, false)

	log.Info("login", "email", "a@b.c", "password", "hunter2", "Authorization", "Bearer abc.def", "token", "abc")

	out := buf.String()
	assert.Contains(t, out, "INFO  login")
	assert.Contains(t, out, "email=a@b.c")
	assert.Contains(t, out, "password=[REDACTED]")
	assert.Contains(t, out, "Authorization=[REDACTED]")
	assert.NotContains(t, out, "hunter2")
	assert.NotContains(t, out, "abc.def")
}

func TestPrettyHandlerFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, slog.LevelWarn, false)

	log.Info("hidden")
	log.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "WARN  shown")
}

func TestPrettyHandlerGroupsAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, slog.LevelInfo, false).With("component", "http").WithGroup("req").With("id", "r1")

	log.Info("done", "status", 200, slog.Group("auth", "secret", "s3"))

	out := buf.String()
	assert.Contains(t, out, " component=http")
	assert.Contains(t, out, "req.id=r1")
	assert.Contains(t, out, "req.status=200")
	assert.Contains(t, out, "req.auth.secret=[REDACTED]")
	assert.NotContains(t, out, "s3")
}

func TestPrettyHandlerColors(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, slog.LevelInfo, true).Error("boom")
	assert.Contains(t, buf.String(), red+"ERROR"+reset)
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	level, err = ParseLevel(" warn ")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}
