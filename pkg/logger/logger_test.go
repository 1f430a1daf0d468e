package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []LogEntry {
	t.Helper()
	var entries []LogEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var e LogEntry
		require.NoError(t, json.Unmarshal([]byte(line), &e))
		entries = append(entries, e)
	}
	return entries
}

func TestLogger_LevelsAndFields(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Output: &buf, Level: LevelInfo})

	log.Debug("hidden")
	log.With(Component("attendance")).Info("checked in", InternCode("DMRC001"), Int("attempt", 2))
	log.Error("store failed", Err(errors.New("boom")))

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 2)

	assert.Equal(t, "INFO", entries[0].Level)
	assert.Equal(t, "checked in", entries[0].Message)
	assert.Equal(t, "attendance", entries[0].Fields["component"])
	assert.Equal(t, "DMRC001", entries[0].Fields["intern_code"])
	assert.EqualValues(t, 2, entries[0].Fields["attempt"])

	assert.Equal(t, "ERROR", entries[1].Level)
	assert.Equal(t, "boom", entries[1].Fields["error"])
	assert.NotContains(t, entries[1].Fields, "component", "With must not leak into the parent")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelWarn, ParseLevel("WARNING"))
	assert.Equal(t, LevelError, ParseLevel(" error "))
	assert.Equal(t, LevelInfo, ParseLevel("chatty"))
}

func TestLogger_Context(t *testing.T) {
	log := Nop().WithRequestID("req-1")
	ctx := WithContext(context.Background(), log)
	assert.Same(t, log, FromContext(ctx))
	assert.NotNil(t, FromContext(context.Background()))
}

func TestLogger_SlogBridge(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Output: &buf, Level: LevelInfo})

	sl := log.Slog().With("component", "eventbus").WithGroup("event")
	sl.Debug("dropped")
	sl.Warn("handler failed", "type", "quiz.attempt_submitted", "error", errors.New("redis down"))

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "WARN", entries[0].Level)
	assert.Equal(t, "eventbus", entries[0].Fields["component"])
	assert.Equal(t, "quiz.attempt_submitted", entries[0].Fields["event.type"])
	assert.Equal(t, "redis down", entries[0].Fields["event.error"])
}
