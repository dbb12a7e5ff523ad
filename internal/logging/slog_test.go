package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		m := map[string]any{}
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestNewJSON_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewJSON(&buf, "warn")
	ctx := context.Background()

	log.Debug(ctx, "dbg")
	log.Info(ctx, "inf")
	log.Warn(ctx, "wrn", "k", "v")
	log.Error(ctx, "err", "n", 4)

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "WARN", lines[0]["level"])
	assert.Equal(t, "wrn", lines[0]["msg"])
	assert.Equal(t, "v", lines[0]["k"])
	assert.Equal(t, "ERROR", lines[1]["level"])
	assert.EqualValues(t, 4, lines[1]["n"])
}

func TestSlogLogger_With_AddsAttributes(t *testing.T) {
	var buf bytes.Buffer
	log := NewJSON(&buf, "debug").With("module", "sessions")

	log.Debug(context.Background(), "hello", "user_id", "u1")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "sessions", lines[0]["module"])
	assert.Equal(t, "u1", lines[0]["user_id"])
	assert.Equal(t, "DEBUG", lines[0]["level"])
}

func TestParseLevel_DefaultsToInfo(t *testing.T) {
	assert.Equal(t, "INFO", parseLevel("").String())
	assert.Equal(t, "INFO", parseLevel("verbose").String())
	assert.Equal(t, "WARN", parseLevel("WARNING").String())
}

func TestNop_DoesNotPanic(t *testing.T) {
	log := Nop()
	ctx := context.TODO()
	log.Debug(ctx, "x")
	log.Info(ctx, "x")
	log.Warn(ctx, "x")
	log.Error(ctx, "x")
	log.With("a", 1).Info(ctx, "y")
}
