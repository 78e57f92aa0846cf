package telemetry_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rxportal/patientkit/pkg/logger"
	"github.com/rxportal/patientkit/pkg/telemetry"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		out = append(out, entry)
	}
	return out
}

func TestLogSink(t *testing.T) {
	ctx := context.Background()

	t.Run("event is logged at its level", func(t *testing.T) {
		buf := &bytes.Buffer{}
		sink := telemetry.NewLogSink(logger.New(logger.WithOutput(buf)))

		sink.RecordEvent(ctx, telemetry.Event{
			Name:     "Auth hydration complete",
			Category: "auth",
			Level:    telemetry.LevelWarning,
			Data:     map[string]any{"has_user": true},
		})

		lines := decodeLines(t, buf)
		require.Len(t, lines, 1)
		assert.Equal(t, "WARN", lines[0]["level"])
		assert.Equal(t, "Auth hydration complete", lines[0]["event"])
		assert.Equal(t, "auth", lines[0]["category"])
		assert.Equal(t, "telemetry", lines[0]["component"])
	})

	t.Run("error carries tags, contexts and user", func(t *testing.T) {
		buf := &bytes.Buffer{}
		sink := telemetry.NewLogSink(logger.New(logger.WithOutput(buf)))

		sink.SetUser(ctx, &telemetry.User{ID: "a@x.com"})
		sink.RecordError(ctx, errors.New("disk full"),
			map[string]string{"feature": "user_login"},
			telemetry.Context{Name: "login_attempt", Values: map[string]any{"user_email": "a@x.com"}},
		)

		lines := decodeLines(t, buf)
		require.Len(t, lines, 1)
		assert.Equal(t, "ERROR", lines[0]["level"])
		assert.Equal(t, "disk full", lines[0]["error"])
		assert.Equal(t, "a@x.com", lines[0]["user_email"])
		tags, ok := lines[0]["tags"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "user_login", tags["feature"])
		assert.Contains(t, lines[0], "login_attempt")
	})

	t.Run("cleared user is not logged", func(t *testing.T) {
		buf := &bytes.Buffer{}
		sink := telemetry.NewLogSink(logger.New(logger.WithOutput(buf)))

		sink.SetUser(ctx, &telemetry.User{ID: "a@x.com"})
		sink.SetUser(ctx, nil)
		sink.RecordEvent(ctx, telemetry.Event{Name: "User logout successful", Category: "auth"})

		lines := decodeLines(t, buf)
		require.Len(t, lines, 1)
		assert.NotContains(t, lines[0], "user_email")
	})
}
