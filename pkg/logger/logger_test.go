package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifyhub/pkg/logger"
)

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestNew(t *testing.T) {
	t.Run("json by default", func(t *testing.T) {
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf))
		log.Info("hello")

		entry := decode(t, buf)
		assert.Equal(t, "INFO", entry["level"])
		assert.Equal(t, "hello", entry["msg"])
	})

	t.Run("text format", func(t *testing.T) {
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf), logger.WithFormat(logger.FormatText))
		log.Info("hello")
		assert.Contains(t, buf.String(), "msg=hello")
	})

	t.Run("invalid format panics", func(t *testing.T) {
		assert.Panics(t, func() { logger.New(logger.WithFormat("xml")) })
	})

	t.Run("level filters records", func(t *testing.T) {
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf), logger.WithLevel(slog.LevelWarn))
		log.Info("dropped")
		assert.Empty(t, buf.String())
	})
}

func TestWithEnvironment(t *testing.T) {
	t.Run("production is json at info", func(t *testing.T) {
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithEnvironment("prod", "notifyhub"), logger.WithOutput(buf))
		log.Debug("hidden")
		log.Info("shown")

		entry := decode(t, buf)
		assert.Equal(t, "notifyhub", entry["service"])
		assert.Equal(t, "production", entry["env"])
	})

	t.Run("development is text at debug", func(t *testing.T) {
		buf := &bytes.Buffer{}
		log := logger.New(logger.WithEnvironment("", "svc"), logger.WithOutput(buf))
		log.Debug("visible")
		assert.Contains(t, buf.String(), "env=development")
		assert.Contains(t, buf.String(), "msg=visible")
	})
}

func TestContextExtractors(t *testing.T) {
	type key struct{}
	buf := &bytes.Buffer{}
	log := logger.New(
		logger.WithOutput(buf),
		logger.WithContextExtractors(nil, func(ctx context.Context) (slog.Attr, bool) {
			v, ok := ctx.Value(key{}).(string)
			if !ok {
				return slog.Attr{}, false
			}
			return logger.RequestID(v), true
		}),
	)

	ctx := context.WithValue(context.Background(), key{}, "req-1")
	log.With(logger.Component("stream")).InfoContext(ctx, "open", logger.Cursor(12))

	entry := decode(t, buf)
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, "stream", entry["component"])
	assert.EqualValues(t, 12, entry["cursor"])
}

func TestAttrs(t *testing.T) {
	assert.True(t, logger.Error(nil).Equal(slog.Attr{}))
	assert.True(t, logger.RequestID("").Equal(slog.Attr{}))

	err := errors.New("boom")
	assert.Equal(t, err, logger.Error(err).Value.Any())

	assert.Equal(t, "notification_id", logger.NotificationID(1).Key)
	assert.Equal(t, "job_id", logger.JobID(1).Key)
	assert.Equal(t, "device_id", logger.DeviceID(1).Key)
	assert.Equal(t, "push", logger.Channel("push").Value.String())
	assert.Equal(t, "task.assigned", logger.NotificationType("task.assigned").Value.String())

	g := logger.Group("summary", logger.Count("sent", 2), logger.Count("failed", 0))
	require.Equal(t, slog.KindGroup, g.Value.Kind())
	assert.Len(t, g.Value.Group(), 2)
}

func TestRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	buf := &bytes.Buffer{}

	log := logger.New(logger.WithOutput(buf), logger.WithRotatingFile(path, 1, 1, 1))
	log.Info("mirrored")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "mirrored")
	assert.Contains(t, buf.String(), "mirrored")
}

func TestFromContext(t *testing.T) {
	assert.Equal(t, slog.Default(), logger.FromContext(context.Background()))

	l := logger.Nop()
	ctx := logger.WithLogger(context.Background(), l)
	assert.Same(t, l, logger.FromContext(ctx))
}

func TestParseEnvironment(t *testing.T) {
	assert.Equal(t, logger.Production, logger.ParseEnvironment("production"))
	assert.Equal(t, logger.Staging, logger.ParseEnvironment("stage"))
	assert.Equal(t, logger.Development, logger.ParseEnvironment("anything"))
}
