// file: logging/logging_test.go
package logging_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkoosis/jsonrpcx/logging"
)

func TestGetTagsComponent(t *testing.T) {
	var buf bytes.Buffer
	logging.Init(&buf, slog.LevelInfo)

	log := logging.Get("widget")
	log.Info("hello", "key", "value")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "widget", entry["component"])
	assert.Equal(t, "value", entry["key"])
	assert.Equal(t, "hello", entry["msg"])
}

func TestInitLevelFiltersBelowThreshold(t *testing.T) {
	var buf bytes.Buffer
	logging.Init(&buf, slog.LevelWarn)

	log := logging.Get("widget")
	log.Info("should be dropped")
	assert.Empty(t, buf.String())

	log.Warn("should appear")
	assert.NotEmpty(t, buf.String())

	logging.Init(&buf, slog.LevelInfo)
}

func TestWithAddsPersistentFields(t *testing.T) {
	var buf bytes.Buffer
	logging.Init(&buf, slog.LevelInfo)

	log := logging.Get("widget").With("request_id", "r-1")
	log.Info("tagged")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "r-1", entry["request_id"])
}

func TestNoopDiscardsOutput(t *testing.T) {
	log := logging.Noop()
	assert.NotPanics(t, func() {
		log.Debug("x")
		log.Info("x")
		log.Warn("x")
		log.Error("x")
	})
}
