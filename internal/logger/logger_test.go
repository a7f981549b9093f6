package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(t *testing.T) (*Logger, string) {
	t.Helper()
	cfg := DefaultConfig()
	cfg.LogFile = filepath.Join(t.TempDir(), "bot.log")
	log, err := New(cfg)
	require.NoError(t, err)
	return log, cfg.LogFile
}

func readEntries(t *testing.T, path string) []map[string]interface{} {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entries []map[string]interface{}
	for _, line := range bytes.Split(bytes.TrimSpace(data), []byte("\n")) {
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(line, &entry))
		entries = append(entries, entry)
	}
	return entries
}

func TestNew_WritesJSONEntriesToFile(t *testing.T) {
	log, path := newTestLogger(t)
	log.Info("swap confirmed")
	_ = log.Sync()

	entries := readEntries(t, path)
	require.Len(t, entries, 1)
	assert.Equal(t, "swap confirmed", entries[0]["msg"])
	assert.Equal(t, "INFO", entries[0]["level"])
	assert.NotEmpty(t, entries[0]["timestamp"])
}

func TestWithOperation_TagsCorrelationID(t *testing.T) {
	log, path := newTestLogger(t)
	log.WithOperation("schedule").Info("round started")
	_ = log.Sync()

	entries := readEntries(t, path)
	require.Len(t, entries, 1)
	assert.Equal(t, "schedule", entries[0]["operation"])

	id, ok := entries[0]["correlation_id"].(string)
	require.True(t, ok)
	assert.Len(t, id, 36) // uuid text form
}

func TestNew_DebugLevelOnlyInDevelopment(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogFile = filepath.Join(t.TempDir(), "bot.log")
	log, err := New(cfg)
	require.NoError(t, err)

	log.Debug("hidden in production")
	_ = log.Sync()

	data, err := os.ReadFile(cfg.LogFile)
	require.NoError(t, err)
	assert.Empty(t, bytes.TrimSpace(data))

	cfg = DefaultConfig()
	cfg.LogFile = filepath.Join(t.TempDir(), "bot.log")
	cfg.Development = true
	log, err = New(cfg)
	require.NoError(t, err)

	log.Debug("visible in development")
	_ = log.Sync()

	data, err = os.ReadFile(cfg.LogFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "visible in development")
}
