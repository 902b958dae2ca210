package logger

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerWritesRotatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "docintel.log")
	log, err := NewLogger(WithLevel("debug"), WithOutputPaths([]string{path}), WithInitialFields(map[string]interface{}{"service": "test"}))
	require.NoError(t, err)

	log.Named("fields").Info("Fields extracted", Int("fields", 2))
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"Fields extracted"`)
	assert.Contains(t, string(data), `"logger":"fields"`)
	assert.Contains(t, string(data), `"service":"test"`)
}

func TestNewLoggerRejectsLevel(t *testing.T) {
	_, err := NewLogger(WithLevel("loud"))
	assert.Error(t, err)
}

func TestFromContext(t *testing.T) {
	base := NewTestLogger()
	ctx := WithRequest(context.Background(), "doc-1", "req-1")

	FromContext(ctx, base).Info("Stage completed")
	entries := base.GetEntries()
	require.Len(t, entries, 1)
	require.Len(t, entries[0].Fields, 2)
	assert.Equal(t, "documentId", entries[0].Fields[0].Key)
	assert.Equal(t, "req-1", entries[0].Fields[1].String)

	assert.Same(t, base, FromContext(context.Background(), base))
}

func TestTestLogger(t *testing.T) {
	l := NewTestLogger()
	l.With(String("k", "v")).Warn("careful")
	assert.True(t, l.HasEntry("WARN", "careful"))
	assert.False(t, l.HasEntry("ERROR", "careful"))
	l.Clear()
	assert.Empty(t, l.GetEntries())
}
