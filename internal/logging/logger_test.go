package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"":      slog.LevelInfo,
		"debug": slog.LevelDebug,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestNewJSON_RenamesErrorKey(t *testing.T) {
	var buf bytes.Buffer
	NewJSON(&buf, slog.LevelInfo).Error("boom", "error", errors.New("disk full"))
	assert.Contains(t, buf.String(), `"err":"disk full"`)
}

func TestNewWithFormat(t *testing.T) {
	_, err := NewWithFormat("json", slog.LevelInfo)
	assert.NoError(t, err)
	_, err = NewWithFormat("xml", slog.LevelInfo)
	assert.Error(t, err)
}
