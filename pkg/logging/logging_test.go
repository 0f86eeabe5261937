package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	hperrors "github.com/vnykmshr/hellopool/pkg/common/errors"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, hperrors.IsValidationError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewText(t *testing.T) {
	var buf bytes.Buffer
	logger, cleanup, err := New(Options{Level: "warn", Output: &buf})
	require.NoError(t, err)
	defer cleanup()

	logger.Info("hidden")
	logger.Warn("shown", "worker", 3)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "msg=shown")
	assert.Contains(t, out, "worker=3")
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, cleanup, err := New(Options{Level: "debug", Format: "json", Output: &buf})
	require.NoError(t, err)
	defer cleanup()

	logger.Debug("worker got a job; executing", "worker", 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "worker got a job; executing", entry["msg"])
	assert.Equal(t, float64(1), entry["worker"])
}

func TestNewRejectsBadOptions(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"level", Options{Level: "loud"}},
		{"format", Options{Format: "xml"}},
		{"max size", Options{File: filepath.Join(t.TempDir(), "a.log"), MaxSizeMB: -1}},
		{"max backups", Options{File: filepath.Join(t.TempDir(), "a.log"), MaxBackups: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := New(tt.opts)
			require.Error(t, err)
			assert.True(t, hperrors.IsValidationError(err))
		})
	}
}

func TestNewFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "hello.log")
	logger, cleanup, err := New(Options{File: path, MaxSizeMB: 1, MaxBackups: 1})
	require.NoError(t, err)

	logger.Info("Shutting down.")
	require.NoError(t, cleanup())
	require.NoError(t, cleanup())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Shutting down.")
}

func TestOptionsString(t *testing.T) {
	assert.Equal(t, "level=info format=text dest=stderr", Options{Level: "info", Format: "text"}.String())
	assert.Equal(t, "level=debug format=json dest=/tmp/x.log", Options{Level: "debug", Format: "json", File: "/tmp/x.log"}.String())
}
