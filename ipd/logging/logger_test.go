package logging

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  slog.Level
	}{
		{"info", "info", slog.LevelInfo},
		{"debug", "debug", slog.LevelDebug},
		{"trace", "trace", LevelTrace},
		{"warn", "warn", slog.LevelWarn},
		{"error", "error", slog.LevelError},
		{"uppercase DEBUG", "DEBUG", slog.LevelDebug},
		{"padded", " trace ", LevelTrace},
		{"unknown defaults to info", "loud", slog.LevelInfo},
		{"empty defaults to info", "", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.input))
		})
	}
}

func TestNewLoggerLevelFiltering(t *testing.T) {
	tests := []struct {
		level     string
		wantDebug bool
		wantTrace bool
	}{
		{"info", false, false},
		{"debug", true, false},
		{"trace", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger(tt.level, &buf)

			logger.Info("info message")
			logger.Debug("debug message")
			logger.Log(context.Background(), LevelTrace, "trace message")

			out := buf.String()
			assert.Contains(t, out, "info message")
			assert.Equal(t, tt.wantDebug, bytes.Contains(buf.Bytes(), []byte("debug message")))
			assert.Equal(t, tt.wantTrace, bytes.Contains(buf.Bytes(), []byte("trace message")))
			if tt.wantTrace {
				assert.Contains(t, out, "level=TRACE")
			}
		})
	}
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	require.NotNil(t, logger)
	assert.False(t, logger.Enabled(context.Background(), slog.LevelError))
}

func TestReportLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "reports.jsonl")
	l, err := OpenReportLog(path)
	require.NoError(t, err)

	require.NoError(t, l.Log(map[string]int{"generation": 1}))
	require.NoError(t, l.Log(map[string]int{"generation": 2}))
	require.NoError(t, l.Close())
	require.NoError(t, l.Close(), "close is idempotent")

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var gens []int
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var line struct {
			Time   string         `json:"time"`
			Report map[string]int `json:"report"`
		}
		require.NoError(t, json.Unmarshal(sc.Bytes(), &line))
		assert.NotEmpty(t, line.Time)
		gens = append(gens, line.Report["generation"])
	}
	assert.Equal(t, []int{1, 2}, gens)
}

func TestNilReportLogIsNoop(t *testing.T) {
	var l *ReportLog
	assert.NoError(t, l.Log("anything"))
	assert.NoError(t, l.Close())
}
