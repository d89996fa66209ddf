package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureConsole(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	prev := GetLevel()
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		SetLevel(prev)
		DisableFileLogging()
	})
	return &buf
}

func TestLogLevelFiltering(t *testing.T) {
	buf := captureConsole(t)
	SetLevel(WARN)

	InfoCF("voice", "hidden", nil)
	WarnCF("voice", "shown", map[string]any{"chunks": 3})

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "chunks=3")
	assert.Contains(t, out, "component=voice")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", DEBUG},
		{"INFO", INFO},
		{" warning ", WARN},
		{"Error", ERROR},
		{"fatal", FATAL},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestFileLoggingWritesJSON(t *testing.T) {
	captureConsole(t)
	SetLevel(DEBUG)

	path := filepath.Join(t.TempDir(), "picospeak.log")
	require.NoError(t, EnableFileLogging(path))

	DebugCF("convert", "wrote audio", map[string]any{"bytes": 42})
	DisableFileLogging()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "debug", entry["level"])
	assert.Equal(t, "convert", entry["component"])
	assert.Equal(t, "wrote audio", entry["message"])
	assert.EqualValues(t, 42, entry["bytes"])
}

func TestFatalExits(t *testing.T) {
	captureConsole(t)

	code := -1
	exit = func(c int) { code = c }
	t.Cleanup(func() { exit = os.Exit })

	FatalCF("cli", "boom", nil)
	assert.Equal(t, 1, code)
}
