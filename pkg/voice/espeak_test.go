package voice

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sipeed/picospeak/pkg/config"
)

// fakeEspeak writes a shell script that records its arguments and stdin
// next to itself and prints a tiny WAV header.
func fakeEspeak(t *testing.T, exitCode int) (binary, dir string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fake needs a POSIX shell")
	}

	dir = t.TempDir()
	binary = filepath.Join(dir, "espeak-ng")
	script := `#!/bin/sh
printf '%s\n' "$*" > "` + dir + `/args"
cat > "` + dir + `/stdin"
if [ ` + strconv.Itoa(exitCode) + ` -ne 0 ]; then
  echo "voice not found" >&2
  exit ` + strconv.Itoa(exitCode) + `
fi
printf 'RIFF\044\000\000\000WAVEfmt '
`
	require.NoError(t, os.WriteFile(binary, []byte(script), 0o755))
	return binary, dir
}

func TestEspeakSynthesizer_ImplementsInterface(t *testing.T) {
	var _ Synthesizer = (*EspeakSynthesizer)(nil)
}

func TestNewEspeakSynthesizer_Defaults(t *testing.T) {
	s := NewEspeakSynthesizer(config.EspeakConfig{})
	assert.Equal(t, "espeak-ng", s.binary)
	assert.Equal(t, 175, s.wpm)
	assert.Equal(t, EngineEspeak, s.Name())
}

func TestEspeakSynthesizer_Synthesize(t *testing.T) {
	binary, dir := fakeEspeak(t, 0)
	s := NewEspeakSynthesizer(config.EspeakConfig{Binary: binary, WordsPerMinute: 160})

	var out bytes.Buffer
	n, err := s.Synthesize(context.Background(), NewRequest("-5 degrees outside"), &out)
	require.NoError(t, err)

	assert.Equal(t, int64(out.Len()), n)
	assert.True(t, bytes.HasPrefix(out.Bytes(), []byte("RIFF")))

	args, err := os.ReadFile(filepath.Join(dir, "args"))
	require.NoError(t, err)
	assert.Equal(t, "-v en -s 160 --stdout --stdin\n", string(args))

	stdin, err := os.ReadFile(filepath.Join(dir, "stdin"))
	require.NoError(t, err)
	assert.Equal(t, "-5 degrees outside", string(stdin))
}

func TestEspeakSynthesizer_SlowHalvesRate(t *testing.T) {
	binary, dir := fakeEspeak(t, 0)
	s := NewEspeakSynthesizer(config.EspeakConfig{Binary: binary, WordsPerMinute: 160})

	req := NewRequest("slow")
	req.Slow = true
	_, err := s.Synthesize(context.Background(), req, &bytes.Buffer{})
	require.NoError(t, err)

	args, err := os.ReadFile(filepath.Join(dir, "args"))
	require.NoError(t, err)
	assert.Contains(t, string(args), "-s 80")
}

func TestEspeakSynthesizer_Failure(t *testing.T) {
	binary, _ := fakeEspeak(t, 3)
	s := NewEspeakSynthesizer(config.EspeakConfig{Binary: binary, WordsPerMinute: 160})

	_, err := s.Synthesize(context.Background(), NewRequest("hello"), &bytes.Buffer{})
	require.Error(t, err)
	assert.Equal(t, "espeak-ng failed: voice not found", err.Error())
}

func TestEspeakSynthesizer_MissingBinary(t *testing.T) {
	s := NewEspeakSynthesizer(config.EspeakConfig{Binary: filepath.Join(t.TempDir(), "no-such-espeak")})

	_, err := s.Synthesize(context.Background(), NewRequest("hello"), &bytes.Buffer{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEngineAbsent))
	assert.Contains(t, err.Error(), "picospeak install")
}

func TestEspeakSynthesizer_EmptyText(t *testing.T) {
	s := NewEspeakSynthesizer(config.EspeakConfig{})

	_, err := s.Synthesize(context.Background(), NewRequest(""), &bytes.Buffer{})
	assert.ErrorIs(t, err, ErrNoText)
}

func TestNew_SelectsEngine(t *testing.T) {
	cfg := config.DefaultConfig()

	synth, err := New(cfg)
	require.NoError(t, err)
	assert.Equal(t, EngineGoogle, synth.Name())

	cfg.Engine = config.EngineEspeak
	synth, err = New(cfg)
	require.NoError(t, err)
	assert.Equal(t, EngineEspeak, synth.Name())

	cfg.Engine = "festival"
	_, err = New(cfg)
	assert.EqualError(t, err, `unknown speech engine "festival"`)
}
