package tts

import (
	"bytes"
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sipeed/picospeak/cmd/picospeak/internal"
)

var fakeMP3 = append([]byte("ID3\x04\x00\x00\x00\x00\x00\x00"), bytes.Repeat([]byte{0xFF, 0xFB, 0x90, 0x00}, 32)...)

func newTranslateServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.Copy(io.Discard, r.Body)
		payload := base64.StdEncoding.EncodeToString(fakeMP3)
		io.WriteString(w, ")]}'\n\n312\n"+
			`[["wrb.fr","jQ1olc","[\"`+payload+`\"]",null,null,null,"generic"]]`+"\n")
	}))
	t.Cleanup(srv.Close)

	t.Setenv("PICOSPEAK_ENGINE", "google")
	t.Setenv("PICOSPEAK_GOOGLE_BASE_URL", srv.URL)
	t.Setenv("PICOSPEAK_GOOGLE_RPS", "0")
	return srv
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewTTSCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestNewTTSCommand(t *testing.T) {
	cmd := NewTTSCommand()

	require.NotNil(t, cmd)
	assert.Equal(t, "tts", cmd.Name())
	assert.True(t, cmd.DisableFlagParsing)
	assert.NotNil(t, cmd.RunE)
	assert.False(t, cmd.HasSubCommands())
}

func TestTTS_WrongArgumentCount(t *testing.T) {
	dir := t.TempDir()

	for _, args := range [][]string{
		{},
		{"hello"},
		{"hello", filepath.Join(dir, "a.mp3"), "extra"},
	} {
		out, err := run(t, args...)
		assert.Equal(t, usage+"\n", out)
		assert.ErrorIs(t, err, internal.Failure)
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestTTS_Success(t *testing.T) {
	newTranslateServer(t)
	outPath := filepath.Join(t.TempDir(), "hello.mp3")

	out, err := run(t, "Hello world", outPath)
	require.NoError(t, err)
	assert.Equal(t, "SUCCESS\n", out)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, fakeMP3, data)
}

func TestTTS_FlagsAreSpoken(t *testing.T) {
	newTranslateServer(t)
	outPath := filepath.Join(t.TempDir(), "help.mp3")

	out, err := run(t, "--help", outPath)
	require.NoError(t, err)
	assert.Equal(t, "SUCCESS\n", out)
	assert.FileExists(t, outPath)
}

func TestTTS_UnwritablePath(t *testing.T) {
	newTranslateServer(t)
	outPath := filepath.Join(t.TempDir(), "missing", "out.mp3")

	out, err := run(t, "Hello", outPath)
	assert.ErrorIs(t, err, internal.Failure)
	assert.Regexp(t, `^ERROR: `, out)
	assert.Contains(t, out, outPath)
}

func TestTTS_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()
	t.Setenv("PICOSPEAK_ENGINE", "google")
	t.Setenv("PICOSPEAK_GOOGLE_BASE_URL", srv.URL)
	t.Setenv("PICOSPEAK_GOOGLE_RPS", "0")

	outPath := filepath.Join(t.TempDir(), "out.mp3")
	out, err := run(t, "Hello", outPath)
	assert.ErrorIs(t, err, internal.Failure)
	assert.Equal(t, "ERROR: 403 (Forbidden) from TTS API. Probable cause: Bad token or upstream API changes\n", out)
	assert.NoFileExists(t, outPath)
}

func TestTTS_UnknownEngine(t *testing.T) {
	t.Setenv("PICOSPEAK_ENGINE", "festival")

	out, err := run(t, "Hello", filepath.Join(t.TempDir(), "out.wav"))
	assert.ErrorIs(t, err, internal.Failure)
	assert.Equal(t, "ERROR: unknown speech engine \"festival\"\n", out)
}
