package voice

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"

	"github.com/sipeed/picospeak/pkg/config"
	"github.com/sipeed/picospeak/pkg/logger"
)

const EngineEspeak = "espeak"

// EspeakSynthesizer runs the local espeak-ng binary, which writes WAV to stdout.
type EspeakSynthesizer struct {
	binary string
	wpm    int
}

func NewEspeakSynthesizer(cfg config.EspeakConfig) *EspeakSynthesizer {
	binary := cfg.Binary
	if binary == "" {
		binary = "espeak-ng"
	}
	wpm := cfg.WordsPerMinute
	if wpm <= 0 {
		wpm = 175
	}
	return &EspeakSynthesizer{binary: binary, wpm: wpm}
}

func (s *EspeakSynthesizer) Name() string {
	return EngineEspeak
}

func (s *EspeakSynthesizer) Synthesize(ctx context.Context, req Request, w io.Writer) (int64, error) {
	if req.Text == "" {
		return 0, &Error{Engine: EngineEspeak, Msg: ErrNoText.Error(), Err: ErrNoText}
	}
	if req.Language == "" {
		req.Language = DefaultLanguage
	}

	path, err := exec.LookPath(s.binary)
	if err != nil {
		return 0, &Error{
			Engine: EngineEspeak,
			Msg:    fmt.Sprintf("%s not found; run `picospeak install` first", s.binary),
			Err:    errors.Join(ErrEngineAbsent, err),
		}
	}

	wpm := s.wpm
	if req.Slow {
		wpm /= 2
	}

	// Text goes through stdin so a leading "-" is never taken for an option.
	cmd := exec.CommandContext(ctx, path,
		"-v", req.Language,
		"-s", strconv.Itoa(wpm),
		"--stdout",
		"--stdin",
	)
	cmd.Stdin = strings.NewReader(req.Text)

	var stderr bytes.Buffer
	cw := &countingWriter{w: w}
	cmd.Stdout = cw
	cmd.Stderr = &stderr

	logger.InfoCF("voice", "Running espeak-ng", map[string]any{
		"binary":      path,
		"text_length": len(req.Text),
		"wpm":         wpm,
	})

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return cw.n, ctxErr
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return cw.n, &Error{Engine: EngineEspeak, Msg: "espeak-ng failed: " + msg, Err: err}
	}

	logger.InfoCF("voice", "Speech synthesized successfully", map[string]any{
		"size_bytes": cw.n,
	})
	return cw.n, nil
}
