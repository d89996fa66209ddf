package voice

import (
	"context"
	"fmt"
	"io"

	"github.com/sipeed/picospeak/pkg/config"
)

// DefaultLanguage is the only locale picospeak speaks.
const DefaultLanguage = "en"

// Request is one synthesis request: the text plus the fixed language and rate.
type Request struct {
	Text     string
	Language string
	Slow     bool
}

// NewRequest builds a Request with the default language at normal speed.
func NewRequest(text string) Request {
	return Request{Text: text, Language: DefaultLanguage}
}

// Synthesizer converts text to audio and streams the encoded result to w.
// It returns the number of audio bytes written.
type Synthesizer interface {
	Name() string
	Synthesize(ctx context.Context, req Request, w io.Writer) (int64, error)
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// New returns the engine selected by cfg.Engine.
func New(cfg *config.Config) (Synthesizer, error) {
	switch cfg.Engine {
	case "", config.EngineGoogle:
		return NewGoogleSynthesizer(cfg.Google), nil
	case config.EngineEspeak:
		return NewEspeakSynthesizer(cfg.Espeak), nil
	}
	return nil, fmt.Errorf("unknown speech engine %q", cfg.Engine)
}
