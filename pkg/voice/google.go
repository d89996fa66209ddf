package voice

import (
	"bufio"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/sipeed/picospeak/pkg/config"
	"github.com/sipeed/picospeak/pkg/logger"
)

const (
	EngineGoogle = "google"

	googleRPC     = "jQ1olc"
	batchPath     = "/_/TranslateWebserverUi/data/batchexecute"
	googleReferer = "http://translate.google.com/"

	// Responses carry the whole MP3 base64-encoded on one line.
	maxResponseLine = 32 << 20
)

var audioPattern = regexp.MustCompile(`jQ1olc","\[\\"(.*)\\"]`)

// GoogleSynthesizer speaks through the Google Translate text-to-speech endpoint.
type GoogleSynthesizer struct {
	endpoint   string
	host       string
	tld        string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewGoogleSynthesizer creates a client for https://translate.google.<tld>,
// or for cfg.BaseURL when one is set.
func NewGoogleSynthesizer(cfg config.GoogleConfig) *GoogleSynthesizer {
	tld := cfg.TLD
	if tld == "" {
		tld = "com"
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = "https://translate.google." + tld
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	logger.DebugCF("voice", "Creating Google TTS synthesizer", map[string]any{
		"base_url": base,
		"tld":      tld,
	})

	return &GoogleSynthesizer{
		endpoint:   base + batchPath,
		host:       base,
		tld:        tld,
		userAgent:  cfg.UserAgent,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(limit, 1),
	}
}

func (s *GoogleSynthesizer) Name() string {
	return EngineGoogle
}

// Synthesize requests each text chunk in order and writes the decoded MP3
// data to w as it arrives.
func (s *GoogleSynthesizer) Synthesize(ctx context.Context, req Request, w io.Writer) (int64, error) {
	if req.Text == "" {
		return 0, &Error{Engine: EngineGoogle, Msg: ErrNoText.Error(), Err: ErrNoText}
	}
	if req.Language == "" {
		req.Language = DefaultLanguage
	}

	chunks := Tokenize(req.Text, MaxChunkChars)
	if len(chunks) == 0 {
		return 0, &Error{Engine: EngineGoogle, Msg: ErrNoTokens.Error(), Err: ErrNoTokens}
	}

	requestID := uuid.NewString()
	logger.InfoCF("voice", "Synthesizing speech", map[string]any{
		"request_id":  requestID,
		"text_length": len(req.Text),
		"chunks":      len(chunks),
		"lang":        req.Language,
		"slow":        req.Slow,
	})

	cw := &countingWriter{w: w}
	for i, chunk := range chunks {
		if err := s.limiter.Wait(ctx); err != nil {
			return cw.n, err
		}
		if err := s.fetchChunk(ctx, req, chunk, cw); err != nil {
			logger.WarnCF("voice", "Chunk synthesis failed", map[string]any{
				"request_id": requestID,
				"chunk":      i,
				"error":      err.Error(),
			})
			return cw.n, err
		}
		logger.DebugCF("voice", "Chunk synthesized", map[string]any{
			"request_id": requestID,
			"chunk":      i,
			"bytes":      cw.n,
		})
	}

	logger.InfoCF("voice", "Speech synthesized successfully", map[string]any{
		"request_id": requestID,
		"size_bytes": cw.n,
	})
	return cw.n, nil
}

func (s *GoogleSynthesizer) fetchChunk(ctx context.Context, req Request, text string, w io.Writer) error {
	body, err := packageRPC(text, req.Language, req.Slow)
	if err != nil {
		return fmt.Errorf("failed to encode TTS request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, strings.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create TTS request: %w", err)
	}
	httpReq.Header.Set("Referer", googleReferer)
	httpReq.Header.Set("User-Agent", s.userAgent)
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded;charset=utf-8")

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return connectError(s.host, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return httpError(resp.StatusCode, s.tld)
	}

	return decodeAudio(resp.Body, req.Language, w)
}

// packageRPC builds the form body for one batchexecute call. The inner
// parameter list is itself JSON-encoded into a string inside the outer list.
func packageRPC(text, lang string, slow bool) (string, error) {
	var speed any
	if slow {
		speed = true
	}

	param, err := json.Marshal([]any{text, lang, speed, "null"})
	if err != nil {
		return "", err
	}
	rpc, err := json.Marshal([][][]any{{{googleRPC, string(param), nil, "generic"}}})
	if err != nil {
		return "", err
	}
	return "f.req=" + url.QueryEscape(string(rpc)) + "&", nil
}

func decodeAudio(r io.Reader, lang string, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxResponseLine)

	found := false
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.Contains(line, googleRPC) {
			continue
		}
		m := audioPattern.FindStringSubmatch(line)
		if m == nil {
			return noAudioError(lang)
		}
		audio, err := base64.StdEncoding.DecodeString(m[1])
		if err != nil {
			return fmt.Errorf("failed to decode TTS audio: %w", err)
		}
		if _, err := w.Write(audio); err != nil {
			return fmt.Errorf("failed to write TTS audio: %w", err)
		}
		found = true
	}
	if err := scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return fmt.Errorf("TTS response line exceeds %d bytes", maxResponseLine)
		}
		return fmt.Errorf("failed to read TTS response: %w", err)
	}
	if !found {
		return noAudioError(lang)
	}
	return nil
}
