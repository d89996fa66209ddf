package voice

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNoText       = errors.New("No text to speak")
	ErrNoTokens     = errors.New("No text to send to TTS API")
	ErrEngineAbsent = errors.New("speech engine is not installed")
)

// Error is a failure reported by a speech engine. Its message is what the
// user sees after "ERROR: ".
type Error struct {
	Engine     string
	StatusCode int
	Msg        string
	Err        error
}

func (e *Error) Error() string {
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// httpError describes a non-audio answer from the Google endpoint.
func httpError(status int, tld string) *Error {
	cause := "Unknown"
	switch {
	case status == http.StatusForbidden:
		cause = "Bad token or upstream API changes"
	case status == http.StatusNotFound && tld != "com":
		cause = fmt.Sprintf("Unsupported tld %q", tld)
	case status >= http.StatusInternalServerError:
		cause = "Upstream API error. Try again later."
	}
	return &Error{
		Engine:     EngineGoogle,
		StatusCode: status,
		Msg: fmt.Sprintf("%d (%s) from TTS API. Probable cause: %s",
			status, http.StatusText(status), cause),
	}
}

func connectError(host string, err error) *Error {
	return &Error{
		Engine: EngineGoogle,
		Msg:    fmt.Sprintf("Failed to connect to %s. Probable cause: %v", host, err),
		Err:    err,
	}
}

func noAudioError(lang string) *Error {
	return &Error{
		Engine:     EngineGoogle,
		StatusCode: http.StatusOK,
		Msg:        fmt.Sprintf("200 (OK) from TTS API. Probable cause: No audio stream in response. Unsupported language %q", lang),
	}
}
