package fault

import (
	"errors"
	"fmt"
)

// Marker tokens emitted to the diagnostic channel so a calling process can
// classify fatal pipeline outcomes without parsing prose.
const (
	MarkerStalled           = "DOWNLOAD_STALLED"
	MarkerDownloadFailed    = "AUDIO_DOWNLOAD_FAILED"
	MarkerNoSegments        = "WHISPER_NO_SEGMENTS"
	MarkerTranscodeTimeout  = "TRANSCODE_TIMEOUT"
	MarkerAudioTooShort     = "AUDIO_TOO_SHORT"
	MarkerFFmpegMissing     = "FFMPEG_NOT_FOUND"
	MarkerDependencyMissing = "DEPENDENCY_MISSING"
)

// Error is a terminal pipeline failure tagged with a marker token. Terminal
// failures abort the run immediately; they are never retried by a later tier.
type Error struct {
	Token string
	Msg   string
	Err   error
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Token, e.Msg, e.Err)
	case e.Msg != "":
		return fmt.Sprintf("%s: %s", e.Token, e.Msg)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Token, e.Err)
	default:
		return e.Token
	}
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a terminal error carrying the given marker token.
func New(token, format string, args ...any) *Error {
	return &Error{Token: token, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a marker token to an underlying error.
func Wrap(token string, err error) *Error {
	return &Error{Token: token, Err: err}
}

// Marker extracts the marker token from err, if it is (or wraps) a terminal
// pipeline failure.
func Marker(err error) (string, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Token, true
	}
	return "", false
}

// IsTerminal reports whether err carries a marker token.
func IsTerminal(err error) bool {
	_, ok := Marker(err)
	return ok
}

// Is lets errors.Is match two fault errors by token.
func (e *Error) Is(target error) bool {
	var fe *Error
	if errors.As(target, &fe) {
		return fe.Token == e.Token
	}
	return false
}
