package models

import "fmt"

// Error codes used in logs, the probe command and snapshot error bodies.
// Quote routes never expose them: a failed source renders as nulls.
const (
	ErrCodeFetch          = "FETCH_FAILED"
	ErrCodeUpstreamStatus = "UPSTREAM_STATUS"
	ErrCodeTimeout        = "TIMEOUT"
	ErrCodeDecode         = "DECODE_FAILED"
	ErrCodeBrowser        = "BROWSER_FAILED"
	ErrCodeUnknownSource  = "UNKNOWN_SOURCE"
	ErrCodeBadSelector    = "INVALID_SELECTOR"
)

// SourceError is the internal error type carrying an error code and the
// id of the source that failed. It supports error wrapping via Unwrap.
type SourceError struct {
	Code    string
	Source  string
	Message string
	Err     error // wrapped original error
}

func (e *SourceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s: %v", e.Source, e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", e.Source, e.Code, e.Message)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// NewSourceError creates a new SourceError.
func NewSourceError(source, code, message string, err error) *SourceError {
	return &SourceError{Source: source, Code: code, Message: message, Err: err}
}
