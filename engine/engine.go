package engine

import (
	"context"
	"fmt"
	"time"
)

// Engine is the interface that all fetch engines must implement.
type Engine interface {
	// Name returns the engine identifier ("http" or "browser").
	Name() string

	// Fetch retrieves the raw document for the given request.
	Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error)
}

// FetchRequest contains everything an engine needs to fetch a document.
type FetchRequest struct {
	URL     string
	Headers map[string]string

	// Timeout bounds this fetch. Zero means the engine default.
	Timeout time.Duration
}

// FetchResult is the output of a successful engine fetch. Body is returned
// exactly as received; charset decoding is left to the caller.
type FetchResult struct {
	Body        []byte
	ContentType string
	StatusCode  int
	FinalURL    string
	EngineName  string
}

// StatusError reports an upstream response outside the 2xx range.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream returned HTTP %d for %s", e.StatusCode, e.URL)
}
