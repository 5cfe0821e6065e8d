package feed

import (
	"errors"
	"fmt"
)

// ErrNoPosts is returned when containers were found but none produced a complete post.
var ErrNoPosts = errors.New("no complete posts extracted")

// FetchError reports a failed retrieval: transport error or non-2xx status.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: HTTP status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// DriftError means the post selector matched nothing, usually because the
// page markup changed under the configured selectors.
type DriftError struct {
	Selector string
}

func (e *DriftError) Error() string {
	return fmt.Sprintf("structural drift: selector %q matched no posts", e.Selector)
}

// SerializationError wraps failures to produce or persist the feed file.
type SerializationError struct {
	Path string
	Err  error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("write feed %s: %v", e.Path, e.Err)
}

func (e *SerializationError) Unwrap() error {
	return e.Err
}
