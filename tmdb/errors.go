package tmdb

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUpstream matches every failed call to TMDB.
	ErrUpstream = errors.New("movie data provider request failed")
	// ErrNotFound matches calls TMDB answered with 404.
	ErrNotFound = errors.New("movie data provider resource not found")
)

// UpstreamError describes a failed TMDB call. Its message never includes the
// upstream response body.
type UpstreamError struct {
	Endpoint string
	Status   int // 0 when no response was received
	Err      error
}

func (e *UpstreamError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("tmdb %s: status %d", e.Endpoint, e.Status)
	}
	return fmt.Sprintf("tmdb %s: %v", e.Endpoint, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Is matches ErrUpstream always and ErrNotFound for 404 responses.
func (e *UpstreamError) Is(target error) bool {
	switch target {
	case ErrUpstream:
		return true
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	}
	return false
}
