package common

import (
	"errors"
	"fmt"
)

// ErrCancelled is returned when a run is stopped through its context
var ErrCancelled = errors.New("operation cancelled")

// ProjectionError reports an unsupported CRS or a singular transform
type ProjectionError struct {
	Code   string
	Op     string
	Reason string
	Err    error
}

func (e *ProjectionError) Error() string {
	msg := fmt.Sprintf("projection %s failed for %s", e.Op, e.Code)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ProjectionError) Unwrap() error { return e.Err }

// AuthError reports a failed token request
type AuthError struct {
	Provider string
	Err      error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s authentication failed: %v", e.Provider, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// FetchError reports a non-success tile response or a transport failure.
// Status is zero when no response was received.
type FetchError struct {
	Provider string
	Zoom     int
	X        int
	Y        int
	Status   int
	// RetryAfter is set when the provider signalled throttling
	RetryAfter string
	Err        error
}

func (e *FetchError) Error() string {
	msg := fmt.Sprintf("%s tile z=%d x=%d y=%d", e.Provider, e.Zoom, e.X, e.Y)
	if e.Status != 0 {
		msg += fmt.Sprintf(": request failed with status: %d", e.Status)
	}
	if e.RetryAfter != "" {
		msg += " (rate limited, retry after " + e.RetryAfter + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FetchError) Unwrap() error { return e.Err }

// CacheIOError reports a disk cache read or write failure
type CacheIOError struct {
	Op   string
	Path string
	Err  error
}

func (e *CacheIOError) Error() string {
	return fmt.Sprintf("cache %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *CacheIOError) Unwrap() error { return e.Err }

// CompositeError reports a fetched tile that could not be decoded
type CompositeError struct {
	Zoom int
	X    int
	Y    int
	Err  error
}

func (e *CompositeError) Error() string {
	return fmt.Sprintf("failed to decode tile z=%d x=%d y=%d: %v", e.Zoom, e.X, e.Y, e.Err)
}

func (e *CompositeError) Unwrap() error { return e.Err }
