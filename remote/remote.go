// Package remote talks to the identity authority: one GET per resource,
// ambient cookie credentials, and "anything but 2xx means not logged in".
package remote

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotAuthenticated is matched by every non-success authority response.
var ErrNotAuthenticated = errors.New("remote: not authenticated")

// StatusError is a non-2xx authority response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("remote: %s returned %d", e.URL, e.StatusCode)
}

func (e *StatusError) Is(target error) bool { return target == ErrNotAuthenticated }

// Fetcher loads the authoritative value of one resource.
// apiBase has no trailing slash.
type Fetcher[V any] interface {
	Fetch(ctx context.Context, apiBase string) (V, error)
}

// FetcherFunc adapts a plain function to Fetcher.
type FetcherFunc[V any] func(ctx context.Context, apiBase string) (V, error)

func (f FetcherFunc[V]) Fetch(ctx context.Context, apiBase string) (V, error) {
	return f(ctx, apiBase)
}
