package idcache

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConfigured is matched by *ConfigError.
	ErrNotConfigured = errors.New("idcache: API base not configured; call SetAPIBase first")
	// ErrInvalidAPIBase is returned by SetAPIBase for empty or non-absolute URLs.
	ErrInvalidAPIBase = errors.New("idcache: invalid API base")
	// ErrDuplicateResource is returned by NewResource when the name is taken.
	ErrDuplicateResource = errors.New("idcache: duplicate resource name")
)

// ConfigError is a programming error: a resource needed the authority before
// an API base was set. It is the only error Get returns on its own behalf.
type ConfigError struct {
	Resource string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("idcache: %s: %v", e.Resource, ErrNotConfigured)
}

func (e *ConfigError) Is(target error) bool { return target == ErrNotConfigured }

// FetchError wraps a failed authority fetch. It is logged and reported to
// Hooks.FetchSettled but never returned from Get.
type FetchError struct {
	Resource string
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("idcache: fetch %s: %v", e.Resource, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// InvalidateError reports that the credential slot could not be expired.
// In-memory state is reset regardless.
type InvalidateError struct {
	Slot string
	Err  error
}

func (e *InvalidateError) Error() string {
	return fmt.Sprintf("idcache: invalidate: expire credential %q: %v", e.Slot, e.Err)
}

func (e *InvalidateError) Unwrap() error { return e.Err }
