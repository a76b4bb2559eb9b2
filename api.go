package idcache

import (
	"context"
	"time"

	"github.com/unkn0wn-root/idcache/credential"
	"github.com/unkn0wn-root/idcache/remote"
)

// State is where a resource's slot sits in its lifecycle.
//
//	Empty --get--> Optimistic --fetch ok/failed--> Settled
//	any   --invalidate--> Empty
type State int

const (
	StateEmpty State = iota
	StateOptimistic
	StateSettled
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateOptimistic:
		return "optimistic"
	case StateSettled:
		return "settled"
	default:
		return "unknown"
	}
}

// Resource is one cached logical resource.
type Resource[V any] interface {
	Name() string

	// Get returns the cached value, refreshing it when the slot is empty or
	// WithForceRefresh is given. ok=false means absent. A nil map or pointer
	// from the authority (a `null` body) is absent and is not cached, so the
	// next Get asks again.
	// The only errors are *ConfigError and ctx.Err() when ctx ends before the
	// shared fetch settles; the fetch itself keeps running for other callers.
	Get(ctx context.Context, opts ...GetOption) (v V, ok bool, err error)

	// Peek returns what the slot holds right now, without side effects.
	Peek() (v V, ok bool)

	State() State

	// Invalidate resets this resource only. The credential slot is untouched;
	// use Client.Invalidate for logout.
	Invalidate()
}

type getOptions struct {
	force bool
}

type GetOption func(*getOptions)

// WithForceRefresh bypasses a cached value and refreshes from the authority.
func WithForceRefresh() GetOption {
	return func(o *getOptions) { o.force = true }
}

// Options configure a Client.
// Only Store is required; others have sensible defaults.
type Options struct {
	// Required
	Store credential.Store // where the credential slot lives (cookie jar, provider)

	APIBase        string        // optional here; may be set later with SetAPIBase
	CredentialName string        // "" => credential.DefaultName ("auth_token")
	FetchTimeout   time.Duration // 0 => no timeout; a stuck fetch stays in flight
	Logger         Logger        // nil => NopLogger
	Hooks          Hooks         // nil => NopHooks
}

// ResourceOptions configure one resource.
type ResourceOptions[V any] struct {
	// Required
	Name    string
	Fetcher remote.Fetcher[V]

	// Reader primes the slot before each refresh. nil => no optimistic value;
	// callers only ever see authority data or absent.
	Reader credential.Reader[V]
}

func New(opts Options) (*Client, error) {
	return newClient(opts)
}

// NewResource registers a resource on c. Names must be unique per Client.
func NewResource[V any](c *Client, opts ResourceOptions[V]) (Resource[V], error) {
	r, err := newResource[V](c, opts)
	if err != nil {
		return nil, err
	}
	return r, nil
}
