package idcache

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/unkn0wn-root/idcache/credential"
)

// resettable is the type-erased view Client keeps of each Resource[V].
type resettable interface {
	reset()
}

// Client owns the API base, the credential slot, and the resources that are
// invalidated together on logout.
type Client struct {
	store        credential.Store
	credName     string
	fetchTimeout time.Duration
	log          Logger
	hooks        Hooks

	mu        sync.RWMutex
	apiBase   string
	names     map[string]struct{}
	resources []resettable
}

func newClient(opts Options) (*Client, error) {
	if opts.Store == nil {
		return nil, errors.New("idcache: credential store is required")
	}
	c := &Client{
		store:        opts.Store,
		credName:     coalesce(opts.CredentialName, credential.DefaultName),
		fetchTimeout: opts.FetchTimeout,
		log:          coalesce[Logger](opts.Logger, NopLogger{}),
		hooks:        coalesce[Hooks](opts.Hooks, NopHooks{}),
		names:        make(map[string]struct{}),
	}
	if opts.APIBase != "" {
		if err := c.SetAPIBase(opts.APIBase); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// SetAPIBase sets the authority's base URL. Trailing slashes are trimmed.
// It is consulted when a fetch starts, never when the cache is read, so it
// may be called again (last write wins) without touching cached values.
func (c *Client) SetAPIBase(raw string) error {
	base := strings.TrimRight(strings.TrimSpace(raw), "/")
	u, err := url.Parse(base)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%w: %q", ErrInvalidAPIBase, raw)
	}
	c.mu.Lock()
	c.apiBase = base
	c.mu.Unlock()
	return nil
}

// APIBase returns the configured base URL and whether one is set.
func (c *Client) APIBase() (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.apiBase, c.apiBase != ""
}

// Store returns the credential store the client expires on Invalidate.
func (c *Client) Store() credential.Store { return c.store }

// CredentialName returns the credential slot name.
func (c *Client) CredentialName() string { return c.credName }

// Invalidate is logout: it expires the credential slot, then resets every
// registered resource and drops its in-flight fetch. Fetches already on the
// wire are not cancelled; their results are discarded when they land.
//
// Memory state is reset even when expiring the slot fails; that failure is
// returned as *InvalidateError.
func (c *Client) Invalidate(ctx context.Context) error {
	// Expire first so a Get racing with logout can't re-prime from the old token.
	expErr := c.store.Expire(ctx, c.credName)

	c.mu.RLock()
	rs := make([]resettable, len(c.resources))
	copy(rs, c.resources)
	c.mu.RUnlock()

	for _, r := range rs {
		r.reset()
	}
	c.hooks.Invalidated(len(rs))

	if expErr != nil {
		c.log.Error("credential expire failed", Fields{"slot": c.credName, "err": expErr})
		return &InvalidateError{Slot: c.credName, Err: expErr}
	}
	c.log.Info("identity cache invalidated", Fields{"resources": len(rs)})
	return nil
}

func (c *Client) register(name string, r resettable) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, dup := c.names[name]; dup {
		return fmt.Errorf("%w: %q", ErrDuplicateResource, name)
	}
	c.names[name] = struct{}{}
	c.resources = append(c.resources, r)
	return nil
}
