package idcache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/unkn0wn-root/idcache/credential"
	"github.com/unkn0wn-root/idcache/internal/util"
	"github.com/unkn0wn-root/idcache/remote"
)

// flight is the in-flight handle: one outstanding remote refresh whose
// settlement every caller that attached to it receives.
type flight[V any] struct {
	gen  uint64 // resource generation the fetch was started under
	done chan struct{}

	// written once before done is closed
	val V
	ok  bool

	joined int // guarded by resource.mu
}

type resource[V any] struct {
	name    string
	client  *Client
	reader  credential.Reader[V]
	fetcher remote.Fetcher[V]

	// mu guards everything below. It is never held across Read or Fetch.
	mu     sync.Mutex
	state  State
	value  V
	has    bool
	gen    uint64 // bumped by reset; settlements from older gens are dropped
	flight *flight[V]
}

func newResource[V any](c *Client, opts ResourceOptions[V]) (*resource[V], error) {
	if c == nil {
		return nil, errors.New("idcache: client is required")
	}
	if opts.Name == "" {
		return nil, errors.New("idcache: resource name is required")
	}
	if opts.Fetcher == nil {
		return nil, errors.New("idcache: fetcher is required")
	}
	r := &resource[V]{
		name:    opts.Name,
		client:  c,
		reader:  opts.Reader,
		fetcher: opts.Fetcher,
	}
	if err := c.register(r.name, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *resource[V]) Name() string { return r.name }

func (r *resource[V]) Get(ctx context.Context, opts ...GetOption) (V, bool, error) {
	var zero V
	var o getOptions
	for _, fn := range opts {
		fn(&o)
	}

	r.mu.Lock()
	if !o.force && r.has {
		v := r.value
		r.mu.Unlock()
		r.client.hooks.CacheHit(r.name)
		return v, true, nil
	}
	gen := r.gen
	r.mu.Unlock()

	// Checked before priming: a misconfigured client must not touch the slot.
	base, ok := r.client.APIBase()
	if !ok {
		return zero, false, &ConfigError{Resource: r.name}
	}

	if r.reader != nil {
		r.prime(ctx, gen)
	}

	f, leader := r.attach()
	if leader {
		r.client.hooks.FetchStarted(r.name)
		go r.run(ctx, f, base)
	} else {
		r.client.hooks.FetchJoined(r.name)
	}

	select {
	case <-f.done:
		return f.val, f.ok, nil
	case <-ctx.Done():
		return zero, false, ctx.Err()
	}
}

// prime writes the locally decoded credential (or absent) into the slot,
// unless the resource was invalidated since gen was observed.
func (r *resource[V]) prime(ctx context.Context, gen uint64) {
	v, present := r.reader.Read(ctx)

	r.mu.Lock()
	current := r.gen == gen
	if current {
		if present {
			r.value = v
		} else {
			var zero V
			r.value = zero
		}
		r.has = present
		r.state = StateOptimistic
	}
	r.mu.Unlock()

	if current {
		r.client.hooks.OptimisticPrimed(r.name, present)
	} else {
		r.client.hooks.PrimeDiscarded(r.name)
	}
}

// attach joins the outstanding flight or installs a new one. The caller that
// installs it is the leader and must start the fetch.
func (r *resource[V]) attach() (*flight[V], bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if f := r.flight; f != nil {
		f.joined++
		return f, false
	}
	f := &flight[V]{gen: r.gen, done: make(chan struct{})}
	r.flight = f
	return f, true
}

// run performs the fetch detached from the leader's cancellation: the result
// is shared, so one caller giving up must not fail the others.
func (r *resource[V]) run(ctx context.Context, f *flight[V], base string) {
	fctx := context.WithoutCancel(ctx)
	if t := r.client.fetchTimeout; t > 0 {
		var cancel context.CancelFunc
		fctx, cancel = context.WithTimeout(fctx, t)
		defer cancel()
	}

	start := time.Now()
	v, err := r.fetcher.Fetch(fctx, base)
	r.settle(f, v, err, time.Since(start))
}

func (r *resource[V]) settle(f *flight[V], v V, err error, took time.Duration) {
	r.mu.Lock()
	current := r.flight == f && r.gen == f.gen
	if r.flight == f {
		r.flight = nil
	}
	switch {
	case !current:
		// Invalidated while on the wire. Waiters that attached before the
		// reset still get the fetched value; the slot is left alone.
		if err == nil && !util.IsNil(v) {
			f.val, f.ok = v, true
		}
	case err == nil && util.IsNil(v):
		// The authority answered null: nobody is signed in.
		var zero V
		r.value, r.has, r.state = zero, false, StateSettled
	case err == nil:
		r.value, r.has, r.state = v, true, StateSettled
		f.val, f.ok = v, true
	default:
		r.state = StateSettled
		f.val, f.ok = r.value, r.has
	}
	waiters := f.joined
	r.mu.Unlock()
	close(f.done)

	if err != nil {
		err = &FetchError{Resource: r.name, Err: err}
		r.client.log.Error("identity fetch failed", Fields{
			"resource": r.name,
			"err":      err,
			"fallback": f.ok,
		})
	}
	r.client.hooks.FetchSettled(r.name, waiters, took, err)
	if !current {
		r.client.log.Debug("settlement discarded after invalidate", Fields{"resource": r.name})
		r.client.hooks.SettlementDiscarded(r.name)
	}
}

func (r *resource[V]) Peek() (V, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.value, r.has
}

func (r *resource[V]) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *resource[V]) Invalidate() { r.reset() }

func (r *resource[V]) reset() {
	var zero V
	r.mu.Lock()
	r.gen++
	r.value = zero
	r.has = false
	r.state = StateEmpty
	r.flight = nil
	r.mu.Unlock()
}
