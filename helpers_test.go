package idcache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/unkn0wn-root/idcache/credential"
)

// memStore is an in-memory credential.Store.
type memStore struct {
	mu        sync.Mutex
	m         map[string]string
	expireErr error
}

var _ credential.Store = (*memStore)(nil)

func newMemStore() *memStore { return &memStore{m: make(map[string]string)} }

func (s *memStore) Get(_ context.Context, name string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.m[name]
	return v, ok, nil
}

func (s *memStore) Set(_ context.Context, name, value string, _ time.Duration) error {
	s.mu.Lock()
	s.m[name] = value
	s.mu.Unlock()
	return nil
}

func (s *memStore) Expire(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.expireErr != nil {
		return s.expireErr
	}
	delete(s.m, name)
	return nil
}

type fetchResult struct {
	v   Record
	err error
}

type fetchCall struct {
	base  string
	reply chan fetchResult
}

// scriptedFetcher hands every Fetch to the test, which answers it.
type scriptedFetcher struct {
	calls chan fetchCall
	n     atomic.Int32
}

func newScriptedFetcher() *scriptedFetcher {
	return &scriptedFetcher{calls: make(chan fetchCall, 16)}
}

func (f *scriptedFetcher) Fetch(ctx context.Context, base string) (Record, error) {
	f.n.Add(1)
	c := fetchCall{base: base, reply: make(chan fetchResult, 1)}
	f.calls <- c
	select {
	case r := <-c.reply:
		return r.v, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *scriptedFetcher) next(t *testing.T) fetchCall {
	t.Helper()
	select {
	case c := <-f.calls:
		return c
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for a fetch")
		return fetchCall{}
	}
}

func (f *scriptedFetcher) noMore(t *testing.T) {
	t.Helper()
	select {
	case <-f.calls:
		t.Fatalf("unexpected extra fetch")
	case <-time.After(20 * time.Millisecond):
	}
}

// countingDecoder wraps the JWT decoder and counts decode attempts.
type countingDecoder struct {
	n atomic.Int32
}

func (d *countingDecoder) Decode(token string) (Record, error) {
	d.n.Add(1)
	return credential.JWT[Record]{}.Decode(token)
}

type hookCounts struct {
	hits       int
	joined     int
	discarded  int
	primeDrop  int
	settledErr []error
	rejected   []string
	invalid    int
}

type recHooks struct {
	NopHooks
	mu sync.Mutex
	c  hookCounts
}

func (h *recHooks) CacheHit(string) {
	h.mu.Lock()
	h.c.hits++
	h.mu.Unlock()
}

func (h *recHooks) FetchJoined(string) {
	h.mu.Lock()
	h.c.joined++
	h.mu.Unlock()
}

func (h *recHooks) SettlementDiscarded(string) {
	h.mu.Lock()
	h.c.discarded++
	h.mu.Unlock()
}

func (h *recHooks) PrimeDiscarded(string) {
	h.mu.Lock()
	h.c.primeDrop++
	h.mu.Unlock()
}

func (h *recHooks) FetchSettled(_ string, _ int, _ time.Duration, err error) {
	h.mu.Lock()
	h.c.settledErr = append(h.c.settledErr, err)
	h.mu.Unlock()
}

func (h *recHooks) CredentialRejected(_, reason string) {
	h.mu.Lock()
	h.c.rejected = append(h.c.rejected, reason)
	h.mu.Unlock()
}

func (h *recHooks) Invalidated(n int) {
	h.mu.Lock()
	h.c.invalid += n
	h.mu.Unlock()
}

func (h *recHooks) counts() hookCounts {
	h.mu.Lock()
	defer h.mu.Unlock()
	c := h.c
	c.settledErr = append([]error(nil), h.c.settledErr...)
	c.rejected = append([]string(nil), h.c.rejected...)
	return c
}

func token(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("unverified"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

type fixture struct {
	client  *Client
	store   *memStore
	fetcher *scriptedFetcher
	decoder *countingDecoder
	hooks   *recHooks
	res     Resource[Record]
}

func newFixture(t *testing.T, withReader bool, mod func(*Options)) *fixture {
	t.Helper()
	fx := &fixture{
		store:   newMemStore(),
		fetcher: newScriptedFetcher(),
		decoder: &countingDecoder{},
		hooks:   &recHooks{},
	}
	opts := Options{
		Store:   fx.store,
		APIBase: "https://auth.example",
		Hooks:   fx.hooks,
	}
	if mod != nil {
		mod(&opts)
	}
	c, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	fx.client = c

	ro := ResourceOptions[Record]{Name: ContextResource, Fetcher: fx.fetcher}
	if withReader {
		ro.Reader = &credential.TokenReader[Record]{
			Store:    fx.store,
			Decoder:  fx.decoder,
			OnReject: fx.hooks.CredentialRejected,
		}
	}
	res, err := NewResource(c, ro)
	if err != nil {
		t.Fatalf("NewResource: %v", err)
	}
	fx.res = res
	return fx
}

type getResult struct {
	v   Record
	ok  bool
	err error
}

func goGet(ctx context.Context, r Resource[Record], opts ...GetOption) <-chan getResult {
	ch := make(chan getResult, 1)
	go func() {
		v, ok, err := r.Get(ctx, opts...)
		ch <- getResult{v, ok, err}
	}()
	return ch
}

func await(t *testing.T, ch <-chan getResult) getResult {
	t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for Get")
		return getResult{}
	}
}

func mustImpl[V any](t *testing.T, r Resource[V]) *resource[V] {
	t.Helper()
	impl, ok := r.(*resource[V])
	if !ok {
		t.Fatalf("unexpected concrete type for Resource")
	}
	return impl
}

// eventually polls cond until it holds or a deadline passes.
func eventually(t *testing.T, cond func() bool, what string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

var errBoom = errors.New("boom")
