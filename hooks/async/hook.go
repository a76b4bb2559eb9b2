// usage:
//
// import (
//
//	"log/slog"
//
//	"github.com/unkn0wn-root/idcache"
//	"github.com/unkn0wn-root/idcache/hooks/async"
//	"github.com/unkn0wn-root/idcache/sloghooks"
//
// )
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{
//	    CacheHitEvery: 100, // sample logs: ~every 100th hit
//	    SlowFetch:     time.Second,
//	})
//
// hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
// defer hooks.Close()
//
//	client, _ := idcache.New(idcache.Options{
//	    Store:   store,
//	    APIBase: "https://auth.example.com",
//	    Hooks:   hooks, // or `raw` if you don't want async
//	})
package asynchook

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/unkn0wn-root/idcache"
)

type Hooks struct {
	inner   idcache.Hooks
	q       chan func()
	wg      sync.WaitGroup
	once    sync.Once
	closed  atomic.Bool
	dropped atomic.Uint64
	mu      sync.RWMutex // orders try against close(q)
}

var _ idcache.Hooks = (*Hooks)(nil)

func New(inner idcache.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}
	if inner == nil {
		inner = idcache.NopHooks{}
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

// Close drains queued events and stops the workers. Events after Close are dropped.
func (h *Hooks) Close() {
	h.once.Do(func() {
		h.mu.Lock()
		h.closed.Store(true)
		close(h.q)
		h.mu.Unlock()
		h.wg.Wait()
	})
}

// Dropped reports how many events were discarded because the queue was full
// or the hooks were closed.
func (h *Hooks) Dropped() uint64 { return h.dropped.Load() }

func (h *Hooks) try(f func()) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed.Load() {
		h.dropped.Add(1)
		return
	}
	select {
	case h.q <- f:
	default: // drop
		h.dropped.Add(1)
	}
}

func (h *Hooks) CacheHit(r string)     { h.try(func() { h.inner.CacheHit(r) }) }
func (h *Hooks) FetchStarted(r string) { h.try(func() { h.inner.FetchStarted(r) }) }
func (h *Hooks) FetchJoined(r string)  { h.try(func() { h.inner.FetchJoined(r) }) }
func (h *Hooks) Invalidated(n int)     { h.try(func() { h.inner.Invalidated(n) }) }
func (h *Hooks) SettlementDiscarded(r string) {
	h.try(func() { h.inner.SettlementDiscarded(r) })
}
func (h *Hooks) PrimeDiscarded(r string) {
	h.try(func() { h.inner.PrimeDiscarded(r) })
}
func (h *Hooks) OptimisticPrimed(r string, present bool) {
	h.try(func() { h.inner.OptimisticPrimed(r, present) })
}
func (h *Hooks) FetchSettled(r string, waiters int, took time.Duration, err error) {
	h.try(func() { h.inner.FetchSettled(r, waiters, took, err) })
}
func (h *Hooks) CredentialRejected(slot, reason string) {
	h.try(func() { h.inner.CredentialRejected(slot, reason) })
}
