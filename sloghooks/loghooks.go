package sloghooks

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/unkn0wn-root/idcache"
)

type Options struct {
	// Sampling to avoid floods on hot paths; 0/1 = log all.
	CacheHitEvery  uint64
	FetchJoinEvery uint64
	// SlowFetch, when > 0, promotes successful fetches slower than this to Warn.
	SlowFetch time.Duration
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	hitCtr  atomic.Uint64
	joinCtr atomic.Uint64
}

var _ idcache.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) CacheHit(resource string) {
	if h.l == nil || !sample(h.opts.CacheHitEvery, &h.hitCtr) {
		return
	}
	h.l.Debug("idcache.cache_hit", "resource", resource)
}

func (h *Hooks) OptimisticPrimed(resource string, present bool) {
	if h.l == nil {
		return
	}
	h.l.Debug("idcache.optimistic_primed",
		"resource", resource,
		"present", present)
}

func (h *Hooks) FetchStarted(resource string) {
	if h.l == nil {
		return
	}
	h.l.Debug("idcache.fetch_started", "resource", resource)
}

func (h *Hooks) FetchJoined(resource string) {
	if h.l == nil || !sample(h.opts.FetchJoinEvery, &h.joinCtr) {
		return
	}
	h.l.Debug("idcache.fetch_joined", "resource", resource)
}

func (h *Hooks) FetchSettled(resource string, waiters int, took time.Duration, err error) {
	if h.l == nil {
		return
	}
	switch {
	case err != nil:
		h.l.Warn("idcache.fetch_failed",
			"resource", resource,
			"waiters", waiters,
			"took", took,
			"err", err)
	case h.opts.SlowFetch > 0 && took > h.opts.SlowFetch:
		h.l.Warn("idcache.fetch_slow",
			"resource", resource,
			"waiters", waiters,
			"took", took)
	default:
		h.l.Debug("idcache.fetch_settled",
			"resource", resource,
			"waiters", waiters,
			"took", took)
	}
}

func (h *Hooks) SettlementDiscarded(resource string) {
	if h.l == nil {
		return
	}
	h.l.Info("idcache.settlement_discarded", "resource", resource)
}

func (h *Hooks) PrimeDiscarded(resource string) {
	if h.l == nil {
		return
	}
	h.l.Debug("idcache.prime_discarded", "resource", resource)
}

func (h *Hooks) CredentialRejected(slot, reason string) {
	if h.l == nil {
		return
	}
	h.l.Warn("idcache.credential_rejected",
		"slot", slot,
		"reason", reason)
}

func (h *Hooks) Invalidated(resources int) {
	if h.l == nil {
		return
	}
	h.l.Info("idcache.invalidated", "resources", resources)
}
