package idcache

import "time"

// Hooks lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking.
// The cache calls them on hot paths, never while holding a resource lock.
type Hooks interface {
	// Get was served from the slot without decode or network.
	CacheHit(resource string)

	// The slot was primed from the local credential. present=false means the
	// credential was missing or unusable and the slot now holds absent.
	OptimisticPrimed(resource string, present bool)

	// This caller became the leader and issued the remote fetch.
	FetchStarted(resource string)

	// This caller attached to an outstanding fetch instead of issuing one.
	FetchJoined(resource string)

	// A remote fetch finished. err is nil on success. waiters counts callers
	// that joined the leader.
	FetchSettled(resource string, waiters int, took time.Duration, err error)

	// A fetch finished after an invalidation and was not written back.
	SettlementDiscarded(resource string)

	// A credential decode finished after an invalidation and was not written back.
	PrimeDiscarded(resource string)

	// A present credential could not be used.
	// reason ∈ {"store_error", "malformed", "claims"}
	CredentialRejected(slot, reason string)

	// Client.Invalidate reset this many resources.
	Invalidated(resources int)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) CacheHit(string)                                {}
func (NopHooks) OptimisticPrimed(string, bool)                  {}
func (NopHooks) FetchStarted(string)                            {}
func (NopHooks) FetchJoined(string)                             {}
func (NopHooks) FetchSettled(string, int, time.Duration, error) {}
func (NopHooks) SettlementDiscarded(string)                     {}
func (NopHooks) PrimeDiscarded(string)                          {}
func (NopHooks) CredentialRejected(string, string)              {}
func (NopHooks) Invalidated(int)                                {}
