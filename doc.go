// Package idcache gives a client process a consistent, low-latency answer to
// "who is the current user" while a remote authority stays the source of truth.
//
// Components:
//   - Client: API base configuration, the credential slot, and the registry
//     of resources that logout (Invalidate) resets together.
//   - Resource[V]: one cache slot plus at most one in-flight refresh per
//     logical resource (e.g. identity context, identity details).
//   - credential.Reader[V]: synchronous, unverified decode of the locally held
//     credential, used to prime a resource before the authority answers.
//   - remote.Fetcher[V]: the authoritative, slow, fallible fetch.
//
// Get flow:
//
//	slot holds a value && !force  -> return it (no decode, no network)
//	otherwise                     -> prime slot from the credential (Optimistic)
//	                              -> start or join the single in-flight fetch
//	fetch ok                      -> overwrite slot (Settled), all waiters get it
//	fetch failed                  -> keep slot (Settled), all waiters get best-known value
//
// Only a missing API base is returned as an error; a failed or rejected fetch
// degrades to the best-known value.
//
// Invalidate bumps a per-resource generation. A fetch or prime that observed an
// older generation is discarded instead of written back, so nothing started
// before logout can repopulate the cache after it.
package idcache
