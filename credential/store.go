// Package credential reads the locally held, unverified credential that
// primes identity resources before the authority answers.
//
// A Store holds named string slots (a cookie jar, a byte provider). A Decoder
// turns the slot's token into a caller value without verifying it, and a
// TokenReader glues the two together so that nothing about a missing or
// malformed credential ever reaches the caller as an error.
package credential

import (
	"context"
	"errors"
	"time"
)

// ErrRejected is returned by Store.Set when the backing store refused the write.
var ErrRejected = errors.New("credential: store rejected write")

// Store is a set of named credential slots.
type Store interface {
	// Get returns (value, true, nil) when the slot holds a value and
	// ("", false, nil) when it is missing or expired.
	Get(ctx context.Context, name string) (string, bool, error)
	// Set writes the slot. ttl <= 0 means no expiry.
	Set(ctx context.Context, name, value string, ttl time.Duration) error
	// Expire removes the slot so later Gets miss.
	Expire(ctx context.Context, name string) error
}
