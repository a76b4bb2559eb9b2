package credential

import (
	"context"
	"errors"

	"github.com/unkn0wn-root/idcache/internal/util"
	"github.com/unkn0wn-root/idcache/log"
)

// DefaultName is the slot the authority writes its session token to.
const DefaultName = "auth_token"

// Reader yields a best-effort value from local state. It never fails: a
// missing or unusable credential is reported as ok=false.
type Reader[V any] interface {
	Read(ctx context.Context) (v V, ok bool)
}

// ReaderFunc adapts a plain function to Reader.
type ReaderFunc[V any] func(ctx context.Context) (V, bool)

func (f ReaderFunc[V]) Read(ctx context.Context) (V, bool) { return f(ctx) }

// TokenReader reads the slot Name from Store and decodes it with Decoder.
type TokenReader[V any] struct {
	Store   Store
	Name    string     // "" => DefaultName
	Decoder Decoder[V] // nil => JWT[V]{}
	Logger  log.Logger // nil => no logging

	// OnReject, if set, is called when a present credential could not be
	// used. reason ∈ {"store_error", "malformed", "claims"}.
	OnReject func(name, reason string)
}

var _ Reader[map[string]any] = (*TokenReader[map[string]any])(nil)

func (r *TokenReader[V]) Read(ctx context.Context) (V, bool) {
	var zero V
	name := r.Name
	if name == "" {
		name = DefaultName
	}
	token, ok, err := r.Store.Get(ctx, name)
	if err != nil {
		r.reject(name, "store_error", log.Fields{"slot": name, "err": err})
		return zero, false
	}
	if !ok {
		return zero, false
	}

	var dec Decoder[V] = r.Decoder
	if dec == nil {
		dec = JWT[V]{}
	}
	v, err := dec.Decode(token)
	if err != nil {
		reason := "malformed"
		var de *DecodeError
		if errors.As(err, &de) {
			reason = de.Reason
		}
		r.reject(name, reason, log.Fields{"slot": name, "token": util.Redact(token), "err": err})
		return zero, false
	}
	if util.IsNil(v) {
		// claims of `null`
		return zero, false
	}
	return v, true
}

func (r *TokenReader[V]) reject(name, reason string, f log.Fields) {
	if r.Logger != nil {
		r.Logger.Warn("invalid credential", f)
	}
	if r.OnReject != nil {
		r.OnReject(name, reason)
	}
}
