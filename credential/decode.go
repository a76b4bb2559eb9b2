package credential

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/unkn0wn-root/idcache/codec"
)

// DecodeError reports a credential that could not be turned into a value.
// TokenReader logs it and treats the slot as absent.
type DecodeError struct {
	Reason string // "malformed" or "claims"
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("credential decode (%s): %v", e.Reason, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Decoder turns a raw token into V. Implementations need not verify
// authenticity; the cache treats decoded values as optimistic.
type Decoder[V any] interface {
	Decode(token string) (V, error)
}

// DecoderFunc adapts a plain function to Decoder.
type DecoderFunc[V any] func(token string) (V, error)

func (f DecoderFunc[V]) Decode(token string) (V, error) { return f(token) }

// JWT decodes the claims of a compact JWS without checking its signature.
// The header is ignored, so tokens signed with algorithms golang-jwt does not
// know (or with no alg at all) still decode. The claims segment is handed to
// Codec (JSON when nil).
type JWT[V any] struct {
	Codec codec.Codec[V]
}

var _ Decoder[map[string]any] = JWT[map[string]any]{}

func (d JWT[V]) Decode(token string) (V, error) {
	var zero V
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return zero, &DecodeError{Reason: "malformed", Err: fmt.Errorf("%w: %d segments", jwt.ErrTokenMalformed, len(parts))}
	}
	payload, err := jwt.NewParser().DecodeSegment(parts[1])
	if err != nil {
		return zero, &DecodeError{Reason: "malformed", Err: err}
	}
	c := d.Codec
	if c == nil {
		c = codec.JSON[V]{}
	}
	v, err := c.Decode(payload)
	if err != nil {
		return zero, &DecodeError{Reason: "claims", Err: err}
	}
	return v, nil
}
