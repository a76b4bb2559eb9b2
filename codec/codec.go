// Package codec turns remote response bodies and credential payloads into
// caller value types.
package codec

// Codec encodes/decodes values V to []byte.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}

// MediaTyper is implemented by codecs that know the media type they speak.
// remote.HTTP uses it to pick an Accept header when none is configured.
type MediaTyper interface {
	MediaType() string
}

// MediaTypeOf returns the media type advertised by c, or "" if c does not
// implement MediaTyper.
func MediaTypeOf(c any) string {
	if mt, ok := c.(MediaTyper); ok {
		return mt.MediaType()
	}
	return ""
}
