// Package wire frames credential slots stored in byte providers.
package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"time"
)

const (
	version byte = 1
	hdrLen       = 4 + 1 + 8 + 4
)

var (
	ErrCorrupt = errors.New("idcache: corrupt credential slot")
	magic4     = [...]byte{'I', 'D', 'C', 'S'}
)

// Slot is a stored credential value with an absolute expiry.
// A zero ExpiresAt never expires.
type Slot struct {
	ExpiresAt time.Time
	Value     []byte
}

// Expired reports whether s is past its deadline at now.
func (s Slot) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Encode: magic(4) | ver(1) | expiresAt(unix nanos, i64 be; 0 = never) | vlen(u32 be) | value(vlen)
func Encode(s Slot) []byte {
	var buf bytes.Buffer
	buf.Grow(hdrLen + len(s.Value))

	buf.Write(magic4[:])
	buf.WriteByte(version)

	var u8 [8]byte
	var u4 [4]byte

	var exp int64
	if !s.ExpiresAt.IsZero() {
		exp = s.ExpiresAt.UnixNano()
	}
	binary.BigEndian.PutUint64(u8[:], uint64(exp))
	buf.Write(u8[:])

	binary.BigEndian.PutUint32(u4[:], uint32(len(s.Value)))
	buf.Write(u4[:])

	buf.Write(s.Value)
	return buf.Bytes()
}

// Decode parses an encoded slot. The returned Value aliases b.
// Trailing bytes are rejected.
func Decode(b []byte) (Slot, error) {
	if len(b) < hdrLen || !bytes.Equal(b[:4], magic4[:]) || b[4] != version {
		return Slot{}, ErrCorrupt
	}
	off := 5

	exp := int64(binary.BigEndian.Uint64(b[off : off+8]))
	off += 8

	vlen := int(binary.BigEndian.Uint32(b[off : off+4]))
	off += 4
	if vlen != len(b)-off {
		return Slot{}, ErrCorrupt
	}

	var s Slot
	if exp != 0 {
		s.ExpiresAt = time.Unix(0, exp)
	}
	s.Value = b[off : off+vlen]
	return s, nil
}
