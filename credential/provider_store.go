package credential

import (
	"context"
	"errors"
	"time"

	"github.com/unkn0wn-root/idcache/internal/util"
	"github.com/unkn0wn-root/idcache/internal/wire"
	pr "github.com/unkn0wn-root/idcache/provider"
)

var ErrNilProvider = errors.New("credential: provider is required")

// ProviderStore keeps credential slots in a byte provider (Redis, Ristretto,
// BigCache). Each slot is framed with its own deadline so providers without
// per-entry TTL still expire it. Corrupt or expired slots are deleted on read.
type ProviderStore struct {
	p   pr.Provider
	ns  string
	now func() time.Time
}

var _ Store = (*ProviderStore)(nil)

func NewProviderStore(p pr.Provider, namespace string) (*ProviderStore, error) {
	if p == nil {
		return nil, ErrNilProvider
	}
	return &ProviderStore{p: p, ns: namespace, now: time.Now}, nil
}

func (s *ProviderStore) Get(ctx context.Context, name string) (string, bool, error) {
	k := util.SlotKey(s.ns, name)
	raw, ok, err := s.p.Get(ctx, k)
	if err != nil || !ok {
		return "", false, err
	}
	slot, err := wire.Decode(raw)
	if err != nil {
		_ = s.p.Del(ctx, k) // self-heal corrupt
		return "", false, nil
	}
	if slot.Expired(s.now()) {
		_ = s.p.Del(ctx, k)
		return "", false, nil
	}
	return string(slot.Value), true, nil
}

func (s *ProviderStore) Set(ctx context.Context, name, value string, ttl time.Duration) error {
	var slot wire.Slot
	slot.Value = []byte(value)
	if ttl > 0 {
		slot.ExpiresAt = s.now().Add(ttl)
	}
	b := wire.Encode(slot)
	ok, err := s.p.Set(ctx, util.SlotKey(s.ns, name), b, int64(len(b)), ttl)
	if err != nil {
		return err
	}
	if !ok {
		return ErrRejected
	}
	return nil
}

func (s *ProviderStore) Expire(ctx context.Context, name string) error {
	return s.p.Del(ctx, util.SlotKey(s.ns, name))
}
