package redis

import (
	"context"
	"errors"
	"time"

	"jdcrawler-dashboard/internal/infra/querycache"
)

var _ querycache.Persister = (*SnapshotStore)(nil)

// SnapshotStore keeps the last good value of each cache key so a restarted
// agent can show something before its first fetch completes.
type SnapshotStore struct {
	kv     KV
	ttl    time.Duration
	prefix string
}

func NewSnapshotStore(kv KV, ttl time.Duration) *SnapshotStore {
	return &SnapshotStore{kv: kv, ttl: ttl, prefix: "snapshot:"}
}

// Load returns nil for a key that was never saved or has expired.
func (s *SnapshotStore) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := s.kv.Get(ctx, s.prefix+key)
	if errors.Is(err, ErrNil) {
		return nil, nil
	}
	return data, err
}

func (s *SnapshotStore) Save(ctx context.Context, key string, value []byte) error {
	return s.kv.Set(ctx, s.prefix+key, value, s.ttl)
}

func (s *SnapshotStore) Delete(ctx context.Context, key string) error {
	return s.kv.Del(ctx, s.prefix+key)
}
