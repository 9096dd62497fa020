//go:build !integration

package redis

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// memKV is an in-memory KV with a settable clock for window expiry.
type memKV struct {
	mu      sync.Mutex
	data    map[string][]byte
	ttl     map[string]time.Duration
	counts  map[string]int64
	expires map[string]time.Time
	now     time.Time
	err     error
}

func newMemKV() *memKV {
	return &memKV{
		data:    map[string][]byte{},
		ttl:     map[string]time.Duration{},
		counts:  map[string]int64{},
		expires: map[string]time.Time{},
		now:     time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC),
	}
}

func (m *memKV) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	v, ok := m.data[key]
	if !ok {
		return nil, ErrNil
	}
	return v, nil
}

func (m *memKV) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.data[key] = value
	m.ttl[key] = ttl
	return nil
}

func (m *memKV) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *memKV) Hit(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, 0, m.err
	}
	if exp, ok := m.expires[key]; ok && !m.now.Before(exp) {
		delete(m.counts, key)
		delete(m.expires, key)
	}
	m.counts[key]++
	if _, ok := m.expires[key]; !ok {
		m.expires[key] = m.now.Add(window)
	}
	return m.counts[key], m.expires[key].Sub(m.now), nil
}

func TestSnapshotStore(t *testing.T) {
	ctx := context.Background()
	kv := newMemKV()
	s := NewSnapshotStore(kv, time.Hour)

	t.Run("missing key loads as nil", func(t *testing.T) {
		b, err := s.Load(ctx, "keywords")
		if err != nil || b != nil {
			t.Fatalf("Load = %q, %v", b, err)
		}
	})

	t.Run("saved value round trips under a prefixed key with ttl", func(t *testing.T) {
		if err := s.Save(ctx, "keywords", []byte(`[{"id":1}]`)); err != nil {
			t.Fatal(err)
		}
		b, err := s.Load(ctx, "keywords")
		if err != nil || string(b) != `[{"id":1}]` {
			t.Fatalf("Load = %q, %v", b, err)
		}
		if kv.ttl["snapshot:keywords"] != time.Hour {
			t.Errorf("ttl = %v", kv.ttl["snapshot:keywords"])
		}
	})

	t.Run("delete removes the snapshot", func(t *testing.T) {
		_ = s.Delete(ctx, "keywords")
		if b, _ := s.Load(ctx, "keywords"); b != nil {
			t.Errorf("still present: %q", b)
		}
	})

	t.Run("backend errors surface", func(t *testing.T) {
		kv.err = errors.New("connection reset")
		defer func() { kv.err = nil }()
		if _, err := s.Load(ctx, "profile"); err == nil {
			t.Error("expected error")
		}
	})
}

func TestAlertBudget(t *testing.T) {
	ctx := context.Background()

	t.Run("alerts beyond the limit are refused until the window closes", func(t *testing.T) {
		kv := newMemKV()
		budget := NewAlertBudget(kv)
		key := AlertKey("telegram")

		for i := 1; i <= 3; i++ {
			ok, err := budget.Allow(ctx, key, 2, time.Hour)
			if err != nil {
				t.Fatal(err)
			}
			if want := i <= 2; ok != want {
				t.Errorf("alert %d allowed = %v, want %v", i, ok, want)
			}
		}

		kv.now = kv.now.Add(time.Hour)
		if ok, _ := budget.Allow(ctx, key, 2, time.Hour); !ok {
			t.Error("a new window should start with a fresh budget")
		}
	})

	t.Run("channels have separate budgets", func(t *testing.T) {
		budget := NewAlertBudget(newMemKV())
		if ok, _ := budget.Allow(ctx, AlertKey("telegram"), 1, time.Hour); !ok {
			t.Fatal("first telegram alert refused")
		}
		if ok, _ := budget.Allow(ctx, AlertKey("email"), 1, time.Hour); !ok {
			t.Error("email budget drained by telegram")
		}
	})

	t.Run("store errors surface", func(t *testing.T) {
		kv := newMemKV()
		kv.err = errors.New("connection reset")
		if _, err := NewAlertBudget(kv).Allow(ctx, AlertKey("telegram"), 1, time.Hour); err == nil {
			t.Error("expected error")
		}
	})
}
