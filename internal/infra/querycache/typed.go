package querycache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	derror "jdcrawler-dashboard/internal/error"
)

// Result is a typed Snapshot.
type Result[T any] struct {
	Data      T
	HasData   bool
	Loading   bool
	Stale     bool
	Err       error
	FetchedAt time.Time
}

func (r Result[T]) IsError() bool { return r.Err != nil }

// Get reads key through c with a typed fetcher, hydrating from the persister
// first when the entry has never been seen.
func Get[T any](ctx context.Context, c *Cache, key Key, fetch func(ctx context.Context) (T, error), opts ...ReadOption) Result[T] {
	c.hydrate(ctx, key, func(b []byte) (any, error) {
		var v T
		err := json.Unmarshal(b, &v)
		return v, err
	})
	return As[T](c.Read(ctx, key, typedFetcher(fetch), opts...))
}

func typedFetcher[T any](fetch func(ctx context.Context) (T, error)) Fetcher {
	if fetch == nil {
		return nil
	}
	return func(ctx context.Context) (any, error) { return fetch(ctx) }
}

// RefetchAs forces a new generation and converts the outcome.
func RefetchAs[T any](ctx context.Context, c *Cache, key Key, fetch func(ctx context.Context) (T, error)) Result[T] {
	return As[T](c.Refetch(ctx, key, typedFetcher(fetch)))
}

func As[T any](s Snapshot) Result[T] {
	r := Result[T]{Loading: s.Loading, Stale: s.Stale, Err: s.Err, FetchedAt: s.FetchedAt}
	if !s.HasData {
		return r
	}
	v, ok := s.Data.(T)
	if !ok {
		r.Err = derror.Internal("cache "+s.Key.String(), fmt.Sprintf("unexpected value type %T", s.Data), nil)
		return r
	}
	r.Data, r.HasData = v, true
	return r
}
