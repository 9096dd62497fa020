// Package querycache is the process-wide store of server-owned entities.
// Every screen reads through it; writes reach it only via Invalidate.
package querycache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	derror "jdcrawler-dashboard/internal/error"
	"jdcrawler-dashboard/internal/infra/metrics"
)

// Fetcher loads the current server value for a key.
type Fetcher func(ctx context.Context) (any, error)

// Persister stores the last good value of a key between agent restarts.
type Persister interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, value []byte) error
}

// Snapshot is an immutable copy of an entry's state.
type Snapshot struct {
	Key       Key
	Data      any
	HasData   bool
	Loading   bool
	Stale     bool
	Err       error
	FetchedAt time.Time
}

func (s Snapshot) IsError() bool { return s.Err != nil }

type entry struct {
	value     any
	hasValue  bool
	err       error
	fetchedAt time.Time
	stale     bool
	hydrated  bool

	gen     uint64 // newest generation issued
	pending bool   // newest generation still running
	running int
	fetcher Fetcher
}

func (e *entry) fresh(now time.Time, staleTime time.Duration) bool {
	if !e.hasValue || e.stale || e.err != nil {
		return false
	}
	return staleTime <= 0 || now.Sub(e.fetchedAt) < staleTime
}

type Cache struct {
	mu      sync.Mutex
	entries map[Key]*entry
	subs    map[uint64]*Subscription
	nextSub uint64
	seq     uint64 // generation counter shared by all keys

	group     singleflight.Group
	base      context.Context
	cancel    context.CancelFunc
	persister Persister
	staleTime time.Duration
	now       func() time.Time
	log       *zerolog.Logger
}

type Option func(*Cache)

func WithLogger(l *zerolog.Logger) Option {
	return func(c *Cache) {
		cl := l.With().Str("component", "QueryCache").Logger()
		c.log = &cl
	}
}

func WithPersister(p Persister) Option { return func(c *Cache) { c.persister = p } }

// WithStaleTime sets how long a value stays fresh; zero keeps it fresh until invalidated.
func WithStaleTime(d time.Duration) Option { return func(c *Cache) { c.staleTime = d } }

func WithNow(now func() time.Time) Option { return func(c *Cache) { c.now = now } }

// WithContext sets the parent of every fetch context.
func WithContext(ctx context.Context) Option {
	return func(c *Cache) { c.base, c.cancel = context.WithCancel(ctx) }
}

func New(opts ...Option) *Cache {
	nop := zerolog.Nop()
	c := &Cache{
		entries: make(map[Key]*entry),
		subs:    make(map[uint64]*Subscription),
		now:     time.Now,
		log:     &nop,
	}
	for _, o := range opts {
		o(c)
	}
	if c.base == nil {
		c.base, c.cancel = context.WithCancel(context.Background())
	}
	return c
}

// Close cancels fetches still running.
func (c *Cache) Close() { c.cancel() }

func (c *Cache) entryLocked(key Key) *entry {
	e, ok := c.entries[key]
	if !ok {
		e = &entry{}
		c.entries[key] = e
	}
	return e
}

func (c *Cache) snapshotLocked(key Key) Snapshot {
	e, ok := c.entries[key]
	if !ok {
		return Snapshot{Key: key}
	}
	return Snapshot{
		Key:       key,
		Data:      e.value,
		HasData:   e.hasValue,
		Loading:   e.running > 0,
		Stale:     e.stale,
		Err:       e.err,
		FetchedAt: e.fetchedAt,
	}
}

// Peek returns the current state without fetching.
func (c *Cache) Peek(key Key) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked(key)
}

type ReadOption func(*readOptions)

type readOptions struct {
	staleTime    time.Duration
	hasStaleTime bool
}

func StaleTime(d time.Duration) ReadOption {
	return func(o *readOptions) { o.staleTime, o.hasStaleTime = d, true }
}

// Read returns the fresh value for key, or starts (or joins) the single
// in-flight fetch and waits for it. A cancelled ctx stops the wait only; the
// fetch keeps running for everyone else.
func (c *Cache) Read(ctx context.Context, key Key, fetch Fetcher, opts ...ReadOption) Snapshot {
	o := readOptions{staleTime: c.staleTime}
	for _, fn := range opts {
		fn(&o)
	}

	c.mu.Lock()
	e := c.entryLocked(key)
	if fetch != nil {
		e.fetcher = fetch
	}
	if e.fresh(c.now(), o.staleTime) {
		snap := c.snapshotLocked(key)
		c.mu.Unlock()
		metrics.IncCacheRequest(key.Kind(), "hit")
		return snap
	}
	if e.fetcher == nil {
		snap := c.snapshotLocked(key)
		c.mu.Unlock()
		return snap
	}
	var ch <-chan singleflight.Result
	if e.pending {
		ch = c.joinLocked(e)
		metrics.IncCacheRequest(key.Kind(), "join")
	} else {
		ch = c.beginLocked(key, e)
		metrics.IncCacheRequest(key.Kind(), "miss")
	}
	c.mu.Unlock()
	return c.await(ctx, key, e, ch)
}

// Refetch starts a new fetch generation for key regardless of freshness and
// waits for the newest result. A nil fetch reuses the one registered by Read.
func (c *Cache) Refetch(ctx context.Context, key Key, fetch Fetcher) Snapshot {
	c.mu.Lock()
	e := c.entryLocked(key)
	if fetch != nil {
		e.fetcher = fetch
	}
	if e.fetcher == nil {
		snap := c.snapshotLocked(key)
		c.mu.Unlock()
		return snap
	}
	ch := c.beginLocked(key, e)
	c.mu.Unlock()
	return c.await(ctx, key, e, ch)
}

func flightName(gen uint64) string { return strconv.FormatUint(gen, 10) }

// beginLocked allocates the next generation for e and launches its fetch.
// Generations are numbered in the order they are issued, so a fetch started
// earlier can never overwrite one issued after it. Older flights still run
// to completion but their results are discarded.
func (c *Cache) beginLocked(key Key, e *entry) <-chan singleflight.Result {
	c.seq++
	gen, fetch := c.seq, e.fetcher
	e.gen = gen
	e.running++
	e.pending = true
	return c.group.DoChan(flightName(gen), func() (any, error) {
		return c.runFetch(key, e, gen, fetch), nil
	})
}

// joinLocked waits on the newest generation of e. Only valid while e.pending.
func (c *Cache) joinLocked(e *entry) <-chan singleflight.Result {
	gen := e.gen
	return c.group.DoChan(flightName(gen), func() (any, error) { return gen, nil })
}

func (c *Cache) await(ctx context.Context, key Key, e *entry, ch <-chan singleflight.Result) Snapshot {
	for {
		select {
		case <-ctx.Done():
			return c.Peek(key)
		case res := <-ch:
			doneGen, _ := res.Val.(uint64)
			c.mu.Lock()
			if !e.pending || e.gen == doneGen {
				snap := c.snapshotLocked(key)
				c.mu.Unlock()
				return snap
			}
			// superseded while waiting: follow the newest generation
			ch = c.joinLocked(e)
			c.mu.Unlock()
		}
	}
}

func (c *Cache) runFetch(key Key, e *entry, gen uint64, fetch Fetcher) uint64 {
	c.notify(key)

	start := c.now()
	val, err := c.safeFetch(key, fetch)

	c.mu.Lock()
	e.running--
	if gen != e.gen {
		c.mu.Unlock()
		metrics.IncStaleDiscard(key.Kind())
		c.log.Debug().Str("key", key.String()).Uint64("gen", gen).Msg("discarding superseded response")
		return gen
	}
	e.pending = false
	if err != nil {
		// keep the previous value for display
		e.err = err
	} else {
		e.value, e.hasValue, e.err = val, true, nil
		e.fetchedAt = c.now()
		e.stale = false
	}
	c.mu.Unlock()

	if err != nil {
		c.log.Warn().Err(err).Str("key", key.String()).Msg("fetch failed")
	} else {
		c.log.Debug().Str("key", key.String()).Dur("took", c.now().Sub(start)).Msg("fetched")
		c.persist(key, val)
	}
	c.notify(key)
	return gen
}

func (c *Cache) safeFetch(key Key, fetch Fetcher) (val any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = derror.Internal("fetch "+key.String(), fmt.Sprintf("panic: %v", r), nil)
		}
	}()
	ctx, cancel := context.WithCancel(c.base)
	defer cancel()
	return fetch(ctx)
}

func (c *Cache) persist(key Key, val any) {
	if c.persister == nil {
		return
	}
	b, err := json.Marshal(val)
	if err != nil {
		c.log.Warn().Err(err).Str("key", key.String()).Msg("snapshot encode failed")
		return
	}
	ctx, cancel := context.WithTimeout(c.base, 2*time.Second)
	defer cancel()
	if err := c.persister.Save(ctx, key.String(), b); err != nil {
		c.log.Warn().Err(err).Str("key", key.String()).Msg("snapshot save failed")
	}
}

// hydrate seeds an empty entry from the persister as a stale value, once.
func (c *Cache) hydrate(ctx context.Context, key Key, decode func([]byte) (any, error)) {
	if c.persister == nil {
		return
	}
	c.mu.Lock()
	e := c.entryLocked(key)
	if e.hasValue || e.hydrated {
		c.mu.Unlock()
		return
	}
	e.hydrated = true
	c.mu.Unlock()

	b, err := c.persister.Load(ctx, key.String())
	if err != nil || len(b) == 0 {
		return
	}
	v, err := decode(b)
	if err != nil {
		c.log.Warn().Err(err).Str("key", key.String()).Msg("snapshot decode failed")
		return
	}
	c.mu.Lock()
	if !e.hasValue {
		e.value, e.hasValue, e.stale = v, true, true
	}
	c.mu.Unlock()
}

// Invalidate marks every entry under prefix stale. Entries a live view is
// subscribed to, and entries with a fetch already in flight, get a new
// generation at once; the in-flight result predates the write and is
// discarded. It returns the number of entries marked.
func (c *Cache) Invalidate(prefix Key) int {
	c.mu.Lock()
	var marked []Key
	refetching := 0
	for k, e := range c.entries {
		if !k.HasPrefix(prefix) {
			continue
		}
		e.stale = true
		marked = append(marked, k)
		if e.fetcher != nil && (e.pending || c.subscribedLocked(k)) {
			c.beginLocked(k, e)
			refetching++
		}
	}
	c.mu.Unlock()

	for _, k := range marked {
		c.notify(k)
	}
	if len(marked) > 0 {
		c.log.Debug().Str("prefix", prefix.String()).Int("marked", len(marked)).Int("refetching", refetching).Msg("invalidated")
	}
	return len(marked)
}
