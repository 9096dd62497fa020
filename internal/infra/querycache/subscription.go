package querycache

import (
	"sync"

	"jdcrawler-dashboard/internal/infra/metrics"
)

// Subscription delivers the keys under its prefixes whose state changed.
// Changes are coalesced per key: a key that changes again before the
// receiver takes it is delivered once, in the order it first became pending.
// Receivers re-read state on every wakeup.
type Subscription struct {
	C <-chan Key

	id       uint64
	prefixes []Key
	out      chan Key
	c        *Cache

	mu      sync.Mutex
	queue   []Key
	queued  map[Key]struct{}
	wake    chan struct{}
	done    chan struct{}
	closing sync.Once
}

// Subscribe marks the prefixes as having a live view: Invalidate refetches
// entries under them instead of only marking them stale.
func (c *Cache) Subscribe(prefixes ...Key) *Subscription {
	out := make(chan Key)
	s := &Subscription{
		C:        out,
		prefixes: prefixes,
		out:      out,
		c:        c,
		queued:   make(map[Key]struct{}),
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	c.mu.Lock()
	c.nextSub++
	s.id = c.nextSub
	c.subs[s.id] = s
	c.mu.Unlock()
	metrics.AddSubscribers(1)
	go s.pump()
	return s
}

// Close stops delivery and closes C. Safe to call more than once.
func (s *Subscription) Close() {
	s.closing.Do(func() {
		s.c.mu.Lock()
		delete(s.c.subs, s.id)
		s.c.mu.Unlock()
		close(s.done)
		metrics.AddSubscribers(-1)
	})
}

func (s *Subscription) matches(key Key) bool {
	for _, p := range s.prefixes {
		if key.HasPrefix(p) {
			return true
		}
	}
	return false
}

// enqueue never blocks; a key already waiting is not queued twice.
func (s *Subscription) enqueue(key Key) {
	s.mu.Lock()
	if _, ok := s.queued[key]; !ok {
		s.queued[key] = struct{}{}
		s.queue = append(s.queue, key)
	}
	s.mu.Unlock()
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// next pops the oldest pending key. A change landing after the pop queues the
// key again, so the receiver always re-reads after the last change.
func (s *Subscription) next() (Key, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return "", false
	}
	k := s.queue[0]
	s.queue = s.queue[1:]
	delete(s.queued, k)
	return k, true
}

func (s *Subscription) pump() {
	defer close(s.out)
	for {
		k, ok := s.next()
		if !ok {
			select {
			case <-s.wake:
				continue
			case <-s.done:
				return
			}
		}
		select {
		case <-s.done:
			return
		default:
		}
		select {
		case s.out <- k:
		case <-s.done:
			return
		}
	}
}

func (c *Cache) subscribedLocked(key Key) bool {
	for _, s := range c.subs {
		if s.matches(key) {
			return true
		}
	}
	return false
}

func (c *Cache) notify(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range c.subs {
		if s.matches(key) {
			s.enqueue(key)
		}
	}
}
