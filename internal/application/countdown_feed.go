package application

import (
	"sync"

	"jdcrawler-dashboard/internal/domain/model"
)

// countdownFeed fans the crawl countdown out to event streams. Each reader
// buffers one value and publish replaces it, so ticks never block.
type countdownFeed struct {
	mu   sync.Mutex
	next uint64
	subs map[uint64]chan model.CountdownState
}

func (f *countdownFeed) publish(cd model.CountdownState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ch := range f.subs {
		select {
		case <-ch:
		default:
		}
		ch <- cd
	}
}

func (f *countdownFeed) subscribe() (<-chan model.CountdownState, func()) {
	ch := make(chan model.CountdownState, 1)
	f.mu.Lock()
	if f.subs == nil {
		f.subs = make(map[uint64]chan model.CountdownState)
	}
	f.next++
	id := f.next
	f.subs[id] = ch
	f.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, id)
			f.mu.Unlock()
		})
	}
}
