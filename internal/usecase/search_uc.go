// File: internal/usecase/search_uc.go
package usecase

import (
	"strings"
	"sync"
	"time"

	"jdcrawler-dashboard/internal/domain/model"
	"jdcrawler-dashboard/internal/infra/clock"
)

// SearchState is the job browser's filter and paging state.
type SearchState struct {
	Raw        string     `json:"raw"`
	Committed  string     `json:"committed"`
	Site       model.Site `json:"site,omitempty"`
	Bookmarked bool       `json:"bookmarked"`
	Page       int        `json:"page"`
}

// Query builds the list query from the committed term only.
func (s SearchState) Query(pageSize int) model.JobQuery {
	return model.JobQuery{
		Search:     strings.TrimSpace(s.Committed),
		Site:       s.Site,
		Bookmarked: s.Bookmarked,
		Page:       s.Page,
		PageSize:   pageSize,
	}
}

// SearchController debounces the search box: the raw text follows every
// keystroke, the committed term only changes after a quiet period.
type SearchController struct {
	mu        sync.Mutex
	clk       clock.Clock
	delay     time.Duration
	state     SearchState
	timer     clock.Timer
	gen       uint64
	listeners []func(SearchState)
}

func NewSearchController(clk clock.Clock, delay time.Duration) *SearchController {
	if clk == nil {
		clk = clock.Real
	}
	if delay <= 0 {
		delay = 500 * time.Millisecond
	}
	return &SearchController{clk: clk, delay: delay, state: SearchState{Page: 1}}
}

// OnChange registers a callback run after every change of the committed
// query (term, site, filter or page). Callbacks run outside the lock.
func (c *SearchController) OnChange(fn func(SearchState)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

func (c *SearchController) State() SearchState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Input records a keystroke and restarts the quiet period.
func (c *SearchController) Input(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Raw = text
	if c.timer != nil {
		c.timer.Stop()
	}
	c.gen++
	gen := c.gen
	c.timer = c.clk.AfterFunc(c.delay, func() { c.expire(gen) })
}

func (c *SearchController) expire(gen uint64) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	st, changed := c.commitLocked()
	c.mu.Unlock()
	if changed {
		c.emit(st)
	}
}

// Flush commits the raw text now, cancelling the pending timer.
func (c *SearchController) Flush() {
	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.gen++
	st, changed := c.commitLocked()
	c.mu.Unlock()
	if changed {
		c.emit(st)
	}
}

func (c *SearchController) commitLocked() (SearchState, bool) {
	if c.state.Committed == c.state.Raw {
		return c.state, false
	}
	c.state.Committed = c.state.Raw
	c.state.Page = 1
	return c.state, true
}

func (c *SearchController) SetSite(site model.Site) {
	c.update(func(s *SearchState) bool {
		if s.Site == site {
			return false
		}
		s.Site, s.Page = site, 1
		return true
	})
}

func (c *SearchController) SetBookmarked(only bool) {
	c.update(func(s *SearchState) bool {
		if s.Bookmarked == only {
			return false
		}
		s.Bookmarked, s.Page = only, 1
		return true
	})
}

// Next advances only when the current page was full.
func (c *SearchController) Next(hasNext bool) {
	c.update(func(s *SearchState) bool {
		if !hasNext {
			return false
		}
		s.Page++
		return true
	})
}

func (c *SearchController) Prev() {
	c.update(func(s *SearchState) bool {
		if s.Page <= 1 {
			return false
		}
		s.Page--
		return true
	})
}

func (c *SearchController) SetPage(page int) {
	if page < 1 {
		page = 1
	}
	c.update(func(s *SearchState) bool {
		if s.Page == page {
			return false
		}
		s.Page = page
		return true
	})
}

func (c *SearchController) update(fn func(*SearchState) bool) {
	c.mu.Lock()
	changed := fn(&c.state)
	st := c.state
	c.mu.Unlock()
	if changed {
		c.emit(st)
	}
}

func (c *SearchController) emit(st SearchState) {
	c.mu.Lock()
	ls := append([]func(SearchState){}, c.listeners...)
	c.mu.Unlock()
	for _, fn := range ls {
		fn(st)
	}
}

// Close stops the pending timer; a stopped controller never commits on its own.
func (c *SearchController) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.gen++
}
