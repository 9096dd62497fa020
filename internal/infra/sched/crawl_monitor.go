package sched

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"jdcrawler-dashboard/internal/domain/model"
	"jdcrawler-dashboard/internal/infra/clock"
	"jdcrawler-dashboard/internal/infra/metrics"
	"jdcrawler-dashboard/internal/usecase"
)

// CrawlMonitor keeps the last-polled crawl schedule and derives the countdown
// from it. Poll hits the backend; Tick never does.
type CrawlMonitor struct {
	reader *usecase.QueryService
	clk    clock.Clock

	mu        sync.Mutex
	status    model.CrawlState
	next      *time.Time
	polled    bool
	countdown model.CountdownState
	lastErr   error
	listeners []func(model.CountdownState)

	log *zerolog.Logger
}

func NewCrawlMonitor(reader *usecase.QueryService, clk clock.Clock, logger *zerolog.Logger) *CrawlMonitor {
	if clk == nil {
		clk = clock.Real
	}
	compLog := logger.With().Str("component", "CrawlMonitor").Logger()
	return &CrawlMonitor{
		reader:    reader,
		clk:       clk,
		status:    model.CrawlIdle,
		countdown: model.Countdown(nil, clk.Now()),
		log:       &compLog,
	}
}

// OnTick registers a callback run whenever the countdown text changes.
func (m *CrawlMonitor) OnTick(fn func(model.CountdownState)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// Poll refetches the crawl status. A failed poll keeps the previous schedule.
func (m *CrawlMonitor) Poll(ctx context.Context) error {
	r := m.reader.RefetchCrawlStatus(ctx)
	if r.Err != nil {
		metrics.IncPoll("crawl_status", "error")
		m.mu.Lock()
		m.lastErr = r.Err
		m.mu.Unlock()
		m.log.Warn().Err(r.Err).Msg("crawl status poll failed")
		return r.Err
	}
	if !r.HasData {
		return ctx.Err()
	}
	metrics.IncPoll("crawl_status", "ok")

	m.mu.Lock()
	m.status = r.Data.Status
	m.next = r.Data.NextRun()
	m.polled = true
	m.lastErr = nil
	m.mu.Unlock()

	m.Tick(m.clk.Now())
	return nil
}

// Tick recomputes the countdown for now from the last-polled next run time.
func (m *CrawlMonitor) Tick(now time.Time) model.CountdownState {
	m.mu.Lock()
	cd := model.Countdown(m.next, now)
	changed := cd.Text != m.countdown.Text
	m.countdown = cd
	ls := m.listeners
	m.mu.Unlock()

	if changed {
		for _, fn := range ls {
			fn(cd)
		}
	}
	return cd
}

func (m *CrawlMonitor) Countdown() model.CountdownState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.countdown
}

// CrawlSnapshot is the monitor's view for the dashboard.
type CrawlSnapshot struct {
	Status    model.CrawlState     `json:"status"`
	NextRun   *time.Time           `json:"next_run,omitempty"`
	Countdown model.CountdownState `json:"countdown"`
	Polled    bool                 `json:"polled"`
	Error     string               `json:"error,omitempty"`
}

func (m *CrawlMonitor) Snapshot() CrawlSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := CrawlSnapshot{Status: m.status, NextRun: m.next, Countdown: m.countdown, Polled: m.polled}
	if m.lastErr != nil {
		s.Error = m.lastErr.Error()
	}
	return s
}
