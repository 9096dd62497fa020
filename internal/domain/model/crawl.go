package model

import (
	"encoding/json"
	"fmt"
	"time"
)

type CrawlState string

const (
	CrawlRunning CrawlState = "running"
	CrawlIdle    CrawlState = "idle"
)

// UnmarshalJSON folds every non-running scheduler state ("stopped", "paused") into idle.
func (s *CrawlState) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if raw == string(CrawlRunning) {
		*s = CrawlRunning
	} else {
		*s = CrawlIdle
	}
	return nil
}

type ScheduledRun struct {
	ID          string    `json:"id"`
	NextRunTime Timestamp `json:"next_run_time"`
}

type CrawlStatus struct {
	Status CrawlState     `json:"status"`
	Jobs   []ScheduledRun `json:"jobs"`
}

// NextRun returns the first scheduled run's time, or nil when nothing is scheduled.
func (c *CrawlStatus) NextRun() *time.Time {
	if c == nil || len(c.Jobs) == 0 {
		return nil
	}
	return c.Jobs[0].NextRunTime.Ptr()
}

type CrawlRequest struct {
	Site    Site   `json:"site"`
	Keyword string `json:"keyword"`
}

// CrawlAck is the backend's acknowledgment of a crawl trigger.
type CrawlAck struct {
	Status      string `json:"status"`
	Site        string `json:"site,omitempty"`
	Keyword     string `json:"keyword,omitempty"`
	JobsCrawled int    `json:"jobs_crawled,omitempty"`
	Message     string `json:"message,omitempty"`
}

type CountdownKind string

const (
	CountdownNotScheduled CountdownKind = "not_scheduled"
	CountdownRunning      CountdownKind = "running"
	CountdownScheduled    CountdownKind = "scheduled"
)

type CountdownState struct {
	Kind      CountdownKind `json:"kind"`
	Remaining time.Duration `json:"remaining"`
	Text      string        `json:"text"`
}

// Countdown derives the display from the last-polled next run time and the
// current wall clock. It holds no state of its own.
func Countdown(next *time.Time, now time.Time) CountdownState {
	if next == nil || next.IsZero() {
		return CountdownState{Kind: CountdownNotScheduled, Text: "not scheduled"}
	}
	d := next.Sub(now)
	if d <= 0 {
		return CountdownState{Kind: CountdownRunning, Text: "running"}
	}
	// partial seconds round up so "1s" shows until the run starts
	total := int64((d + time.Second - 1) / time.Second)
	h, m, s := total/3600, (total%3600)/60, total%60
	return CountdownState{
		Kind:      CountdownScheduled,
		Remaining: time.Duration(total) * time.Second,
		Text:      fmt.Sprintf("%dh %dm %ds", h, m, s),
	}
}
