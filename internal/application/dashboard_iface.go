package application

import (
	"jdcrawler-dashboard/internal/domain/model"
	"jdcrawler-dashboard/internal/infra/sched"
	"jdcrawler-dashboard/internal/infra/worker"
)

// CrawlView is the part of the crawl monitor the dashboard renders.
type CrawlView interface {
	Snapshot() sched.CrawlSnapshot
	OnTick(fn func(model.CountdownState))
}

// Prefetcher accepts best-effort background reads; *worker.Pool satisfies it.
type Prefetcher interface {
	Submit(task worker.Task) error
}

type inlinePrefetcher struct{}

func (inlinePrefetcher) Submit(worker.Task) error { return nil }
