package sched

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"jdcrawler-dashboard/internal/domain/ports/adapter"
	"jdcrawler-dashboard/internal/infra/metrics"
	"jdcrawler-dashboard/internal/usecase"
)

// NewJobsWorker polls the new-jobs badge and pushes an alert when it grows.
type NewJobsWorker struct {
	reader   *usecase.QueryService
	notifier adapter.Notifier

	mu     sync.Mutex
	last   int
	seeded bool

	log *zerolog.Logger
}

// NewNewJobsWorker accepts a nil notifier; the badge is still kept fresh.
func NewNewJobsWorker(reader *usecase.QueryService, notifier adapter.Notifier, logger *zerolog.Logger) *NewJobsWorker {
	compLog := logger.With().Str("component", "NewJobsWorker").Logger()
	return &NewJobsWorker{reader: reader, notifier: notifier, log: &compLog}
}

// Check refetches the count and returns it. The first successful check only
// records a baseline.
func (w *NewJobsWorker) Check(ctx context.Context) (int, error) {
	r := w.reader.RefetchNewJobsCount(ctx)
	if r.Err != nil {
		metrics.IncPoll("new_jobs_count", "error")
		w.log.Warn().Err(r.Err).Msg("new jobs poll failed")
		return 0, r.Err
	}
	if !r.HasData {
		return 0, ctx.Err()
	}
	metrics.IncPoll("new_jobs_count", "ok")
	count := r.Data.Count

	w.mu.Lock()
	notify := w.seeded && count > w.last
	w.last, w.seeded = count, true
	w.mu.Unlock()

	if notify && w.notifier != nil {
		if err := w.notifier.NotifyNewJobs(ctx, count); err != nil {
			metrics.IncNotification("failed")
			w.log.Error().Err(err).Int("count", count).Msg("new jobs notification failed")
		} else {
			metrics.IncNotification("sent")
			w.log.Info().Int("count", count).Msg("new jobs notification sent")
		}
	}
	return count, nil
}
