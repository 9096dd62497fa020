package telegram

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"jdcrawler-dashboard/internal/domain/ports/adapter"
)

// Limiter is satisfied by redis.AlertBudget.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

var _ adapter.Notifier = (*ThrottledNotifier)(nil)

// ThrottledNotifier drops alerts beyond limit per window. A limiter error lets
// the alert through.
type ThrottledNotifier struct {
	next    adapter.Notifier
	limiter Limiter
	key     string
	limit   int
	window  time.Duration
	log     *zerolog.Logger
}

func NewThrottledNotifier(next adapter.Notifier, limiter Limiter, key string, limit int, window time.Duration, logger *zerolog.Logger) *ThrottledNotifier {
	compLog := logger.With().Str("component", "ThrottledNotifier").Logger()
	return &ThrottledNotifier{next: next, limiter: limiter, key: key, limit: limit, window: window, log: &compLog}
}

func (t *ThrottledNotifier) NotifyNewJobs(ctx context.Context, count int) error {
	ok, err := t.limiter.Allow(ctx, t.key, t.limit, t.window)
	if err != nil {
		t.log.Warn().Err(err).Msg("rate limiter unavailable, sending anyway")
	} else if !ok {
		t.log.Debug().Int("count", count).Msg("alert suppressed by rate limit")
		return nil
	}
	return t.next.NotifyNewJobs(ctx, count)
}
