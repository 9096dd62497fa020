package telegram

import (
	"context"

	"github.com/rs/zerolog"

	"jdcrawler-dashboard/internal/domain/ports/adapter"
	"jdcrawler-dashboard/internal/infra/i18n"
)

var _ adapter.Notifier = (*NoopNotifier)(nil)

// NoopNotifier logs alerts instead of sending them; used when no bot token is configured.
type NoopNotifier struct {
	tr  *i18n.Translator
	log *zerolog.Logger
}

func NewNoopNotifier(logger *zerolog.Logger) *NoopNotifier {
	compLog := logger.With().Str("component", "NoopNotifier").Logger()
	return &NoopNotifier{tr: i18n.Default(), log: &compLog}
}

func (n *NoopNotifier) NotifyNewJobs(ctx context.Context, count int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n.log.Info().Int("count", count).Msg(n.tr.Count("alert.new_jobs", count))
	return nil
}
