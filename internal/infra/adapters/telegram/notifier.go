package telegram

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"jdcrawler-dashboard/internal/config"
	"jdcrawler-dashboard/internal/domain/ports/adapter"
	"jdcrawler-dashboard/internal/infra/i18n"
)

var _ adapter.Notifier = (*BotNotifier)(nil)

// sender is the part of *tgbotapi.BotAPI the notifier uses.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// BotNotifier posts new-job alerts to one Telegram chat.
type BotNotifier struct {
	bot       sender
	chatID    int64
	dashboard string
	tr        *i18n.Translator
	log       *zerolog.Logger
}

// NewBotNotifier connects to the Bot API. cfg.DashboardURL is linked in every
// alert when set; a nil translator means English.
func NewBotNotifier(cfg config.TelegramConfig, tr *i18n.Translator, logger *zerolog.Logger) (*BotNotifier, error) {
	if cfg.Token == "" {
		return nil, errors.New("telegram token is empty")
	}
	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	return newBotNotifier(bot, cfg.ChatID, cfg.DashboardURL, tr, logger), nil
}

func newBotNotifier(bot sender, chatID int64, dashboardURL string, tr *i18n.Translator, logger *zerolog.Logger) *BotNotifier {
	if tr == nil {
		tr = i18n.Default()
	}
	compLog := logger.With().Str("component", "TelegramNotifier").Int64("chat_id", chatID).Str("lang", tr.Lang()).Logger()
	return &BotNotifier{bot: bot, chatID: chatID, dashboard: dashboardURL, tr: tr, log: &compLog}
}

func (n *BotNotifier) NotifyNewJobs(ctx context.Context, count int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(n.chatID, n.tr.Count("alert.new_jobs", count))
	if n.dashboard != "" {
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonURL(n.tr.T("alert.open_dashboard"), n.dashboard)),
		)
	}
	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("send new jobs alert: %w", err)
	}
	n.log.Debug().Int("count", count).Msg("alert sent")
	return nil
}
