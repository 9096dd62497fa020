//go:build !integration

package telegram

import (
	"context"
	"errors"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"jdcrawler-dashboard/internal/config"
	"jdcrawler-dashboard/internal/infra/i18n"
	"jdcrawler-dashboard/internal/infra/logging"
)

type fakeSender struct {
	sent []tgbotapi.Chattable
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, f.err
}

func TestNotifyNewJobs(t *testing.T) {
	ctx := context.Background()

	t.Run("sends to the configured chat with a dashboard link", func(t *testing.T) {
		fs := &fakeSender{}
		n := newBotNotifier(fs, 42, "http://localhost:8090/ui/dashboard", nil, logging.Nop())
		if err := n.NotifyNewJobs(ctx, 3); err != nil {
			t.Fatalf("NotifyNewJobs: %v", err)
		}
		if len(fs.sent) != 1 {
			t.Fatalf("sent = %d", len(fs.sent))
		}
		msg, ok := fs.sent[0].(tgbotapi.MessageConfig)
		if !ok {
			t.Fatalf("sent %T", fs.sent[0])
		}
		if msg.ChatID != 42 || msg.Text != "3 new job postings since you last checked." {
			t.Errorf("msg = %+v", msg)
		}
		if msg.ReplyMarkup == nil {
			t.Error("missing dashboard button")
		}
	})

	t.Run("singular text", func(t *testing.T) {
		fs := &fakeSender{}
		if err := newBotNotifier(fs, 42, "", nil, logging.Nop()).NotifyNewJobs(ctx, 1); err != nil {
			t.Fatal(err)
		}
		if got := fs.sent[0].(tgbotapi.MessageConfig).Text; got != "1 new job posting since you last checked." {
			t.Errorf("text = %q", got)
		}
	})

	t.Run("korean alerts", func(t *testing.T) {
		tr, err := i18n.Load("ko")
		if err != nil {
			t.Fatal(err)
		}
		fs := &fakeSender{}
		if err := newBotNotifier(fs, 42, "", tr, logging.Nop()).NotifyNewJobs(ctx, 5); err != nil {
			t.Fatal(err)
		}
		if got := fs.sent[0].(tgbotapi.MessageConfig).Text; got != "마지막 확인 이후 새 채용공고가 5건 있습니다." {
			t.Errorf("text = %q", got)
		}
	})

	t.Run("send errors are wrapped", func(t *testing.T) {
		fs := &fakeSender{err: errors.New("forbidden")}
		n := newBotNotifier(fs, 42, "", nil, logging.Nop())
		err := n.NotifyNewJobs(ctx, 2)
		if err == nil || !errors.Is(err, fs.err) {
			t.Errorf("err = %v", err)
		}
	})

	t.Run("noop notifier honours cancellation", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		if err := NewNoopNotifier(logging.Nop()).NotifyNewJobs(cctx, 1); err == nil {
			t.Error("expected context error")
		}
	})
}

func TestNewBotNotifierRequiresToken(t *testing.T) {
	if _, err := NewBotNotifier(config.TelegramConfig{ChatID: 1}, nil, logging.Nop()); err == nil {
		t.Fatal("expected error")
	}
}

type countingNotifier struct{ n int }

func (c *countingNotifier) NotifyNewJobs(ctx context.Context, count int) error {
	c.n++
	return nil
}

type stubLimiter struct {
	allow []bool
	err   error
}

func (s *stubLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	ok := s.allow[0]
	s.allow = s.allow[1:]
	return ok, nil
}

func TestThrottledNotifier(t *testing.T) {
	ctx := context.Background()

	t.Run("suppresses alerts over the limit", func(t *testing.T) {
		inner := &countingNotifier{}
		n := NewThrottledNotifier(inner, &stubLimiter{allow: []bool{true, false}}, "k", 1, time.Hour, logging.Nop())
		_ = n.NotifyNewJobs(ctx, 1)
		_ = n.NotifyNewJobs(ctx, 2)
		if inner.n != 1 {
			t.Errorf("delivered = %d, want 1", inner.n)
		}
	})

	t.Run("fails open when the limiter errors", func(t *testing.T) {
		inner := &countingNotifier{}
		n := NewThrottledNotifier(inner, &stubLimiter{err: errors.New("redis down")}, "k", 1, time.Hour, logging.Nop())
		if err := n.NotifyNewJobs(ctx, 1); err != nil || inner.n != 1 {
			t.Errorf("err = %v delivered = %d", err, inner.n)
		}
	})
}
