package redis

import (
	"context"
	"time"
)

// AlertBudget caps outgoing alerts per fixed window. The counter lives in
// Redis, so every agent sharing it draws from one budget.
type AlertBudget struct {
	kv KV
}

func NewAlertBudget(kv KV) *AlertBudget {
	return &AlertBudget{kv: kv}
}

// Allow spends one alert from the budget under key and reports whether it
// was still within limit.
func (b *AlertBudget) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	n, _, err := b.kv.Hit(ctx, key, window)
	if err != nil {
		return false, err
	}
	return n <= int64(limit), nil
}

// AlertKey names the budget of one notification channel.
func AlertKey(channel string) string {
	return "alerts:" + channel
}
