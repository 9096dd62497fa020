package redis

import (
	"context"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"jdcrawler-dashboard/internal/config"
)

// KV is the part of Redis the agent relies on. Keys are relative to the
// client's namespace.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	// Hit counts one event in a fixed window that opens on the first hit. It
	// returns the count so far and how long the window has left.
	Hit(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// ErrNil is returned by Get for a missing key.
var ErrNil = redis.Nil

const namespace = "jdcrawler:"

var _ KV = (*Client)(nil)

// Client is a namespaced go-redis client shared by the snapshot store and the
// alert budget.
type Client struct {
	rdb *redis.Client
	ns  string
}

// Dial connects and pings. cfg.URL is either host:port or a redis:// URL;
// explicit password and db settings win over the URL's.
func Dial(ctx context.Context, cfg *config.RedisConfig) (*Client, error) {
	opts := &redis.Options{Addr: cfg.URL, Password: cfg.Password, DB: cfg.DB}
	if strings.HasPrefix(cfg.URL, "redis://") || strings.HasPrefix(cfg.URL, "rediss://") {
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, err
		}
		if cfg.Password != "" {
			parsed.Password = cfg.Password
		}
		if cfg.DB != 0 {
			parsed.DB = cfg.DB
		}
		opts = parsed
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return &Client{rdb: rdb, ns: namespace}, nil
}

func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	return c.rdb.Get(ctx, c.ns+key).Bytes()
}

func (c *Client) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, c.ns+key, value, ttl).Err()
}

func (c *Client) Del(ctx context.Context, keys ...string) error {
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.ns + k
	}
	return c.rdb.Del(ctx, full...).Err()
}

// Hit runs INCR and PTTL in one transaction and arms the expiry when the key
// has none, which also repairs a counter left without a TTL.
func (c *Client) Hit(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	key = c.ns + key
	var (
		incr *redis.IntCmd
		ttl  *redis.DurationCmd
	)
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		ttl = pipe.PTTL(ctx, key)
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	left := ttl.Val()
	if left < 0 {
		if err := c.rdb.PExpire(ctx, key, window).Err(); err != nil {
			return 0, 0, err
		}
		left = window
	}
	return incr.Val(), left, nil
}

func (c *Client) Close() error { return c.rdb.Close() }
