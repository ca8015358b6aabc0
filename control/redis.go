package control

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// RedisStore shares operator commands between the CLI and the scanner
// through Redis keys under Prefix.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedis connects and pings the server.
func NewRedis(cfg RedisConfig) (*RedisStore, error) {
	if cfg.Addr == "" {
		cfg.Addr = "localhost:6379"
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "binscan"
	}

	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 2 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisStore{client: client, prefix: cfg.Prefix}, nil
}

func (s *RedisStore) key(parts ...string) string {
	return s.prefix + ":" + strings.Join(parts, ":")
}

func (s *RedisStore) TradingEnabled(ctx context.Context) (bool, bool, error) {
	v, err := s.client.Get(ctx, s.key("trading_enabled")).Result()
	if errors.Is(err, redis.Nil) {
		return false, false, nil
	}
	if err != nil {
		return false, false, fmt.Errorf("kill-switch: %w", err)
	}
	return v == "1", true, nil
}

func (s *RedisStore) SetTradingEnabled(ctx context.Context, enabled bool) error {
	v := "0"
	if enabled {
		v = "1"
	}
	if err := s.client.Set(ctx, s.key("trading_enabled"), v, 0).Err(); err != nil {
		return fmt.Errorf("kill-switch: %w", err)
	}
	return nil
}

func (s *RedisStore) RequestReset(ctx context.Context) error {
	if err := s.client.Set(ctx, s.key("reset"), time.Now().UTC().Format(time.RFC3339), 0).Err(); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	return nil
}

func (s *RedisStore) ConsumeReset(ctx context.Context) (bool, error) {
	_, err := s.client.GetDel(ctx, s.key("reset")).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reset: %w", err)
	}
	return true, nil
}

func (s *RedisStore) RequestReconcile(ctx context.Context, r Reconcile) error {
	b, err := json.Marshal(r)
	if err != nil {
		return err
	}
	if err := s.client.RPush(ctx, s.key("reconcile"), b).Err(); err != nil {
		return fmt.Errorf("reconcile: %w", err)
	}
	return nil
}

func (s *RedisStore) DrainReconciles(ctx context.Context) ([]Reconcile, error) {
	var out []Reconcile
	for {
		b, err := s.client.LPop(ctx, s.key("reconcile")).Bytes()
		if errors.Is(err, redis.Nil) {
			return out, nil
		}
		if err != nil {
			return out, fmt.Errorf("reconcile: %w", err)
		}
		var r Reconcile
		if err := json.Unmarshal(b, &r); err != nil {
			continue
		}
		out = append(out, r)
	}
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
