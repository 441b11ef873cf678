// Package redis appends formatted records to a capped Redis list.
//
//	persist.TransportSink → format/json → transport/redis
//
// Each Send is RPUSH followed by LTRIM so the list keeps at most MaxLen of
// the newest records.
package redis

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// Config controls ListTransport.
type Config struct {
	Addr     string
	Password string
	DB       int

	// Key is the list the records are pushed onto.
	Key string

	// MaxLen caps the list length. Zero or negative disables trimming.
	MaxLen int64
}

// listClient is the subset of *redis.Client used here.
type listClient interface {
	RPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	LTrim(ctx context.Context, key string, start, stop int64) *redis.StatusCmd
	Close() error
}

// ListTransport implements the file.Transport contract on a Redis list.
type ListTransport struct {
	client listClient
	key    string
	maxLen int64
	logger *slog.Logger
}

// New creates a go-redis client for cfg and pings it once.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*ListTransport, error) {
	if cfg.Key == "" {
		return nil, fmt.Errorf("transport/redis: key is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("transport/redis: ping %s: %w", cfg.Addr, err)
	}
	t := newList(client, cfg.Key, cfg.MaxLen, logger)
	t.logger.Info("transport/redis: connected", "addr", cfg.Addr, "key", cfg.Key, "max_len", cfg.MaxLen)
	return t, nil
}

func newList(client listClient, key string, maxLen int64, logger *slog.Logger) *ListTransport {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(noopWriter{}, nil))
	}
	return &ListTransport{client: client, key: key, maxLen: maxLen, logger: logger}
}

// Send appends data to the list and trims it to MaxLen.
func (t *ListTransport) Send(ctx context.Context, data []byte) error {
	n, err := t.client.RPush(ctx, t.key, data).Result()
	if err != nil {
		t.logger.Error("transport/redis: rpush failed", "key", t.key, "error", err.Error())
		return fmt.Errorf("transport/redis: rpush %s: %w", t.key, err)
	}
	if t.maxLen > 0 && n > t.maxLen {
		if err := t.client.LTrim(ctx, t.key, -t.maxLen, -1).Err(); err != nil {
			t.logger.Warn("transport/redis: ltrim failed", "key", t.key, "error", err.Error())
			return fmt.Errorf("transport/redis: ltrim %s: %w", t.key, err)
		}
	}
	t.logger.Debug("transport/redis: pushed", "key", t.key, "len", n, "bytes", len(data))
	return nil
}

// Close closes the client connection pool.
func (t *ListTransport) Close() error {
	if err := t.client.Close(); err != nil {
		return fmt.Errorf("transport/redis: close: %w", err)
	}
	return nil
}

type noopWriter struct{}

func (noopWriter) Write(p []byte) (int, error) { return len(p), nil }
