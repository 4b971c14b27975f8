// Package audit stores a trail of the mutating requests handled by the service.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
)

// Entry is one audited command / Une commande auditée
type Entry struct {
	Time     time.Time     `json:"time"`
	Request  string        `json:"request"`
	UserID   int64         `json:"user_id,omitempty"`
	Outcome  string        `json:"outcome"`
	Code     string        `json:"code,omitempty"`
	Duration time.Duration `json:"duration_ns"`
}

// Sink stores audit entries.
type Sink interface {
	Name() string
	Write(ctx context.Context, e Entry) error
}

// Reader is a sink that keeps its entries and can return the latest ones.
type Reader interface {
	Recent(ctx context.Context, n int64) ([]Entry, error)
}

// LogSink writes entries to a slog logger.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a log sink. A nil logger means slog.Default().
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger.With("component", "audit")}
}

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Write(ctx context.Context, e Entry) error {
	s.logger.InfoContext(ctx, "command audited",
		"request", e.Request,
		"user_id", e.UserID,
		"outcome", e.Outcome,
		"code", e.Code,
		"duration", e.Duration,
	)
	return nil
}

// listClient is the part of the Redis client the sink needs.
type listClient interface {
	RPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	LTrim(ctx context.Context, key string, start, stop int64) *redis.StatusCmd
	LRange(ctx context.Context, key string, start, stop int64) *redis.StringSliceCmd
}

// RedisSink appends entries as JSON to a capped Redis list.
type RedisSink struct {
	client     listClient
	key        string
	maxEntries int64
}

// RedisConfig configures the Redis sink / Configuration du sink Redis
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisClient opens the Redis client used by the sink.
func NewRedisClient(cfg RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// NewRedisSink creates a sink over client. MaxEntries <= 0 keeps every entry.
func NewRedisSink(client listClient, key string, maxEntries int64) *RedisSink {
	if key == "" {
		key = "lyrida:audit"
	}
	return &RedisSink{client: client, key: key, maxEntries: maxEntries}
}

func (s *RedisSink) Name() string { return "redis" }

func (s *RedisSink) Write(ctx context.Context, e Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode audit entry: %w", err)
	}
	if err := s.client.RPush(ctx, s.key, data).Err(); err != nil {
		return fmt.Errorf("push audit entry: %w", err)
	}
	if s.maxEntries > 0 {
		if err := s.client.LTrim(ctx, s.key, -s.maxEntries, -1).Err(); err != nil {
			return fmt.Errorf("trim audit list: %w", err)
		}
	}
	return nil
}

// Recent returns up to n of the latest entries, oldest first.
func (s *RedisSink) Recent(ctx context.Context, n int64) ([]Entry, error) {
	if n <= 0 {
		return nil, nil
	}
	raw, err := s.client.LRange(ctx, s.key, -n, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read audit list: %w", err)
	}
	out := make([]Entry, 0, len(raw))
	for _, r := range raw {
		var e Entry
		if err := json.Unmarshal([]byte(r), &e); err != nil {
			return nil, fmt.Errorf("decode audit entry: %w", err)
		}
		out = append(out, e)
	}
	return out, nil
}
