package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spigell/hh-screener/internal/interview"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultRedisPrefix = "screening:session:"
	// DefaultRetention is how long a session record is kept.
	DefaultRetention = 30 * 24 * time.Hour
)

// RedisClient is the subset of *redis.Client used by Redis.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// Redis stores each session as a JSON document under prefix + session id.
type Redis struct {
	client RedisClient
	prefix string
	ttl    time.Duration
}

// NewRedis wraps a connected client. A zero ttl keeps records forever.
func NewRedis(client RedisClient, prefix string, ttl time.Duration) (*Redis, error) {
	if client == nil {
		return nil, errors.New("redis client cannot be nil")
	}
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &Redis{client: client, prefix: prefix, ttl: ttl}, nil
}

func (r *Redis) key(sessionID string) string {
	return r.prefix + sessionID
}

func (r *Redis) Save(ctx context.Context, rec *interview.Record) error {
	if rec == nil {
		return errors.New("record is required")
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal session %s: %w", rec.SessionID, err)
	}

	if err := r.client.Set(ctx, r.key(rec.SessionID), payload, r.ttl).Err(); err != nil {
		return classify("redis save "+rec.SessionID, err)
	}
	return nil
}

func (r *Redis) Load(ctx context.Context, sessionID string) (*interview.Record, error) {
	raw, err := r.client.Get(ctx, r.key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, classify("redis load "+sessionID, ErrNotFound)
	}
	if err != nil {
		return nil, classify("redis load "+sessionID, err)
	}

	var rec interview.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal session %s: %w", sessionID, err)
	}
	return &rec, nil
}
