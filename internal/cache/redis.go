package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pinroom/internal/domain/repositories"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("pinroom-cache")

// RedisPinCache keeps verified PINs in Redis under room_pin:<session>:<room key>
type RedisPinCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisPinCache connects to Redis and pings it
func NewRedisPinCache(ctx context.Context, addr, password string, db int, ttl time.Duration) (*RedisPinCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return &RedisPinCache{client: client, ttl: ttl}, nil
}

var _ repositories.PinCache = (*RedisPinCache)(nil)

// Close closes the Redis connection
func (c *RedisPinCache) Close() error {
	return c.client.Close()
}

func pinKey(sessionID, roomKey string) string {
	return fmt.Sprintf("room_pin:%s:%s", sessionID, roomKey)
}

func (c *RedisPinCache) Get(ctx context.Context, sessionID, roomKey string) (string, bool, error) {
	ctx, span := tracer.Start(ctx, "redis.get_room_pin",
		trace.WithAttributes(
			attribute.String("room_key", roomKey),
		),
	)
	defer span.End()

	pin, err := c.client.Get(ctx, pinKey(sessionID, roomKey)).Result()
	if errors.Is(err, redis.Nil) {
		span.SetAttributes(attribute.String("cache_status", "miss"))
		return "", false, nil
	} else if err != nil {
		span.RecordError(err)
		return "", false, fmt.Errorf("failed to get from cache: %w", err)
	}

	span.SetAttributes(attribute.String("cache_status", "hit"))
	return pin, true, nil
}

func (c *RedisPinCache) Set(ctx context.Context, sessionID, roomKey, pin string) error {
	ctx, span := tracer.Start(ctx, "redis.set_room_pin",
		trace.WithAttributes(
			attribute.String("room_key", roomKey),
			attribute.Int64("ttl_seconds", int64(c.ttl.Seconds())),
		),
	)
	defer span.End()

	if err := c.client.Set(ctx, pinKey(sessionID, roomKey), pin, c.ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to set cache: %w", err)
	}
	return nil
}

func (c *RedisPinCache) Delete(ctx context.Context, sessionID, roomKey string) error {
	ctx, span := tracer.Start(ctx, "redis.delete_room_pin",
		trace.WithAttributes(
			attribute.String("room_key", roomKey),
		),
	)
	defer span.End()

	if err := c.client.Del(ctx, pinKey(sessionID, roomKey)).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to invalidate cache: %w", err)
	}
	return nil
}
