package repository

import (
	"context"
	"time"

	"genquota-server/internal/domain"

	"github.com/go-redis/redis/v8"
)

// LockKey is the in-flight marker for a device.
func LockKey(deviceID string) string {
	return "lock:" + deviceID
}

// RedisConcurrencyGate implements domain.ConcurrencyGate with SET NX EX.
type RedisConcurrencyGate struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedisConcurrencyGate(client redis.Cmdable, ttl time.Duration) *RedisConcurrencyGate {
	return &RedisConcurrencyGate{client: client, ttl: ttl}
}

// Acquire returns false when another generation for the device holds the lock.
// The TTL bounds how long a crashed holder can block the device.
func (g *RedisConcurrencyGate) Acquire(ctx context.Context, deviceID string) (bool, error) {
	ok, err := g.client.SetNX(ctx, LockKey(deviceID), "1", g.ttl).Result()
	if err != nil {
		return false, storeErr("acquire lock", err)
	}
	return ok, nil
}

// Release deletes the lock unconditionally.
func (g *RedisConcurrencyGate) Release(ctx context.Context, deviceID string) error {
	if err := g.client.Del(ctx, LockKey(deviceID)).Err(); err != nil {
		return storeErr("release lock", err)
	}
	return nil
}

// RedisEventDeduplicator implements domain.EventDeduplicator.
type RedisEventDeduplicator struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedisEventDeduplicator(client redis.Cmdable, ttl time.Duration) *RedisEventDeduplicator {
	return &RedisEventDeduplicator{client: client, ttl: ttl}
}

func webhookEventKey(eventID string) string {
	return "webhook_event:" + eventID
}

func (d *RedisEventDeduplicator) Claim(ctx context.Context, eventID string) (bool, error) {
	ok, err := d.client.SetNX(ctx, webhookEventKey(eventID), time.Now().UTC().Format(time.RFC3339), d.ttl).Result()
	if err != nil {
		return false, storeErr("claim webhook event", err)
	}
	return ok, nil
}

func (d *RedisEventDeduplicator) Forget(ctx context.Context, eventID string) error {
	if err := d.client.Del(ctx, webhookEventKey(eventID)).Err(); err != nil {
		return storeErr("forget webhook event", err)
	}
	return nil
}

var (
	_ domain.UsageLedger       = (*RedisUsageLedger)(nil)
	_ domain.ConcurrencyGate   = (*RedisConcurrencyGate)(nil)
	_ domain.EventDeduplicator = (*RedisEventDeduplicator)(nil)
)
