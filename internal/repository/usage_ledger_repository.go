package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"genquota-server/internal/domain"

	"github.com/go-redis/redis/v8"
)

// decrementIfPositive never lets the credit balance go below zero.
var decrementIfPositive = redis.NewScript(`
local v = tonumber(redis.call('GET', KEYS[1]) or '0')
if v <= 0 then
  return -1
end
return redis.call('DECR', KEYS[1])
`)

// incrementWithTTL bumps a period counter and sets its expiry the first time.
var incrementWithTTL = redis.NewScript(`
local v = redis.call('INCR', KEYS[1])
if redis.call('TTL', KEYS[1]) < 0 then
  redis.call('EXPIRE', KEYS[1], ARGV[1])
end
return v
`)

// RedisUsageLedger implements domain.UsageLedger on Redis.
type RedisUsageLedger struct {
	client      redis.Cmdable
	subUsageTTL time.Duration
	logger      domain.Logger
}

func NewRedisUsageLedger(client redis.Cmdable, subUsageTTL time.Duration, logger domain.Logger) *RedisUsageLedger {
	return &RedisUsageLedger{
		client:      client,
		subUsageTTL: subUsageTTL,
		logger:      logger,
	}
}

// Read loads all three counters with a single MGET. Missing keys read as zero.
func (r *RedisUsageLedger) Read(ctx context.Context, deviceID, period string) (domain.UsageCounters, error) {
	keys := []string{
		domain.FreeKey(deviceID).String(),
		domain.CreditsKey(deviceID).String(),
		domain.SubscriptionKey(deviceID, period).String(),
	}
	vals, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return domain.UsageCounters{}, storeErr("read counters", err)
	}
	if len(vals) != len(keys) {
		return domain.UsageCounters{}, storeErr("read counters", fmt.Errorf("expected %d values, got %d", len(keys), len(vals)))
	}

	parsed := make([]int64, len(vals))
	for i, v := range vals {
		n, err := parseCounter(v)
		if err != nil {
			return domain.UsageCounters{}, storeErr("parse "+keys[i], err)
		}
		parsed[i] = n
	}
	return domain.UsageCounters{FreeUsed: parsed[0], Credits: parsed[1], SubUsed: parsed[2]}, nil
}

func (r *RedisUsageLedger) Increment(ctx context.Context, key domain.CounterKey, delta int64) (int64, error) {
	n, err := r.client.IncrBy(ctx, key.String(), delta).Result()
	if err != nil {
		return 0, storeErr("increment "+key.String(), err)
	}
	return n, nil
}

func (r *RedisUsageLedger) SetWithExpiry(ctx context.Context, key domain.CounterKey, value int64, ttl time.Duration) error {
	if err := r.client.Set(ctx, key.String(), value, ttl).Err(); err != nil {
		return storeErr("set "+key.String(), err)
	}
	return nil
}

// Charge deducts one generation from exactly the counter that funds tier.
func (r *RedisUsageLedger) Charge(ctx context.Context, deviceID, period string, tier domain.Tier) error {
	switch tier {
	case domain.TierFree:
		_, err := r.Increment(ctx, domain.FreeKey(deviceID), 1)
		return err
	case domain.TierCredits:
		key := domain.CreditsKey(deviceID).String()
		n, err := decrementIfPositive.Run(ctx, r.client, []string{key}).Int64()
		if err != nil {
			return storeErr("decrement "+key, err)
		}
		if n < 0 {
			return domain.ErrInsufficientCredits
		}
		return nil
	case domain.TierSubscription:
		key := domain.SubscriptionKey(deviceID, period).String()
		ttl := int64(r.subUsageTTL / time.Second)
		if err := incrementWithTTL.Run(ctx, r.client, []string{key}, ttl).Err(); err != nil {
			return storeErr("increment "+key, err)
		}
		return nil
	default:
		return fmt.Errorf("unknown tier %q", tier)
	}
}

func (r *RedisUsageLedger) AddCredits(ctx context.Context, deviceID string, credits int64) (int64, error) {
	if credits <= 0 {
		return 0, fmt.Errorf("credits must be positive, got %d", credits)
	}
	return r.Increment(ctx, domain.CreditsKey(deviceID), credits)
}

// ResetSubscriptionUsage zeroes the period counter and lets it expire after the grace window.
func (r *RedisUsageLedger) ResetSubscriptionUsage(ctx context.Context, deviceID, period string) error {
	return r.SetWithExpiry(ctx, domain.SubscriptionKey(deviceID, period), 0, r.subUsageTTL)
}

func parseCounter(v interface{}) (int64, error) {
	switch val := v.(type) {
	case nil:
		return 0, nil
	case string:
		n, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("not an integer: %q", val)
		}
		if n < 0 {
			return 0, fmt.Errorf("negative counter: %d", n)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("unexpected value type %T", v)
	}
}

func storeErr(op string, err error) error {
	if errors.Is(err, domain.ErrStoreUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %s: %v", domain.ErrStoreUnavailable, op, err)
}
