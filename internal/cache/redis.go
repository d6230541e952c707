package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/travelbooking/config"
	"github.com/Domenick1991/travelbooking/internal/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseLockScript deletes the lock only while it still carries the
// caller's token, so an expired holder cannot free a newer holder's lock.
var releaseLockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisCache struct {
	client          *redis.Client
	destinationsTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, destinationsTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:          redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		destinationsTTL: destinationsTTL,
	}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// GetDestinations returns nil without error on a cache miss.
func (c *RedisCache) GetDestinations(ctx context.Context) ([]domain.Destination, error) {
	var destinations []domain.Destination
	ok, err := c.getJSON(ctx, destinationsKey(), &destinations)
	if err != nil || !ok {
		return nil, err
	}
	return destinations, nil
}

func (c *RedisCache) SetDestinations(ctx context.Context, destinations []domain.Destination) error {
	return c.setJSON(ctx, destinationsKey(), destinations)
}

// GetDestination returns nil without error on a cache miss.
func (c *RedisCache) GetDestination(ctx context.Context, id int64) (*domain.Destination, error) {
	var d domain.Destination
	ok, err := c.getJSON(ctx, destinationKey(id), &d)
	if err != nil || !ok {
		return nil, err
	}
	return &d, nil
}

func (c *RedisCache) SetDestination(ctx context.Context, d *domain.Destination) error {
	return c.setJSON(ctx, destinationKey(d.ID), d)
}

// AcquireBookingLock marks a trip as being booked and returns the owner
// token needed to release it. It reports false if another request holds the
// lock; the lock expires after ttl regardless.
func (c *RedisCache) AcquireBookingLock(ctx context.Context, key domain.TripKey, ttl time.Duration) (string, bool, error) {
	token := uuid.NewString()
	ok, err := c.client.SetNX(ctx, bookingLockKey(key), token, ttl).Result()
	if err != nil || !ok {
		return "", false, err
	}
	return token, true, nil
}

// ReleaseBookingLock is a no-op when the lock has expired or was taken over.
func (c *RedisCache) ReleaseBookingLock(ctx context.Context, key domain.TripKey, token string) error {
	return releaseLockScript.Run(ctx, c.client, []string{bookingLockKey(key)}, token).Err()
}

func (c *RedisCache) getJSON(ctx context.Context, key string, dst any) (bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (c *RedisCache) setJSON(ctx context.Context, key string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, payload, c.destinationsTTL).Err()
}

func destinationsKey() string {
	return "cache:destinations"
}

func destinationKey(id int64) string {
	return fmt.Sprintf("cache:destination:%d", id)
}

func bookingLockKey(key domain.TripKey) string {
	return "lock:booking:" + key.String()
}
