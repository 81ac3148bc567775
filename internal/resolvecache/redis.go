package resolvecache

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
)

const keyPrefix = "resolve:"

// negativeSentinel marks "no live tenant for this domain" in redis. Slugs are
// never empty and never start with "!", so the value space cannot collide.
const negativeSentinel = "!none"

// Redis backs the resolution cache with a shared redis instance so multiple
// app processes agree on what a domain maps to. Same contract as Memory;
// redis errors degrade to cache misses instead of failing the request.
type Redis struct {
	client *redis.Client
}

// NewRedis creates a redis-backed resolution cache on an initialized client.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

// DialRedis connects to redis and returns a resolution cache on top of it.
// The connection is verified before the cache is handed out.
func DialRedis(addr, password string, db int) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Println("✓ Resolution cache connected to redis")
	return NewRedis(client), nil
}

// Close releases the underlying redis connection.
func (r *Redis) Close() error {
	return r.client.Close()
}

// Get returns the cached resolution for domain. TTL expiry is handled by
// redis itself.
func (r *Redis) Get(domain string) (string, bool, bool) {
	val, err := r.client.Get(context.Background(), keyPrefix+domain).Result()
	if err == redis.Nil {
		return "", false, false
	}
	if err != nil {
		log.Printf("[ResolveCache] redis get failed for %s: %v", domain, err)
		return "", false, false
	}
	if val == negativeSentinel {
		return "", true, true
	}
	return val, false, true
}

// Set stores a positive resolution for domain.
func (r *Redis) Set(domain, slug string, ttl time.Duration) {
	if err := r.client.Set(context.Background(), keyPrefix+domain, slug, ttl).Err(); err != nil {
		log.Printf("[ResolveCache] redis set failed for %s: %v", domain, err)
	}
}

// SetNegative stores a negative resolution for domain.
func (r *Redis) SetNegative(domain string, ttl time.Duration) {
	if err := r.client.Set(context.Background(), keyPrefix+domain, negativeSentinel, ttl).Err(); err != nil {
		log.Printf("[ResolveCache] redis set failed for %s: %v", domain, err)
	}
}

// Invalidate drops the entry for domain, if any.
func (r *Redis) Invalidate(domain string) {
	if err := r.client.Del(context.Background(), keyPrefix+domain).Err(); err != nil {
		log.Printf("[ResolveCache] redis del failed for %s: %v", domain, err)
	}
}
