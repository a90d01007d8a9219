package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache provides typed caching utilities
// ⭐ SSOT: 캐시 헬퍼는 여기서만
type Cache struct {
	client *Client
	prefix string
}

// NewCache creates a new cache helper.
// A nil *Cache is valid and behaves like a disabled cache.
func NewCache(client *Client, prefix string) *Cache {
	return &Cache{
		client: client,
		prefix: prefix,
	}
}

func (c *Cache) fullKey(key string) string {
	return fmt.Sprintf("%s:cache:%s", c.prefix, key)
}

// Get retrieves a cached value
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if c == nil || !c.client.Enabled() {
		return false, nil
	}

	data, err := c.client.Redis().Get(ctx, c.fullKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get failed: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("cache unmarshal failed: %w", err)
	}

	return true, nil
}

// Set stores a value in cache with TTL
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if c == nil || !c.client.Enabled() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal failed: %w", err)
	}

	return c.client.Redis().Set(ctx, c.fullKey(key), data, ttl).Err()
}

// Predefined TTLs
const (
	TTLShort  = 1 * time.Minute  // 검색 결과
	TTLMedium = 10 * time.Minute // 뉴스 제목
	TTLLong   = 1 * time.Hour    // 시가총액
	TTLDaily  = 24 * time.Hour   // 일봉, 종목코드
)

// BarsKey identifies a bar series fetched on a given calendar day
func BarsKey(code string, lookbackDays int, interval string, day string) string {
	return fmt.Sprintf("bars:%s:%s:%d:%s", code, interval, lookbackDays, day)
}

// MarketCapKey identifies a resolved market capitalization
func MarketCapKey(code string) string {
	return fmt.Sprintf("marketcap:%s", code)
}

// ResolveKey identifies a name→code resolution result
func ResolveKey(name string) string {
	return fmt.Sprintf("resolve:%s", name)
}
