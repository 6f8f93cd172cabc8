// Package cache stores rendered storefront responses keyed by catalog version.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"catalog_service/internal/catalog"
	"catalog_service/internal/domain"
	"catalog_service/internal/tagging"

	"github.com/cespare/xxhash/v2"
	"github.com/redis/go-redis/v9"
)

const versionKey = "catalog:version"

// Cache is a versioned response cache. Bumping the version makes every
// previously written key unreachable.
type Cache interface {
	Get(ctx context.Context, key string, dst interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}) error
	Version(ctx context.Context) (int64, error)
	Bump(ctx context.Context) (int64, error)
}

// Noop is used when no Redis URL is configured.
type Noop struct{}

func (Noop) Get(context.Context, string, interface{}) (bool, error) { return false, nil }
func (Noop) Set(context.Context, string, interface{}) error         { return nil }
func (Noop) Version(context.Context) (int64, error)                 { return 0, nil }
func (Noop) Bump(context.Context) (int64, error)                    { return 0, nil }

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedis(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

// Connect parses a redis:// URL and pings the server.
func Connect(ctx context.Context, url string, ttl time.Duration) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("could not connect to redis: %w", err)
	}
	return NewRedis(client, ttl), nil
}

func (c *RedisCache) Get(ctx context.Context, key string, dst interface{}) (bool, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}
	if err := json.Unmarshal(val, dst); err != nil {
		return false, fmt.Errorf("cache decode %s: %w", key, err)
	}
	return true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}) error {
	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	return c.client.Set(ctx, key, b, c.ttl).Err()
}

func (c *RedisCache) Version(ctx context.Context) (int64, error) {
	v, err := c.client.Get(ctx, versionKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

func (c *RedisCache) Bump(ctx context.Context) (int64, error) {
	return c.client.Incr(ctx, versionKey).Result()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Key builds the cache key of a storefront read. Selections that differ only
// in value order, case or accents share a key.
func Key(version int64, scope string, sel domain.Selection) string {
	h := xxhash.New()
	h.WriteString(scope)
	h.WriteString("\x00")
	h.Write(canonical(sel))
	return "catalog:v" + strconv.FormatInt(version, 10) + ":" + strconv.FormatUint(h.Sum64(), 16)
}

func canonical(sel domain.Selection) []byte {
	c := struct {
		Brands    []string            `json:"b,omitempty"`
		Materials []string            `json:"m,omitempty"`
		Lengths   []string            `json:"l,omitempty"`
		Diameters []string            `json:"d,omitempty"`
		Tags      map[string][]string `json:"t,omitempty"`
		Category  string              `json:"c,omitempty"`
		Query     string              `json:"q,omitempty"`
		PriceMin  float64             `json:"pmin,omitempty"`
		PriceMax  float64             `json:"pmax,omitempty"`
		InStock   bool                `json:"s,omitempty"`
		Sort      string              `json:"o,omitempty"`
		Page      int                 `json:"p,omitempty"`
		PageSize  int                 `json:"ps,omitempty"`
	}{
		Brands:    catalog.FoldValues(sel.Brands),
		Materials: catalog.FoldValues(sel.Materials, sel.Tags[domain.TagMaterial]),
		Lengths:   catalog.FoldValues(sel.Lengths),
		Diameters: catalog.FoldValues(sel.Diameters),
		Category:  tagging.Fold(sel.Category),
		Query:     tagging.Normalize(sel.Query),
		PriceMin:  sel.PriceMin,
		PriceMax:  sel.PriceMax,
		InStock:   sel.InStockOnly,
		Sort:      sel.Sort,
		Page:      sel.Page,
		PageSize:  sel.PageSize,
	}
	for t, values := range sel.Tags {
		if t == domain.TagMaterial {
			continue
		}
		if f := catalog.FoldValues(values); len(f) > 0 {
			if c.Tags == nil {
				c.Tags = make(map[string][]string)
			}
			c.Tags[string(t)] = f
		}
	}
	// encoding/json writes map keys sorted
	b, _ := json.Marshal(c)
	return b
}
