package cache

import (
	"context"
	"testing"
	"time"

	"catalog_service/internal/catalog"
	"catalog_service/internal/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedis(client, time.Minute), mr
}

func TestRedisCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	var page domain.ProductPage
	ok, err := c.Get(ctx, "k", &page)
	require.NoError(t, err)
	assert.False(t, ok)

	want := domain.ProductPage{Items: []domain.Product{{ID: 1, Name: "Bullet"}}, Total: 1, Page: 1, PageSize: 24}
	require.NoError(t, c.Set(ctx, "k", want))
	assert.Equal(t, time.Minute, mr.TTL("k"))

	ok, err = c.Get(ctx, "k", &page)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, "Bullet", page.Items[0].Name)

	mr.FastForward(2 * time.Minute)
	ok, err = c.Get(ctx, "k", &page)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisCacheVersion(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)

	v, err := c.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), v)

	v, err = c.Bump(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)

	v, err = c.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)
}

func TestRedisCacheDecodeError(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)
	require.NoError(t, mr.Set("bad", "{not json"))

	var page domain.ProductPage
	_, err := c.Get(ctx, "bad", &page)
	assert.Error(t, err)
}

func TestConnect(t *testing.T) {
	mr := miniredis.RunT(t)
	c, err := Connect(context.Background(), "redis://"+mr.Addr(), time.Minute)
	require.NoError(t, err)
	defer c.Close()

	_, err = Connect(context.Background(), "http://nope", time.Minute)
	assert.Error(t, err)
}

func TestKeyIsCanonical(t *testing.T) {
	a := domain.Selection{
		Brands: []string{"Satisfyer", "Lovetoys"},
		Tags:   map[domain.TagType][]string{domain.TagPersona: {"Ela", "iniciante"}},
		Query:  "Vibrador  Rosa",
	}
	b := domain.Selection{
		Brands: []string{"lovetoys", "SATISFYER", "lovetoys"},
		Tags: map[domain.TagType][]string{
			domain.TagPersona: {"iniciante", "ela"},
			domain.TagUso:     {},
		},
		Query: "vibrador rosa",
	}
	assert.Equal(t, Key(3, "browse", a), Key(3, "browse", b))
	assert.NotEqual(t, Key(3, "browse", a), Key(4, "browse", a))
	assert.NotEqual(t, Key(3, "browse", a), Key(3, "category:vibradores", a))

	b.Page = 2
	assert.NotEqual(t, Key(3, "browse", a), Key(3, "browse", b))
	assert.Regexp(t, `^catalog:v3:[0-9a-f]+$`, Key(3, "browse", a))
}

func TestNoop(t *testing.T) {
	ctx := context.Background()
	var c Cache = Noop{}
	require.NoError(t, c.Set(ctx, "k", 1))
	var v int
	ok, err := c.Get(ctx, "k", &v)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestKeyFollowsFilterSemantics(t *testing.T) {
	products := []domain.Product{
		{ID: 1, Name: "Plug", Brand: "Hot"},
		{ID: 2, Name: "Gel", Brand: "Hot Flowers"},
		{ID: 3, Name: "Bullet", Brand: "Flowers"},
	}
	result := func(sel domain.Selection) []int {
		var out []int
		for _, p := range catalog.Filter(products, sel) {
			out = append(out, p.ID)
		}
		return out
	}

	split := domain.Selection{Brands: []string{"hot,flowers"}}
	joined := domain.Selection{Brands: []string{"hot flowers"}}
	require.NotEqual(t, result(split), result(joined))
	assert.NotEqual(t, Key(1, "browse", split), Key(1, "browse", joined))

	listed := domain.Selection{Brands: []string{"Flowers", "HOT"}}
	require.Equal(t, result(split), result(listed))
	assert.Equal(t, Key(1, "browse", split), Key(1, "browse", listed))

	byTag := domain.Selection{Tags: map[domain.TagType][]string{domain.TagMaterial: {"Silicone"}}}
	byMaterial := domain.Selection{Materials: []string{"silicone"}}
	assert.Equal(t, Key(1, "browse", byTag), Key(1, "browse", byMaterial))
}
