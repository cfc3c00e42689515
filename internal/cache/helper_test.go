package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type profile struct {
	Name  string `json:"name"`
	Meals int    `json:"meals"`
}

func setupRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { SetClient(nil) })
	return mr
}

func TestAsideFetchesOnceThenServesFromCache(t *testing.T) {
	mr := setupRedis(t)
	ctx := context.Background()
	key := PartnerProfileKey(4)

	calls := 0
	fetch := func(dest *profile) func() error {
		return func() error {
			calls++
			*dest = profile{Name: "Donut Hut", Meals: 3}
			return nil
		}
	}

	var first profile
	require.NoError(t, Aside(ctx, key, &first, PartnerProfileTTL, fetch(&first)))
	var second profile
	require.NoError(t, Aside(ctx, key, &second, PartnerProfileTTL, fetch(&second)))

	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)
	assert.True(t, mr.Exists(key))
	assert.Equal(t, PartnerProfileTTL, mr.TTL(key))
}

func TestAsidePropagatesFetchError(t *testing.T) {
	mr := setupRedis(t)

	var dest profile
	err := Aside(context.Background(), "k", &dest, PartnerProfileTTL, func() error { return errors.New("db down") })

	assert.EqualError(t, err, "db down")
	assert.False(t, mr.Exists("k"))
}

func TestAsideWithoutRedis(t *testing.T) {
	SetClient(nil)

	var dest profile
	err := Aside(context.Background(), "k", &dest, PartnerProfileTTL, func() error {
		dest.Name = "direct"
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, "direct", dest.Name)
}

func TestInvalidate(t *testing.T) {
	mr := setupRedis(t)
	require.NoError(t, mr.Set(PartnerProfileKey(1), "{}"))

	Invalidate(context.Background(), PartnerProfileKey(1))

	assert.False(t, mr.Exists(PartnerProfileKey(1)))
	assert.Equal(t, "food_partner:1:profile", PartnerProfileKey(1))
}

func TestInitRedisUnreachableLeavesNilClient(t *testing.T) {
	InitRedis("redis://127.0.0.1:1/0")
	assert.Nil(t, GetClient())
}
