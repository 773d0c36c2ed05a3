package cache_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"forum-gate-service/cache"
)

func TestGetBasic(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	cache := cache.New()
	cache.Set("key", []byte("data"), 24*time.Hour)

	data, ok := cache.Get("key")
	require.True(ok)
	require.EqualValues("data", data)

	_, ok = cache.Get("key2")
	require.False(ok)
}

func TestGetExpired(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	cache := cache.New()
	cache.Set("key", []byte("data"), 500*time.Millisecond)

	time.Sleep(1 * time.Second)

	data, ok := cache.Get("key")
	require.False(ok)
	require.Nil(data)
}

func TestSweepKeepsAliveEntries(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	cache := cache.New()
	cache.Set("alive", []byte("data"), 24*time.Hour)
	for i := 0; i < 2048; i++ {
		cache.Set(fmt.Sprintf("key%d", i), nil, time.Nanosecond)
	}

	data, ok := cache.Get("alive")
	require.True(ok)
	require.EqualValues("data", data)
}
