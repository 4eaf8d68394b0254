package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRUCache_AddAndGet(t *testing.T) {
	c := NewLRUCache(4, time.Minute)

	c.Add("vod-123", "https://example.com/media.m3u8")

	value, ok := c.Get("vod-123")
	require.True(t, ok)
	assert.Equal(t, "https://example.com/media.m3u8", value)
}

func TestLRUCache_MissingKey(t *testing.T) {
	c := NewLRUCache(4, time.Minute)

	_, ok := c.Get("missing")
	assert.False(t, ok)
}

func TestLRUCache_Expiry(t *testing.T) {
	c := NewLRUCache(4, 10*time.Millisecond)

	c.Add("vod-123", "https://example.com/media.m3u8")
	time.Sleep(20 * time.Millisecond)

	_, ok := c.Get("vod-123")
	assert.False(t, ok, "entry should have expired")
	assert.Equal(t, 0, c.Len())
}

func TestLRUCache_EvictsOldestOverCapacity(t *testing.T) {
	c := NewLRUCache(2, time.Minute)

	c.Add("a", "1")
	c.Add("b", "2")
	c.Add("c", "3") // evicts "a"

	_, ok := c.Get("a")
	assert.False(t, ok)

	_, ok = c.Get("b")
	assert.True(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
}

func TestLRUCache_GetRefreshesRecency(t *testing.T) {
	c := NewLRUCache(2, time.Minute)

	c.Add("a", "1")
	c.Add("b", "2")
	c.Get("a")     // "a" is now most recently used
	c.Add("c", "3") // should evict "b", not "a"

	_, ok := c.Get("b")
	assert.False(t, ok)
	_, ok = c.Get("a")
	assert.True(t, ok)
}

func TestLRUCache_Remove(t *testing.T) {
	c := NewLRUCache(4, time.Minute)

	c.Add("a", "1")
	assert.True(t, c.Remove("a"))
	assert.False(t, c.Remove("a"))

	_, ok := c.Get("a")
	assert.False(t, ok)
}

func TestLRUCache_Clear(t *testing.T) {
	c := NewLRUCache(4, time.Minute)
	c.Add("a", "1")
	c.Add("b", "2")

	c.Clear()

	assert.Equal(t, 0, c.Len())
}

func TestLRUCache_CleanupExpired(t *testing.T) {
	c := NewLRUCache(4, 10*time.Millisecond)
	c.Add("a", "1")
	c.Add("b", "2")
	time.Sleep(20 * time.Millisecond)

	removed := c.CleanupExpired()
	assert.Equal(t, 2, removed)
	assert.Equal(t, 0, c.Len())
}

func TestLRUCache_Stats(t *testing.T) {
	c := NewLRUCache(4, time.Minute)
	c.Add("a", "1")

	c.Get("a")
	c.Get("missing")

	hits, misses, size := c.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
	assert.Equal(t, 1, size)
}

func TestLRUCache_ConcurrentAccess(t *testing.T) {
	c := NewLRUCache(100, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("key-%d", i%10)
			c.Add(key, "value")
			c.Get(key)
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, c.Len(), 100)
}
