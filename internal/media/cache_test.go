package media

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoundedCachePutGet(t *testing.T) {
	c := newBoundedCache(10)
	now := time.Now()

	c.put("a", "url-a", now, now.Add(time.Hour))

	e, ok := c.get("a")
	require.True(t, ok)
	assert.Equal(t, "url-a", e.value)
	assert.Equal(t, now, e.cachedAt)

	_, ok = c.get("missing")
	assert.False(t, ok)
}

func TestBoundedCacheNeverExceedsBound(t *testing.T) {
	c := newBoundedCache(5)
	now := time.Now()

	for i := 0; i < 50; i++ {
		c.put(fmt.Sprintf("k%d", i), "v", now.Add(time.Duration(i)*time.Second), now.Add(time.Hour))
		assert.LessOrEqual(t, c.len(), 5)
	}
}

func TestBoundedCacheEvictsExpiredFirst(t *testing.T) {
	c := newBoundedCache(3)
	now := time.Now()

	// "old" is expired but has the newest cachedAt; eviction must still
	// drop it before touching any live entry.
	c.put("live1", "v", now.Add(-2*time.Hour), now.Add(time.Hour))
	c.put("live2", "v", now.Add(-1*time.Hour), now.Add(time.Hour))
	c.put("old", "v", now, now.Add(-time.Minute))

	c.put("live3", "v", now, now.Add(time.Hour))

	_, ok := c.get("old")
	assert.False(t, ok)
	for _, key := range []string{"live1", "live2", "live3"} {
		_, ok := c.get(key)
		assert.True(t, ok, "expected %q to survive", key)
	}
}

func TestBoundedCacheEvictsOldestWhenNothingExpired(t *testing.T) {
	c := newBoundedCache(3)
	now := time.Now()

	c.put("oldest", "v", now.Add(-3*time.Minute), now.Add(time.Hour))
	c.put("middle", "v", now.Add(-2*time.Minute), now.Add(time.Hour))
	c.put("newer", "v", now.Add(-time.Minute), now.Add(time.Hour))
	c.put("newest", "v", now, now.Add(time.Hour))

	_, ok := c.get("oldest")
	assert.False(t, ok)
	for _, key := range []string{"middle", "newer", "newest"} {
		_, ok := c.get(key)
		assert.True(t, ok, "expected %q to survive", key)
	}
}

func TestBoundedCacheOverwriteDoesNotGrow(t *testing.T) {
	c := newBoundedCache(3)
	now := time.Now()

	for i := 0; i < 10; i++ {
		c.put("same", fmt.Sprintf("v%d", i), now, now.Add(time.Hour))
	}
	assert.Equal(t, 1, c.len())

	e, ok := c.get("same")
	require.True(t, ok)
	assert.Equal(t, "v9", e.value)
}

func TestBoundedCacheDefaultsCapacity(t *testing.T) {
	c := newBoundedCache(0)
	assert.Equal(t, 10000, c.maxEntries)
}
