package lookup

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/study-helper/internal/domain"
)

func def(word string) domain.Definition {
	return domain.Definition{Word: word, Definition: "Meaning of " + word + ".", Synonyms: []string{}}
}

func TestCache_GetPut(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	c, err := NewCache(10, time.Minute, clock)
	require.NoError(t, err)

	_, ok := c.Get("flower")
	assert.False(t, ok)

	c.Put("flower", def("flower"))
	e, ok := c.Get("flower")
	require.True(t, ok)
	assert.Equal(t, def("flower"), e.Definition)
	assert.Equal(t, clock.Now(), e.InsertedAt)
}

func TestCache_Expiry(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	c, err := NewCache(10, 5*time.Minute, clock)
	require.NoError(t, err)

	c.Put("flower", def("flower"))

	clock.Advance(5 * time.Minute)
	_, ok := c.Get("flower")
	assert.True(t, ok, "an entry exactly at the TTL is still served")

	clock.Advance(time.Millisecond)
	_, ok = c.Get("flower")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len(), "expired entry is removed on read")
}

func TestCache_EvictsOldestInsertion(t *testing.T) {
	t.Parallel()

	c, err := NewCache(100, time.Hour, clockwork.NewFakeClock())
	require.NoError(t, err)

	for i := range 100 {
		c.Put(fmt.Sprintf("word%03d", i), def("w"))
	}

	// Reads never refresh an entry's position.
	_, ok := c.Get("word000")
	require.True(t, ok)

	c.Put("extra", def("extra"))

	assert.Equal(t, 100, c.Len())
	_, ok = c.Get("word000")
	assert.False(t, ok, "oldest insertion evicted")
	_, ok = c.Get("word001")
	assert.True(t, ok, "exactly one eviction")
	_, ok = c.Get("extra")
	assert.True(t, ok)
}

func TestCache_OverwriteIsFreshInsertion(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	c, err := NewCache(2, time.Minute, clock)
	require.NoError(t, err)

	c.Put("alpha", def("alpha"))
	c.Put("beta", def("beta"))

	clock.Advance(30 * time.Second)
	c.Put("alpha", def("alpha"))
	c.Put("gamma", def("gamma"))

	_, ok := c.Get("beta")
	assert.False(t, ok)

	e, ok := c.Get("alpha")
	require.True(t, ok)
	assert.Equal(t, clock.Now(), e.InsertedAt)
}

func TestCache_ReturnsCopies(t *testing.T) {
	t.Parallel()

	c, err := NewCache(10, time.Minute, clockwork.NewFakeClock())
	require.NoError(t, err)

	d := domain.Definition{Word: "big", Synonyms: []string{"large"}}
	c.Put("big", d)
	d.Synonyms[0] = "mutated"

	e, _ := c.Get("big")
	assert.Equal(t, "large", e.Definition.Synonyms[0])
}

func TestCache_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	c, err := NewCache(50, time.Minute, clockwork.NewRealClock())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 200 {
				w := fmt.Sprintf("w%d", (i*j)%70)
				c.Put(w, def(w))
				c.Get(w)
			}
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, c.Len(), 50)
}

func TestNewCache_Defaults(t *testing.T) {
	t.Parallel()

	c, err := NewCache(0, 0, clockwork.NewFakeClock())
	require.NoError(t, err)
	assert.Equal(t, DefaultCacheTTL, c.ttl)
}
