package cache

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemoryCache_GetSet(t *testing.T) {
	c := NewMemoryCache(0, 0)

	_, found := c.Get("missing")
	assert.False(t, found)

	c.Set(Key("digits", "0001234-56.2020.5.02.0001"), "00012345620205020001")
	got, found := c.Get(Key("digits", "0001234-56.2020.5.02.0001"))
	assert.True(t, found)
	assert.Equal(t, "00012345620205020001", got)
	assert.Equal(t, 1, c.Len())
}

func TestMemoryCache_Clear(t *testing.T) {
	c := NewMemoryCache(0, 0)
	c.Set("a", "1")
	c.Set("b", "2")

	c.Clear()

	assert.Equal(t, 0, c.Len())
	_, found := c.Get("a")
	assert.False(t, found)
}

func TestMemoryCache_Concurrent(t *testing.T) {
	c := NewMemoryCache(0, 0)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Set("shared", "value")
				_, _ = c.Get("shared")
			}
		}()
	}
	wg.Wait()

	got, found := c.Get("shared")
	assert.True(t, found)
	assert.Equal(t, "value", got)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "casechain:v1:digits:123", Key("digits", "123"))
	assert.NotEqual(t, Key("digits", "123"), Key("core", "123"))
}
