package cache

import (
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFIFO_EvictionOrder(t *testing.T) {
	t.Run("oldest inserted key goes first", func(t *testing.T) {
		c := NewFIFO[string, int](3)
		c.Put("a", 1)
		c.Put("b", 2)
		c.Put("c", 3)

		// Reading a does not protect it: this is not an LRU.
		_, ok := c.Get("a")
		assert.True(t, ok)

		c.Put("d", 4)

		_, ok = c.Get("a")
		assert.False(t, ok, "a should be evicted as earliest inserted")
		assert.Equal(t, []string{"b", "c", "d"}, c.Keys())
	})

	t.Run("overwrite keeps position", func(t *testing.T) {
		c := NewFIFO[string, int](2)
		c.Put("a", 1)
		c.Put("b", 2)
		c.Put("a", 10)
		c.Put("c", 3)

		_, ok := c.Get("a")
		assert.False(t, ok)
		v, ok := c.Get("b")
		assert.True(t, ok)
		assert.Equal(t, 2, v)
	})
}

func TestFIFO_Bound(t *testing.T) {
	for _, limit := range []int{1, 5, 20} {
		t.Run(fmt.Sprintf("limit %d", limit), func(t *testing.T) {
			c := NewFIFO[int, string](limit)
			for i := 0; i < limit*3; i++ {
				c.Put(i, fmt.Sprint(i))
				assert.LessOrEqual(t, c.Len(), limit)
			}
			assert.Equal(t, limit, c.Len())
			assert.Equal(t, int64(limit*2), c.Stats().Evictions)
		})
	}
}

func TestFIFO_DefaultLimit(t *testing.T) {
	assert.Equal(t, DefaultLimit, NewFIFO[int, int](0).Limit())
	assert.Equal(t, DefaultLimit, NewFIFO[int, int](-4).Limit())
}

func TestFIFO_GetOrCompute(t *testing.T) {
	c := NewFIFO[int, int](4)
	calls := 0
	square := func(n int) func() int {
		return func() int {
			calls++
			return n * n
		}
	}

	assert.Equal(t, 9, c.GetOrCompute(3, square(3)))
	assert.Equal(t, 9, c.GetOrCompute(3, square(3)))
	assert.Equal(t, 1, calls)

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.InDelta(t, 0.5, stats.HitRate, 0.0001)
}

func TestFIFO_NaNKeys(t *testing.T) {
	t.Run("put", func(t *testing.T) {
		c := NewFIFO[float64, int](3)
		c.Put(1, 1)
		for i := range 50 {
			c.Put(math.NaN(), i)
			assert.LessOrEqual(t, c.Len(), 3)
		}
		assert.Equal(t, 1, c.Len())
		assert.Equal(t, []float64{1}, c.Keys())
	})

	t.Run("get or compute", func(t *testing.T) {
		c := NewFIFO[float64, int](3)
		calls := 0
		for range 50 {
			v := c.GetOrCompute(math.NaN(), func() int {
				calls++
				return 7
			})
			assert.Equal(t, 7, v)
		}
		assert.Equal(t, 50, calls)
		assert.Equal(t, 0, c.Len())
	})

	t.Run("struct holding NaN", func(t *testing.T) {
		type key struct{ a, b float64 }
		c := NewFIFO[key, string](2)
		for range 10 {
			c.GetOrCompute(key{a: 1, b: math.NaN()}, func() string { return "x" })
		}
		assert.Equal(t, 0, c.Len())
		assert.Equal(t, len(c.Keys()), c.Len())
	})
}

func TestFIFO_Clear(t *testing.T) {
	c := NewFIFO[string, int](3)
	c.Put("a", 1)
	c.Clear()
	assert.Equal(t, 0, c.Len())
	assert.Empty(t, c.Keys())
}

func TestFIFO_Concurrent(t *testing.T) {
	c := NewFIFO[int, int](16)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				c.GetOrCompute((g*200+i)%40, func() int { return i })
			}
		}(g)
	}
	wg.Wait()
	assert.LessOrEqual(t, c.Len(), 16)
	assert.Equal(t, c.Len(), len(c.Keys()))
}
