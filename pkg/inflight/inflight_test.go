package inflight

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTryAcquireRelease(t *testing.T) {
	s := NewSet()

	require.True(t, s.TryAcquire("https://example.com/video/1"))
	assert.False(t, s.TryAcquire("https://example.com/video/1"))
	assert.True(t, s.TryAcquire("https://example.com/video/2"))

	s.Release("https://example.com/video/1")
	assert.True(t, s.TryAcquire("https://example.com/video/1"))

	assert.Equal(t, 2, s.Len())
}

func TestReleaseUnknownKey(t *testing.T) {
	s := NewSet()

	// Must be a no-op, deferred releases run on every exit path.
	s.Release("never-acquired")
	assert.Equal(t, 0, s.Len())
}

func TestConcurrentAcquireSameKey(t *testing.T) {
	s := NewSet()

	const goroutines = 64
	var acquired int64

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			if s.TryAcquire("https://example.com/video/1") {
				atomic.AddInt64(&acquired, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), acquired, "exactly one goroutine should win admission")
	assert.True(t, s.Contains("https://example.com/video/1"))
}

func TestConcurrentDistinctKeys(t *testing.T) {
	s := NewSet()

	urls := []string{"a", "b", "c", "d", "e"}

	var wg sync.WaitGroup
	wg.Add(len(urls))
	for _, u := range urls {
		go func(u string) {
			defer wg.Done()
			assert.True(t, s.TryAcquire(u))
			s.Release(u)
		}(u)
	}
	wg.Wait()

	assert.Equal(t, 0, s.Len(), "no keys should leak after release")
}
