package dedup

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "t1-https://a.example/v", Key("t1", "https://a.example/v"))
}

func TestCache_AddThenContains(t *testing.T) {
	c := New(time.Hour)

	assert.True(t, c.Add("k"))
	assert.False(t, c.Add("k"), "second add inside the window must be rejected")
	assert.True(t, c.Contains("k"))
	assert.False(t, c.Contains("other"))
	assert.Equal(t, 1, c.Len())
}

func TestCache_ExpiryReopensWindow(t *testing.T) {
	c := New(time.Hour)

	now := time.Now()
	c.now = func() time.Time { return now }

	assert.True(t, c.Add("k"))
	assert.False(t, c.Add("k"))

	// Simulate the window elapsing without a sweep having run.
	now = now.Add(time.Hour + time.Second)
	assert.False(t, c.Contains("k"))
	assert.True(t, c.Add("k"), "an expired key must be re-insertable")
}

func TestCache_Remove(t *testing.T) {
	c := New(time.Hour)
	c.Add("k")
	c.Remove("k")
	assert.False(t, c.Contains("k"))
	assert.True(t, c.Add("k"))
}

func TestCache_SweepDropsExpired(t *testing.T) {
	c := New(time.Hour)

	now := time.Now()
	c.now = func() time.Time { return now }

	c.Add("old")
	now = now.Add(2 * time.Hour)
	c.Add("fresh")

	c.sweep()

	c.mu.Lock()
	_, oldPresent := c.entries["old"]
	_, freshPresent := c.entries["fresh"]
	c.mu.Unlock()

	assert.False(t, oldPresent, "sweep must physically remove expired entries")
	assert.True(t, freshPresent)
}

func TestCache_ConcurrentAddSingleWinner(t *testing.T) {
	c := New(time.Hour)

	const goroutines = 32
	var wg sync.WaitGroup
	wins := make(chan bool, goroutines)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if c.Add("contested") {
				wins <- true
			}
		}()
	}
	wg.Wait()
	close(wins)

	assert.Len(t, wins, 1, "exactly one concurrent insert may win")
}
