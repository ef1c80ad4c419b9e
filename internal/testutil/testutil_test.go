package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStepClock_Monotonic(t *testing.T) {
	c := NewStepClock()

	first := c.Now()
	second := c.Now()

	assert.Equal(t, Epoch, first)
	assert.Equal(t, Epoch.Add(time.Second), second)
	assert.Equal(t, second, c.Peek())
}

func TestStepClock_Set(t *testing.T) {
	c := NewStepClock()
	at := time.Date(2030, 5, 1, 0, 0, 0, 0, time.UTC)

	c.Set(at)

	assert.Equal(t, at, c.Now())
	assert.Equal(t, at.Add(time.Second), c.Now())
}

func TestSeqIDs(t *testing.T) {
	g := NewSeqIDs("")
	assert.Equal(t, "id-0001", g.NewID())
	assert.Equal(t, "id-0002", g.NewID())

	u := NewSeqIDs("user")
	assert.Equal(t, "user-0001", u.NewID())
}

func TestSeqIDs_Concurrent(t *testing.T) {
	g := NewSeqIDs("x")
	var wg sync.WaitGroup
	var mu sync.Mutex
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := g.NewID()
			mu.Lock()
			seen[id] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 100)
}
