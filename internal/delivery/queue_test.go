package delivery

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/safeline/internal/model"
)

func TestQueue_FIFO(t *testing.T) {
	q := newQueue()
	for _, id := range []string{"A", "B", "C"} {
		require.True(t, q.Enqueue(model.Notification{ID: id}))
	}
	assert.Equal(t, 3, q.Len())

	for _, want := range []string{"A", "B", "C"} {
		got, ok := q.TryDequeue()
		require.True(t, ok)
		assert.Equal(t, want, got.ID)
	}
	_, ok := q.TryDequeue()
	assert.False(t, ok, "dequeue from empty queue should return false")
}

func TestQueue_SignalCoalesces(t *testing.T) {
	q := newQueue()
	q.Enqueue(model.Notification{ID: "A"})
	q.Enqueue(model.Notification{ID: "B"})

	select {
	case <-q.Wait():
	default:
		t.Fatal("expected a pending signal")
	}
	select {
	case <-q.Wait():
		t.Fatal("signals should coalesce")
	default:
	}
}

func TestQueue_Close(t *testing.T) {
	q := newQueue()
	q.Enqueue(model.Notification{ID: "A"})
	q.Close()
	q.Close()

	assert.False(t, q.Enqueue(model.Notification{ID: "B"}), "enqueue after close should fail")

	got, ok := q.TryDequeue()
	require.True(t, ok, "items queued before close are kept")
	assert.Equal(t, "A", got.ID)

	// A signal buffered before Close is still delivered; the channel then
	// reports closed.
	deadline := time.After(time.Second)
	for {
		select {
		case _, open := <-q.Wait():
			if !open {
				return
			}
		case <-deadline:
			t.Fatal("signal channel should be closed")
		}
	}
}
