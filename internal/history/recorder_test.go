package history

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func event(query string) Event {
	return Event{Time: time.Now(), Query: query, Hits: 1}
}

func TestRecorderRecordAndRecent(t *testing.T) {
	r := NewRecorder(Config{QueueSize: 8, RingSize: 8}, nil)
	r.Start(context.Background())

	r.Record(event("satu"))
	r.Record(event("dua"))
	r.Record(event("tiga"))

	// Stop drains the queue, making the ring deterministic.
	r.Stop()

	got := r.Recent(0)
	require.Len(t, got, 3)
	assert.Equal(t, "tiga", got[0].Query)
	assert.Equal(t, "dua", got[1].Query)
	assert.Equal(t, "satu", got[2].Query)

	total, dropped := r.Stats()
	assert.Equal(t, 3, total)
	assert.Zero(t, dropped)
}

func TestRecorderDropsWhenQueueFull(t *testing.T) {
	r := NewRecorder(Config{QueueSize: 2, RingSize: 8}, nil)
	// Not started: nothing consumes the queue.

	r.Record(event("a"))
	r.Record(event("b"))
	r.Record(event("c")) // dropped

	_, dropped := r.Stats()
	assert.Equal(t, 1, dropped)
}

func TestRecorderRingWraps(t *testing.T) {
	r := NewRecorder(Config{QueueSize: 8, RingSize: 2}, nil)

	r.append(event("a"))
	r.append(event("b"))
	r.append(event("c"))

	got := r.Recent(0)
	require.Len(t, got, 2)
	assert.Equal(t, "c", got[0].Query)
	assert.Equal(t, "b", got[1].Query)
}

func TestRecorderRecentLimit(t *testing.T) {
	r := NewRecorder(Config{QueueSize: 8, RingSize: 8}, nil)
	for i := 0; i < 5; i++ {
		r.append(event("q"))
	}

	assert.Len(t, r.Recent(2), 2)
	assert.Len(t, r.Recent(100), 5)
}

func TestRecorderStopIdempotent(t *testing.T) {
	r := NewRecorder(Config{}, nil)
	r.Start(context.Background())
	r.Stop()
	r.Stop()
}
