// Package history records recent search activity off the request path.
// Events flow through a bounded queue into an in-memory ring so a slow
// or full recorder can never stall a search.
package history

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fikralabs/hadisd/internal/logging"
)

// Event is one completed search.
type Event struct {
	Time     time.Time     `json:"time"`
	Query    string        `json:"query"`
	Hits     int           `json:"hits"`
	Degraded bool          `json:"degraded,omitempty"`
	CacheHit bool          `json:"cache_hit,omitempty"`
	Elapsed  time.Duration `json:"elapsed"`
}

// Config configures the recorder.
type Config struct {
	// QueueSize bounds the pending event queue. Events beyond it are
	// dropped with a warning.
	QueueSize int

	// RingSize is how many recent events are retained.
	RingSize int
}

func (c *Config) applyDefaults() {
	if c.QueueSize <= 0 {
		c.QueueSize = 256
	}
	if c.RingSize <= 0 {
		c.RingSize = 1024
	}
}

// Recorder consumes search events on a background goroutine.
type Recorder struct {
	config Config
	logger *logging.Logger

	queue chan Event

	mu      sync.RWMutex
	ring    []Event
	next    int
	total   int
	dropped int
	running bool

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewRecorder creates a recorder.
func NewRecorder(config Config, logger *logging.Logger) *Recorder {
	if logger == nil {
		logger = logging.NewNop()
	}
	config.applyDefaults()

	return &Recorder{
		config: config,
		logger: logger,
		queue:  make(chan Event, config.QueueSize),
		ring:   make([]Event, 0, config.RingSize),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Start begins consuming events. Returns immediately.
func (r *Recorder) Start(ctx context.Context) {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return
	}
	r.running = true
	r.mu.Unlock()

	r.logger.Info(ctx, "starting search history recorder",
		zap.Int("queue_size", r.config.QueueSize),
		zap.Int("ring_size", r.config.RingSize),
	)
	go r.run(ctx)
}

// Stop drains the queue and waits for the worker to finish.
func (r *Recorder) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()

	close(r.stopCh)
	<-r.doneCh

	r.mu.Lock()
	r.running = false
	r.mu.Unlock()
}

// Record enqueues an event without blocking. A full queue drops the
// event.
func (r *Recorder) Record(event Event) {
	select {
	case r.queue <- event:
	default:
		r.mu.Lock()
		r.dropped++
		dropped := r.dropped
		r.mu.Unlock()

		r.logger.Warn(context.Background(), "history queue full, dropping event",
			zap.String("query", event.Query),
			zap.Int("dropped_total", dropped),
		)
	}
}

// Recent returns up to n events, newest first.
func (r *Recorder) Recent(n int) []Event {
	r.mu.RLock()
	defer r.mu.RUnlock()

	size := len(r.ring)
	if n <= 0 || n > size {
		n = size
	}

	out := make([]Event, 0, n)
	for i := 0; i < n; i++ {
		// next-1 is the newest slot once the ring has wrapped.
		idx := (r.next - 1 - i + size) % size
		out = append(out, r.ring[idx])
	}
	return out
}

// Stats reports recorder counters.
func (r *Recorder) Stats() (total, dropped int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.total, r.dropped
}

func (r *Recorder) run(ctx context.Context) {
	defer close(r.doneCh)

	for {
		select {
		case event := <-r.queue:
			r.append(event)
		case <-ctx.Done():
			r.drain()
			return
		case <-r.stopCh:
			r.drain()
			return
		}
	}
}

// drain consumes whatever is already queued before shutdown.
func (r *Recorder) drain() {
	for {
		select {
		case event := <-r.queue:
			r.append(event)
		default:
			return
		}
	}
}

func (r *Recorder) append(event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.ring) < r.config.RingSize {
		r.ring = append(r.ring, event)
		r.next = len(r.ring) % r.config.RingSize
	} else {
		r.ring[r.next] = event
		r.next = (r.next + 1) % r.config.RingSize
	}
	r.total++
}
