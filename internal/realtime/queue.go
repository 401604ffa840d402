package realtime

import (
	"sync"
	"time"
)

// queuedMessage is an outbound operation awaiting delivery.
type queuedMessage struct {
	event      string
	payload    any
	enqueuedAt time.Time
	retryCount int
}

// Queue buffers outbound messages while the connection is down. Messages
// are dropped once they exceed the age limit or the retry cap; within one
// sweep drain order is FIFO, but no total order is promised across sweeps.
type Queue struct {
	mu    sync.Mutex
	items []queuedMessage

	maxAge     time.Duration
	maxRetries int
	now        func() time.Time
}

type SweepStats struct {
	Delivered    int
	Requeued     int
	DroppedAge   int
	DroppedRetry int
}

func NewQueue(maxAge time.Duration, maxRetries int) *Queue {
	return &Queue{maxAge: maxAge, maxRetries: maxRetries, now: time.Now}
}

func (q *Queue) Enqueue(event string, payload any) {
	q.mu.Lock()
	q.items = append(q.items, queuedMessage{event: event, payload: payload, enqueuedAt: q.now()})
	q.mu.Unlock()
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *Queue) Clear() {
	q.mu.Lock()
	q.items = nil
	q.mu.Unlock()
}

// Sweep snapshots and clears the queue, then attempts delivery in FIFO
// order. Expired and retry-capped messages are dropped; failed deliveries
// are re-enqueued with an incremented retry count (behind anything appended
// during the sweep).
func (q *Queue) Sweep(deliver func(event string, payload any) error) SweepStats {
	q.mu.Lock()
	batch := q.items
	q.items = nil
	now := q.now()
	q.mu.Unlock()

	var st SweepStats
	for _, m := range batch {
		if now.Sub(m.enqueuedAt) > q.maxAge {
			st.DroppedAge++
			continue
		}
		if m.retryCount >= q.maxRetries {
			st.DroppedRetry++
			continue
		}
		if err := deliver(m.event, m.payload); err != nil {
			m.retryCount++
			q.mu.Lock()
			q.items = append(q.items, m)
			q.mu.Unlock()
			st.Requeued++
			continue
		}
		st.Delivered++
	}
	return st
}
