package outbox

import (
	"context"
	"sync"
	"time"

	appoutbox "kavholm/internal/app/outbox"
)

// queuedRecord carries relay bookkeeping alongside the event record.
type queuedRecord struct {
	appoutbox.EventRecord
	Attempts  int
	NotBefore time.Time
}

// Queue is the staging area between command flushes and the Kafka relay worker.
type Queue struct {
	mu    sync.Mutex
	items []queuedRecord
}

func NewQueue() *Queue {
	return &Queue{}
}

// Enqueue accepts flushed event records from the application outbox.
func (q *Queue) Enqueue(ctx context.Context, records []appoutbox.EventRecord) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, record := range records {
		q.items = append(q.items, queuedRecord{EventRecord: record})
	}
	return nil
}

// claim pops the first record that is due for delivery.
func (q *Queue) claim(now time.Time) (queuedRecord, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, item := range q.items {
		if item.NotBefore.After(now) {
			continue
		}
		q.items = append(q.items[:i], q.items[i+1:]...)
		return item, true
	}
	return queuedRecord{}, false
}

// requeue puts a failed record back with a delivery delay.
func (q *Queue) requeue(record queuedRecord, notBefore time.Time) {
	q.mu.Lock()
	defer q.mu.Unlock()
	record.Attempts++
	record.NotBefore = notBefore
	q.items = append(q.items, record)
}

// Len reports the number of records waiting for delivery.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
