package memory

import (
	"context"
	"sync"

	appoutbox "kavholm/internal/app/outbox"
)

// Sink receives flushed event records, typically the relay queue that feeds Kafka.
type Sink interface {
	Enqueue(ctx context.Context, records []appoutbox.EventRecord) error
}

// Outbox buffers event records until Flush hands them to the sink. With a nil
// sink flushed records are discarded, which is enough for tests.
type Outbox struct {
	mu      sync.Mutex
	records []appoutbox.EventRecord
	sink    Sink
}

func NewOutbox(sink Sink) *Outbox {
	return &Outbox{sink: sink}
}

func (o *Outbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.records = append(o.records, record)
	return nil
}

func (o *Outbox) Flush(ctx context.Context) error {
	o.mu.Lock()
	records := o.records
	o.records = nil
	o.mu.Unlock()
	if o.sink == nil || len(records) == 0 {
		return nil
	}
	return o.sink.Enqueue(ctx, records)
}

// Discard drops buffered records without handing them to the sink.
func (o *Outbox) Discard(ctx context.Context) error {
	o.mu.Lock()
	o.records = nil
	o.mu.Unlock()
	return nil
}

var _ appoutbox.Outbox = (*Outbox)(nil)
