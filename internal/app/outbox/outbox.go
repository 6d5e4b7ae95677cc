package outbox

import (
	"context"
	"encoding/json"
	"time"

	"kavholm/internal/domain/shared/events"
)

// EventRecord is a serialized domain event staged for publication.
type EventRecord struct {
	Name       string
	Aggregate  string
	Payload    []byte
	Headers    map[string]string
	OccurredAt time.Time
}

// Outbox buffers event records inside the current unit of work. Flush is
// called by bus middleware after a successful commit and hands the records to
// the relay; a failed command is discarded so its records never reach the
// relay through a later flush.
type Outbox interface {
	Add(ctx context.Context, record EventRecord) error
	Flush(ctx context.Context) error
	Discard(ctx context.Context) error
}

// EventEncoder turns a domain event into a payload.
type EventEncoder interface {
	Encode(event events.DomainEvent) ([]byte, error)
}

type JSONEventEncoder struct{}

func (JSONEventEncoder) Encode(event events.DomainEvent) ([]byte, error) {
	return json.Marshal(event)
}

// EncodeDomainEvents serializes pending events into records without touching
// the outbox, so handlers can fail fast before any state change.
func EncodeDomainEvents(encoder EventEncoder, pending []events.DomainEvent) ([]EventRecord, error) {
	if len(pending) == 0 {
		return nil, nil
	}
	records := make([]EventRecord, 0, len(pending))
	for _, event := range pending {
		payload, err := encoder.Encode(event)
		if err != nil {
			return nil, err
		}
		records = append(records, EventRecord{
			Name:       event.EventName(),
			Aggregate:  event.AggregateID(),
			Payload:    payload,
			OccurredAt: event.OccurredAt(),
		})
	}
	return records, nil
}

// StageRecords adds already-encoded records to the outbox.
func StageRecords(ctx context.Context, box Outbox, records []EventRecord) error {
	if box == nil || len(records) == 0 {
		return nil
	}
	for _, record := range records {
		if err := box.Add(ctx, record); err != nil {
			return err
		}
	}
	return nil
}
