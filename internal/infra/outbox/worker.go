package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrWorkerNotConfigured = errors.New("outbox: worker missing dependencies")

type Producer interface {
	Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error
}

// Worker drains the queue and publishes each event as a CloudEvents envelope.
// Delivery failures go back onto the queue with backoff; the worker itself
// never gives up on a record.
type Worker struct {
	Queue       *Queue
	Producer    Producer
	Interval    time.Duration
	TopicPrefix string
	Source      string
	Backoff     []time.Duration
	Logger      *slog.Logger
}

func (w *Worker) Run(ctx context.Context) error {
	if w.Queue == nil || w.Producer == nil {
		return ErrWorkerNotConfigured
	}
	ticker := time.NewTicker(w.interval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.processOnce(ctx)
		}
	}
}

func (w *Worker) processOnce(ctx context.Context) {
	for {
		record, ok := w.Queue.claim(time.Now())
		if !ok {
			return
		}
		payload, headers, err := w.formatPayload(record)
		if err != nil {
			if w.Logger != nil {
				w.Logger.Error("outbox record malformed, dropping", "event", record.Name, "error", err)
			}
			continue
		}
		topic := w.topicFor(record.Name)
		if err := w.Producer.Publish(ctx, topic, record.Aggregate, payload, headers); err != nil {
			if w.Logger != nil {
				w.Logger.Warn("event publish failed", "topic", topic, "event", record.Name, "attempts", record.Attempts, "error", err)
			}
			w.Queue.requeue(record, time.Now().Add(w.nextBackoff(record.Attempts)))
			return
		}
	}
}

func (w *Worker) formatPayload(record queuedRecord) ([]byte, map[string]string, error) {
	data := map[string]any{}
	if err := json.Unmarshal(record.Payload, &data); err != nil {
		return nil, nil, err
	}
	evt := map[string]any{
		"specversion":     "1.0",
		"id":              uuid.NewString(),
		"type":            record.Name + ".v1",
		"source":          w.source(),
		"time":            record.OccurredAt,
		"datacontenttype": "application/json",
		"data":            data,
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return nil, nil, err
	}
	headers := map[string]string{
		"content-type": "application/cloudevents+json",
	}
	for k, v := range record.Headers {
		headers[k] = v
	}
	return payload, headers, nil
}

func (w *Worker) topicFor(name string) string {
	base := name
	if idx := strings.IndexRune(name, '.'); idx > 0 {
		base = name[:idx]
	}
	topic := base + ".events.v1"
	if w.TopicPrefix != "" {
		topic = w.TopicPrefix + topic
	}
	return topic
}

func (w *Worker) interval() time.Duration {
	if w.Interval <= 0 {
		return 500 * time.Millisecond
	}
	return w.Interval
}

func (w *Worker) nextBackoff(attempts int) time.Duration {
	if attempts < len(w.Backoff) {
		return w.Backoff[attempts]
	}
	if len(w.Backoff) > 0 {
		return w.Backoff[len(w.Backoff)-1]
	}
	return 5 * time.Second
}

func (w *Worker) source() string {
	if w.Source != "" {
		return w.Source
	}
	return "app://kavholm"
}
