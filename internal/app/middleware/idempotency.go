package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"time"

	"kavholm/internal/app/commands"
)

// IdempotentCommand must be implemented by commands that want idempotency guarantees.
type IdempotentCommand interface {
	commands.Command
	IdempotencyKey() string
	ResultPrototype() any // should match the handler result type
}

type IdempotencyRecord struct {
	Key        string
	Payload    []byte
	Error      string
	ErrorKind  string
	OccurredAt time.Time
}

type IdempotencyStore interface {
	Get(ctx context.Context, key string) (IdempotencyRecord, bool, error)
	Save(ctx context.Context, rec IdempotencyRecord) error
}

type ResultCodec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, out any) error
}

type JSONResultCodec struct{}

func (JSONResultCodec) Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (JSONResultCodec) Decode(data []byte, out any) error {
	return json.Unmarshal(data, out)
}

var errMissingPrototype = errors.New("middleware: idempotent command requires result prototype")

// Idempotency replays the stored outcome for a repeated command key instead of
// re-executing the handler. Failed outcomes are stored too, so a retry with the
// same key sees the same error. Failures matching one of the known sentinels
// keep their identity across the replay: the stored record remembers which
// sentinel the original error wrapped, and the replayed error wraps it again
// so errors.Is still holds for callers mapping errors to statuses.
func Idempotency(store IdempotencyStore, codec ResultCodec, known ...error) CommandMiddleware {
	if store == nil {
		panic("middleware: idempotency store required")
	}
	if codec == nil {
		codec = JSONResultCodec{}
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			idCmd, ok := cmd.(IdempotentCommand)
			if !ok {
				return nextFn(ctx, cmd)
			}
			key := idCmd.IdempotencyKey()
			if key == "" {
				return nextFn(ctx, cmd)
			}
			rec, found, err := store.Get(ctx, key)
			if err != nil {
				return nil, err
			}
			if found {
				if rec.Error != "" {
					return nil, rehydrateError(rec, known)
				}
				proto := idCmd.ResultPrototype()
				if proto == nil {
					return nil, errMissingPrototype
				}
				if err := codec.Decode(rec.Payload, proto); err != nil {
					return nil, err
				}
				return normalizePrototype(proto), nil
			}
			result, err := nextFn(ctx, cmd)
			record := IdempotencyRecord{
				Key:        key,
				OccurredAt: time.Now().UTC(),
			}
			if err != nil {
				record.Error = err.Error()
				if kind := matchKind(err, known); kind != nil {
					record.ErrorKind = kind.Error()
				}
				if saveErr := store.Save(ctx, record); saveErr != nil {
					return nil, errors.Join(err, saveErr)
				}
				return nil, err
			}
			if result != nil {
				payload, encErr := codec.Encode(result)
				if encErr != nil {
					return nil, encErr
				}
				record.Payload = payload
			}
			if saveErr := store.Save(ctx, record); saveErr != nil {
				return nil, saveErr
			}
			return result, nil
		})
	}
}

func matchKind(err error, known []error) error {
	for _, kind := range known {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// rehydrateError rebuilds a stored failure. When the record carries a kind the
// replayed error wraps the matching sentinel again; otherwise only the text
// survives.
func rehydrateError(rec IdempotencyRecord, known []error) error {
	if rec.ErrorKind != "" {
		for _, kind := range known {
			if kind.Error() != rec.ErrorKind {
				continue
			}
			if rec.Error == rec.ErrorKind {
				return kind
			}
			return replayedError{msg: rec.Error, kind: kind}
		}
	}
	return errors.New(rec.Error)
}

type replayedError struct {
	msg  string
	kind error
}

func (e replayedError) Error() string { return e.msg }

func (e replayedError) Unwrap() error { return e.kind }

func normalizePrototype(proto any) any {
	rv := reflect.ValueOf(proto)
	if rv.Kind() == reflect.Ptr && !rv.IsNil() {
		return rv.Interface()
	}
	return proto
}
