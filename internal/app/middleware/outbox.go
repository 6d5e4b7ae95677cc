package middleware

import (
	"context"

	"kavholm/internal/app/commands"
	"kavholm/internal/app/outbox"
)

// OutboxFlush hands staged event records to the relay once the command (and
// its transaction, if any) completed successfully. It sits outside the
// transaction middleware so a failed commit never publishes; records staged by
// a failed command are discarded to keep them out of the next flush.
func OutboxFlush(box outbox.Outbox) CommandMiddleware {
	if box == nil {
		panic("middleware: outbox required")
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			res, err := nextFn(ctx, cmd)
			if err != nil {
				_ = box.Discard(ctx)
				return nil, err
			}
			if err := box.Flush(ctx); err != nil {
				return nil, err
			}
			return res, nil
		})
	}
}
