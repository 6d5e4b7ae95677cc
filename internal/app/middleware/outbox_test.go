package middleware

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kavholm/internal/app/commands"
	appoutbox "kavholm/internal/app/outbox"
	"kavholm/internal/app/uow"
	domainbooking "kavholm/internal/domain/booking"
	domainlistings "kavholm/internal/domain/listings"
)

type bufferOutbox struct {
	staged  []appoutbox.EventRecord
	flushed []appoutbox.EventRecord
}

func (o *bufferOutbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	o.staged = append(o.staged, record)
	return nil
}

func (o *bufferOutbox) Flush(ctx context.Context) error {
	o.flushed = append(o.flushed, o.staged...)
	o.staged = nil
	return nil
}

func (o *bufferOutbox) Discard(ctx context.Context) error {
	o.staged = nil
	return nil
}

type stageCommand struct {
	name string
}

func (stageCommand) Key() string { return "test.stage" }

type fakeUnit struct {
	commitErr error
}

func (fakeUnit) Listings() domainlistings.Catalog   { return nil }
func (fakeUnit) Bookings() domainbooking.Repository { return nil }
func (u fakeUnit) Commit(ctx context.Context) error { return u.commitErr }
func (fakeUnit) Rollback(ctx context.Context) error { return nil }

type fakeFactory struct {
	commitErr error
}

func (f *fakeFactory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	return fakeUnit{commitErr: f.commitErr}, nil
}

func TestOutboxFlush_FailedCommitNeverPublishes(t *testing.T) {
	box := &bufferOutbox{}
	factory := &fakeFactory{commitErr: errors.New("commit failed")}

	bus := commands.NewInMemoryBus()
	commands.RegisterHandler(bus, "test.stage", commands.HandlerFunc[stageCommand, *struct{}](
		func(ctx context.Context, cmd stageCommand) (*struct{}, error) {
			err := box.Add(ctx, appoutbox.EventRecord{Name: cmd.name})
			return nil, err
		}))
	wrapped := ChainCommands(bus, OutboxFlush(box), Transaction(factory, nil))

	_, err := wrapped.Dispatch(context.Background(), stageCommand{name: "first"})
	require.EqualError(t, err, "commit failed")
	assert.Empty(t, box.flushed)
	assert.Empty(t, box.staged)

	// Records staged by the failed command must not ride along with the next one.
	factory.commitErr = nil
	_, err = wrapped.Dispatch(context.Background(), stageCommand{name: "second"})
	require.NoError(t, err)
	require.Len(t, box.flushed, 1)
	assert.Equal(t, "second", box.flushed[0].Name)
}

func TestOutboxFlush_DiscardsOnHandlerError(t *testing.T) {
	box := &bufferOutbox{}

	bus := commands.NewInMemoryBus()
	commands.RegisterHandler(bus, "test.stage", commands.HandlerFunc[stageCommand, *struct{}](
		func(ctx context.Context, cmd stageCommand) (*struct{}, error) {
			if err := box.Add(ctx, appoutbox.EventRecord{Name: cmd.name}); err != nil {
				return nil, err
			}
			return nil, errors.New("handler failed")
		}))
	wrapped := ChainCommands(bus, OutboxFlush(box))

	_, err := wrapped.Dispatch(context.Background(), stageCommand{name: "doomed"})
	require.Error(t, err)
	assert.Empty(t, box.staged)
	assert.Empty(t, box.flushed)
}
