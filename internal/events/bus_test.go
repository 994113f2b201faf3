package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestPublishPreservesOrder(t *testing.T) {
	bus := NewBus(zaptest.NewLogger(t), 16)

	var mu sync.Mutex
	var states []string
	bus.SubscribeFunc(func(_ context.Context, e Event) error {
		mu.Lock()
		defer mu.Unlock()
		states = append(states, e.(TransactionStateChangedEvent).State)
		return nil
	}, TransactionStateChanged)

	for _, s := range []string{"simulating", "submitting", "confirming", "confirmed"} {
		require.NoError(t, bus.Publish(TransactionStateChangedEvent{BaseEvent: NewBase(TransactionStateChanged), State: s}))
	}
	require.NoError(t, bus.Shutdown(context.Background()))

	assert.Equal(t, []string{"simulating", "submitting", "confirming", "confirmed"}, states)
	assert.ErrorIs(t, bus.Publish(TokenListSyncedEvent{BaseEvent: NewBase(TokenListSynced)}), ErrBusClosed)
}

func TestSubscribeManyTypesAndUnsubscribe(t *testing.T) {
	bus := NewBus(zaptest.NewLogger(t), 0)
	defer bus.Shutdown(context.Background())

	var got []EventType
	sub := bus.SubscribeFunc(func(_ context.Context, e Event) error {
		got = append(got, e.Type())
		return nil
	}, BalanceUpdated, TransactionCompleted)

	ctx := context.Background()
	require.NoError(t, bus.PublishSync(ctx, BalanceUpdatedEvent{BaseEvent: NewBase(BalanceUpdated)}))
	require.NoError(t, bus.PublishSync(ctx, TransactionCompletedEvent{BaseEvent: NewBase(TransactionCompleted)}))
	require.NoError(t, bus.PublishSync(ctx, QuoteUpdatedEvent{BaseEvent: NewBase(QuoteUpdated)}))
	assert.Equal(t, []EventType{BalanceUpdated, TransactionCompleted}, got)

	sub.Unsubscribe()
	sub.Unsubscribe()
	require.NoError(t, bus.PublishSync(ctx, BalanceUpdatedEvent{BaseEvent: NewBase(BalanceUpdated)}))
	assert.Len(t, got, 2)
}

func TestPublishSyncReportsHandlerErrors(t *testing.T) {
	bus := NewBus(zaptest.NewLogger(t), 1)
	defer bus.Shutdown(context.Background())

	boom := errors.New("journal locked")
	bus.SubscribeFunc(func(context.Context, Event) error { return boom }, TransactionCompleted)

	err := bus.PublishSync(context.Background(), TransactionCompletedEvent{BaseEvent: NewBase(TransactionCompleted)})
	assert.ErrorIs(t, err, boom)
}

func TestShutdownTimeout(t *testing.T) {
	bus := NewBus(zaptest.NewLogger(t), 4)
	release := make(chan struct{})
	bus.SubscribeFunc(func(context.Context, Event) error {
		<-release
		return nil
	}, TokenListSynced)
	require.NoError(t, bus.Publish(TokenListSyncedEvent{BaseEvent: NewBase(TokenListSynced)}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, bus.Shutdown(ctx), context.DeadlineExceeded)
	close(release)
}
