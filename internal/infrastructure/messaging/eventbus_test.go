package messaging

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intern-hub/progress-ledger/internal/domain/shared"
)

func checkedIn(internID string) shared.Event {
	return shared.NewCheckedInEvent(internID, "2026-03-02", "present", time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
}

func TestInMemoryEventBus_SyncDelivery(t *testing.T) {
	bus := NewInMemoryEventBus(InMemoryEventBusConfig{})
	defer bus.Close()

	var order []string
	require.NoError(t, bus.Subscribe(shared.EventCheckedIn, func(e shared.Event) error {
		order = append(order, "typed:"+e.AggregateID())
		return nil
	}))
	require.NoError(t, bus.Subscribe(shared.EventCheckedOut, func(shared.Event) error {
		order = append(order, "other")
		return nil
	}))
	require.NoError(t, bus.SubscribeAll(func(e shared.Event) error {
		order = append(order, "all:"+string(e.EventType()))
		return nil
	}))

	require.NoError(t, bus.Publish(checkedIn("i-1")))

	assert.Equal(t, []string{"typed:i-1", "all:" + string(shared.EventCheckedIn)}, order)
	assert.Equal(t, int64(1), bus.Stats().Published)
	assert.Equal(t, int64(2), bus.Stats().Executions)
}

func TestInMemoryEventBus_HandlerFailuresAreContained(t *testing.T) {
	bus := NewInMemoryEventBus(InMemoryEventBusConfig{})
	defer bus.Close()

	reached := false
	require.NoError(t, bus.Subscribe(shared.EventCheckedIn, func(shared.Event) error {
		return errors.New("boom")
	}))
	require.NoError(t, bus.Subscribe(shared.EventCheckedIn, func(shared.Event) error {
		panic("handler bug")
	}))
	require.NoError(t, bus.Subscribe(shared.EventCheckedIn, func(shared.Event) error {
		reached = true
		return nil
	}))

	require.NoError(t, bus.Publish(checkedIn("i-1")))

	assert.True(t, reached)
	stats := bus.Stats()
	assert.Equal(t, int64(2), stats.Failures)
	assert.Equal(t, int64(1), stats.Panics)
}

func TestInMemoryEventBus_AsyncDeliveryCompletesOnClose(t *testing.T) {
	bus := NewInMemoryEventBus(InMemoryEventBusConfig{AsyncMode: true, WorkerPoolSize: 2})

	var mu sync.Mutex
	seen := map[string]int{}
	require.NoError(t, bus.SubscribeAll(func(e shared.Event) error {
		mu.Lock()
		defer mu.Unlock()
		seen[e.AggregateID()]++
		return nil
	}))

	for _, id := range []string{"a", "b", "c", "d"} {
		require.NoError(t, bus.Publish(checkedIn(id)))
	}
	require.NoError(t, bus.Close())

	// Events may be dropped only if they were still queued at Close; every
	// delivered event is delivered exactly once.
	stats := bus.Stats()
	mu.Lock()
	defer mu.Unlock()
	total := 0
	for _, n := range seen {
		assert.Equal(t, 1, n)
		total += n
	}
	assert.Equal(t, int64(4), int64(total)+stats.Dropped)
}

func TestInMemoryEventBus_Closed(t *testing.T) {
	bus := NewInMemoryEventBus(InMemoryEventBusConfig{AsyncMode: true})

	var calls atomic.Int32
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error {
		calls.Add(1)
		return nil
	}))
	require.NoError(t, bus.Close())
	require.NoError(t, bus.Close(), "close is idempotent")

	assert.ErrorIs(t, bus.Publish(checkedIn("i-1")), ErrEventBusClosed)
	assert.ErrorIs(t, bus.Subscribe(shared.EventCheckedIn, func(shared.Event) error { return nil }), ErrEventBusClosed)
	assert.Zero(t, calls.Load())
}

func TestInMemoryEventBus_RejectsNil(t *testing.T) {
	bus := NewInMemoryEventBus(InMemoryEventBusConfig{})
	defer bus.Close()

	assert.Error(t, bus.Publish(nil))
	assert.Error(t, bus.Subscribe(shared.EventCheckedIn, nil))
	assert.Error(t, bus.SubscribeAll(nil))
}
