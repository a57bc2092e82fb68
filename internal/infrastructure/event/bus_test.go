package event

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/erp/costing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type testEvent struct {
	shared.BaseDomainEvent
}

func newTestEvent(eventType string) *testEvent {
	return &testEvent{BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "Stock", uuid.New())}
}

type recordingHandler struct {
	mu      sync.Mutex
	types   []string
	handled []shared.DomainEvent
	err     error
	panics  bool
}

func (h *recordingHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, event)
	if h.panics {
		panic("handler exploded")
	}
	return h.err
}

func (h *recordingHandler) EventTypes() []string { return h.types }

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.handled)
}

func TestInMemoryEventBus_Dispatch(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	received := &recordingHandler{types: []string{"StockReceived"}}
	consumed := &recordingHandler{types: []string{"StockConsumed"}}
	all := &recordingHandler{}
	bus.Subscribe(received)
	bus.Subscribe(consumed)
	bus.Subscribe(all)

	err := bus.Publish(context.Background(),
		newTestEvent("StockReceived"),
		newTestEvent("StockConsumed"),
		newTestEvent("StockConsumed"),
	)
	require.NoError(t, err)

	assert.Equal(t, 1, received.count())
	assert.Equal(t, 2, consumed.count())
	assert.Equal(t, 3, all.count())
}

func TestInMemoryEventBus_ExplicitTypesOverrideHandler(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	h := &recordingHandler{types: []string{"StockReceived"}}
	bus.Subscribe(h, "StockConsumed")

	_ = bus.Publish(context.Background(), newTestEvent("StockReceived"), newTestEvent("StockConsumed"))
	assert.Equal(t, 1, h.count())
}

func TestInMemoryEventBus_FailuresAreIsolated(t *testing.T) {
	core, recorded := observer.New(zapcore.ErrorLevel)
	bus := NewInMemoryEventBus(zap.New(core))

	failing := &recordingHandler{types: []string{"X"}, err: errors.New("boom")}
	panicking := &recordingHandler{types: []string{"X"}, panics: true}
	healthy := &recordingHandler{types: []string{"X"}}
	bus.Subscribe(failing)
	bus.Subscribe(panicking)
	bus.Subscribe(healthy)

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("X")))

	assert.Equal(t, 1, healthy.count())
	assert.Len(t, recorded.FilterMessage("event handler failed").All(), 2)
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	h := &recordingHandler{types: []string{"X", "Y"}}
	bus.Subscribe(h)

	_ = bus.Publish(context.Background(), newTestEvent("X"))
	bus.Unsubscribe(h)
	_ = bus.Publish(context.Background(), newTestEvent("X"), newTestEvent("Y"))

	assert.Equal(t, 1, h.count())
	assert.Empty(t, bus.registry.Handlers("Y"))
}

func TestInMemoryEventBus_StopDropsEvents(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	h := &recordingHandler{}
	bus.Subscribe(h)

	require.NoError(t, bus.Stop(context.Background()))
	_ = bus.Publish(context.Background(), newTestEvent("X"))
	assert.Equal(t, 0, h.count())

	require.NoError(t, bus.Start(context.Background()))
	_ = bus.Publish(context.Background(), newTestEvent("X"))
	assert.Equal(t, 1, h.count())
}
