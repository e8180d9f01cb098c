package messaging

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nestmate-hub/nestmate-hub/internal/domain/shared"
)

type recordingHandler struct {
	events []shared.Event
	err    error
}

func (h *recordingHandler) Handle(_ context.Context, event shared.Event) error {
	h.events = append(h.events, event)
	return h.err
}

func (h *recordingHandler) EventTypes() []shared.EventType {
	return []shared.EventType{shared.EventPreferencesUpdated, shared.EventWeightsUpdated}
}

func syncBus() *EventBus {
	return NewEventBus(Config{Async: false})
}

func TestPublishDeliversToSubscriber(t *testing.T) {
	bus := syncBus()
	handler := &recordingHandler{}
	require.NoError(t, bus.Subscribe(shared.EventPreferencesUpdated, handler))

	event := shared.NewPreferencesUpdatedEvent("user-1", []string{"housing"}, "hash")
	require.NoError(t, bus.Publish(context.Background(), event))

	require.Len(t, handler.events, 1)
	assert.Equal(t, shared.EventPreferencesUpdated, handler.events[0].EventType())
}

func TestPublishSkipsOtherTypes(t *testing.T) {
	bus := syncBus()
	handler := &recordingHandler{}
	require.NoError(t, bus.Subscribe(shared.EventProposalCreated, handler))

	require.NoError(t, bus.Publish(context.Background(), shared.NewWeightsUpdatedEvent("user-1")))

	assert.Empty(t, handler.events)
}

func TestSubscribeTyped(t *testing.T) {
	bus := syncBus()
	handler := &recordingHandler{}
	require.NoError(t, bus.SubscribeTyped(handler))

	require.NoError(t, bus.Publish(context.Background(), shared.NewWeightsUpdatedEvent("user-1")))
	require.NoError(t, bus.Publish(context.Background(), shared.NewPreferencesUpdatedEvent("user-1", nil, "h")))

	assert.Len(t, handler.events, 2)
}

func TestHandlerErrorDoesNotFailPublish(t *testing.T) {
	bus := syncBus()
	handler := &recordingHandler{err: errors.New("subscriber broke")}
	require.NoError(t, bus.Subscribe(shared.EventWeightsUpdated, handler))

	assert.NoError(t, bus.Publish(context.Background(), shared.NewWeightsUpdatedEvent("user-1")))
}

func TestClosedBusRejectsPublish(t *testing.T) {
	bus := syncBus()
	bus.Close()

	err := bus.Publish(context.Background(), shared.NewWeightsUpdatedEvent("user-1"))
	assert.ErrorIs(t, err, ErrEventBusClosed)

	err = bus.Subscribe(shared.EventWeightsUpdated, &recordingHandler{})
	assert.ErrorIs(t, err, ErrEventBusClosed)
}
