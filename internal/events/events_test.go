package events

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBus(t *testing.T) {
	bus := NewEventBus()

	var received *Event
	var callCount int
	bus.Subscribe(EventBookingCreated, func(event *Event) error {
		received = event
		callCount++
		return nil
	})

	err := bus.PublishJSON(EventBookingCreated, BookingEventPayload{BookingID: 3, UserID: "0", Status: "reserved"})
	require.NoError(t, err)

	assert.Equal(t, 1, callCount)
	require.NotNil(t, received)
	assert.Equal(t, EventBookingCreated, received.Type)
	assert.False(t, received.CreatedAt.IsZero())

	var decoded BookingEventPayload
	require.NoError(t, received.Decode(&decoded))
	assert.Equal(t, int64(3), decoded.BookingID)
	assert.Equal(t, "reserved", decoded.Status)
}

func TestEventBusMultipleSubscribers(t *testing.T) {
	bus := NewEventBus()
	var typed, all int

	bus.Subscribe(EventBookingStatusChanged, func(_ *Event) error { typed++; return nil })
	bus.SubscribeAll(func(_ *Event) error { all++; return nil })

	require.NoError(t, bus.Publish(&Event{Type: EventBookingStatusChanged}))
	require.NoError(t, bus.Publish(&Event{Type: EventAccountSignedUp}))

	assert.Equal(t, 1, typed)
	assert.Equal(t, 2, all)
}

func TestEventBusHandlerError(t *testing.T) {
	bus := NewEventBus()
	boom := errors.New("boom")
	var second bool

	bus.Subscribe("event", func(_ *Event) error { return boom })
	bus.Subscribe("event", func(_ *Event) error { second = true; return nil })

	err := bus.Publish(&Event{Type: "event"})
	assert.ErrorIs(t, err, boom)
	assert.True(t, second)
}

func TestEventBusNoSubscribers(t *testing.T) {
	bus := NewEventBus()
	assert.NoError(t, bus.Publish(&Event{Type: "unknown"}))
	assert.NoError(t, bus.PublishJSON("unknown", nil))

	var nilBus *EventBus
	assert.NoError(t, nilBus.PublishJSON(EventBookingCreated, nil))
}

func TestNewJSONEvent(t *testing.T) {
	event, err := NewJSONEvent(EventAccountSignedUp, AccountEventPayload{AccountID: "1", Name: "amy"})
	require.NoError(t, err)
	assert.Equal(t, EventAccountSignedUp, event.Type)

	var decoded AccountEventPayload
	require.NoError(t, event.Decode(&decoded))
	assert.Equal(t, "amy", decoded.Name)

	_, err = NewJSONEvent("bad", make(chan int))
	assert.Error(t, err)
}
