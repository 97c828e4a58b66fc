package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishWithoutHandlersSucceeds(t *testing.T) {
	d := NewInMemoryDispatcher()
	assert.NoError(t, d.Publish(context.Background(), Event{Type: EventTicketCreated}))
}

func TestPublishInvokesTypedAndWildcardHandlers(t *testing.T) {
	d := NewInMemoryDispatcher()
	var calls []string
	d.SubscribeAll(func(context.Context, Event) error {
		calls = append(calls, "all")
		return nil
	})
	d.Subscribe(EventTicketResolved, func(context.Context, Event) error {
		calls = append(calls, "resolved")
		return nil
	})
	d.Subscribe(EventTicketCreated, func(context.Context, Event) error {
		calls = append(calls, "created")
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), Event{Type: EventTicketResolved}))
	assert.Equal(t, []string{"all", "resolved"}, calls)
}

func TestPublishJoinsHandlerErrors(t *testing.T) {
	d := NewInMemoryDispatcher()
	first := errors.New("smtp down")
	ran := false
	d.Subscribe(EventTicketCreated, func(context.Context, Event) error { return first })
	d.Subscribe(EventTicketCreated, func(context.Context, Event) error { panic("bad payload") })
	d.Subscribe(EventTicketCreated, func(context.Context, Event) error {
		ran = true
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventTicketCreated})
	require.Error(t, err)
	assert.ErrorIs(t, err, first)
	assert.Contains(t, err.Error(), "handler panic: bad payload")
	assert.True(t, ran)
}

func TestEventTicketID(t *testing.T) {
	assert.Equal(t, "t-1", Event{Payload: map[string]any{"ticket_id": "t-1"}}.TicketID())
	assert.Empty(t, Event{}.TicketID())
}
