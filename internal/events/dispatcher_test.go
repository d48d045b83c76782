package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishRunsAllHandlers(t *testing.T) {
	d := NewInMemoryDispatcher()
	var calls []string
	boom := errors.New("boom")

	d.Subscribe(EventTicketIssued, func(context.Context, Event) error {
		calls = append(calls, "first")
		return boom
	})
	d.Subscribe(EventTicketIssued, func(context.Context, Event) error {
		calls = append(calls, "second")
		return nil
	})
	d.Subscribe(EventAvatarRemoved, func(context.Context, Event) error {
		calls = append(calls, "other")
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventTicketIssued})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"first", "second"}, calls)
}

func TestPublishRecoversHandlerPanic(t *testing.T) {
	d := NewInMemoryDispatcher()
	reached := false
	d.Subscribe(EventAvatarRejected, func(context.Context, Event) error {
		panic("decode exploded")
	})
	d.Subscribe(EventAvatarRejected, func(context.Context, Event) error {
		reached = true
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventAvatarRejected})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "avatar_rejected handler panicked")
	assert.True(t, reached)
}

func TestSubscribeDuringPublishAppliesToNextEvent(t *testing.T) {
	d := NewInMemoryDispatcher()
	late := 0
	d.Subscribe(EventAvatarAccepted, func(context.Context, Event) error {
		d.Subscribe(EventAvatarAccepted, func(context.Context, Event) error {
			late++
			return nil
		})
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), Event{Type: EventAvatarAccepted}))
	assert.Equal(t, 0, late)
	require.NoError(t, d.Publish(context.Background(), Event{Type: EventAvatarAccepted}))
	assert.Equal(t, 1, late)
}
