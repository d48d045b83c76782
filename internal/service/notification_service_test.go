package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/ticket-generator/internal/config"
	"github.com/spec-kit/ticket-generator/internal/events"
)

func TestComposeTicketEmail(t *testing.T) {
	n := NewNotificationService(nil, nil, config.NotificationConfig{EmailFrom: "tickets@conf.dev"})
	email, ok := n.ComposeTicketEmail(events.TicketIssuedPayload{
		TicketNumber: 31337,
		DisplayName:  "Grace",
		Email:        "grace@navy.mil",
		GitHub:       "@gracehopper",
	})
	require.True(t, ok)
	assert.Equal(t, "grace@navy.mil", email.To)
	assert.Equal(t, "Your conference ticket #31337", email.Subject)
	assert.Contains(t, email.Body, "Congrats, Grace!")
	assert.Contains(t, email.Body, "@gracehopper")

	n = NewNotificationService(nil, nil, config.NotificationConfig{})
	_, ok = n.ComposeTicketEmail(events.TicketIssuedPayload{Email: "grace@navy.mil"})
	assert.False(t, ok)
}

func TestTicketIssuedIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	dispatcher := events.NewInMemoryDispatcher()
	n := NewNotificationService(dispatcher, zap.New(core), config.NotificationConfig{EmailFrom: "tickets@conf.dev"})
	n.RegisterHandlers()

	err := dispatcher.Publish(context.Background(), events.Event{
		Type:      events.EventTicketIssued,
		SessionID: "s1",
		Payload:   events.TicketIssuedPayload{TicketNumber: 10000, DisplayName: "Ada", Email: "ada@example.com"},
	})
	require.NoError(t, err)
	require.Equal(t, 1, logs.FilterMessage("ticket email queued").Len())

	err = dispatcher.Publish(context.Background(), events.Event{Type: events.EventTicketIssued, Payload: "bogus"})
	assert.Error(t, err)
}
