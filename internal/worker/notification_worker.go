package worker

import (
	"context"

	"github.com/spec-kit/ticket-generator/internal/events"
	"github.com/spec-kit/ticket-generator/internal/observability"
	"github.com/spec-kit/ticket-generator/internal/service"
)

// StartNotificationWorker registers notification handlers.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}

// StartMetricsWorker counts every domain event by type.
func StartMetricsWorker(dispatcher events.Dispatcher, metrics *observability.Metrics) {
	if dispatcher == nil || metrics == nil {
		return
	}
	for _, eventType := range []events.EventType{
		events.EventAvatarAccepted,
		events.EventAvatarRejected,
		events.EventAvatarRemoved,
		events.EventTicketIssued,
	} {
		name := string(eventType)
		dispatcher.Subscribe(eventType, func(context.Context, events.Event) error {
			metrics.RecordEvent(name)
			return nil
		})
	}
}
