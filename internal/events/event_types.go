package events

import (
	"time"

	"github.com/spec-kit/ticket-generator/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventAvatarAccepted EventType = "avatar_accepted"
	EventAvatarRejected EventType = "avatar_rejected"
	EventAvatarRemoved  EventType = "avatar_removed"
	EventTicketIssued   EventType = "ticket_issued"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	SessionID string      `json:"session_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// AvatarAcceptedPayload payload.
type AvatarAcceptedPayload struct {
	Source     domain.UploadSource `json:"source"`
	MIMEType   string              `json:"mime_type"`
	SizeBytes  int64               `json:"size_bytes"`
	Digest     string              `json:"digest"`
	Generation uint64              `json:"generation"`
}

// AvatarRejectedPayload payload.
type AvatarRejectedPayload struct {
	Source    domain.UploadSource `json:"source"`
	MIMEType  string              `json:"mime_type"`
	SizeBytes int64               `json:"size_bytes"`
	Reason    string              `json:"reason"`
}

// TicketIssuedPayload payload.
type TicketIssuedPayload struct {
	TicketID     string `json:"ticket_id"`
	TicketNumber int    `json:"ticket_number"`
	DisplayName  string `json:"display_name"`
	Email        string `json:"email"`
	GitHub       string `json:"github"`
}
