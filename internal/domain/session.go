package domain

import "time"

// ViewPhase enumerates which screen a session is on.
type ViewPhase string

const (
	PhaseFormVisible   ViewPhase = "form_visible"
	PhaseTransitioning ViewPhase = "transitioning"
	PhaseTicketVisible ViewPhase = "ticket_visible"
)

// Session is the per-visitor state owned by the form controller.
type Session struct {
	ID          string           `json:"id"`
	Phase       ViewPhase        `json:"phase"`
	Form        FormState        `json:"form"`
	Validation  ValidationResult `json:"validation"`
	UploadError string           `json:"upload_error,omitempty"`
	Generation  uint64           `json:"generation"`
	Preview     Preview          `json:"preview"`
	Ticket      *TicketView      `json:"ticket,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// NewSession returns a session on the form screen.
func NewSession(id string, now time.Time) *Session {
	return &Session{
		ID:        id,
		Phase:     PhaseFormVisible,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Issued reports whether the session already produced a ticket.
func (s *Session) Issued() bool {
	return s.Ticket != nil
}
