package service

import (
	"time"

	"github.com/spec-kit/ticket-generator/internal/domain"
)

// Transition is the timed cross-fade from the form to the ticket.
// It cannot be cancelled and there is no way back to the form.
type Transition struct {
	FadeOut   time.Duration
	SwapDelay time.Duration
	FadeIn    time.Duration
}

// DefaultTransition fades the form out over 500ms, swaps the views, and
// starts the ticket fade-in 50ms later.
var DefaultTransition = Transition{
	FadeOut:   500 * time.Millisecond,
	SwapDelay: 50 * time.Millisecond,
	FadeIn:    500 * time.Millisecond,
}

// Total is the time from submission until the ticket is fully shown.
func (t Transition) Total() time.Duration {
	return t.FadeOut + t.SwapDelay + t.FadeIn
}

// PhaseAt reports the view phase elapsed after a successful submission.
func (t Transition) PhaseAt(elapsed time.Duration) domain.ViewPhase {
	if elapsed < t.Total() {
		return domain.PhaseTransitioning
	}
	return domain.PhaseTicketVisible
}

// Advance moves an issued session forward along the transition. Sessions
// without a ticket stay on the form.
func (t Transition) Advance(sess *domain.Session, now time.Time) bool {
	if sess == nil || sess.Ticket == nil {
		return false
	}
	next := t.PhaseAt(now.Sub(sess.Ticket.IssuedAt))
	if next == sess.Phase {
		return false
	}
	// Phases only move forward.
	if sess.Phase == domain.PhaseTicketVisible {
		return false
	}
	sess.Phase = next
	return true
}
