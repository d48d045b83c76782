package service

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-generator/internal/domain"
	"github.com/spec-kit/ticket-generator/internal/events"
	"github.com/spec-kit/ticket-generator/internal/repository"
	"github.com/spec-kit/ticket-generator/internal/upload"
	"github.com/spec-kit/ticket-generator/internal/validation"
	apperrors "github.com/spec-kit/ticket-generator/pkg/util"
)

// NumberSource yields candidate ticket numbers in [TicketNumberMin, TicketNumberMax].
type NumberSource interface {
	Next() int
}

type randomNumbers struct{}

func (randomNumbers) Next() int {
	return domain.TicketNumberMin + rand.Intn(domain.TicketNumberMax-domain.TicketNumberMin+1)
}

// RandomNumbers draws numbers uniformly with no uniqueness guarantee.
func RandomNumbers() NumberSource {
	return randomNumbers{}
}

// TicketService derives and records tickets from valid form input.
type TicketService struct {
	issued     repository.IssuedTicketRepository
	reserver   repository.NumberReserver
	numbers    NumberSource
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
	attempts   int
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	IssuedRepo repository.IssuedTicketRepository
	// Reserver is only consulted when set; nil keeps numbers independent.
	Reserver       repository.NumberReserver
	Numbers        NumberSource
	Dispatcher     events.Dispatcher
	Logger         *zap.Logger
	NumberAttempts int
	Now            func() time.Time
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	s := &TicketService{
		issued:     deps.IssuedRepo,
		reserver:   deps.Reserver,
		numbers:    deps.Numbers,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		now:        deps.Now,
		attempts:   deps.NumberAttempts,
	}
	if s.numbers == nil {
		s.numbers = RandomNumbers()
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.attempts <= 0 {
		s.attempts = 20
	}
	return s
}

// Issue builds the TicketView for a fully valid form and records it.
func (s *TicketService) Issue(ctx context.Context, sessionID string, form domain.FormState) (*domain.TicketView, error) {
	result := validation.Validate(form)
	if !result.Valid() {
		return nil, apperrors.NewValidationError("form validation failed", result.Messages())
	}

	number, err := s.nextNumber(ctx)
	if err != nil {
		return nil, err
	}

	ticket := &domain.TicketView{
		ID:            uuid.NewString(),
		DisplayName:   DisplayName(form.FullName),
		FullName:      form.FullName,
		Email:         form.Email,
		GitHub:        NormalizeHandle(form.GitHub),
		AvatarDataURL: upload.EncodeDataURL(form.Avatar.MIMEType, form.Avatar.Data),
		AvatarDigest:  form.Avatar.Digest,
		Number:        number,
		IssuedAt:      s.now().UTC(),
	}

	if s.issued != nil {
		record := &domain.IssuedTicket{
			ID:             ticket.ID,
			SessionID:      sessionID,
			Ticket:         *ticket,
			AvatarMIMEType: form.Avatar.MIMEType,
			AvatarData:     form.Avatar.Data,
		}
		if err := s.issued.Create(ctx, record); err != nil {
			return nil, apperrors.NewInternalError(err)
		}
	}

	s.publishEvent(ctx, events.Event{
		Type:      events.EventTicketIssued,
		SessionID: sessionID,
		Payload: events.TicketIssuedPayload{
			TicketID:     ticket.ID,
			TicketNumber: ticket.Number,
			DisplayName:  ticket.DisplayName,
			Email:        ticket.Email,
			GitHub:       ticket.GitHub,
		},
	})
	return ticket, nil
}

// Lookup returns the most recent ticket issued with number.
func (s *TicketService) Lookup(ctx context.Context, number int) (*domain.TicketView, error) {
	if number < domain.TicketNumberMin || number > domain.TicketNumberMax {
		return nil, apperrors.NewBadRequest("ticket number out of range")
	}
	if s.issued == nil {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_number": number})
	}
	record, err := s.issued.LatestByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_number": number})
		}
		return nil, apperrors.NewInternalError(err)
	}
	ticket := record.Ticket
	ticket.AvatarDataURL = upload.EncodeDataURL(record.AvatarMIMEType, record.AvatarData)
	return &ticket, nil
}

func (s *TicketService) nextNumber(ctx context.Context) (int, error) {
	if s.reserver == nil {
		return s.numbers.Next(), nil
	}
	for attempt := 0; attempt < s.attempts; attempt++ {
		n := s.numbers.Next()
		ok, err := s.reserver.Reserve(ctx, n)
		if err != nil {
			return 0, apperrors.NewInternalError(err)
		}
		if ok {
			return n, nil
		}
		s.logger.Debug("ticket number taken", zap.Int("ticket_number", n), zap.Int("attempt", attempt+1))
	}
	return 0, apperrors.NewConflict("no free ticket number", map[string]any{"attempts": s.attempts})
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	publish(ctx, s.dispatcher, s.logger, event)
}

// DisplayName is the first whitespace-delimited token of a full name.
func DisplayName(fullName string) string {
	parts := strings.Fields(fullName)
	if len(parts) == 0 {
		return ""
	}
	return parts[0]
}

// NormalizeHandle prefixes a GitHub handle with "@" unless it has one.
func NormalizeHandle(handle string) string {
	handle = strings.TrimSpace(handle)
	if strings.HasPrefix(handle, "@") {
		return handle
	}
	return "@" + handle
}

func publish(ctx context.Context, dispatcher events.Dispatcher, logger *zap.Logger, event events.Event) {
	if dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if err := dispatcher.Publish(ctx, event); err != nil {
		logger.Warn("event handler failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}
