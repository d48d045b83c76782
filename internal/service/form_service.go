package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-generator/internal/domain"
	"github.com/spec-kit/ticket-generator/internal/events"
	"github.com/spec-kit/ticket-generator/internal/repository"
	"github.com/spec-kit/ticket-generator/internal/upload"
	"github.com/spec-kit/ticket-generator/internal/validation"
	apperrors "github.com/spec-kit/ticket-generator/pkg/util"
)

// SubmitInput is one form submission. Avatar is set when the submission
// carried a file of its own.
type SubmitInput struct {
	FullName string
	Email    string
	GitHub   string
	Avatar   *upload.File
}

// FormService is the form controller: it owns each visitor's FormState,
// funnels avatar selections through the upload checks and turns a valid
// submission into a ticket.
type FormService struct {
	sessions   repository.SessionRepository
	tickets    *TicketService
	previewer  *upload.Previewer
	dispatcher events.Dispatcher
	transition Transition
	logger     *zap.Logger
	now        func() time.Time
	locks      sessionLocks
}

// FormDependencies bundles collaborators for the form service.
type FormDependencies struct {
	SessionRepo repository.SessionRepository
	Tickets     *TicketService
	Previewer   *upload.Previewer
	Dispatcher  events.Dispatcher
	Transition  *Transition
	Logger      *zap.Logger
	Now         func() time.Time
}

// NewFormService constructs the controller.
func NewFormService(deps FormDependencies) *FormService {
	s := &FormService{
		sessions:   deps.SessionRepo,
		tickets:    deps.Tickets,
		previewer:  deps.Previewer,
		dispatcher: deps.Dispatcher,
		transition: DefaultTransition,
		logger:     deps.Logger,
		now:        deps.Now,
	}
	if deps.Transition != nil {
		s.transition = *deps.Transition
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.previewer == nil {
		s.previewer = upload.NewPreviewer(s.logger)
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Transition returns the cross-fade timings used for issued tickets.
func (s *FormService) Transition() Transition {
	return s.transition
}

// State returns the session, creating an empty one on first visit and
// advancing an issued session along the cross-fade.
func (s *FormService) State(ctx context.Context, sessionID string) (*domain.Session, error) {
	unlock := s.locks.lock(sessionID)
	defer unlock()

	sess, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if s.transition.Advance(sess, s.now()) {
		if err := s.save(ctx, sess); err != nil {
			return nil, err
		}
	}
	return sess, nil
}

// SelectAvatar runs a picked or dropped file through the upload checks.
// A rejected file only records the message; the previous avatar stays.
// An accepted file replaces any previous one and its preview is decoded
// asynchronously; the call waits for the decode unless ctx ends first.
func (s *FormService) SelectAvatar(ctx context.Context, sessionID string, file upload.File) (*domain.Session, error) {
	unlock := s.locks.lock(sessionID)
	sess, err := s.load(ctx, sessionID)
	if err != nil {
		unlock()
		return nil, err
	}
	if sess.Issued() {
		unlock()
		return sess, nil
	}

	avatar, acceptErr := upload.Accept(file)
	if acceptErr != nil {
		sess.UploadError = apperrors.ToDomainError(acceptErr).Message
		saveErr := s.save(ctx, sess)
		unlock()
		if saveErr != nil {
			return nil, saveErr
		}
		s.publishEvent(ctx, events.Event{
			Type:      events.EventAvatarRejected,
			SessionID: sessionID,
			Payload: events.AvatarRejectedPayload{
				Source:    file.Source,
				MIMEType:  upload.DetectType(file),
				SizeBytes: file.Size,
				Reason:    apperrors.ToDomainError(acceptErr).Code,
			},
		})
		return sess, acceptErr
	}

	sess.Generation++
	avatar.Generation = sess.Generation
	sess.Form.Avatar = avatar
	sess.Preview = domain.Preview{Generation: sess.Generation}
	sess.UploadError = ""
	clearFieldError(sess, domain.FieldAvatar)
	if err := s.save(ctx, sess); err != nil {
		unlock()
		return nil, err
	}
	unlock()

	s.publishEvent(ctx, events.Event{
		Type:      events.EventAvatarAccepted,
		SessionID: sessionID,
		Payload: events.AvatarAcceptedPayload{
			Source:     avatar.Source,
			MIMEType:   avatar.MIMEType,
			SizeBytes:  avatar.Size,
			Digest:     avatar.Digest,
			Generation: avatar.Generation,
		},
	})

	done := s.previewer.Start(*avatar)
	select {
	case preview := <-done:
		if err := s.applyPreview(ctx, sessionID, preview); err != nil {
			return nil, err
		}
	case <-ctx.Done():
		go func() {
			preview := <-done
			if err := s.applyPreview(context.Background(), sessionID, preview); err != nil {
				s.logger.Warn("apply preview failed", zap.String("session_id", sessionID), zap.Error(err))
			}
		}()
		return sess, nil
	}
	return s.State(ctx, sessionID)
}

// RemoveAvatar clears the avatar and its preview. Any decode still in
// flight for the removed file is discarded when it lands.
func (s *FormService) RemoveAvatar(ctx context.Context, sessionID string) (*domain.Session, error) {
	unlock := s.locks.lock(sessionID)
	defer unlock()

	sess, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Issued() {
		return sess, nil
	}

	sess.Form.Avatar = nil
	sess.Generation++
	sess.Preview = domain.Preview{Generation: sess.Generation}
	sess.UploadError = ""
	clearFieldError(sess, domain.FieldAvatar)
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{Type: events.EventAvatarRemoved, SessionID: sessionID})
	return sess, nil
}

// Submit validates every field and, when all pass, issues the ticket and
// starts the transition. A session that already has a ticket returns it
// unchanged, so repeated submissions are harmless.
func (s *FormService) Submit(ctx context.Context, sessionID string, input SubmitInput) (*domain.Session, error) {
	var rejected error
	if input.Avatar != nil {
		if _, err := s.SelectAvatar(ctx, sessionID, *input.Avatar); err != nil {
			if !isUploadRejection(err) {
				return nil, err
			}
			rejected = err
		}
	}

	unlock := s.locks.lock(sessionID)
	defer unlock()

	sess, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Issued() {
		s.transition.Advance(sess, s.now())
		return sess, nil
	}

	sess.Form.FullName = input.FullName
	sess.Form.Email = input.Email
	sess.Form.GitHub = input.GitHub
	sess.Validation = validation.Validate(sess.Form)
	sess.UploadError = ""
	if rejected != nil {
		setFieldError(sess, domain.FieldAvatar, apperrors.ToDomainError(rejected).Message)
	}

	if !sess.Validation.Valid() {
		if err := s.save(ctx, sess); err != nil {
			return nil, err
		}
		return sess, apperrors.NewValidationError("form validation failed", sess.Validation.Messages())
	}

	ticket, err := s.tickets.Issue(ctx, sessionID, sess.Form)
	if err != nil {
		return nil, err
	}

	sess.Ticket = ticket
	sess.Phase = domain.PhaseTransitioning
	sess.Form = domain.FormState{}
	sess.Preview = domain.Preview{Generation: sess.Generation}
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}
	s.logger.Info("ticket issued",
		zap.String("session_id", sessionID),
		zap.String("ticket_id", ticket.ID),
		zap.Int("ticket_number", ticket.Number))
	return sess, nil
}

func (s *FormService) applyPreview(ctx context.Context, sessionID string, preview domain.Preview) error {
	unlock := s.locks.lock(sessionID)
	defer unlock()

	sess, err := s.load(ctx, sessionID)
	if err != nil {
		return err
	}
	if !upload.ApplyPreview(sess, preview) {
		s.logger.Debug("stale avatar preview dropped",
			zap.String("session_id", sessionID),
			zap.Uint64("generation", preview.Generation),
			zap.Uint64("current", sess.Generation))
		return nil
	}
	return s.save(ctx, sess)
}

func (s *FormService) load(ctx context.Context, sessionID string) (*domain.Session, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err == nil {
		return sess, nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.NewSession(sessionID, s.now().UTC()), nil
	}
	return nil, apperrors.NewInternalError(err)
}

func (s *FormService) save(ctx context.Context, sess *domain.Session) error {
	sess.UpdatedAt = s.now().UTC()
	if err := s.sessions.Save(ctx, sess); err != nil {
		return apperrors.NewInternalError(err)
	}
	return nil
}

func (s *FormService) publishEvent(ctx context.Context, event events.Event) {
	publish(ctx, s.dispatcher, s.logger, event)
}

func clearFieldError(sess *domain.Session, field domain.Field) {
	for i := range sess.Validation.Fields {
		if sess.Validation.Fields[i].Field == field {
			sess.Validation.Fields[i].Valid = true
			sess.Validation.Fields[i].Message = ""
		}
	}
}

// setFieldError overrides the message of an already failing field.
func setFieldError(sess *domain.Session, field domain.Field, message string) {
	for i := range sess.Validation.Fields {
		if sess.Validation.Fields[i].Field == field && !sess.Validation.Fields[i].Valid {
			sess.Validation.Fields[i].Message = message
		}
	}
}

func isUploadRejection(err error) bool {
	return errors.Is(err, upload.ErrInvalidFormat) || errors.Is(err, upload.ErrFileTooLarge)
}

// sessionLocks serializes read-modify-write cycles per session within this process.
type sessionLocks struct {
	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

func (l *sessionLocks) lock(id string) func() {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[string]*sessionLock)
	}
	entry, ok := l.locks[id]
	if !ok {
		entry = &sessionLock{}
		l.locks[id] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}
