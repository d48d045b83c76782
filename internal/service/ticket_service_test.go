package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticket-generator/internal/domain"
	"github.com/spec-kit/ticket-generator/internal/events"
	"github.com/spec-kit/ticket-generator/internal/repository"
	"github.com/spec-kit/ticket-generator/internal/upload"
	"github.com/spec-kit/ticket-generator/internal/validation"
	apperrors "github.com/spec-kit/ticket-generator/pkg/util"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type sequenceNumbers struct {
	values []int
	i      int
}

func (s *sequenceNumbers) Next() int {
	v := s.values[s.i%len(s.values)]
	s.i++
	return v
}

func testAvatar() *domain.AvatarFile {
	data := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
	return &domain.AvatarFile{FileName: "me.png", MIMEType: "image/png", Size: int64(len(data)), Data: data, Digest: upload.Digest(data)}
}

func graceForm() domain.FormState {
	return domain.FormState{
		FullName: "Grace Hopper",
		Email:    "grace@navy.mil",
		GitHub:   "ghopper",
		Avatar:   testAvatar(),
	}
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Ada", DisplayName("Ada Lovelace"))
	assert.Equal(t, "Ada", DisplayName("  Ada\tLovelace "))
	assert.Equal(t, "Cher", DisplayName("Cher"))
	assert.Equal(t, "", DisplayName("   "))
}

func TestNormalizeHandle(t *testing.T) {
	assert.Equal(t, "@octocat", NormalizeHandle("octocat"))
	assert.Equal(t, "@octocat", NormalizeHandle("@octocat"))
	assert.Equal(t, "@octocat", NormalizeHandle("  octocat "))
}

func TestIssueKeepsMarkupLikeValues(t *testing.T) {
	svc := NewTicketService(TicketDependencies{Numbers: &sequenceNumbers{values: []int{42424}}})
	form := graceForm()
	form.FullName = "Ada <Lovelace>"
	form.Email = "<ada>@b.c"
	form.GitHub = "<octocat>"
	require.True(t, validation.Validate(form).Valid())

	ticket, err := svc.Issue(context.Background(), "sess-1", form)
	require.NoError(t, err)
	assert.Equal(t, "Ada <Lovelace>", ticket.FullName)
	assert.Equal(t, "Ada", ticket.DisplayName)
	assert.Equal(t, "<ada>@b.c", ticket.Email)
	assert.Equal(t, "@<octocat>", ticket.GitHub)
}

func TestIssueCopiesFullNameUnchanged(t *testing.T) {
	svc := NewTicketService(TicketDependencies{Numbers: &sequenceNumbers{values: []int{42424}}})
	form := graceForm()
	form.FullName = "  Grace Hopper "

	ticket, err := svc.Issue(context.Background(), "sess-1", form)
	require.NoError(t, err)
	assert.Equal(t, "  Grace Hopper ", ticket.FullName)
	assert.Equal(t, "Grace", ticket.DisplayName)
}

func TestRandomNumbersStayInRange(t *testing.T) {
	src := RandomNumbers()
	for i := 0; i < 1000; i++ {
		n := src.Next()
		require.GreaterOrEqual(t, n, domain.TicketNumberMin)
		require.LessOrEqual(t, n, domain.TicketNumberMax)
	}
}

func TestIssueBuildsTicket(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	var published []events.Event
	dispatcher.Subscribe(events.EventTicketIssued, func(_ context.Context, e events.Event) error {
		published = append(published, e)
		return nil
	})
	repo := repository.NewMemoryIssuedTicketRepository()
	svc := NewTicketService(TicketDependencies{
		IssuedRepo: repo,
		Numbers:    &sequenceNumbers{values: []int{48213}},
		Dispatcher: dispatcher,
		Now:        func() time.Time { return fixedNow },
	})

	form := graceForm()
	ticket, err := svc.Issue(context.Background(), "sess-1", form)
	require.NoError(t, err)

	assert.Equal(t, "Grace", ticket.DisplayName)
	assert.Equal(t, "Grace Hopper", ticket.FullName)
	assert.Equal(t, "grace@navy.mil", ticket.Email)
	assert.Equal(t, "@ghopper", ticket.GitHub)
	assert.Equal(t, upload.EncodeDataURL("image/png", form.Avatar.Data), ticket.AvatarDataURL)
	assert.Equal(t, 48213, ticket.Number)
	assert.Equal(t, fixedNow, ticket.IssuedAt)
	assert.NotEmpty(t, ticket.ID)

	require.Len(t, published, 1)
	assert.Equal(t, "sess-1", published[0].SessionID)

	found, err := svc.Lookup(context.Background(), 48213)
	require.NoError(t, err)
	assert.Equal(t, ticket.ID, found.ID)
	assert.Equal(t, ticket.AvatarDataURL, found.AvatarDataURL)
}

func TestIssueRejectsInvalidForm(t *testing.T) {
	svc := NewTicketService(TicketDependencies{})
	form := graceForm()
	form.Email = "grace@navy"

	ticket, err := svc.Issue(context.Background(), "sess-1", form)
	require.Error(t, err)
	assert.Nil(t, ticket)
	de := apperrors.ToDomainError(err)
	assert.Equal(t, "VALIDATION_FAILED", de.Code)
	assert.Contains(t, de.Details, "email")
}

func TestIssueRetriesTakenNumbers(t *testing.T) {
	reserver := repository.NewMemoryNumberReserver()
	_, err := reserver.Reserve(context.Background(), 11111)
	require.NoError(t, err)

	svc := NewTicketService(TicketDependencies{
		Reserver: reserver,
		Numbers:  &sequenceNumbers{values: []int{11111, 22222}},
	})
	ticket, err := svc.Issue(context.Background(), "s", graceForm())
	require.NoError(t, err)
	assert.Equal(t, 22222, ticket.Number)
}

func TestIssueGivesUpWhenNumbersExhausted(t *testing.T) {
	reserver := repository.NewMemoryNumberReserver()
	_, err := reserver.Reserve(context.Background(), 11111)
	require.NoError(t, err)

	svc := NewTicketService(TicketDependencies{
		Reserver:       reserver,
		Numbers:        &sequenceNumbers{values: []int{11111}},
		NumberAttempts: 3,
	})
	_, err = svc.Issue(context.Background(), "s", graceForm())
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", apperrors.ToDomainError(err).Code)
}

func TestLookupErrors(t *testing.T) {
	svc := NewTicketService(TicketDependencies{IssuedRepo: repository.NewMemoryIssuedTicketRepository()})

	_, err := svc.Lookup(context.Background(), 42)
	assert.Equal(t, "BAD_REQUEST", apperrors.ToDomainError(err).Code)

	_, err = svc.Lookup(context.Background(), 55555)
	assert.Equal(t, "NOT_FOUND", apperrors.ToDomainError(err).Code)
}

func TestTransitionPhases(t *testing.T) {
	tr := DefaultTransition
	assert.Equal(t, 1050*time.Millisecond, tr.Total())
	assert.Equal(t, domain.PhaseTransitioning, tr.PhaseAt(0))
	assert.Equal(t, domain.PhaseTransitioning, tr.PhaseAt(549*time.Millisecond))
	assert.Equal(t, domain.PhaseTicketVisible, tr.PhaseAt(tr.Total()))

	sess := domain.NewSession("s", fixedNow)
	assert.False(t, tr.Advance(sess, fixedNow), "no ticket, stays on the form")

	sess.Ticket = &domain.TicketView{IssuedAt: fixedNow}
	sess.Phase = domain.PhaseTransitioning
	assert.False(t, tr.Advance(sess, fixedNow.Add(100*time.Millisecond)))
	assert.True(t, tr.Advance(sess, fixedNow.Add(2*time.Second)))
	assert.Equal(t, domain.PhaseTicketVisible, sess.Phase)
	assert.False(t, tr.Advance(sess, fixedNow), "never moves backwards")
	assert.Equal(t, domain.PhaseTicketVisible, sess.Phase)
}
