package repository

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticket-generator/internal/domain"
)

func TestMemorySessionRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewMemorySessionRepository(time.Hour)

	_, err := repo.Get(ctx, "missing")
	require.ErrorIs(t, err, pgx.ErrNoRows)

	sess := domain.NewSession("abc", time.Now())
	sess.Form.FullName = "Ada Lovelace"
	require.NoError(t, repo.Save(ctx, sess))

	// Mutating after Save does not leak into the store.
	sess.Form.FullName = "changed"

	got, err := repo.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", got.Form.FullName)
	assert.Equal(t, domain.PhaseFormVisible, got.Phase)

	require.NoError(t, repo.Delete(ctx, "abc"))
	_, err = repo.Get(ctx, "abc")
	require.ErrorIs(t, err, pgx.ErrNoRows)
}

func TestMemorySessionExpires(t *testing.T) {
	ctx := context.Background()
	repo := NewMemorySessionRepository(time.Minute).(*memorySessionRepository)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }

	require.NoError(t, repo.Save(ctx, domain.NewSession("abc", now)))
	now = now.Add(2 * time.Minute)

	_, err := repo.Get(ctx, "abc")
	require.ErrorIs(t, err, pgx.ErrNoRows)
}

func TestMemoryIssuedTicketsLatestByNumber(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryIssuedTicketRepository()

	_, err := repo.LatestByNumber(ctx, 12345)
	require.ErrorIs(t, err, pgx.ErrNoRows)

	require.NoError(t, repo.Create(ctx, &domain.IssuedTicket{ID: "1", Ticket: domain.TicketView{Number: 12345, FullName: "first"}}))
	require.NoError(t, repo.Create(ctx, &domain.IssuedTicket{ID: "2", Ticket: domain.TicketView{Number: 12345, FullName: "second"}}))

	got, err := repo.LatestByNumber(ctx, 12345)
	require.NoError(t, err)
	assert.Equal(t, "second", got.Ticket.FullName)
}

func TestMemoryNumberReserver(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryNumberReserver()

	ok, err := r.Reserve(ctx, 42424)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.Reserve(ctx, 42424)
	require.NoError(t, err)
	assert.False(t, ok)
}
