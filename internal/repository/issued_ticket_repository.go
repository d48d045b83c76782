package repository

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/ticket-generator/internal/domain"
)

// IssuedTicketRepository records generated tickets.
type IssuedTicketRepository interface {
	Create(ctx context.Context, issued *domain.IssuedTicket) error
	LatestByNumber(ctx context.Context, number int) (*domain.IssuedTicket, error)
}

type issuedTicketRepository struct {
	pool *pgxpool.Pool
}

// NewIssuedTicketRepository returns a Postgres-backed implementation.
func NewIssuedTicketRepository(pool *pgxpool.Pool) IssuedTicketRepository {
	return &issuedTicketRepository{pool: pool}
}

func (r *issuedTicketRepository) Create(ctx context.Context, issued *domain.IssuedTicket) error {
	const query = `
        INSERT INTO issued_tickets (id, ticket_number, session_id, display_name, full_name, email,
            github_handle, avatar_mime_type, avatar_digest, avatar_data, issued_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`
	t := issued.Ticket
	_, err := r.pool.Exec(ctx, query,
		issued.ID,
		t.Number,
		issued.SessionID,
		t.DisplayName,
		t.FullName,
		t.Email,
		t.GitHub,
		issued.AvatarMIMEType,
		t.AvatarDigest,
		issued.AvatarData,
		t.IssuedAt,
	)
	return err
}

func (r *issuedTicketRepository) LatestByNumber(ctx context.Context, number int) (*domain.IssuedTicket, error) {
	const query = `
        SELECT id, ticket_number, session_id, display_name, full_name, email, github_handle,
            avatar_mime_type, avatar_digest, avatar_data, issued_at
        FROM issued_tickets WHERE ticket_number=$1
        ORDER BY issued_at DESC LIMIT 1`
	var issued domain.IssuedTicket
	t := &issued.Ticket
	err := r.pool.QueryRow(ctx, query, number).Scan(
		&issued.ID,
		&t.Number,
		&issued.SessionID,
		&t.DisplayName,
		&t.FullName,
		&t.Email,
		&t.GitHub,
		&issued.AvatarMIMEType,
		&t.AvatarDigest,
		&issued.AvatarData,
		&t.IssuedAt,
	)
	if err != nil {
		return nil, err
	}
	t.ID = issued.ID
	return &issued, nil
}

type memoryIssuedTicketRepository struct {
	mu      sync.RWMutex
	records []domain.IssuedTicket
}

// NewMemoryIssuedTicketRepository keeps the ledger in process memory.
func NewMemoryIssuedTicketRepository() IssuedTicketRepository {
	return &memoryIssuedTicketRepository{}
}

func (r *memoryIssuedTicketRepository) Create(_ context.Context, issued *domain.IssuedTicket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, *issued)
	return nil
}

func (r *memoryIssuedTicketRepository) LatestByNumber(_ context.Context, number int) (*domain.IssuedTicket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := len(r.records) - 1; i >= 0; i-- {
		if r.records[i].Ticket.Number == number {
			found := r.records[i]
			return &found, nil
		}
	}
	return nil, pgx.ErrNoRows
}
