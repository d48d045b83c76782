package repository

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/ticket-generator/internal/domain"
)

// SessionRepository persists visitor sessions. Get returns pgx.ErrNoRows
// for unknown or expired sessions.
type SessionRepository interface {
	Get(ctx context.Context, id string) (*domain.Session, error)
	Save(ctx context.Context, sess *domain.Session) error
	Delete(ctx context.Context, id string) error
}

type memorySessionEntry struct {
	payload   []byte
	expiresAt time.Time
}

type memorySessionRepository struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memorySessionEntry
}

// NewMemorySessionRepository keeps sessions in process memory.
func NewMemorySessionRepository(ttl time.Duration) SessionRepository {
	return &memorySessionRepository{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]memorySessionEntry),
	}
}

func (r *memorySessionRepository) Get(_ context.Context, id string) (*domain.Session, error) {
	r.mu.Lock()
	entry, ok := r.entries[id]
	if ok && r.ttl > 0 && r.now().After(entry.expiresAt) {
		delete(r.entries, id)
		ok = false
	}
	r.mu.Unlock()
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return decodeSession(entry.payload)
}

// Save stores a copy, so callers never share a live Session with the store.
func (r *memorySessionRepository) Save(_ context.Context, sess *domain.Session) error {
	payload, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[sess.ID] = memorySessionEntry{payload: payload, expiresAt: r.now().Add(r.ttl)}
	r.sweepLocked()
	return nil
}

func (r *memorySessionRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, id)
	return nil
}

func (r *memorySessionRepository) sweepLocked() {
	if r.ttl <= 0 {
		return
	}
	now := r.now()
	for id, entry := range r.entries {
		if now.After(entry.expiresAt) {
			delete(r.entries, id)
		}
	}
}

type redisSessionRepository struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisSessionRepository stores sessions as JSON with a sliding TTL.
func NewRedisSessionRepository(client *redis.Client, prefix string, ttl time.Duration) SessionRepository {
	return &redisSessionRepository{client: client, prefix: prefix, ttl: ttl}
}

func (r *redisSessionRepository) key(id string) string {
	return r.prefix + "session:" + id
}

func (r *redisSessionRepository) Get(ctx context.Context, id string) (*domain.Session, error) {
	payload, err := r.client.Get(ctx, r.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, pgx.ErrNoRows
		}
		return nil, err
	}
	return decodeSession(payload)
}

func (r *redisSessionRepository) Save(ctx context.Context, sess *domain.Session) error {
	payload, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.key(sess.ID), payload, r.ttl).Err()
}

func (r *redisSessionRepository) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, r.key(id)).Err()
}

func decodeSession(payload []byte) (*domain.Session, error) {
	var sess domain.Session
	if err := json.Unmarshal(payload, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}
