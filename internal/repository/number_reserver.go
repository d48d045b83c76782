package repository

import (
	"context"
	"strconv"
	"sync"

	"github.com/redis/go-redis/v9"
)

// NumberReserver claims ticket numbers. Reserve reports false when the
// number was already taken.
type NumberReserver interface {
	Reserve(ctx context.Context, number int) (bool, error)
}

type memoryNumberReserver struct {
	mu    sync.Mutex
	taken map[int]struct{}
}

// NewMemoryNumberReserver tracks claimed numbers for the life of the process.
func NewMemoryNumberReserver() NumberReserver {
	return &memoryNumberReserver{taken: make(map[int]struct{})}
}

func (r *memoryNumberReserver) Reserve(_ context.Context, number int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.taken[number]; ok {
		return false, nil
	}
	r.taken[number] = struct{}{}
	return true, nil
}

type redisNumberReserver struct {
	client *redis.Client
	prefix string
}

// NewRedisNumberReserver claims numbers with SETNX so every instance sees them.
func NewRedisNumberReserver(client *redis.Client, prefix string) NumberReserver {
	return &redisNumberReserver{client: client, prefix: prefix}
}

func (r *redisNumberReserver) Reserve(ctx context.Context, number int) (bool, error) {
	return r.client.SetNX(ctx, r.prefix+"ticket-number:"+strconv.Itoa(number), 1, 0).Result()
}
