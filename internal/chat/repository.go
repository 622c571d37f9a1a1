package chat

import (
	"context"
	"sort"
	"sync"
	"time"
)

type Repository interface {
	Save(ctx context.Context, msg Message) error
	// History returns up to limit messages of room created before before,
	// oldest first.
	History(ctx context.Context, room string, before time.Time, limit int) ([]Message, error)
}

type InMemoryRepository struct {
	mu       sync.RWMutex
	messages map[string][]Message
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{messages: make(map[string][]Message)}
}

func (r *InMemoryRepository) Save(_ context.Context, msg Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.messages[msg.Room] = append(r.messages[msg.Room], msg)
	return nil
}

func (r *InMemoryRepository) History(_ context.Context, room string, before time.Time, limit int) ([]Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Message, 0, limit)
	for _, m := range r.messages[room] {
		if m.CreatedAt.Before(before) {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}
