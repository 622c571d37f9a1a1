package push

import (
	"context"
	"sync"

	"github.com/jobflow/jobflow-backend/internal/apperr"
)

var ErrNotFound = apperr.New(apperr.NotFound, "push subscription not found")

type Repository interface {
	// Save stores sub, moving an already known endpoint to sub.UserID.
	Save(ctx context.Context, sub Subscription) (Subscription, error)
	ListByUser(ctx context.Context, userID int) ([]Subscription, error)
	Delete(ctx context.Context, userID int, endpoint string) error
	// DeleteEndpoint drops an endpoint the push service reported as gone.
	DeleteEndpoint(ctx context.Context, endpoint string) error
}

type InMemoryRepository struct {
	mu     sync.RWMutex
	subs   map[string]Subscription
	nextID int
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{subs: make(map[string]Subscription), nextID: 1}
}

func (r *InMemoryRepository) Save(_ context.Context, sub Subscription) (Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.subs[sub.Endpoint]; ok {
		sub.ID = existing.ID
	} else {
		sub.ID = r.nextID
		r.nextID++
	}
	r.subs[sub.Endpoint] = sub
	return sub, nil
}

func (r *InMemoryRepository) ListByUser(_ context.Context, userID int) ([]Subscription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Subscription, 0)
	for _, s := range r.subs {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *InMemoryRepository) Delete(_ context.Context, userID int, endpoint string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.subs[endpoint]
	if !ok || s.UserID != userID {
		return ErrNotFound
	}
	delete(r.subs, endpoint)
	return nil
}

func (r *InMemoryRepository) DeleteEndpoint(_ context.Context, endpoint string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.subs, endpoint)
	return nil
}
