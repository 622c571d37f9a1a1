package workpattern

import (
	"context"
	"sync"

	"github.com/jobflow/jobflow-backend/internal/apperr"
)

var ErrNotFound = apperr.New(apperr.NotFound, "work pattern not found")

type Repository interface {
	GetByUser(ctx context.Context, userID int) (Pattern, error)
	Upsert(ctx context.Context, pattern Pattern) (Pattern, error)
}

type InMemoryRepository struct {
	mu       sync.RWMutex
	patterns map[int]Pattern
	nextID   int
}

func NewInMemoryRepository(seed []Pattern) *InMemoryRepository {
	repo := &InMemoryRepository{patterns: make(map[int]Pattern, len(seed)), nextID: 1}
	for _, p := range seed {
		repo.patterns[p.UserID] = p
		if p.ID >= repo.nextID {
			repo.nextID = p.ID + 1
		}
	}
	return repo
}

func (r *InMemoryRepository) GetByUser(_ context.Context, userID int) (Pattern, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.patterns[userID]
	if !ok {
		return Pattern{}, ErrNotFound
	}
	return p, nil
}

func (r *InMemoryRepository) Upsert(_ context.Context, pattern Pattern) (Pattern, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.patterns[pattern.UserID]; ok {
		pattern.ID = existing.ID
	} else {
		pattern.ID = r.nextID
		r.nextID++
	}
	r.patterns[pattern.UserID] = pattern
	return pattern, nil
}
