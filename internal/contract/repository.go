package contract

import (
	"context"
	"sync"

	"github.com/jobflow/jobflow-backend/internal/apperr"
)

var (
	ErrNotFound          = apperr.New(apperr.NotFound, "contract not found")
	ErrInvalidTransition = apperr.New(apperr.Conflict, "contract cannot change to that status")
)

type Repository interface {
	// List returns the contracts of userID, or every contract when userID is 0.
	List(ctx context.Context, userID int) ([]Contract, error)
	GetByID(ctx context.Context, id int) (Contract, error)
	Create(ctx context.Context, c Contract) (Contract, error)
	// Transition stores the status and signature fields of c, but only while
	// the stored contract is in one of from.
	Transition(ctx context.Context, c Contract, from []Status) (Contract, error)
}

type InMemoryRepository struct {
	mu        sync.RWMutex
	contracts map[int]Contract
	nextID    int
}

func NewInMemoryRepository(seed []Contract) *InMemoryRepository {
	repo := &InMemoryRepository{contracts: make(map[int]Contract), nextID: 1}
	for _, c := range seed {
		repo.contracts[c.ID] = c
		if c.ID >= repo.nextID {
			repo.nextID = c.ID + 1
		}
	}
	return repo
}

func (r *InMemoryRepository) List(_ context.Context, userID int) ([]Contract, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Contract, 0)
	for id := 1; id < r.nextID; id++ {
		c, ok := r.contracts[id]
		if !ok || (userID != 0 && c.UserID != userID) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (r *InMemoryRepository) GetByID(_ context.Context, id int) (Contract, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.contracts[id]
	if !ok {
		return Contract{}, ErrNotFound
	}
	return c, nil
}

func (r *InMemoryRepository) Create(_ context.Context, c Contract) (Contract, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c.ID = r.nextID
	r.nextID++
	r.contracts[c.ID] = c
	return c, nil
}

func (r *InMemoryRepository) Transition(_ context.Context, c Contract, from []Status) (Contract, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.contracts[c.ID]
	if !ok {
		return Contract{}, ErrNotFound
	}
	allowed := false
	for _, s := range from {
		if stored.Status == s {
			allowed = true
		}
	}
	if !allowed {
		return Contract{}, ErrInvalidTransition
	}

	stored.Status = c.Status
	stored.SentAt = c.SentAt
	stored.SignedAt = c.SignedAt
	stored.SignerName = c.SignerName
	stored.SignerIP = c.SignerIP
	stored.UpdatedAt = c.UpdatedAt
	r.contracts[c.ID] = stored
	return stored, nil
}
