package leave

import (
	"context"
	"sort"
	"sync"

	"github.com/jobflow/jobflow-backend/internal/apperr"
)

var (
	ErrNotFound            = apperr.New(apperr.NotFound, "leave request not found")
	ErrNotPending          = apperr.New(apperr.Conflict, "leave request is no longer pending")
	ErrOverlap             = apperr.New(apperr.Conflict, "leave overlaps an existing request")
	ErrInsufficientBalance = apperr.New(apperr.Conflict, "not enough vacation hours available")
)

// Filter narrows List. From/To select requests overlapping the range.
type Filter struct {
	UserID int
	From   string
	To     string
	Status Status
}

type Repository interface {
	List(ctx context.Context, filter Filter) ([]Request, error)
	GetByID(ctx context.Context, id int) (Request, error)
	Create(ctx context.Context, req Request) (Request, error)
	// UpdateStatus changes the status only while the request is pending.
	UpdateStatus(ctx context.Context, id int, status Status, decidedBy *int, updatedAt string) (Request, error)
}

type InMemoryRepository struct {
	mu       sync.RWMutex
	requests []Request
	nextID   int
}

func NewInMemoryRepository(seed []Request) *InMemoryRepository {
	repo := &InMemoryRepository{nextID: 1}
	for _, r := range seed {
		repo.requests = append(repo.requests, r)
		if r.ID >= repo.nextID {
			repo.nextID = r.ID + 1
		}
	}
	return repo
}

func (r *InMemoryRepository) List(_ context.Context, f Filter) ([]Request, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Request, 0)
	for _, req := range r.requests {
		if f.UserID != 0 && req.UserID != f.UserID {
			continue
		}
		if f.Status != "" && req.Status != f.Status {
			continue
		}
		if f.From != "" && req.EndDate < f.From {
			continue
		}
		if f.To != "" && req.StartDate > f.To {
			continue
		}
		out = append(out, req)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartDate != out[j].StartDate {
			return out[i].StartDate < out[j].StartDate
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *InMemoryRepository) GetByID(_ context.Context, id int) (Request, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, req := range r.requests {
		if req.ID == id {
			return req, nil
		}
	}
	return Request{}, ErrNotFound
}

func (r *InMemoryRepository) Create(_ context.Context, req Request) (Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	req.ID = r.nextID
	r.nextID++
	r.requests = append(r.requests, req)
	return req, nil
}

func (r *InMemoryRepository) UpdateStatus(_ context.Context, id int, status Status, decidedBy *int, updatedAt string) (Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, req := range r.requests {
		if req.ID == id {
			if req.Status != StatusPending {
				return Request{}, ErrNotPending
			}
			req.Status = status
			req.DecidedBy = decidedBy
			req.UpdatedAt = updatedAt
			r.requests[i] = req
			return req, nil
		}
	}
	return Request{}, ErrNotFound
}
