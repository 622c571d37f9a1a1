package timeentry

import (
	"context"
	"sort"
	"sync"

	"github.com/jobflow/jobflow-backend/internal/apperr"
)

var (
	ErrNotFound   = apperr.New(apperr.NotFound, "time entry not found")
	ErrNotPending = apperr.New(apperr.Conflict, "time entry is no longer pending")
)

type Repository interface {
	List(ctx context.Context, filter Filter) ([]Entry, error)
	GetByID(ctx context.Context, id int) (Entry, error)
	Create(ctx context.Context, entry Entry) (Entry, error)
	Update(ctx context.Context, id int, entry Entry) (Entry, error)
	Delete(ctx context.Context, id int) error
	// SetStatus moves the pending entries among ids to status and returns how
	// many changed.
	SetStatus(ctx context.Context, ids []int, status Status, approverID int, updatedAt string) (int, error)
}

type InMemoryRepository struct {
	mu      sync.RWMutex
	entries []Entry
	nextID  int
}

func NewInMemoryRepository(seed []Entry) *InMemoryRepository {
	repo := &InMemoryRepository{entries: make([]Entry, 0, len(seed)), nextID: 1}
	for _, e := range seed {
		repo.entries = append(repo.entries, e)
		if e.ID >= repo.nextID {
			repo.nextID = e.ID + 1
		}
	}
	return repo
}

func (r *InMemoryRepository) List(_ context.Context, filter Filter) ([]Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Entry, 0)
	for _, e := range r.entries {
		if matches(e, filter) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func matches(e Entry, f Filter) bool {
	if f.UserID != 0 && e.UserID != f.UserID {
		return false
	}
	if f.From != "" && e.Date < f.From {
		return false
	}
	if f.To != "" && e.Date > f.To {
		return false
	}
	if f.Status != "" && e.Status != f.Status {
		return false
	}
	return true
}

func (r *InMemoryRepository) GetByID(_ context.Context, id int) (Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return Entry{}, ErrNotFound
}

func (r *InMemoryRepository) Create(_ context.Context, entry Entry) (Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry.ID = r.nextID
	r.nextID++
	r.entries = append(r.entries, entry)
	return entry, nil
}

func (r *InMemoryRepository) Update(_ context.Context, id int, entry Entry) (Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, e := range r.entries {
		if e.ID == id {
			if e.Status != StatusPending {
				return Entry{}, ErrNotPending
			}
			entry.ID = id
			entry.UserID = e.UserID
			entry.CreatedAt = e.CreatedAt
			r.entries[i] = entry
			return entry, nil
		}
	}
	return Entry{}, ErrNotFound
}

func (r *InMemoryRepository) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, e := range r.entries {
		if e.ID == id {
			if e.Status != StatusPending {
				return ErrNotPending
			}
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (r *InMemoryRepository) SetStatus(_ context.Context, ids []int, status Status, approverID int, updatedAt string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	wanted := make(map[int]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}

	changed := 0
	for i, e := range r.entries {
		if !wanted[e.ID] || e.Status != StatusPending {
			continue
		}
		approver := approverID
		e.Status = status
		e.ApprovedBy = &approver
		e.UpdatedAt = updatedAt
		r.entries[i] = e
		changed++
	}
	return changed, nil
}
