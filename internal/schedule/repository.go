package schedule

import (
	"context"
	"sort"
	"sync"

	"github.com/jobflow/jobflow-backend/internal/apperr"
)

var (
	ErrNotFound = apperr.New(apperr.NotFound, "shift not found")
	ErrConflict = apperr.New(apperr.Conflict, "user already has a shift on that day")
)

type Repository interface {
	List(ctx context.Context, filter Filter) ([]Shift, error)
	GetByID(ctx context.Context, id int) (Shift, error)
	Create(ctx context.Context, shift Shift) (Shift, error)
	// CreateMany inserts shifts, silently skipping days that are already taken.
	CreateMany(ctx context.Context, shifts []Shift) ([]Shift, error)
	Update(ctx context.Context, id int, shift Shift) (Shift, error)
	Delete(ctx context.Context, id int) error
	// ReplaceAuto removes the generated shifts of userIDs between from and to
	// and inserts shifts like CreateMany, all or nothing.
	ReplaceAuto(ctx context.Context, userIDs []int, from, to string, shifts []Shift) (int, []Shift, error)
}

type InMemoryRepository struct {
	mu     sync.RWMutex
	shifts []Shift
	nextID int
}

func NewInMemoryRepository(seed []Shift) *InMemoryRepository {
	repo := &InMemoryRepository{nextID: 1}
	for _, s := range seed {
		repo.shifts = append(repo.shifts, s)
		if s.ID >= repo.nextID {
			repo.nextID = s.ID + 1
		}
	}
	return repo
}

func (r *InMemoryRepository) List(_ context.Context, f Filter) ([]Shift, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Shift, 0)
	for _, s := range r.shifts {
		if f.UserID != 0 && s.UserID != f.UserID {
			continue
		}
		if f.From != "" && s.Date < f.From {
			continue
		}
		if f.To != "" && s.Date > f.To {
			continue
		}
		if f.Source != "" && s.Source != f.Source {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].UserID < out[j].UserID
	})
	return out, nil
}

func (r *InMemoryRepository) GetByID(_ context.Context, id int) (Shift, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.shifts {
		if s.ID == id {
			return s, nil
		}
	}
	return Shift{}, ErrNotFound
}

func (r *InMemoryRepository) taken(userID int, date string, except int) bool {
	for _, s := range r.shifts {
		if s.UserID == userID && s.Date == date && s.ID != except {
			return true
		}
	}
	return false
}

func (r *InMemoryRepository) Create(_ context.Context, shift Shift) (Shift, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.taken(shift.UserID, shift.Date, 0) {
		return Shift{}, ErrConflict
	}
	shift.ID = r.nextID
	r.nextID++
	r.shifts = append(r.shifts, shift)
	return shift, nil
}

func (r *InMemoryRepository) CreateMany(_ context.Context, shifts []Shift) ([]Shift, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.insertFree(shifts), nil
}

func (r *InMemoryRepository) insertFree(shifts []Shift) []Shift {
	created := make([]Shift, 0, len(shifts))
	for _, shift := range shifts {
		if r.taken(shift.UserID, shift.Date, 0) {
			continue
		}
		shift.ID = r.nextID
		r.nextID++
		r.shifts = append(r.shifts, shift)
		created = append(created, shift)
	}
	return created
}

func (r *InMemoryRepository) Update(_ context.Context, id int, shift Shift) (Shift, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, s := range r.shifts {
		if s.ID == id {
			if r.taken(s.UserID, shift.Date, id) {
				return Shift{}, ErrConflict
			}
			s.Date = shift.Date
			s.StartTime = shift.StartTime
			s.EndTime = shift.EndTime
			s.Hours = shift.Hours
			s.Note = shift.Note
			s.Source = SourceManual
			r.shifts[i] = s
			return s, nil
		}
	}
	return Shift{}, ErrNotFound
}

func (r *InMemoryRepository) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, s := range r.shifts {
		if s.ID == id {
			r.shifts = append(r.shifts[:i], r.shifts[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (r *InMemoryRepository) ReplaceAuto(_ context.Context, userIDs []int, from, to string, shifts []Shift) (int, []Shift, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	users := make(map[int]bool, len(userIDs))
	for _, id := range userIDs {
		users[id] = true
	}

	kept := r.shifts[:0]
	removed := 0
	for _, s := range r.shifts {
		if s.Source == SourceAuto && users[s.UserID] && s.Date >= from && s.Date <= to {
			removed++
			continue
		}
		kept = append(kept, s)
	}
	r.shifts = kept
	return removed, r.insertFree(shifts), nil
}
