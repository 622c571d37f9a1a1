package accrual

import (
	"context"
	"sort"
	"sync"

	"github.com/jobflow/jobflow-backend/internal/apperr"
	"github.com/jobflow/jobflow-backend/internal/user"
)

// ErrPeriodOverlap is returned when a record would share days with a stored
// record of a different period. Only the exact same period may be replaced.
var ErrPeriodOverlap = apperr.New(apperr.Conflict, "period overlaps an existing accrual")

// Record is the persisted accrual of one employee for one period. Accruing
// the same period again replaces the record.
type Record struct {
	ID             int               `json:"accrualId"`
	UserID         int               `json:"userId"`
	PeriodStart    string            `json:"periodStart"`
	PeriodEnd      string            `json:"periodEnd"`
	ContractType   user.ContractType `json:"contractType"`
	WorkedHours    float64           `json:"workedHours"`
	PlannedHours   float64           `json:"plannedHours"`
	OvertimeHours  float64           `json:"overtimeHours"`
	UndertimeHours float64           `json:"undertimeHours"`
	VacationHours  float64           `json:"vacationHours"`
	CreatedAt      string            `json:"createdAt,omitempty"`
}

func (r Record) samePeriod(o Record) bool {
	return r.PeriodStart == o.PeriodStart && r.PeriodEnd == o.PeriodEnd
}

// overlaps compares YYYY-MM-DD strings, which order like the dates.
func (r Record) overlaps(o Record) bool {
	return r.PeriodStart <= o.PeriodEnd && o.PeriodStart <= r.PeriodEnd
}

type Repository interface {
	// Save stores the record, replacing one of the same period. It fails
	// with ErrPeriodOverlap when another period of the user shares days.
	Save(ctx context.Context, record Record) (Record, error)
	ListByUser(ctx context.Context, userID int) ([]Record, error)
	TotalVacation(ctx context.Context, userID int) (float64, error)
}

type InMemoryRepository struct {
	mu      sync.RWMutex
	records []Record
	nextID  int
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{nextID: 1}
}

func (r *InMemoryRepository) Save(_ context.Context, record Record) (Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.records {
		if existing.UserID != record.UserID || existing.samePeriod(record) {
			continue
		}
		if existing.overlaps(record) {
			return Record{}, ErrPeriodOverlap
		}
	}
	for i, existing := range r.records {
		if existing.UserID == record.UserID && existing.samePeriod(record) {
			record.ID = existing.ID
			r.records[i] = record
			return record, nil
		}
	}
	record.ID = r.nextID
	r.nextID++
	r.records = append(r.records, record)
	return record, nil
}

func (r *InMemoryRepository) ListByUser(_ context.Context, userID int) ([]Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Record, 0)
	for _, rec := range r.records {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PeriodStart < out[j].PeriodStart })
	return out, nil
}

func (r *InMemoryRepository) TotalVacation(ctx context.Context, userID int) (float64, error) {
	records, _ := r.ListByUser(ctx, userID)
	total := 0.0
	for _, rec := range records {
		total += rec.VacationHours
	}
	return round2(total), nil
}
