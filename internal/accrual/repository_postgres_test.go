package accrual

import (
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/jobflow/jobflow-backend/internal/user"
)

func TestPostgresSaveRejectsOverlap(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("FOR UPDATE").WithArgs(4).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(4, "2025-01-01", "2025-12-31").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	_, err = repo.Save(t.Context(), Record{UserID: 4, PeriodStart: "2025-01-01", PeriodEnd: "2025-12-31", ContractType: user.ContractFixed})
	if !errors.Is(err, ErrPeriodOverlap) {
		t.Fatalf("expected ErrPeriodOverlap, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresSaveUpserts(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("FOR UPDATE").WithArgs(4).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(4, "2025-01-01", "2025-01-31").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery("ON CONFLICT \\(user_id, period_start, period_end\\) DO UPDATE").
		WillReturnRows(sqlmock.NewRows([]string{"accrual_id"}).AddRow(9))
	mock.ExpectCommit()

	rec, err := repo.Save(t.Context(), Record{UserID: 4, PeriodStart: "2025-01-01", PeriodEnd: "2025-01-31", ContractType: user.ContractFixed, VacationHours: 13.59})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.ID != 9 {
		t.Fatalf("expected id 9, got %d", rec.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
