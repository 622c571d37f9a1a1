package contract

import (
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

var contractRowColumns = []string{"contract_id", "user_id", "title", "contract_type", "weekly_hours", "hourly_wage", "start_date", "end_date", "body", "status", "document_key", "sent_at", "signed_at", "signer_name", "signer_ip", "created_at", "updated_at"}

func TestPostgresTransitionRejectsWrongStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectExec("UPDATE contracts").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("FROM contracts").WithArgs(5).WillReturnRows(
		sqlmock.NewRows(contractRowColumns).AddRow(5, 2, "Contract", "fixed", "40.00", "21.00", "2025-04-01", "", "body", "signed", "5f0c3a4e-3d7b-4b8e-9a51-7f1f0e6f4a11", "s", "s", "Ada", "10.0.0.7", "c", "u"),
	)

	_, err = repo.Transition(t.Context(), Contract{ID: 5, Status: StatusVoid}, []Status{StatusDraft, StatusSent})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresGetMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock error: %v", err)
	}
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectQuery("FROM contracts").WithArgs(9).WillReturnRows(sqlmock.NewRows(contractRowColumns))

	if _, err := repo.GetByID(t.Context(), 9); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
