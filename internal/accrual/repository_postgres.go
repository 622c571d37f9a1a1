package accrual

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jobflow/jobflow-backend/internal/user"
)

type PostgresRepository struct {
	db *sql.DB
}

const (
	lockUserQuery = `SELECT user_id FROM users WHERE user_id = $1 FOR UPDATE`
	overlapQuery  = `
		SELECT EXISTS (
			SELECT 1
			FROM vacation_accruals
			WHERE user_id = $1
				AND period_start <= $3::date
				AND period_end >= $2::date
				AND NOT (period_start = $2::date AND period_end = $3::date)
		)
	`
	saveRecordQuery = `
		INSERT INTO vacation_accruals (user_id, period_start, period_end, contract_type, worked_hours, planned_hours, overtime_hours, undertime_hours, vacation_hours, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (user_id, period_start, period_end) DO UPDATE
		SET contract_type = EXCLUDED.contract_type,
			worked_hours = EXCLUDED.worked_hours,
			planned_hours = EXCLUDED.planned_hours,
			overtime_hours = EXCLUDED.overtime_hours,
			undertime_hours = EXCLUDED.undertime_hours,
			vacation_hours = EXCLUDED.vacation_hours,
			created_at = EXCLUDED.created_at
		RETURNING accrual_id
	`
	listRecordsQuery = `
		SELECT accrual_id, user_id, period_start::text, period_end::text, contract_type, worked_hours, planned_hours, overtime_hours, undertime_hours, vacation_hours, created_at
		FROM vacation_accruals
		WHERE user_id = $1
		ORDER BY period_start
	`
	totalVacationQuery = `SELECT COALESCE(SUM(vacation_hours), 0)::float8 FROM vacation_accruals WHERE user_id = $1`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Save runs the overlap check and the upsert in one transaction holding the
// user's row lock, so concurrent runs for the same user serialize.
func (r *PostgresRepository) Save(ctx context.Context, rec Record) (saved Record, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return Record{}, fmt.Errorf("begin save accrual: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, lockUserQuery, rec.UserID); err != nil {
		return Record{}, fmt.Errorf("lock accrual user: %w", err)
	}

	var overlap bool
	if err = tx.QueryRowContext(ctx, overlapQuery, rec.UserID, rec.PeriodStart, rec.PeriodEnd).Scan(&overlap); err != nil {
		return Record{}, fmt.Errorf("check accrual overlap: %w", err)
	}
	if overlap {
		err = ErrPeriodOverlap
		return Record{}, err
	}

	err = tx.QueryRowContext(ctx, saveRecordQuery,
		rec.UserID,
		rec.PeriodStart,
		rec.PeriodEnd,
		string(rec.ContractType),
		rec.WorkedHours,
		rec.PlannedHours,
		rec.OvertimeHours,
		rec.UndertimeHours,
		rec.VacationHours,
		rec.CreatedAt,
	).Scan(&rec.ID)
	if err != nil {
		return Record{}, fmt.Errorf("save accrual: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return Record{}, fmt.Errorf("commit accrual: %w", err)
	}
	return rec, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID int) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, listRecordsQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("list accruals: %w", err)
	}
	defer rows.Close()

	records := make([]Record, 0)
	for rows.Next() {
		var (
			rec Record
			ct  string
		)
		if err := rows.Scan(
			&rec.ID,
			&rec.UserID,
			&rec.PeriodStart,
			&rec.PeriodEnd,
			&ct,
			&rec.WorkedHours,
			&rec.PlannedHours,
			&rec.OvertimeHours,
			&rec.UndertimeHours,
			&rec.VacationHours,
			&rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan accrual: %w", err)
		}
		rec.ContractType = user.ContractType(ct)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accruals: %w", err)
	}
	return records, nil
}

func (r *PostgresRepository) TotalVacation(ctx context.Context, userID int) (float64, error) {
	var total float64
	if err := r.db.QueryRowContext(ctx, totalVacationQuery, userID).Scan(&total); err != nil {
		return 0, fmt.Errorf("total vacation: %w", err)
	}
	return total, nil
}
