package schedule

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"

	"github.com/jobflow/jobflow-backend/internal/database"
)

type PostgresRepository struct {
	db *sql.DB
}

type rowScanner interface {
	Scan(dest ...any) error
}

const (
	shiftColumns = `shift_id, user_id, shift_date::text, start_time, end_time, hours, source, note, created_at`

	getShiftQuery = `
		SELECT ` + shiftColumns + `
		FROM schedule_shifts
		WHERE shift_id = $1
	`
	insertShiftQuery = `
		INSERT INTO schedule_shifts (user_id, shift_date, start_time, end_time, hours, source, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING shift_id
	`
	insertShiftIfFreeQuery = `
		INSERT INTO schedule_shifts (user_id, shift_date, start_time, end_time, hours, source, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id, shift_date) DO NOTHING
		RETURNING shift_id
	`
	updateShiftQuery = `
		UPDATE schedule_shifts
		SET shift_date = $1, start_time = $2, end_time = $3, hours = $4, note = $5, source = 'manual'
		WHERE shift_id = $6
	`
	deleteShiftQuery     = `DELETE FROM schedule_shifts WHERE shift_id = $1`
	deleteAutoShiftQuery = `
		DELETE FROM schedule_shifts
		WHERE source = 'auto'
			AND user_id = ANY($1::int[])
			AND shift_date BETWEEN $2::date AND $3::date
	`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List(ctx context.Context, f Filter) ([]Shift, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, strings.ReplaceAll(cond, "?", "$"+strconv.Itoa(len(args))))
	}
	if f.UserID != 0 {
		add("user_id = ?", f.UserID)
	}
	if f.From != "" {
		add("shift_date >= ?::date", f.From)
	}
	if f.To != "" {
		add("shift_date <= ?::date", f.To)
	}
	if f.Source != "" {
		add("source = ?", string(f.Source))
	}

	query := "SELECT " + shiftColumns + " FROM schedule_shifts"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY shift_date, user_id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list shifts: %w", err)
	}
	defer rows.Close()

	out := make([]Shift, 0)
	for rows.Next() {
		s, err := scanShift(rows)
		if err != nil {
			return nil, fmt.Errorf("scan shift: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate shifts: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int) (Shift, error) {
	s, err := scanShift(r.db.QueryRowContext(ctx, getShiftQuery, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Shift{}, ErrNotFound
		}
		return Shift{}, fmt.Errorf("get shift: %w", err)
	}
	return s, nil
}

func (r *PostgresRepository) Create(ctx context.Context, s Shift) (Shift, error) {
	err := r.db.QueryRowContext(ctx, insertShiftQuery, shiftArgs(s)...).Scan(&s.ID)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return Shift{}, ErrConflict
		}
		return Shift{}, fmt.Errorf("insert shift: %w", err)
	}
	return s, nil
}

func (r *PostgresRepository) CreateMany(ctx context.Context, shifts []Shift) ([]Shift, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin shifts tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	created, err := insertFree(ctx, tx, shifts)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit shifts tx: %w", err)
	}
	return created, nil
}

func (r *PostgresRepository) ReplaceAuto(ctx context.Context, userIDs []int, from, to string, shifts []Shift) (int, []Shift, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("begin replace shifts tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	removed := 0
	if len(userIDs) > 0 {
		result, err := tx.ExecContext(ctx, deleteAutoShiftQuery, pq.Array(userIDs), from, to)
		if err != nil {
			return 0, nil, fmt.Errorf("delete generated shifts: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return 0, nil, err
		}
		removed = int(affected)
	}

	created, err := insertFree(ctx, tx, shifts)
	if err != nil {
		return 0, nil, err
	}

	if err := tx.Commit(); err != nil {
		return 0, nil, fmt.Errorf("commit replace shifts tx: %w", err)
	}
	return removed, created, nil
}

func insertFree(ctx context.Context, tx *sql.Tx, shifts []Shift) ([]Shift, error) {
	created := make([]Shift, 0, len(shifts))
	for _, s := range shifts {
		err := tx.QueryRowContext(ctx, insertShiftIfFreeQuery, shiftArgs(s)...).Scan(&s.ID)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("insert generated shift: %w", err)
		}
		created = append(created, s)
	}
	return created, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id int, s Shift) (Shift, error) {
	result, err := r.db.ExecContext(ctx, updateShiftQuery, s.Date, s.StartTime, s.EndTime, s.Hours, s.Note, id)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return Shift{}, ErrConflict
		}
		return Shift{}, fmt.Errorf("update shift: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return Shift{}, err
	}
	if affected == 0 {
		return Shift{}, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *PostgresRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, deleteShiftQuery, id)
	if err != nil {
		return fmt.Errorf("delete shift: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func shiftArgs(s Shift) []any {
	return []any{s.UserID, s.Date, s.StartTime, s.EndTime, s.Hours, string(s.Source), s.Note, s.CreatedAt}
}

func scanShift(scanner rowScanner) (Shift, error) {
	var (
		s      Shift
		source string
	)
	if err := scanner.Scan(&s.ID, &s.UserID, &s.Date, &s.StartTime, &s.EndTime, &s.Hours, &source, &s.Note, &s.CreatedAt); err != nil {
		return Shift{}, err
	}
	s.Source = Source(source)
	return s, nil
}
