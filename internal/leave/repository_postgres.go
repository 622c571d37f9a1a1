package leave

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

type PostgresRepository struct {
	db *sql.DB
}

type rowScanner interface {
	Scan(dest ...any) error
}

const (
	leaveColumns = `leave_id, user_id, leave_type, start_date::text, end_date::text, hours, status, note, decided_by, created_at, updated_at`

	getLeaveQuery = `
		SELECT ` + leaveColumns + `
		FROM leave_requests
		WHERE leave_id = $1
	`
	insertLeaveQuery = `
		INSERT INTO leave_requests (user_id, leave_type, start_date, end_date, hours, status, note, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING leave_id
	`
	updateLeaveStatusQuery = `
		UPDATE leave_requests
		SET status = $1, decided_by = $2, updated_at = $3
		WHERE leave_id = $4 AND status = 'pending'
	`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List(ctx context.Context, f Filter) ([]Request, error) {
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
	if f.Status != "" {
		add("status = ?", string(f.Status))
	}
	if f.From != "" {
		add("end_date >= ?::date", f.From)
	}
	if f.To != "" {
		add("start_date <= ?::date", f.To)
	}

	query := "SELECT " + leaveColumns + " FROM leave_requests"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY start_date, leave_id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list leave requests: %w", err)
	}
	defer rows.Close()

	out := make([]Request, 0)
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan leave request: %w", err)
		}
		out = append(out, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leave requests: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int) (Request, error) {
	req, err := scanRequest(r.db.QueryRowContext(ctx, getLeaveQuery, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Request{}, ErrNotFound
		}
		return Request{}, fmt.Errorf("get leave request: %w", err)
	}
	return req, nil
}

func (r *PostgresRepository) Create(ctx context.Context, req Request) (Request, error) {
	err := r.db.QueryRowContext(ctx, insertLeaveQuery,
		req.UserID,
		string(req.Type),
		req.StartDate,
		req.EndDate,
		req.Hours,
		string(req.Status),
		req.Note,
		req.CreatedAt,
		req.UpdatedAt,
	).Scan(&req.ID)
	if err != nil {
		return Request{}, fmt.Errorf("insert leave request: %w", err)
	}
	return req, nil
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, id int, status Status, decidedBy *int, updatedAt string) (Request, error) {
	var decider sql.NullInt64
	if decidedBy != nil {
		decider = sql.NullInt64{Int64: int64(*decidedBy), Valid: true}
	}

	result, err := r.db.ExecContext(ctx, updateLeaveStatusQuery, string(status), decider, updatedAt, id)
	if err != nil {
		return Request{}, fmt.Errorf("update leave status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return Request{}, err
	}
	if affected == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return Request{}, err
		}
		return Request{}, ErrNotPending
	}
	return r.GetByID(ctx, id)
}

func scanRequest(scanner rowScanner) (Request, error) {
	var (
		req       Request
		leaveType string
		status    string
		decidedBy sql.NullInt64
	)
	if err := scanner.Scan(
		&req.ID,
		&req.UserID,
		&leaveType,
		&req.StartDate,
		&req.EndDate,
		&req.Hours,
		&status,
		&req.Note,
		&decidedBy,
		&req.CreatedAt,
		&req.UpdatedAt,
	); err != nil {
		return Request{}, err
	}
	req.Type = Type(leaveType)
	req.Status = Status(status)
	if decidedBy.Valid {
		id := int(decidedBy.Int64)
		req.DecidedBy = &id
	}
	return req, nil
}
