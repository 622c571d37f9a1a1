package timeentry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"
)

type PostgresRepository struct {
	db *sql.DB
}

type rowScanner interface {
	Scan(dest ...any) error
}

const (
	entryColumns = `entry_id, user_id, entry_date::text, start_time, end_time, break_minutes, hours, status, note, approved_by, created_at, updated_at`

	getEntryQuery = `
		SELECT ` + entryColumns + `
		FROM time_entries
		WHERE entry_id = $1
	`
	insertEntryQuery = `
		INSERT INTO time_entries (user_id, entry_date, start_time, end_time, break_minutes, hours, status, note, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING entry_id
	`
	updateEntryQuery = `
		UPDATE time_entries
		SET entry_date = $1,
			start_time = $2,
			end_time = $3,
			break_minutes = $4,
			hours = $5,
			note = $6,
			updated_at = $7
		WHERE entry_id = $8 AND status = 'pending'
	`
	deleteEntryQuery = `DELETE FROM time_entries WHERE entry_id = $1 AND status = 'pending'`
	setStatusQuery   = `
		UPDATE time_entries
		SET status = $1, approved_by = $2, updated_at = $3
		WHERE entry_id = ANY($4::int[]) AND status = 'pending'
	`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List(ctx context.Context, filter Filter) ([]Entry, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, strings.ReplaceAll(cond, "?", "$"+strconv.Itoa(len(args))))
	}
	if filter.UserID != 0 {
		add("user_id = ?", filter.UserID)
	}
	if filter.From != "" {
		add("entry_date >= ?::date", filter.From)
	}
	if filter.To != "" {
		add("entry_date <= ?::date", filter.To)
	}
	if filter.Status != "" {
		add("status = ?", string(filter.Status))
	}

	query := "SELECT " + entryColumns + " FROM time_entries"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY entry_date, entry_id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list time entries: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan time entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate time entries: %w", err)
	}
	return entries, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int) (Entry, error) {
	e, err := scanEntry(r.db.QueryRowContext(ctx, getEntryQuery, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, ErrNotFound
		}
		return Entry{}, fmt.Errorf("get time entry: %w", err)
	}
	return e, nil
}

func (r *PostgresRepository) Create(ctx context.Context, entry Entry) (Entry, error) {
	err := r.db.QueryRowContext(ctx, insertEntryQuery,
		entry.UserID,
		entry.Date,
		entry.StartTime,
		entry.EndTime,
		entry.BreakMinutes,
		entry.Hours,
		string(entry.Status),
		entry.Note,
		entry.CreatedAt,
		entry.UpdatedAt,
	).Scan(&entry.ID)
	if err != nil {
		return Entry{}, fmt.Errorf("insert time entry: %w", err)
	}
	return entry, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id int, entry Entry) (Entry, error) {
	result, err := r.db.ExecContext(ctx, updateEntryQuery,
		entry.Date,
		entry.StartTime,
		entry.EndTime,
		entry.BreakMinutes,
		entry.Hours,
		entry.Note,
		entry.UpdatedAt,
		id,
	)
	if err != nil {
		return Entry{}, fmt.Errorf("update time entry: %w", err)
	}
	if err := r.checkAffected(ctx, result, id); err != nil {
		return Entry{}, err
	}
	return r.GetByID(ctx, id)
}

func (r *PostgresRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, deleteEntryQuery, id)
	if err != nil {
		return fmt.Errorf("delete time entry: %w", err)
	}
	return r.checkAffected(ctx, result, id)
}

func (r *PostgresRepository) SetStatus(ctx context.Context, ids []int, status Status, approverID int, updatedAt string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result, err := r.db.ExecContext(ctx, setStatusQuery, string(status), approverID, updatedAt, pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("set time entry status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

// checkAffected tells a missing entry apart from one that is no longer pending.
func (r *PostgresRepository) checkAffected(ctx context.Context, result sql.Result, id int) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return ErrNotPending
}

func scanEntry(scanner rowScanner) (Entry, error) {
	var (
		e          Entry
		status     string
		approvedBy sql.NullInt64
	)
	if err := scanner.Scan(
		&e.ID,
		&e.UserID,
		&e.Date,
		&e.StartTime,
		&e.EndTime,
		&e.BreakMinutes,
		&e.Hours,
		&status,
		&e.Note,
		&approvedBy,
		&e.CreatedAt,
		&e.UpdatedAt,
	); err != nil {
		return Entry{}, err
	}

	e.Status = Status(status)
	if approvedBy.Valid {
		id := int(approvedBy.Int64)
		e.ApprovedBy = &id
	}
	return e, nil
}
