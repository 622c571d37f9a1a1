package workpattern

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

type PostgresRepository struct {
	db *sql.DB
}

const (
	getPatternQuery = `
		SELECT pattern_id, user_id, days, valid_from, updated_at
		FROM work_patterns
		WHERE user_id = $1
	`
	upsertPatternQuery = `
		INSERT INTO work_patterns (user_id, days, valid_from, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE
		SET days = EXCLUDED.days,
			valid_from = EXCLUDED.valid_from,
			updated_at = EXCLUDED.updated_at
		RETURNING pattern_id
	`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetByUser(ctx context.Context, userID int) (Pattern, error) {
	var (
		p    Pattern
		days []byte
	)
	err := r.db.QueryRowContext(ctx, getPatternQuery, userID).Scan(&p.ID, &p.UserID, &days, &p.ValidFrom, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Pattern{}, ErrNotFound
		}
		return Pattern{}, fmt.Errorf("get work pattern: %w", err)
	}

	if err := json.Unmarshal(days, &p.Days); err != nil {
		return Pattern{}, fmt.Errorf("decode work pattern days: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) Upsert(ctx context.Context, pattern Pattern) (Pattern, error) {
	days, err := json.Marshal(pattern.Days)
	if err != nil {
		return Pattern{}, fmt.Errorf("encode work pattern days: %w", err)
	}

	err = r.db.QueryRowContext(ctx, upsertPatternQuery, pattern.UserID, string(days), pattern.ValidFrom, pattern.UpdatedAt).Scan(&pattern.ID)
	if err != nil {
		return Pattern{}, fmt.Errorf("upsert work pattern: %w", err)
	}
	return pattern, nil
}
