package contract

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

type PostgresRepository struct {
	db *sql.DB
}

type rowScanner interface {
	Scan(dest ...any) error
}

const (
	contractColumns = `contract_id, user_id, title, contract_type, weekly_hours, hourly_wage, start_date::text, COALESCE(end_date::text, ''), body, status, document_key::text, sent_at, signed_at, signer_name, signer_ip, created_at, updated_at`

	listContractsQuery = `
		SELECT ` + contractColumns + `
		FROM contracts
		WHERE ($1 = 0 OR user_id = $1)
		ORDER BY contract_id
	`
	getContractQuery = `
		SELECT ` + contractColumns + `
		FROM contracts
		WHERE contract_id = $1
	`
	insertContractQuery = `
		INSERT INTO contracts (user_id, title, contract_type, weekly_hours, hourly_wage, start_date, end_date, body, status, document_key, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6::date, NULLIF($7, '')::date, $8, $9, $10::uuid, $11, $12)
		RETURNING contract_id
	`
	transitionContractQuery = `
		UPDATE contracts
		SET status = $1, sent_at = $2, signed_at = $3, signer_name = $4, signer_ip = $5, updated_at = $6
		WHERE contract_id = $7 AND status = ANY($8::text[])
	`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List(ctx context.Context, userID int) ([]Contract, error) {
	rows, err := r.db.QueryContext(ctx, listContractsQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("list contracts: %w", err)
	}
	defer rows.Close()

	out := make([]Contract, 0)
	for rows.Next() {
		c, err := scanContract(rows)
		if err != nil {
			return nil, fmt.Errorf("scan contract: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contracts: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int) (Contract, error) {
	c, err := scanContract(r.db.QueryRowContext(ctx, getContractQuery, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Contract{}, ErrNotFound
		}
		return Contract{}, fmt.Errorf("get contract: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) Create(ctx context.Context, c Contract) (Contract, error) {
	err := r.db.QueryRowContext(ctx, insertContractQuery,
		c.UserID,
		c.Title,
		c.ContractType,
		c.WeeklyHours,
		c.HourlyWage,
		c.StartDate,
		c.EndDate,
		c.Body,
		string(c.Status),
		c.DocumentKey,
		c.CreatedAt,
		c.UpdatedAt,
	).Scan(&c.ID)
	if err != nil {
		return Contract{}, fmt.Errorf("insert contract: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) Transition(ctx context.Context, c Contract, from []Status) (Contract, error) {
	allowed := make([]string, 0, len(from))
	for _, s := range from {
		allowed = append(allowed, string(s))
	}

	result, err := r.db.ExecContext(ctx, transitionContractQuery,
		string(c.Status), c.SentAt, c.SignedAt, c.SignerName, c.SignerIP, c.UpdatedAt, c.ID, pq.Array(allowed))
	if err != nil {
		return Contract{}, fmt.Errorf("transition contract: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return Contract{}, err
	}
	if affected == 0 {
		if _, err := r.GetByID(ctx, c.ID); err != nil {
			return Contract{}, err
		}
		return Contract{}, ErrInvalidTransition
	}
	return r.GetByID(ctx, c.ID)
}

func scanContract(scanner rowScanner) (Contract, error) {
	var (
		c      Contract
		status string
	)
	if err := scanner.Scan(
		&c.ID,
		&c.UserID,
		&c.Title,
		&c.ContractType,
		&c.WeeklyHours,
		&c.HourlyWage,
		&c.StartDate,
		&c.EndDate,
		&c.Body,
		&status,
		&c.DocumentKey,
		&c.SentAt,
		&c.SignedAt,
		&c.SignerName,
		&c.SignerIP,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return Contract{}, err
	}
	c.Status = Status(status)
	return c, nil
}
