package push

import (
	"context"
	"database/sql"
	"fmt"
)

type PostgresRepository struct {
	db *sql.DB
}

const (
	upsertSubscriptionQuery = `
		INSERT INTO push_subscriptions (user_id, endpoint, p256dh, auth, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (endpoint) DO UPDATE
		SET user_id = EXCLUDED.user_id, p256dh = EXCLUDED.p256dh, auth = EXCLUDED.auth
		RETURNING subscription_id, created_at
	`
	listSubscriptionsQuery = `
		SELECT subscription_id, user_id, endpoint, p256dh, auth, created_at
		FROM push_subscriptions
		WHERE user_id = $1
		ORDER BY subscription_id
	`
	deleteSubscriptionQuery = `DELETE FROM push_subscriptions WHERE user_id = $1 AND endpoint = $2`
	deleteEndpointQuery     = `DELETE FROM push_subscriptions WHERE endpoint = $1`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Save(ctx context.Context, sub Subscription) (Subscription, error) {
	err := r.db.QueryRowContext(ctx, upsertSubscriptionQuery, sub.UserID, sub.Endpoint, sub.Keys.P256dh, sub.Keys.Auth, sub.CreatedAt).
		Scan(&sub.ID, &sub.CreatedAt)
	if err != nil {
		return Subscription{}, fmt.Errorf("save push subscription: %w", err)
	}
	return sub, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID int) ([]Subscription, error) {
	rows, err := r.db.QueryContext(ctx, listSubscriptionsQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("list push subscriptions: %w", err)
	}
	defer rows.Close()

	out := make([]Subscription, 0)
	for rows.Next() {
		var s Subscription
		if err := rows.Scan(&s.ID, &s.UserID, &s.Endpoint, &s.Keys.P256dh, &s.Keys.Auth, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan push subscription: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate push subscriptions: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, userID int, endpoint string) error {
	result, err := r.db.ExecContext(ctx, deleteSubscriptionQuery, userID, endpoint)
	if err != nil {
		return fmt.Errorf("delete push subscription: %w", err)
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

func (r *PostgresRepository) DeleteEndpoint(ctx context.Context, endpoint string) error {
	if _, err := r.db.ExecContext(ctx, deleteEndpointQuery, endpoint); err != nil {
		return fmt.Errorf("delete push endpoint: %w", err)
	}
	return nil
}
