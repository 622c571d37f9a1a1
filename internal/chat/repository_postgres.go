package chat

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"time"
)

type PostgresRepository struct {
	db *sql.DB
}

const (
	insertMessageQuery = `
		INSERT INTO chat_messages (message_id, room, sender_id, recipient_id, body, created_at)
		VALUES ($1::uuid, $2, $3, $4, $5, $6)
	`
	historyQuery = `
		SELECT message_id::text, room, sender_id, recipient_id, body, created_at
		FROM chat_messages
		WHERE room = $1 AND created_at < $2
		ORDER BY created_at DESC
		LIMIT $3
	`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Save(ctx context.Context, msg Message) error {
	var recipient sql.NullInt64
	if msg.RecipientID != nil {
		recipient = sql.NullInt64{Int64: int64(*msg.RecipientID), Valid: true}
	}
	if _, err := r.db.ExecContext(ctx, insertMessageQuery, msg.ID, msg.Room, msg.SenderID, recipient, msg.Body, msg.CreatedAt); err != nil {
		return fmt.Errorf("insert chat message: %w", err)
	}
	return nil
}

func (r *PostgresRepository) History(ctx context.Context, room string, before time.Time, limit int) ([]Message, error) {
	rows, err := r.db.QueryContext(ctx, historyQuery, room, before, limit)
	if err != nil {
		return nil, fmt.Errorf("chat history: %w", err)
	}
	defer rows.Close()

	out := make([]Message, 0, limit)
	for rows.Next() {
		var (
			m         Message
			recipient sql.NullInt64
		)
		if err := rows.Scan(&m.ID, &m.Room, &m.SenderID, &recipient, &m.Body, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan chat message: %w", err)
		}
		if recipient.Valid {
			id := int(recipient.Int64)
			m.RecipientID = &id
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chat messages: %w", err)
	}

	slices.Reverse(out)
	return out, nil
}
