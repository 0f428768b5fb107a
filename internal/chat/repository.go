package chat

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type MessageRepository interface {
	// Save persists the message, assigning its per-room sequence number
	// and timestamp.
	Save(ctx context.Context, m *Message) error
	// History returns all messages for a ticket, ascending by sequence.
	History(ctx context.Context, ticketID uuid.UUID) ([]Message, error)
}

type postgresMessageRepository struct {
	db *sql.DB
}

func NewPostgresMessageRepository(db *sql.DB) MessageRepository {
	return &postgresMessageRepository{db: db}
}

func (r *postgresMessageRepository) Save(ctx context.Context, m *Message) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	m.CreatedAt = time.Now().UTC()

	// The subselect assigns the next per-room sequence. Message volume is
	// one conversation between two people, so the max() scan is fine.
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO chat_messages (id, ticket_id, seq, sender_id, message, created_at)
		 VALUES ($1, $2,
		         (SELECT COALESCE(MAX(seq), 0) + 1 FROM chat_messages WHERE ticket_id = $2),
		         $3, $4, $5)
		 RETURNING seq`,
		m.ID, m.TicketID, m.Sender.ID, m.Message, m.CreatedAt,
	).Scan(&m.Seq)
	if err != nil {
		return fmt.Errorf("failed to save chat message: %w", err)
	}
	return nil
}

func (r *postgresMessageRepository) History(ctx context.Context, ticketID uuid.UUID) ([]Message, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT m.id, m.ticket_id, m.seq, m.message, m.created_at,
		        u.id, u.name, u.role
		 FROM chat_messages m
		 JOIN users u ON u.id = m.sender_id
		 WHERE m.ticket_id = $1
		 ORDER BY m.seq`, ticketID)
	if err != nil {
		return nil, fmt.Errorf("failed to load chat history: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.TicketID, &m.Seq, &m.Message, &m.CreatedAt,
			&m.Sender.ID, &m.Sender.Name, &m.Sender.Role); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
