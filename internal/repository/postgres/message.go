package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jarvistext/jarvis-backend/internal/repository"
)

// MessageRepository implements repository.MessageRepository using PostgreSQL
type MessageRepository struct {
	db *sqlx.DB
}

// NewMessageRepository creates a new PostgreSQL message repository
func NewMessageRepository(db *sqlx.DB) repository.MessageRepository {
	return &MessageRepository{db: db}
}

// Create creates a new message
func (r *MessageRepository) Create(ctx context.Context, message repository.Message) (string, error) {
	message.ID = uuid.New().String()
	message.CreatedAt = time.Now()

	query := `
		INSERT INTO messages (id, conversation_id, sender_id, content, is_bot, created_at)
		VALUES (:id, :conversation_id, :sender_id, :content, :is_bot, :created_at)
	`

	_, err := r.db.NamedExecContext(ctx, query, message)
	if err != nil {
		return "", err
	}

	return message.ID, nil
}

// ListByConversation retrieves messages for a conversation
func (r *MessageRepository) ListByConversation(ctx context.Context, conversationID string) ([]repository.Message, error) {
	var messages []repository.Message
	query := `
		SELECT id, conversation_id, sender_id, content, is_bot, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at ASC
	`

	err := r.db.SelectContext(ctx, &messages, query, conversationID)
	if err != nil {
		return nil, err
	}

	return messages, nil
}
