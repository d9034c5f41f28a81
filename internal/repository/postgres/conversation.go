package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jarvistext/jarvis-backend/internal/repository"
)

// ConversationRepository implements repository.ConversationRepository using PostgreSQL
type ConversationRepository struct {
	db *sqlx.DB
}

// NewConversationRepository creates a new PostgreSQL conversation repository
func NewConversationRepository(db *sqlx.DB) repository.ConversationRepository {
	return &ConversationRepository{db: db}
}

// GetByParticipantsKey retrieves a conversation by its canonical participant key
func (r *ConversationRepository) GetByParticipantsKey(ctx context.Context, key string) (*repository.Conversation, error) {
	var conversation repository.Conversation
	query := `
		SELECT id, carrier_group_id, participants, participants_key, summary, last_active
		FROM conversations
		WHERE participants_key = $1
	`

	err := r.db.GetContext(ctx, &conversation, query, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &conversation, nil
}

// Create creates a new conversation
func (r *ConversationRepository) Create(ctx context.Context, conversation repository.Conversation) (string, error) {
	conversation.ID = uuid.New().String()
	conversation.LastActive = time.Now()

	if len(conversation.Participants) == 0 {
		conversation.Participants = []byte("[]")
	}

	query := `
		INSERT INTO conversations (id, carrier_group_id, participants, participants_key, summary, last_active)
		VALUES (:id, :carrier_group_id, :participants, :participants_key, :summary, :last_active)
	`

	_, err := r.db.NamedExecContext(ctx, query, conversation)
	if err != nil {
		return "", err
	}

	return conversation.ID, nil
}

// UpsertByParticipants resolves or creates the conversation for a participant
// set. ON CONFLICT DO NOTHING plus re-fetch makes concurrent first contact on
// the same set safe.
func (r *ConversationRepository) UpsertByParticipants(ctx context.Context, key string, participants []byte) (*repository.Conversation, error) {
	query := `
		INSERT INTO conversations (id, participants, participants_key, last_active)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (participants_key) DO NOTHING
	`

	if _, err := r.db.ExecContext(ctx, query, uuid.New().String(), participants, key, time.Now()); err != nil {
		return nil, err
	}

	return r.GetByParticipantsKey(ctx, key)
}

// UpdateSummary overwrites the rolling summary and refreshes last_active
func (r *ConversationRepository) UpdateSummary(ctx context.Context, id string, summary string) error {
	query := "UPDATE conversations SET summary = $2, last_active = $3 WHERE id = $1"
	_, err := r.db.ExecContext(ctx, query, id, summary, time.Now())
	return err
}
