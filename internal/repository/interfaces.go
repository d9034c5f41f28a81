package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = errors.New("record not found")

// User represents a phone-number-keyed participant
type User struct {
	ID          string         `db:"id"`
	PhoneNumber string         `db:"phone_number"`
	Name        sql.NullString `db:"name"`
	Preferences []byte         `db:"preferences"`
	CreatedAt   time.Time      `db:"created_at"`
}

// Profile is the structured preference blob stored on a User. The rolling
// summarizer is its only writer.
type Profile struct {
	Summary string `json:"summary,omitempty"`
}

// Profile decodes the preferences blob
func (u *User) Profile() (Profile, error) {
	var p Profile
	if len(u.Preferences) == 0 {
		return p, nil
	}
	if err := json.Unmarshal(u.Preferences, &p); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// SetProfile encodes the preferences blob
func (u *User) SetProfile(p Profile) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	u.Preferences = raw
	return nil
}

// Conversation represents a group thread keyed by its participant set
type Conversation struct {
	ID              string         `db:"id"`
	CarrierGroupID  sql.NullString `db:"carrier_group_id"`
	Participants    []byte         `db:"participants"`
	ParticipantsKey string         `db:"participants_key"`
	Summary         sql.NullString `db:"summary"`
	LastActive      time.Time      `db:"last_active"`
}

// ParticipantNumbers decodes the stored participant set
func (c *Conversation) ParticipantNumbers() ([]string, error) {
	var nums []string
	if len(c.Participants) == 0 {
		return nums, nil
	}
	if err := json.Unmarshal(c.Participants, &nums); err != nil {
		return nil, err
	}
	return nums, nil
}

// Message is an append-only log entry on a conversation. A null sender means
// the bot authored it.
type Message struct {
	ID             string         `db:"id"`
	ConversationID sql.NullString `db:"conversation_id"`
	SenderID       sql.NullString `db:"sender_id"`
	Content        string         `db:"content"`
	IsBot          bool           `db:"is_bot"`
	CreatedAt      time.Time      `db:"created_at"`
}

// Stats is the admin reporting aggregate
type Stats struct {
	Users         int `db:"users" json:"users"`
	Conversations int `db:"conversations" json:"conversations"`
	TotalMessages int `db:"total_messages" json:"total_messages"`
	BotReplies    int `db:"bot_replies" json:"jarvis_replies"`
}

// UserRepository defines user storage operations
type UserRepository interface {
	GetByPhone(ctx context.Context, phoneNumber string) (*User, error)
	Create(ctx context.Context, user User) (string, error)
	// UpsertByPhone returns the existing user for the number or creates one,
	// surviving a concurrent first-contact race.
	UpsertByPhone(ctx context.Context, phoneNumber string) (*User, error)
	UpdatePreferences(ctx context.Context, id string, preferences []byte) error
}

// ConversationRepository defines conversation storage operations
type ConversationRepository interface {
	GetByParticipantsKey(ctx context.Context, key string) (*Conversation, error)
	Create(ctx context.Context, conversation Conversation) (string, error)
	// UpsertByParticipants resolves the conversation for a normalized
	// participant set, creating it if absent. A creation conflict means
	// someone else won the race; the winner's row is returned.
	UpsertByParticipants(ctx context.Context, key string, participants []byte) (*Conversation, error)
	UpdateSummary(ctx context.Context, id string, summary string) error
}

// MessageRepository defines message storage operations
type MessageRepository interface {
	Create(ctx context.Context, message Message) (string, error)
	ListByConversation(ctx context.Context, conversationID string) ([]Message, error)
}

// StatsRepository is the read-only admin reporting surface
type StatsRepository interface {
	Counts(ctx context.Context) (*Stats, error)
}
