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

// UserRepository implements repository.UserRepository using PostgreSQL
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new PostgreSQL user repository
func NewUserRepository(db *sqlx.DB) repository.UserRepository {
	return &UserRepository{db: db}
}

// GetByPhone retrieves a user by canonical phone number
func (r *UserRepository) GetByPhone(ctx context.Context, phoneNumber string) (*repository.User, error) {
	var user repository.User
	query := `
		SELECT id, phone_number, name, preferences, created_at
		FROM users
		WHERE phone_number = $1
	`

	err := r.db.GetContext(ctx, &user, query, phoneNumber)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user repository.User) (string, error) {
	user.ID = uuid.New().String()
	user.CreatedAt = time.Now()

	if len(user.Preferences) == 0 {
		user.Preferences = []byte("{}")
	}

	query := `
		INSERT INTO users (id, phone_number, name, preferences, created_at)
		VALUES (:id, :phone_number, :name, :preferences, :created_at)
	`

	_, err := r.db.NamedExecContext(ctx, query, user)
	if err != nil {
		return "", err
	}

	return user.ID, nil
}

// UpsertByPhone returns the user for the number, creating it on first contact.
// The unique constraint on phone_number arbitrates concurrent creates; the
// loser re-fetches the winner's row.
func (r *UserRepository) UpsertByPhone(ctx context.Context, phoneNumber string) (*repository.User, error) {
	query := `
		INSERT INTO users (id, phone_number, preferences, created_at)
		VALUES ($1, $2, '{}', $3)
		ON CONFLICT (phone_number) DO NOTHING
	`

	if _, err := r.db.ExecContext(ctx, query, uuid.New().String(), phoneNumber, time.Now()); err != nil {
		return nil, err
	}

	return r.GetByPhone(ctx, phoneNumber)
}

// UpdatePreferences overwrites the preference blob
func (r *UserRepository) UpdatePreferences(ctx context.Context, id string, preferences []byte) error {
	query := "UPDATE users SET preferences = $2 WHERE id = $1"
	_, err := r.db.ExecContext(ctx, query, id, preferences)
	return err
}
