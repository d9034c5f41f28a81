package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/jarvistext/jarvis-backend/internal/repository"
)

// StatsRepository implements repository.StatsRepository using PostgreSQL
type StatsRepository struct {
	db *sqlx.DB
}

// NewStatsRepository creates a new PostgreSQL stats repository
func NewStatsRepository(db *sqlx.DB) repository.StatsRepository {
	return &StatsRepository{db: db}
}

// Counts returns the admin reporting aggregates
func (r *StatsRepository) Counts(ctx context.Context) (*repository.Stats, error) {
	var stats repository.Stats
	query := `
		SELECT
			(SELECT COUNT(*) FROM users) AS users,
			(SELECT COUNT(*) FROM conversations) AS conversations,
			(SELECT COUNT(*) FROM messages) AS total_messages,
			(SELECT COUNT(*) FROM messages WHERE is_bot = TRUE) AS bot_replies
	`

	if err := r.db.GetContext(ctx, &stats, query); err != nil {
		return nil, err
	}

	return &stats, nil
}
