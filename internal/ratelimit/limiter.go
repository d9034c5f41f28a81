// Package ratelimit enforces per-user and per-conversation quotas with
// fixed-window counters backed by an atomic counter store.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// FailPolicy decides limiter behavior when the counter store is unreachable
type FailPolicy string

const (
	// FailOpen admits the request with a logged warning
	FailOpen FailPolicy = "open"
	// FailClosed denies the request
	FailClosed FailPolicy = "closed"
)

// CounterStore is the atomic increment-with-expiry primitive the limiter
// builds on. Incr must be atomic across concurrent callers.
type CounterStore interface {
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
}

// Config holds the limiter quotas
type Config struct {
	UserLimit          int
	UserWindow         time.Duration
	ConversationLimit  int
	ConversationWindow time.Duration
	FailPolicy         FailPolicy
}

// DefaultConfig returns the stock quotas: 20 requests per user per day,
// 10 per conversation per hour, fail-open.
func DefaultConfig() Config {
	return Config{
		UserLimit:          20,
		UserWindow:         24 * time.Hour,
		ConversationLimit:  10,
		ConversationWindow: time.Hour,
		FailPolicy:         FailOpen,
	}
}

// Limiter is a fixed-window rate limiter. Windows are aligned to
// floor(now/window), so a burst can straddle a boundary at up to twice the
// limit; in exchange the state is one counter per live window.
type Limiter struct {
	store  CounterStore
	config Config
	logger *logrus.Logger
	now    func() time.Time
}

// NewLimiter creates a limiter on top of the given counter store
func NewLimiter(store CounterStore, config Config, logger *logrus.Logger) *Limiter {
	if logger == nil {
		logger = logrus.New()
	}
	return &Limiter{
		store:  store,
		config: config,
		logger: logger,
		now:    time.Now,
	}
}

// Allow checks and consumes one unit of quota for key in the current window
func (l *Limiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	currentWindow := l.now().Unix() / int64(window.Seconds())
	storeKey := fmt.Sprintf("rate_limit:%s:%d", key, currentWindow)

	count, err := l.store.Incr(ctx, storeKey)
	if err != nil {
		return l.onStoreError(key, err)
	}
	if count == 1 {
		if err := l.store.Expire(ctx, storeKey, window); err != nil {
			l.logger.WithError(err).WithField("key", storeKey).Warn("failed to set counter expiry")
		}
	}

	return count <= int64(limit), nil
}

// AllowUser consumes one unit of the per-user quota
func (l *Limiter) AllowUser(ctx context.Context, userID string) (bool, error) {
	return l.Allow(ctx, "user:"+userID, l.config.UserLimit, l.config.UserWindow)
}

// AllowConversation consumes one unit of the per-conversation quota
func (l *Limiter) AllowConversation(ctx context.Context, conversationID string) (bool, error) {
	return l.Allow(ctx, "conversation:"+conversationID, l.config.ConversationLimit, l.config.ConversationWindow)
}

func (l *Limiter) onStoreError(key string, err error) (bool, error) {
	if l.config.FailPolicy == FailClosed {
		l.logger.WithError(err).WithField("key", key).Warn("counter store unreachable, denying request")
		return false, nil
	}
	l.logger.WithError(err).WithField("key", key).Warn("counter store unreachable, admitting request")
	return true, nil
}
