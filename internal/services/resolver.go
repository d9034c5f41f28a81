package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/jarvistext/jarvis-backend/internal/repository"
)

// NormalizeParticipants dedupes and sorts a participant number set and
// returns the canonical key identifying the conversation. Two inbound events
// carrying the same numbers in any order produce the same key.
func NormalizeParticipants(numbers []string) ([]string, string) {
	seen := make(map[string]struct{}, len(numbers))
	normalized := make([]string, 0, len(numbers))
	for _, n := range numbers {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		normalized = append(normalized, n)
	}
	sort.Strings(normalized)
	return normalized, strings.Join(normalized, ",")
}

// ConversationResolver maps a participant set to its stable conversation,
// creating one on first contact.
type ConversationResolver struct {
	conversations repository.ConversationRepository
}

// NewConversationResolver creates a resolver on top of the conversation repository
func NewConversationResolver(conversations repository.ConversationRepository) *ConversationResolver {
	return &ConversationResolver{conversations: conversations}
}

// Resolve returns the conversation for the participant set, creating it if
// absent. Existing conversations are returned unmodified.
func (r *ConversationResolver) Resolve(ctx context.Context, participants []string) (*repository.Conversation, error) {
	normalized, key := NormalizeParticipants(participants)
	if key == "" {
		return nil, fmt.Errorf("cannot resolve conversation for empty participant set")
	}

	encoded, err := json.Marshal(normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to encode participants: %w", err)
	}

	conversation, err := r.conversations.UpsertByParticipants(ctx, key, encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve conversation: %w", err)
	}

	return conversation, nil
}
