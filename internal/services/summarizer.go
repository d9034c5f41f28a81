package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/jarvistext/jarvis-backend/internal/llm"
	"github.com/jarvistext/jarvis-backend/internal/repository"
)

const conversationSummaryPrompt = "You are a helpful assistant that summarizes group chat history for a planning bot named Jarvis. " +
	"Update the current summary with the new messages. " +
	"Focus on decisions made, constraints mentioned (time, location, budget), and pending questions. " +
	"Keep it concise (under 200 words)."

const userProfilePrompt = "You are a helpful assistant. Extract user preferences and traits from their messages. " +
	"Update the user profile summary. Focus on dietary restrictions, location preferences, and communication style. " +
	"Keep it concise."

// Summarizer maintains the rolling conversation summary and per-user profile
// summary. Each update is a full regenerate-and-replace: one oracle call, one
// overwrite. Concurrent updates to the same conversation are last-write-wins.
type Summarizer struct {
	oracle        llm.Oracle
	conversations repository.ConversationRepository
	users         repository.UserRepository
	logger        *logrus.Logger
}

// NewSummarizer creates a summarizer
func NewSummarizer(oracle llm.Oracle, conversations repository.ConversationRepository, users repository.UserRepository, logger *logrus.Logger) *Summarizer {
	if logger == nil {
		logger = logrus.New()
	}
	return &Summarizer{
		oracle:        oracle,
		conversations: conversations,
		users:         users,
		logger:        logger,
	}
}

// UpdateConversationSummary regenerates and persists the conversation summary
// from the current summary plus the new exchange lines.
func (s *Summarizer) UpdateConversationSummary(ctx context.Context, conversation *repository.Conversation, newLines []string) error {
	current := "No summary yet."
	if conversation.Summary.Valid && conversation.Summary.String != "" {
		current = conversation.Summary.String
	}

	userPrompt := fmt.Sprintf("Current Summary:\n%s\n\nNew Messages:\n%s\n\nUpdated Summary:",
		current, strings.Join(newLines, "\n"))

	updated, err := s.oracle.Generate(ctx, conversationSummaryPrompt, userPrompt)
	if err != nil {
		return fmt.Errorf("failed to generate conversation summary: %w", err)
	}

	if err := s.conversations.UpdateSummary(ctx, conversation.ID, updated); err != nil {
		return fmt.Errorf("failed to persist conversation summary: %w", err)
	}

	conversation.Summary.String = updated
	conversation.Summary.Valid = true

	s.logger.WithField("conversation_id", conversation.ID).Info("updated conversation summary")
	return nil
}

// UpdateUserProfile regenerates and persists the user's profile summary
func (s *Summarizer) UpdateUserProfile(ctx context.Context, user *repository.User, newLines []string) error {
	profile, err := user.Profile()
	if err != nil {
		return fmt.Errorf("failed to decode user profile: %w", err)
	}

	current := "No details yet."
	if profile.Summary != "" {
		current = profile.Summary
	}

	userPrompt := fmt.Sprintf("Current Profile:\n%s\n\nNew Messages:\n%s\n\nUpdated Profile:",
		current, strings.Join(newLines, "\n"))

	updated, err := s.oracle.Generate(ctx, userProfilePrompt, userPrompt)
	if err != nil {
		return fmt.Errorf("failed to generate user profile: %w", err)
	}

	profile.Summary = updated
	if err := user.SetProfile(profile); err != nil {
		return fmt.Errorf("failed to encode user profile: %w", err)
	}
	if err := s.users.UpdatePreferences(ctx, user.ID, user.Preferences); err != nil {
		return fmt.Errorf("failed to persist user profile: %w", err)
	}

	s.logger.WithField("user_id", user.ID).Info("updated user profile summary")
	return nil
}
