package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/jarvistext/jarvis-backend/internal/carrier"
	"github.com/jarvistext/jarvis-backend/internal/repository"
	"github.com/jarvistext/jarvis-backend/internal/summon"
)

// HelpText is the static reply to the HELP compliance keyword
const HelpText = "Jarvis Help: Mention @jarvis in a group to get planning help. I only reply when summoned."

// Outcome is the terminal state of a pipeline run
type Outcome string

const (
	OutcomeRejected    Outcome = "rejected"
	OutcomeOptOut      Outcome = "opt_out"
	OutcomeOptIn       Outcome = "opt_in"
	OutcomeHelpSent    Outcome = "help_sent"
	OutcomeLoggedOnly  Outcome = "logged_only"
	OutcomeRateLimited Outcome = "rate_limited"
	OutcomeReplied     Outcome = "replied"
)

// InboundMessage is the carrier-agnostic shape of a received message
type InboundMessage struct {
	From string   `json:"from"`
	To   []string `json:"to"`
	Text string   `json:"text"`
}

// QuotaChecker is the slice of the rate limiter the pipeline consumes
type QuotaChecker interface {
	AllowUser(ctx context.Context, userID string) (bool, error)
	AllowConversation(ctx context.Context, conversationID string) (bool, error)
}

// Pipeline runs one inbound message through compliance, identity resolution,
// logging, activation, quota, and routing. Steps run strictly in sequence; a
// run ends in exactly one Outcome, and the summary update (when routing
// triggers one) completes before Process returns.
type Pipeline struct {
	users      repository.UserRepository
	messages   repository.MessageRepository
	resolver   *ConversationResolver
	matcher    *summon.Matcher
	limiter    QuotaChecker
	router     *Router
	dispatcher carrier.Dispatcher
	logger     *logrus.Logger
}

// NewPipeline wires the pipeline's collaborators. Everything is injected so
// tests can substitute fakes and nothing hides behind package state.
func NewPipeline(
	users repository.UserRepository,
	messages repository.MessageRepository,
	resolver *ConversationResolver,
	matcher *summon.Matcher,
	limiter QuotaChecker,
	router *Router,
	dispatcher carrier.Dispatcher,
	logger *logrus.Logger,
) *Pipeline {
	if logger == nil {
		logger = logrus.New()
	}
	return &Pipeline{
		users:      users,
		messages:   messages,
		resolver:   resolver,
		matcher:    matcher,
		limiter:    limiter,
		router:     router,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Process handles one inbound message to completion
func (p *Pipeline) Process(ctx context.Context, inbound InboundMessage) (Outcome, error) {
	if inbound.From == "" {
		return OutcomeRejected, fmt.Errorf("inbound message has no sender")
	}

	// Compliance keywords short-circuit before any record is touched; the
	// carrier owns STOP/START semantics.
	switch strings.ToUpper(strings.TrimSpace(inbound.Text)) {
	case "STOP":
		return OutcomeOptOut, nil
	case "START":
		return OutcomeOptIn, nil
	case "HELP":
		if err := p.dispatcher.SendToOne(ctx, inbound.From, HelpText); err != nil {
			p.logger.WithError(err).WithField("to", inbound.From).Warn("help dispatch failed")
		}
		return OutcomeHelpSent, nil
	}

	user, err := p.users.UpsertByPhone(ctx, inbound.From)
	if err != nil {
		return OutcomeRejected, fmt.Errorf("failed to upsert user: %w", err)
	}

	conversation, err := p.resolver.Resolve(ctx, append(append([]string{}, inbound.To...), inbound.From))
	if err != nil {
		return OutcomeRejected, err
	}

	// Every non-compliance message is logged, summoned or not.
	inboundMessage := repository.Message{
		ConversationID: sql.NullString{String: conversation.ID, Valid: true},
		SenderID:       sql.NullString{String: user.ID, Valid: true},
		Content:        inbound.Text,
		IsBot:          false,
	}
	if _, err := p.messages.Create(ctx, inboundMessage); err != nil {
		return OutcomeRejected, fmt.Errorf("failed to log inbound message: %w", err)
	}

	if !p.matcher.IsSummon(inbound.Text) {
		return OutcomeLoggedOnly, nil
	}

	p.logger.WithFields(logrus.Fields{
		"sender":          inbound.From,
		"conversation_id": conversation.ID,
	}).Info("summon detected")

	allowed, err := p.limiter.AllowUser(ctx, user.ID)
	if err != nil {
		return OutcomeRejected, fmt.Errorf("user quota check failed: %w", err)
	}
	if !allowed {
		p.logger.WithField("user_id", user.ID).Warn("user hit rate limit")
		return OutcomeRateLimited, nil
	}

	allowed, err = p.limiter.AllowConversation(ctx, conversation.ID)
	if err != nil {
		return OutcomeRejected, fmt.Errorf("conversation quota check failed: %w", err)
	}
	if !allowed {
		p.logger.WithField("conversation_id", conversation.ID).Warn("conversation hit rate limit")
		return OutcomeRateLimited, nil
	}

	if _, err := p.router.Route(ctx, conversation, user, inbound.Text); err != nil {
		return OutcomeRejected, err
	}

	return OutcomeReplied, nil
}
