package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/jarvistext/jarvis-backend/internal/carrier"
	"github.com/jarvistext/jarvis-backend/internal/llm"
	"github.com/jarvistext/jarvis-backend/internal/repository"
)

// RouteMode describes where the reply went
type RouteMode string

const (
	// RouteGroup means the reply was broadcast to the whole conversation
	RouteGroup RouteMode = "group"
	// RouteDirect means the reply fell back to a DM to the sender
	RouteDirect RouteMode = "direct"
)

// RouteResult reports the routing decision and the reply that was dispatched
type RouteResult struct {
	Mode  RouteMode
	Reply string
}

// Router chooses between a group broadcast and a direct-message fallback once
// activation and quota checks have cleared, then orchestrates generation,
// dispatch, persistence, and the summary update.
type Router struct {
	oracle         llm.Oracle
	dispatcher     carrier.Dispatcher
	messages       repository.MessageRepository
	summarizer     *Summarizer
	groupSizeLimit int
	logger         *logrus.Logger
}

// NewRouter creates a response router
func NewRouter(oracle llm.Oracle, dispatcher carrier.Dispatcher, messages repository.MessageRepository, summarizer *Summarizer, groupSizeLimit int, logger *logrus.Logger) *Router {
	if groupSizeLimit <= 0 {
		groupSizeLimit = 8
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Router{
		oracle:         oracle,
		dispatcher:     dispatcher,
		messages:       messages,
		summarizer:     summarizer,
		groupSizeLimit: groupSizeLimit,
		logger:         logger,
	}
}

// Route generates and delivers a reply for a summoned message
func (r *Router) Route(ctx context.Context, conversation *repository.Conversation, sender *repository.User, text string) (*RouteResult, error) {
	participants, err := conversation.ParticipantNumbers()
	if err != nil {
		return nil, fmt.Errorf("failed to decode participants: %w", err)
	}

	if len(participants) <= r.groupSizeLimit {
		return r.routeGroup(ctx, conversation, sender, text, participants)
	}
	return r.routeDirect(ctx, sender, text)
}

func (r *Router) routeGroup(ctx context.Context, conversation *repository.Conversation, sender *repository.User, text string, participants []string) (*RouteResult, error) {
	summary := "No previous context."
	if conversation.Summary.Valid && conversation.Summary.String != "" {
		summary = conversation.Summary.String
	}

	directive := fmt.Sprintf("You are Jarvis in a group text. "+
		"Context: %s "+
		"Respond only to the tagged request. Be concise and action-oriented. "+
		"End with a next step (one question max).", summary)

	reply := r.generate(ctx, directive, text)

	if err := r.dispatcher.SendToMany(ctx, participants, reply); err != nil {
		// Dispatch failure is non-fatal: the reply still counts as having
		// happened, so the bot message and summary update proceed.
		r.logger.WithError(err).WithField("conversation_id", conversation.ID).Warn("group dispatch failed")
	}

	botMessage := repository.Message{
		ConversationID: sql.NullString{String: conversation.ID, Valid: true},
		Content:        reply,
		IsBot:          true,
	}
	if _, err := r.messages.Create(ctx, botMessage); err != nil {
		return nil, fmt.Errorf("failed to persist bot message: %w", err)
	}

	exchange := []string{
		fmt.Sprintf("%s: %s", sender.PhoneNumber, text),
		fmt.Sprintf("Jarvis: %s", reply),
	}
	if err := r.summarizer.UpdateConversationSummary(ctx, conversation, exchange); err != nil {
		// The reply is already out; a missed summary update degrades the
		// rolling memory but does not fail the pipeline.
		r.logger.WithError(err).WithField("conversation_id", conversation.ID).Warn("summary update failed")
	}

	return &RouteResult{Mode: RouteGroup, Reply: reply}, nil
}

func (r *Router) routeDirect(ctx context.Context, sender *repository.User, text string) (*RouteResult, error) {
	directive := "You are Jarvis. The user tried to summon you in a group that is too large (>8 participants). " +
		"Explain that you can't reply to the group directly due to carrier limits. " +
		"Provide the answer to their request here in the DM, and suggest they paste it back to the group. " +
		"Keep it helpful and polite."

	reply := r.generate(ctx, directive, text)

	if err := r.dispatcher.SendToOne(ctx, sender.PhoneNumber, reply); err != nil {
		r.logger.WithError(err).WithField("to", sender.PhoneNumber).Warn("direct dispatch failed")
	}

	// Oversized conversations get no bot message and no summary update: the
	// group thread never saw the reply.
	return &RouteResult{Mode: RouteDirect, Reply: reply}, nil
}

// generate never lets an oracle failure escape; the pipeline always has
// something to dispatch.
func (r *Router) generate(ctx context.Context, directive, text string) string {
	reply, err := r.oracle.Generate(ctx, directive, text)
	if err != nil {
		r.logger.WithError(err).Warn("oracle generation failed, using fallback reply")
		return llm.FallbackReply
	}
	return reply
}
