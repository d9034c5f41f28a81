package services

import (
	"github.com/sirupsen/logrus"

	"github.com/jarvistext/jarvis-backend/internal/carrier"
	"github.com/jarvistext/jarvis-backend/internal/config"
	"github.com/jarvistext/jarvis-backend/internal/llm"
	"github.com/jarvistext/jarvis-backend/internal/ratelimit"
	"github.com/jarvistext/jarvis-backend/internal/repository"
	"github.com/jarvistext/jarvis-backend/internal/summon"
)

// Services holds all service instances
type Services struct {
	Pipeline   *Pipeline
	Router     *Router
	Resolver   *ConversationResolver
	Summarizer *Summarizer
	Stats      repository.StatsRepository
}

// NewServices creates all service instances
func NewServices(
	cfg *config.Config,
	users repository.UserRepository,
	conversations repository.ConversationRepository,
	messages repository.MessageRepository,
	stats repository.StatsRepository,
	oracle llm.Oracle,
	dispatcher carrier.Dispatcher,
	limiter *ratelimit.Limiter,
	matcher *summon.Matcher,
	logger *logrus.Logger,
) *Services {
	resolver := NewConversationResolver(conversations)
	summarizer := NewSummarizer(oracle, conversations, users, logger)
	router := NewRouter(oracle, dispatcher, messages, summarizer, cfg.Bot.GroupSizeLimit, logger)
	pipeline := NewPipeline(users, messages, resolver, matcher, limiter, router, dispatcher, logger)

	return &Services{
		Pipeline:   pipeline,
		Router:     router,
		Resolver:   resolver,
		Summarizer: summarizer,
		Stats:      stats,
	}
}
