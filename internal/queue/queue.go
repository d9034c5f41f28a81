// Package queue carries inbound webhook events from the HTTP transport to
// the pipeline workers over asynq/Redis, so the webhook can acknowledge
// immediately while the pipeline runs to completion in the background.
package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/jarvistext/jarvis-backend/internal/services"
)

// TaskInboundMessage is the task type for a received SMS/MMS
const TaskInboundMessage = "sms:inbound"

// Client enqueues inbound-message tasks
type Client struct {
	client *asynq.Client
}

// NewClient creates an enqueue-only queue client
func NewClient(redisURL string) (*Client, error) {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("queue: parse redis url: %w", err)
	}
	return &Client{client: asynq.NewClient(opt)}, nil
}

// EnqueueInbound submits one inbound message for pipeline processing
func (c *Client) EnqueueInbound(ctx context.Context, msg services.InboundMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("queue: encode inbound message: %w", err)
	}

	task := asynq.NewTask(TaskInboundMessage, payload)
	if _, err := c.client.EnqueueContext(ctx, task, asynq.MaxRetry(3)); err != nil {
		return fmt.Errorf("queue: enqueue inbound message: %w", err)
	}
	return nil
}

// Close closes the underlying client
func (c *Client) Close() error {
	return c.client.Close()
}

// Server runs the pipeline workers
type Server struct {
	server *asynq.Server
	mux    *asynq.ServeMux
}

// NewServer creates a worker server with the given concurrency
func NewServer(redisURL string, concurrency int, logger *logrus.Logger) (*Server, error) {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("queue: parse redis url: %w", err)
	}
	if concurrency <= 0 {
		concurrency = 10
	}

	srv := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			logger.WithError(err).WithField("task", task.Type()).Error("task processing failed")
		}),
	})

	return &Server{server: srv, mux: asynq.NewServeMux()}, nil
}

// RegisterPipeline binds the inbound-message task to the pipeline. A rejected
// outcome caused by a malformed payload is not retried.
func (s *Server) RegisterPipeline(pipeline *services.Pipeline, logger *logrus.Logger) {
	s.mux.HandleFunc(TaskInboundMessage, func(ctx context.Context, task *asynq.Task) error {
		var msg services.InboundMessage
		if err := json.Unmarshal(task.Payload(), &msg); err != nil {
			logger.WithError(err).Error("malformed inbound task payload")
			return fmt.Errorf("malformed payload: %w: %w", err, asynq.SkipRetry)
		}

		outcome, err := pipeline.Process(ctx, msg)
		if err != nil {
			logger.WithError(err).WithField("outcome", outcome).Error("pipeline run failed")
			return err
		}

		logger.WithFields(logrus.Fields{
			"outcome": outcome,
			"sender":  msg.From,
		}).Info("pipeline run complete")
		return nil
	})
}

// Start begins processing tasks in the background
func (s *Server) Start() error {
	return s.server.Start(s.mux)
}

// Shutdown drains in-flight tasks and stops the workers
func (s *Server) Shutdown() {
	s.server.Shutdown()
}
