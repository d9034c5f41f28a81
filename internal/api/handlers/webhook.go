package handlers

import (
	"context"
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/jarvistext/jarvis-backend/internal/carrier"
	"github.com/jarvistext/jarvis-backend/internal/services"
)

// InboundEnqueuer submits inbound messages for background processing
type InboundEnqueuer interface {
	EnqueueInbound(ctx context.Context, msg services.InboundMessage) error
}

// WebhookHandler receives Telnyx webhooks, extracts the inbound message, and
// hands it to the queue. It never runs the pipeline inline: the carrier gets
// its acknowledgment as soon as the task is enqueued.
type WebhookHandler struct {
	enqueuer InboundEnqueuer
	verifier *carrier.WebhookVerifier
	logger   *logrus.Logger
}

// NewWebhookHandler creates a webhook handler. A nil verifier disables
// signature checking (local development).
func NewWebhookHandler(enqueuer InboundEnqueuer, verifier *carrier.WebhookVerifier, logger *logrus.Logger) *WebhookHandler {
	if logger == nil {
		logger = logrus.New()
	}
	return &WebhookHandler{
		enqueuer: enqueuer,
		verifier: verifier,
		logger:   logger,
	}
}

// telnyxEnvelope is the slice of the Telnyx webhook payload this service reads
type telnyxEnvelope struct {
	Data struct {
		EventType string `json:"event_type"`
		Payload   struct {
			From struct {
				PhoneNumber string `json:"phone_number"`
			} `json:"from"`
			To []struct {
				PhoneNumber string `json:"phone_number"`
			} `json:"to"`
			Text string `json:"text"`
		} `json:"payload"`
	} `json:"data"`
}

// Handle processes POST /api/v1/webhook
func (h *WebhookHandler) Handle(c *fiber.Ctx) error {
	body := c.Body()

	if h.verifier != nil {
		signature := c.Get("Telnyx-Signature-Ed25519")
		timestamp := c.Get("Telnyx-Timestamp")
		if err := h.verifier.Verify(body, signature, timestamp); err != nil {
			h.logger.WithError(err).Warn("webhook signature verification failed")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid signature",
			})
		}
	}

	var envelope telnyxEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid JSON",
		})
	}

	// Anything other than a received message is acknowledged and ignored
	// (delivery receipts, status callbacks).
	if envelope.Data.EventType != "message.received" {
		return c.JSON(fiber.Map{"status": "ignored"})
	}

	recipients := make([]string, 0, len(envelope.Data.Payload.To))
	for _, to := range envelope.Data.Payload.To {
		recipients = append(recipients, to.PhoneNumber)
	}

	msg := services.InboundMessage{
		From: envelope.Data.Payload.From.PhoneNumber,
		To:   recipients,
		Text: envelope.Data.Payload.Text,
	}

	if err := h.enqueuer.EnqueueInbound(c.Context(), msg); err != nil {
		h.logger.WithError(err).Error("failed to enqueue inbound message")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to accept message",
		})
	}

	return c.JSON(fiber.Map{"status": "received"})
}
