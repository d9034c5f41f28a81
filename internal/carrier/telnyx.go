// Package carrier sends outbound SMS/MMS through the Telnyx v2 messages API.
package carrier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultBaseURL = "https://api.telnyx.com/v2"

// dispatchTimeout bounds a single carrier call
const dispatchTimeout = 10 * time.Second

// Dispatcher delivers outbound messages. Delivery confirmation is not
// inspected; only immediate transport-level failure surfaces as an error.
type Dispatcher interface {
	SendToOne(ctx context.Context, number, text string) error
	SendToMany(ctx context.Context, numbers []string, text string) error
}

// TelnyxDispatcher implements Dispatcher against the Telnyx messages endpoint
type TelnyxDispatcher struct {
	apiKey     string
	fromNumber string
	baseURL    string
	httpClient *http.Client
}

// NewTelnyxDispatcher creates a Telnyx-backed dispatcher
func NewTelnyxDispatcher(apiKey, fromNumber, baseURL string) (*TelnyxDispatcher, error) {
	if apiKey == "" {
		return nil, errors.New("Telnyx API key is required")
	}
	if fromNumber == "" {
		return nil, errors.New("Telnyx sending number is required")
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &TelnyxDispatcher{
		apiKey:     apiKey,
		fromNumber: fromNumber,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: dispatchTimeout},
	}, nil
}

var _ Dispatcher = (*TelnyxDispatcher)(nil)

type messagePayload struct {
	From    string      `json:"from"`
	To      interface{} `json:"to"`
	Text    string      `json:"text"`
	Subject string      `json:"subject,omitempty"`
}

// SendToOne sends a direct SMS to a single number
func (d *TelnyxDispatcher) SendToOne(ctx context.Context, number, text string) error {
	return d.post(ctx, messagePayload{
		From: d.fromNumber,
		To:   number,
		Text: text,
	})
}

// SendToMany sends a group MMS to all recipient numbers. The subject nudges
// carriers into treating the send as a group thread.
func (d *TelnyxDispatcher) SendToMany(ctx context.Context, numbers []string, text string) error {
	return d.post(ctx, messagePayload{
		From:    d.fromNumber,
		To:      numbers,
		Text:    text,
		Subject: "Jarvis Group Chat",
	})
}

func (d *TelnyxDispatcher) post(ctx context.Context, payload messagePayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode message payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build carrier request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+d.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("carrier request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("carrier rejected send: status %d: %s", resp.StatusCode, string(detail))
	}

	return nil
}
