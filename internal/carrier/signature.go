package carrier

import (
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"
)

var (
	// ErrInvalidSignature is returned when a webhook signature does not verify
	ErrInvalidSignature = errors.New("invalid webhook signature")
)

// WebhookVerifier checks Telnyx webhook signatures. Telnyx signs
// "<timestamp>|<body>" with Ed25519 and sends the signature and timestamp in
// request headers.
type WebhookVerifier struct {
	publicKey ed25519.PublicKey
}

// NewWebhookVerifier parses the base64-encoded public key from the Telnyx
// portal. An empty key yields a nil verifier, which skips verification.
func NewWebhookVerifier(encodedKey string) (*WebhookVerifier, error) {
	if encodedKey == "" {
		return nil, nil
	}
	raw, err := base64.StdEncoding.DecodeString(encodedKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decode Telnyx public key: %w", err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("unexpected Telnyx public key length %d", len(raw))
	}
	return &WebhookVerifier{publicKey: ed25519.PublicKey(raw)}, nil
}

// Verify checks the signature over the raw request body
func (v *WebhookVerifier) Verify(body []byte, encodedSignature, timestamp string) error {
	signature, err := base64.StdEncoding.DecodeString(encodedSignature)
	if err != nil {
		return fmt.Errorf("failed to decode signature: %w", err)
	}

	signed := append([]byte(timestamp+"|"), body...)
	if !ed25519.Verify(v.publicKey, signed, signature) {
		return ErrInvalidSignature
	}
	return nil
}
