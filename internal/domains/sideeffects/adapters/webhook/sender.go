package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Apurer/repairshop-api/internal/domains/sideeffects/domain"
	"github.com/Apurer/repairshop-api/internal/domains/sideeffects/ports"
)

const (
	HeaderEvent     = "X-Webhook-Event"
	HeaderDelivery  = "X-Webhook-Delivery"
	HeaderSignature = "X-Webhook-Signature"
)

var _ ports.WebhookSender = (*Sender)(nil)

// Sender posts envelopes to subscriber endpoints.
type Sender struct {
	client *http.Client
}

// NewSender builds a sender whose transport is traced. A nil client gets a
// default one with the given timeout.
func NewSender(client *http.Client, timeout time.Duration) *Sender {
	if client == nil {
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	transport := client.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	traced := *client
	traced.Transport = otelhttp.NewTransport(transport)
	return &Sender{client: &traced}
}

// Send performs a single POST. Any non-2xx response is an error.
func (s *Sender) Send(ctx context.Context, delivery domain.Delivery) error {
	if s == nil || s.client == nil {
		return errors.New("webhook sender not configured")
	}
	body, err := json.Marshal(delivery.Envelope)
	if err != nil {
		return fmt.Errorf("encode webhook envelope: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, delivery.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderEvent, delivery.Envelope.EventType)
	req.Header.Set(HeaderDelivery, delivery.ID)
	if delivery.Secret != "" {
		req.Header.Set(HeaderSignature, Sign(delivery.Secret, body))
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook endpoint returned %s", resp.Status)
	}
	return nil
}

// Sign returns the signature header value for body.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}
