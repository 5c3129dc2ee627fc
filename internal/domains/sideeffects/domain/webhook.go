package domain

import (
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Subscription is a tenant's registration for outbound webhooks.
type Subscription struct {
	ID         uuid.UUID
	TenantID   uuid.UUID
	URL        string
	Secret     string
	EventTypes []string
	Active     bool
}

// Validate checks the subscription can be delivered to.
func (s *Subscription) Validate() error {
	if s.TenantID == uuid.Nil || len(s.EventTypes) == 0 {
		return ErrInvalidSubscription
	}
	parsed, err := url.Parse(strings.TrimSpace(s.URL))
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return ErrInvalidSubscription
	}
	return nil
}

// Wants reports whether the subscription should receive eventType.
func (s *Subscription) Wants(eventType string) bool {
	if s == nil || !s.Active {
		return false
	}
	for _, candidate := range s.EventTypes {
		if candidate == eventType {
			return true
		}
	}
	return false
}

// Envelope is the JSON body posted to subscribers.
type Envelope struct {
	EventType string    `json:"eventType"`
	OrderID   uuid.UUID `json:"orderId"`
	NewStatus string    `json:"newStatus"`
	UpdatedBy uuid.UUID `json:"updatedBy"`
	Timestamp time.Time `json:"timestamp"`
}

// Delivery is one envelope bound for one subscription.
type Delivery struct {
	// ID is stable across retries so receivers can deduplicate.
	ID             string
	SubscriptionID uuid.UUID
	URL            string
	Secret         string
	Envelope       Envelope
}

// NewDelivery binds an envelope produced by outbox event eventID to sub.
func NewDelivery(eventID uuid.UUID, sub *Subscription, envelope Envelope) Delivery {
	return Delivery{
		ID:             eventID.String() + ":" + sub.ID.String(),
		SubscriptionID: sub.ID,
		URL:            sub.URL,
		Secret:         sub.Secret,
		Envelope:       envelope,
	}
}
