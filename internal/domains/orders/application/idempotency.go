package application

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	ordertypes "github.com/Apurer/repairshop-api/internal/domains/orders/application/types"
	"github.com/Apurer/repairshop-api/internal/domains/orders/ports"
)

const (
	opCreateOrder     = "orders.create"
	opRegisterPayment = "orders.register_payment"
)

type normalizedCreateOrder struct {
	CustomerID         *uuid.UUID `json:"customerId,omitempty"`
	CustomerName       string     `json:"customerName,omitempty"`
	CustomerPhone      string     `json:"customerPhone,omitempty"`
	CustomerEmail      string     `json:"customerEmail,omitempty"`
	AssetID            uuid.UUID  `json:"assetId"`
	Priority           string     `json:"priority"`
	ProblemDescription string     `json:"problemDescription"`
}

type normalizedPayment struct {
	OrderID uuid.UUID `json:"orderId"`
	Amount  string    `json:"amount"`
	Method  string    `json:"method"`
	Note    string    `json:"note"`
}

// FingerprintCreateOrder hashes the intake payload, excluding the idempotency key.
func FingerprintCreateOrder(input ordertypes.CreateOrderInput) (string, error) {
	normalized := normalizedCreateOrder{
		CustomerID:         input.Customer.ID,
		AssetID:            input.AssetID,
		Priority:           string(input.Priority),
		ProblemDescription: strings.TrimSpace(input.ProblemDescription),
	}
	if v := input.Customer.Virtual; v != nil {
		normalized.CustomerName = strings.TrimSpace(v.Name)
		normalized.CustomerPhone = strings.TrimSpace(v.Phone)
		normalized.CustomerEmail = strings.ToLower(strings.TrimSpace(v.Email))
	}
	return fingerprint(normalized)
}

// FingerprintPayment hashes a payment request. Amounts compare by value, so
// "50" and "50.00" are the same request.
func FingerprintPayment(input ordertypes.RegisterPaymentInput) (string, error) {
	return fingerprint(normalizedPayment{
		OrderID: input.OrderID,
		Amount:  input.Amount.String(),
		Method:  string(input.Method),
		Note:    strings.TrimSpace(input.Note),
	})
}

func fingerprint(v any) (string, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}

// replay looks up a prior request under key. It returns the stored record
// when the request repeats one already served.
func (s *Service) replay(ctx context.Context, tenantID uuid.UUID, key, operation, hash string) (*ports.IdempotencyRecord, error) {
	if s.idempotency == nil || key == "" {
		return nil, nil
	}
	existing, err := s.idempotency.Get(ctx, tenantID, key)
	if err != nil {
		return nil, persistenceError("load idempotency key", err)
	}
	if existing == nil {
		return nil, nil
	}
	if existing.Operation != operation || existing.RequestHash != hash {
		return nil, fmt.Errorf("%w: %s", ports.ErrIdempotencyConflict, key)
	}
	return existing, nil
}

// remember stores key after the resource was created. When a concurrent
// request stored the key first, the stored record wins.
func (s *Service) remember(ctx context.Context, tenantID uuid.UUID, key, operation, hash string, resourceID uuid.UUID) (uuid.UUID, error) {
	if s.idempotency == nil || key == "" {
		return resourceID, nil
	}
	stored, err := s.idempotency.Save(ctx, ports.IdempotencyRecord{
		TenantID:    tenantID,
		Key:         key,
		Operation:   operation,
		RequestHash: hash,
		ResourceID:  resourceID,
	})
	if errors.Is(err, ports.ErrIdempotencyConflict) {
		return uuid.Nil, fmt.Errorf("%w: %s", ports.ErrIdempotencyConflict, key)
	}
	if err != nil {
		return uuid.Nil, persistenceError("save idempotency key", err)
	}
	if stored == nil {
		return resourceID, nil
	}
	return stored.ResourceID, nil
}
