//go:build pact
// +build pact

package consumer_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	pactconsumer "github.com/pact-foundation/pact-go/v2/consumer"
	pactlog "github.com/pact-foundation/pact-go/v2/log"
	"github.com/pact-foundation/pact-go/v2/matchers"
	"github.com/stretchr/testify/require"

	ordersclient "github.com/Apurer/repairshop-api/internal/clients/http/orders"
	"github.com/Apurer/repairshop-api/internal/domains/orders/domain"
	pacttest "github.com/Apurer/repairshop-api/test/pact"
)

func TestRepairBoardContract(t *testing.T) {
	pactlog.SetLogLevel("INFO")

	pact, err := pactconsumer.NewV2Pact(pactconsumer.MockHTTPProviderConfig{
		Consumer: pacttest.ConsumerName,
		Provider: pacttest.ProviderName,
		PactDir:  pacttest.PactDir(t),
		LogDir:   pacttest.LogDir(t),
	})
	require.NoError(t, err)

	jsonContentType := matchers.Regex("application/json; charset=utf-8", "application\\/json(?:;\\s?charset=utf-8)?")
	actorHeaders := func(b *pactconsumer.V2RequestBuilder) {
		b.Header("X-Tenant-ID", matchers.S(pacttest.TenantID))
		b.Header("X-User-ID", matchers.S(pacttest.UserID))
	}
	transitionPath := fmt.Sprintf("/v1/orders/%s/transition", pacttest.ExistingOrder)

	pact.AddInteraction().
		Given(pacttest.StateOrderInReception).
		UponReceiving("a request to move an order into diagnosis").
		WithRequest("POST", transitionPath, func(b *pactconsumer.V2RequestBuilder) {
			actorHeaders(b)
			b.Header("Content-Type", matchers.S("application/json"))
			b.JSONBody(matchers.Map{"status": matchers.S("diagnosis")})
		}).
		WillRespondWith(http.StatusOK, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", jsonContentType)
			b.JSONBody(matchers.Map{
				"success": matchers.Like(true),
				"changed": matchers.Like(true),
				"order": matchers.Map{
					"id":          matchers.S(pacttest.ExistingOrder),
					"status":      matchers.S("diagnosis"),
					"allowedNext": matchers.EachLike("approval", 1),
				},
			})
		})

	pact.AddInteraction().
		Given(pacttest.StateOrderInReception).
		UponReceiving("a request to skip an order straight to delivered").
		WithRequest("POST", transitionPath, func(b *pactconsumer.V2RequestBuilder) {
			actorHeaders(b)
			b.Header("Content-Type", matchers.S("application/json"))
			b.JSONBody(matchers.Map{"status": matchers.S("delivered")})
		}).
		WillRespondWith(http.StatusConflict, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", matchers.S("application/problem+json"))
			b.JSONBody(matchers.Map{
				"type":   matchers.S("/problems/invalid-transition"),
				"status": matchers.Like(http.StatusConflict),
			})
		})

	pact.AddInteraction().
		Given(pacttest.StateOrderMissing).
		UponReceiving("a request for a missing order").
		WithRequest("GET", "/v1/orders/"+pacttest.MissingOrder, actorHeaders).
		WillRespondWith(http.StatusNotFound, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", matchers.S("application/problem+json"))
			b.JSONBody(matchers.Map{
				"type":   matchers.S("/problems/not-found"),
				"status": matchers.Like(http.StatusNotFound),
				"extensions": matchers.Map{
					"resourceType": matchers.S("order"),
				},
			})
		})

	err = pact.ExecuteTest(t, func(config pactconsumer.MockServerConfig) error {
		client, err := ordersclient.NewClient(
			fmt.Sprintf("http://%s:%d/v1", config.Host, config.Port),
			nil,
			domain.Actor{TenantID: uuid.MustParse(pacttest.TenantID), UserID: uuid.MustParse(pacttest.UserID)},
		)
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		orderID := uuid.MustParse(pacttest.ExistingOrder)
		result, err := client.TransitionOrder(ctx, orderID, domain.StatusDiagnosis)
		if err != nil {
			return fmt.Errorf("transition to diagnosis: %w", err)
		}
		if !result.Success || result.Order == nil || result.Order.Status != "diagnosis" {
			return fmt.Errorf("unexpected transition result %+v", result)
		}

		if err := client.Transition(ctx, orderID, domain.StatusDelivered); !errors.Is(err, domain.ErrInvalidTransition) {
			return fmt.Errorf("expected invalid transition, got %v", err)
		}

		if _, err := client.GetOrder(ctx, uuid.MustParse(pacttest.MissingOrder)); !errors.Is(err, domain.ErrOrderNotFound) {
			return fmt.Errorf("expected order not found, got %v", err)
		}
		return nil
	})
	require.NoError(t, err)
}
