// Package orders is a thin client for the repair order API used by board
// front ends running outside the API process.
package orders

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Apurer/repairshop-api/internal/domains/orders/adapters/http/mapper"
	"github.com/Apurer/repairshop-api/internal/domains/orders/domain"
	"github.com/Apurer/repairshop-api/internal/shared/actor"
	apierrors "github.com/Apurer/repairshop-api/internal/shared/errors"
)

// Client calls the orders API on behalf of one actor.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	actor   domain.Actor
}

// APIError is a problem response the client could not map to a domain error.
type APIError struct {
	StatusCode int
	Problem    apierrors.ProblemDetail
}

func (e *APIError) Error() string {
	if e.Problem.Detail != "" {
		return fmt.Sprintf("orders API %d: %s", e.StatusCode, e.Problem.Detail)
	}
	return fmt.Sprintf("orders API %d: %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// NewClient builds a client rooted at baseURL, e.g. "http://api:8080/v1".
func NewClient(baseURL string, httpClient *http.Client, a domain.Actor) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("orders base URL is required")
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse orders base URL: %w", err)
	}
	if a.TenantID == uuid.Nil || a.UserID == uuid.Nil {
		return nil, errors.New("orders client requires a tenant and user")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}
	traced := *httpClient
	transport := traced.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	traced.Transport = otelhttp.NewTransport(transport)
	return &Client{baseURL: parsed, http: &traced, actor: a}, nil
}

// Transition asks the API to move orderID to target. Rejected transitions
// surface as errors wrapping domain.ErrInvalidTransition.
func (c *Client) Transition(ctx context.Context, orderID uuid.UUID, target domain.Status) error {
	_, err := c.TransitionOrder(ctx, orderID, target)
	return err
}

// TransitionOrder is Transition returning the API's result body.
func (c *Client) TransitionOrder(ctx context.Context, orderID uuid.UUID, target domain.Status) (*mapper.TransitionResult, error) {
	path, err := orderPath(orderID, "transition")
	if err != nil {
		return nil, err
	}
	var result mapper.TransitionResult
	if err := c.do(ctx, http.MethodPost, path, nil, mapper.Transition{Status: string(target)}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetOrder fetches one order.
func (c *Client) GetOrder(ctx context.Context, orderID uuid.UUID) (*mapper.Order, error) {
	path, err := orderPath(orderID, "")
	if err != nil {
		return nil, err
	}
	var order mapper.Order
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// ListOrders returns the tenant's orders, optionally narrowed to statuses.
func (c *Client) ListOrders(ctx context.Context, statuses ...domain.Status) ([]mapper.Order, error) {
	query := url.Values{}
	for _, status := range statuses {
		query.Add("status", string(status))
	}
	var orders []mapper.Order
	if err := c.do(ctx, http.MethodGet, "/orders", query, nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func orderPath(orderID uuid.UUID, suffix string) (string, error) {
	param, err := runtime.StyleParamWithLocation("simple", false, "orderId", runtime.ParamLocationPath, orderID.String())
	if err != nil {
		return "", fmt.Errorf("encode orderId: %w", err)
	}
	path := "/orders/" + param
	if suffix != "" {
		path += "/" + suffix
	}
	return path, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	if c == nil || c.http == nil {
		return errors.New("orders client not configured")
	}
	endpoint := c.baseURL.JoinPath(path)
	endpoint.RawQuery = query.Encode()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(actor.HeaderTenantID, c.actor.TenantID.String())
	req.Header.Set(actor.HeaderUserID, c.actor.UserID.String())

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("call orders API: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return problemError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode orders API response: %w", err)
	}
	return nil
}

func problemError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	_ = json.Unmarshal(raw, &apiErr.Problem)
	switch {
	case apiErr.Problem.Type == apierrors.TypeInvalidState:
		return fmt.Errorf("%w: %s", domain.ErrInvalidTransition, apiErr.Problem.Detail)
	case resp.StatusCode == http.StatusNotFound && apiErr.Problem.Extensions["resourceType"] == "order":
		return fmt.Errorf("%w: %w", domain.ErrOrderNotFound, apiErr)
	default:
		return apiErr
	}
}
