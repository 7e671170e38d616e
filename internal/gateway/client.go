// Package gateway provides the single outbound client for the remote
// ambassador API. It attaches the session's bearer token to every
// request, unwraps the fixed response envelope, and globally handles
// authentication expiry: any 401 forces a logout and a navigation to
// the landing route before the failure reaches the caller.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/helicode/ambassador-console-go/internal/domain"
	"github.com/helicode/ambassador-console-go/internal/infra/observability"
	"github.com/helicode/ambassador-console-go/internal/infra/resilience"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("gateway")

// TokenSource yields the current access token. An empty token means the
// request goes out anonymous (e.g. login itself).
type TokenSource interface {
	Token() string
}

// Client wraps HTTP calls to the ambassador API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	cb         *gobreaker.CircuitBreaker
	bulkhead   *resilience.Bulkhead
	logger     *zap.Logger
	metrics    *observability.Metrics

	tokens         TokenSource
	onUnauthorized func()
}

// NewClient creates a gateway client. The token source and the
// unauthorized hook are wired after construction because the auth store
// that provides them is itself built on top of this client.
func NewClient(httpClient *http.Client, baseURL string, cb *gobreaker.CircuitBreaker, bulkhead *resilience.Bulkhead, metrics *observability.Metrics, logger *zap.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		cb:         cb,
		bulkhead:   bulkhead,
		logger:     logger,
		metrics:    metrics,
	}
}

// SetTokenSource wires the session token provider.
func (c *Client) SetTokenSource(ts TokenSource) {
	c.tokens = ts
}

// SetUnauthorizedHook wires the cross-cutting 401 handler. It runs for
// every 401 response, regardless of which call site triggered it, and
// before the failure propagates to the caller.
func (c *Client) SetUnauthorizedHook(fn func()) {
	c.onUnauthorized = fn
}

// envelope is the fixed wrapper around every API response.
type envelope struct {
	Status     bool            `json:"status"`
	StatusCode int             `json:"statusCode"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
}

// callResult lets API-level failures (4xx envelopes) pass through the
// circuit breaker without counting as breaker failures; only transport
// errors and 5xx responses should trip it.
type callResult struct {
	env *envelope
	err error
}

// do executes one request against the API and decodes the envelope's
// data field into out (which may be nil for callers that only need the
// envelope metadata). It returns the envelope so mutation callers can
// hand the raw result back to the UI.
func (c *Client) do(ctx context.Context, method, path string, body, out any) (*envelope, error) {
	ctx, span := tracer.Start(ctx, fmt.Sprintf("Gateway %s %s", method, path))
	defer span.End()
	span.SetAttributes(
		attribute.String("http.method", method),
		attribute.String("http.path", path),
	)

	if err := c.bulkhead.Acquire(ctx); err != nil {
		return nil, &domain.ErrTransport{Err: err}
	}
	defer c.bulkhead.Release()

	start := time.Now()
	result, cbErr := c.cb.Execute(func() (any, error) {
		env, err := c.roundTrip(ctx, method, path, body)
		if err != nil {
			var apiErr *domain.ErrAPI
			if errors.As(err, &apiErr) && apiErr.StatusCode < 500 {
				return callResult{env: env, err: err}, nil
			}
			return nil, err
		}
		return callResult{env: env}, nil
	})
	c.metrics.RecordGatewayDuration(path, time.Since(start))

	if cbErr != nil {
		c.metrics.IncrGatewayError(path, "transport")
		var apiErr *domain.ErrAPI
		var transportErr *domain.ErrTransport
		if errors.As(cbErr, &apiErr) || errors.As(cbErr, &transportErr) {
			return nil, cbErr
		}
		// Breaker-open and other infrastructure errors look like a
		// connectivity failure to the stores.
		return nil, &domain.ErrTransport{Err: cbErr}
	}

	res := result.(callResult)
	if res.err != nil {
		c.metrics.IncrGatewayError(path, "api")
		return res.env, res.err
	}

	if out != nil && res.env != nil && len(res.env.Data) > 0 {
		if err := json.Unmarshal(res.env.Data, out); err != nil {
			return res.env, &domain.ErrTransport{Err: fmt.Errorf("decode %s response: %w", path, err)}
		}
	}
	return res.env, nil
}

// roundTrip performs the HTTP exchange and envelope unwrap for one call.
func (c *Client) roundTrip(ctx context.Context, method, path string, body any) (*envelope, error) {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, &domain.ErrTransport{Err: err}
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, &domain.ErrTransport{Err: err}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.New().String())
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("gateway: request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, &domain.ErrTransport{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.ErrTransport{Err: err}
	}

	var env envelope
	if len(raw) > 0 {
		// A non-envelope body (proxy error page etc.) is tolerated:
		// the HTTP status alone classifies the failure.
		_ = json.Unmarshal(raw, &env)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		c.logger.Warn("gateway: session expired, forcing logout",
			zap.String("method", method),
			zap.String("path", path),
		)
		c.metrics.IncrForcedLogout()
		if c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return &env, &domain.ErrAPI{StatusCode: http.StatusUnauthorized, Message: env.Message}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("gateway: non-2xx response",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("message", env.Message),
		)
		statusCode := resp.StatusCode
		if env.StatusCode != 0 {
			statusCode = env.StatusCode
		}
		return &env, &domain.ErrAPI{StatusCode: statusCode, Message: env.Message}
	}

	c.logger.Debug("gateway: request OK",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
	)
	return &env, nil
}
