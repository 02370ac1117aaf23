package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"taskstation/internal/platform/metrics"
)

// Doer is the minimal interface needed from an HTTP client.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is the single outbound boundary to the Task Station API. Every page
// read and every action mutation goes through Do: exactly one HTTP call per
// invocation, no retries, no client-side idempotency keys.
type Client struct {
	baseURL    string
	httpClient Doer
	logger     *slog.Logger
	metrics    *metrics.Metrics
	tracer     trace.Tracer
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client (for testing).
func WithHTTPClient(d Doer) Option {
	return func(c *Client) {
		c.httpClient = d
	}
}

// New creates a client for the API at baseURL. The timeout bounds each call at
// the transport level; this layer adds no cancellation of its own.
func New(baseURL string, timeout time.Duration, logger *slog.Logger, m *metrics.Metrics, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger:  logger,
		metrics: m,
		tracer:  otel.Tracer("taskstation/backend"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Request describes one API call.
type Request struct {
	// Operation names the call for logs, metrics, and spans (e.g. "create_workspace").
	Operation string
	Method    string
	Path      string
	Query     url.Values
	// Token is attached as a bearer Authorization header when non-empty.
	Token string
	// Body is JSON-encoded when non-nil.
	Body any
}

// errorBody is the JSON error envelope the API uses on non-2xx responses.
type errorBody struct {
	Message string `json:"message"`
}

// Do performs the call and decodes a 2xx JSON body into out (skipped when out
// is nil). Non-2xx responses yield *APIError with the backend message when the
// body carried one; transport failures yield *ConnError.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	target := c.baseURL + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var bodyReader io.Reader
	if req.Body != nil {
		encoded, err := json.Marshal(req.Body)
		if err != nil {
			return fmt.Errorf("marshal %s request: %w", req.Operation, err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, bodyReader)
	if err != nil {
		return fmt.Errorf("build %s request: %w", req.Operation, err)
	}
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.Token)
	}

	ctx, span := c.tracer.Start(ctx, "backend."+req.Operation,
		trace.WithAttributes(
			attribute.String("http.method", req.Method),
			attribute.String("http.path", req.Path),
		),
	)
	defer span.End()

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport failure")
		if c.metrics != nil {
			c.metrics.IncrementBackendFailures()
			c.metrics.ObserveBackendCall(req.Operation, "transport_error", start)
		}
		c.logger.WarnContext(ctx, "backend unreachable",
			"operation", req.Operation,
			"method", req.Method,
			"path", req.Path,
			"error", err,
		)
		return &ConnError{Err: err}
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if c.metrics != nil {
		c.metrics.ObserveBackendCall(req.Operation, statusClass(resp.StatusCode), start)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read failure")
		return &ConnError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var envelope errorBody
		// Error bodies are best-effort JSON; anything unparseable means no message.
		_ = json.Unmarshal(respBody, &envelope)
		span.SetStatus(codes.Error, "rejected")
		c.logger.InfoContext(ctx, "backend rejected request",
			"operation", req.Operation,
			"method", req.Method,
			"path", req.Path,
			"status", resp.StatusCode,
		)
		return &APIError{StatusCode: resp.StatusCode, Message: envelope.Message}
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decode %s response: %w", req.Operation, err)
		}
	}

	return nil
}

// Ping reports backend reachability for the readiness probe. Any HTTP response
// counts as reachable; only transport failures are errors.
func (c *Client) Ping(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return &ConnError{Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func statusClass(code int) string {
	return strconv.Itoa(code/100) + "xx"
}
