package obclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/OneForces/banking-mvp/internal/config"
	"github.com/OneForces/banking-mvp/internal/metrics"
)

// Client talks to one upstream sandbox at a time; the target is passed per
// call, so one instance serves all banks. It carries no mutable state.
type Client struct {
	http           *http.Client
	requestingBank string
	compliance     config.ComplianceConfig
	logger         *slog.Logger
	metrics        *metrics.Metrics
}

// NewClient builds the upstream client. requestingBank is our own client/team
// id, which upstream banks use to attribute calls; it is never a bank code.
func NewClient(httpClient *http.Client, requestingBank string, compliance config.ComplianceConfig, logger *slog.Logger, m *metrics.Metrics) *Client {
	return &Client{
		http:           httpClient,
		requestingBank: requestingBank,
		compliance:     compliance,
		logger:         logger,
		metrics:        m,
	}
}

// do performs one decorated round trip and returns the raw response body.
// Non-2xx answers become *APIError with a truncated body.
func (c *Client) do(ctx context.Context, method, url string, body any, target Target, token, consentID, operation string) ([]byte, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("error marshalling json: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	c.decorate(req, target, token, consentID)

	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.UpstreamRequest(string(target.Code), operation, false)
		return nil, fmt.Errorf("%s: %w", operation, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.UpstreamRequest(string(target.Code), operation, false)
		return nil, fmt.Errorf("%s: reading response: %w", operation, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.metrics.UpstreamRequest(string(target.Code), operation, false)
		c.logger.Warn("upstream call failed",
			"operation", operation,
			"bank", target.Code,
			"status", resp.StatusCode,
		)
		return nil, &APIError{
			Operation:  operation,
			StatusCode: resp.StatusCode,
			Body:       sanitizeBody(respBody),
		}
	}

	c.metrics.UpstreamRequest(string(target.Code), operation, true)
	return respBody, nil
}

// doJSON is do plus decoding into a JSON object. A 2xx body that is not a
// JSON object is a shape failure, not a business outcome.
func (c *Client) doJSON(ctx context.Context, method, url string, body any, target Target, token, consentID, operation string) (map[string]any, error) {
	respBody, err := c.do(ctx, method, url, body, target, token, consentID, operation)
	if err != nil {
		return nil, err
	}
	if len(respBody) == 0 {
		return map[string]any{}, nil
	}

	var payload map[string]any
	if err := json.Unmarshal(respBody, &payload); err != nil {
		return nil, &ShapeError{Operation: operation, Detail: "not a JSON object", Err: err}
	}
	return payload, nil
}
