// Package backend calls the retrieval and generation service.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"rag-brand-guard/internal/common/errors"
	commonhttp "rag-brand-guard/internal/common/http"
	"rag-brand-guard/internal/common/metrics"
	"rag-brand-guard/internal/models"
)

// APIKeyHeader carries the backend credential.
const APIKeyHeader = "X-API-Key"

const maxErrorBody = 512

// Querier answers one enhanced query.
type Querier interface {
	Query(ctx context.Context, req models.BackendRequest) (*models.BackendResponse, error)
}

type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

type Config struct {
	BaseURL    string
	QueryPath  string
	APIKey     string
	Timeout    time.Duration
	MaxRetries int
	// RetryBackoff is the first backoff, doubled on every retry.
	RetryBackoff time.Duration
}

// Client posts BackendRequest bodies and decodes BackendResponse answers.
type Client struct {
	config *Config
	url    string
	http   *commonhttp.Client
	logger Logger
}

func NewClient(config *Config, log Logger) (*Client, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("backend base url is required")
	}
	path := config.QueryPath
	if path == "" {
		path = "/query"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	return &Client{
		config: config,
		url:    strings.TrimRight(config.BaseURL, "/") + path,
		http:   commonhttp.NewClient(timeout, commonhttp.WithRetries(config.MaxRetries, config.RetryBackoff)),
		logger: log,
	}, nil
}

// Query returns BACKEND_TIMEOUT, BACKEND_CALL_FAILED or BACKEND_BAD_RESPONSE
// StandardErrors on failure.
func (c *Client) Query(ctx context.Context, req models.BackendRequest) (*models.BackendResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, errors.NewInternalError(fmt.Errorf("failed to marshal backend request: %w", err))
	}

	start := time.Now()
	resp, err := c.http.DoWithRetry(ctx, func(ctx context.Context) (*http.Request, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Accept", "application/json")
		if c.config.APIKey != "" {
			httpReq.Header.Set(APIKeyHeader, c.config.APIKey)
		}
		return httpReq, nil
	})
	if err != nil {
		metrics.BackendRequestDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		c.logger.Error("backend call failed", map[string]interface{}{
			"url":   c.url,
			"error": err.Error(),
		})
		if isTimeout(ctx, err) {
			return nil, errors.NewBackendTimeoutError(err)
		}
		return nil, errors.NewBackendCallFailedError(err)
	}
	defer resp.Body.Close()

	metrics.BackendRequestDuration.WithLabelValues(fmt.Sprintf("%dxx", resp.StatusCode/100)).
		Observe(time.Since(start).Seconds())

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		statusErr := fmt.Errorf("backend returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
		c.logger.Warn("backend returned an error status", map[string]interface{}{
			"status": resp.StatusCode,
		})
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			return nil, errors.NewBackendCallFailedError(statusErr).WithMetadata("status", resp.StatusCode)
		}
		return nil, errors.NewBackendBadResponseError(statusErr).WithMetadata("status", resp.StatusCode)
	}

	var out models.BackendResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		if isTimeout(ctx, err) {
			return nil, errors.NewBackendTimeoutError(err)
		}
		return nil, errors.NewBackendBadResponseError(fmt.Errorf("failed to decode backend response: %w", err))
	}

	c.logger.Debug("backend answered", map[string]interface{}{
		"chunksRetrieved": out.ChunksRetrieved,
		"citations":       len(out.Citations),
		"duration_ms":     time.Since(start).Milliseconds(),
	})
	return out.Sanitize(), nil
}

func isTimeout(ctx context.Context, err error) bool {
	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return stderrors.As(err, &netErr) && netErr.Timeout()
}
