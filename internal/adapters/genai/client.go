// Package genai calls a generative-text API to turn detection findings into
// an incident-response playbook.
//
// Explain never returns an error: every failure is converted into a
// classified playbook.Result. One call issues exactly one request, with no
// retries and no caching.
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/okian/dgaops/internal/domain/model"
	"github.com/okian/dgaops/internal/domain/playbook"
	"github.com/okian/dgaops/pkg/logger"
	"github.com/okian/dgaops/pkg/metrics"
)

// Client defaults.
const (
	DefaultTimeout          = 30 * time.Second
	defaultSnippetLength    = 300
	defaultMaxResponseBytes = 4 << 20
	apiKeyHeader            = "x-goog-api-key"
	redacted                = "[REDACTED]"
)

// Client is immutable after New and safe for concurrent use.
type Client struct {
	endpoint   string
	httpClient *http.Client
	timeout    time.Duration
	keyInQuery bool
	maxBody    int64
	snippet    int
	logger     logger.Logger
}

// New creates a client posting to endpoint, a generateContent URL.
func New(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{},
		timeout:    DefaultTimeout,
		maxBody:    defaultMaxResponseBytes,
		snippet:    defaultSnippetLength,
		logger:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Timeout returns the per-call bound.
func (c *Client) Timeout() time.Duration { return c.timeout }

// Explain asks the API for a playbook built from findings.
func (c *Client) Explain(ctx context.Context, findings model.Findings, apiKey string) (res playbook.Result) {
	requestID := uuid.NewString()
	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			res = playbook.Failure(playbook.KindUnknown, 0, "An error occurred: %v", p)
		}
		res.Message = redact(res.Message, apiKey)

		elapsed := time.Since(start)
		metrics.RecordPlaybookResult(res.Kind.String())
		metrics.RecordPlaybookLatency(float64(elapsed.Milliseconds()))
		fields := []logger.Field{
			logger.String("request_id", requestID),
			logger.String("kind", res.Kind.String()),
			logger.Int("status", res.Status),
			logger.Duration("elapsed", elapsed),
		}
		if res.OK() {
			c.logger.Info(ctx, "playbook generated", fields...)
		} else {
			c.logger.Warn(ctx, "playbook generation failed", append(fields, logger.String("reason", res.Message))...)
		}
	}()

	if strings.TrimSpace(apiKey) == "" {
		return playbook.Failure(playbook.KindUnknown, 0, "An error occurred: no API key supplied")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := c.newRequest(ctx, findings, apiKey)
	if err != nil {
		return playbook.Failure(playbook.KindUnknown, 0, "An error occurred: %v", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.classifyTransport(ctx, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody))
	if err != nil {
		return c.classifyTransport(ctx, err)
	}
	return c.interpret(resp.StatusCode, raw)
}

func (c *Client) newRequest(ctx context.Context, findings model.Findings, apiKey string) (*http.Request, error) {
	payload := generateRequest{Contents: []content{{
		Role:  "user",
		Parts: []part{{Text: playbook.BuildPrompt(findings)}},
	}}}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := c.endpoint
	if c.keyInQuery {
		u, err := url.Parse(endpoint)
		if err != nil {
			return nil, fmt.Errorf("parse endpoint: %w", err)
		}
		q := u.Query()
		q.Set("key", apiKey)
		u.RawQuery = q.Encode()
		endpoint = u.String()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if !c.keyInQuery {
		req.Header.Set(apiKeyHeader, apiKey)
	}
	return req, nil
}

// interpret maps a received response onto a Result.
func (c *Client) interpret(status int, raw []byte) playbook.Result {
	if !json.Valid(raw) {
		return playbook.Failure(playbook.KindParse, status,
			"Error: Non-JSON response (status %d): %s", status, truncate(string(raw), c.snippet))
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, raw); err != nil {
		compact.Reset()
		compact.Write(raw)
	}

	if status != http.StatusOK {
		return playbook.Failure(playbook.KindHTTPStatus, status, "Error %d: %s", status, compact.String())
	}

	if err := checkShape(raw); err != nil {
		return playbook.Failure(playbook.KindStructure, status,
			"Error: Unexpected response shape (%v): %s", err, truncate(compact.String(), c.snippet))
	}

	var resp generateResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return playbook.Failure(playbook.KindStructure, status,
			"Error: Unexpected response shape (%v): %s", err, truncate(compact.String(), c.snippet))
	}
	return playbook.Success(resp.Candidates[0].Content.Parts[0].Text)
}

// classifyTransport maps an error from sending the request or reading the
// body. ctx is the call's bounded context.
func (c *Client) classifyTransport(ctx context.Context, err error) playbook.Result {
	var netErr net.Error
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded),
		errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &netErr) && netErr.Timeout():
		return playbook.Failure(playbook.KindTimeout, 0,
			"An error occurred: request timed out after %s", c.timeout)
	case errors.Is(err, context.Canceled):
		return playbook.Failure(playbook.KindUnknown, 0, "An error occurred: request cancelled: %v", err)
	case isConnectError(err):
		return playbook.Failure(playbook.KindConnect, 0,
			"An error occurred: Could not connect to the API endpoint. %v", err)
	default:
		return playbook.Failure(playbook.KindUnknown, 0, "An error occurred: %v", err)
	}
}

// isConnectError reports DNS and dial failures, i.e. no connection was made.
func isConnectError(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}

// truncate keeps at most n characters of s.
func truncate(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

func redact(msg, apiKey string) string {
	if apiKey == "" || msg == "" {
		return msg
	}
	msg = strings.ReplaceAll(msg, apiKey, redacted)
	if escaped := url.QueryEscape(apiKey); escaped != apiKey {
		msg = strings.ReplaceAll(msg, escaped, redacted)
	}
	return msg
}
