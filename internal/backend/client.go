// Package backend is the typed client for the fleet REST API. Every failure
// is returned as an *Error classified into the portal's error taxonomy.
package backend

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

	"go.uber.org/zap"

	"github.com/Sapuran-Berperan/fleet-portal/internal/model"
)

const (
	apiPrefix       = "/api/v1"
	maxResponseBody = 10 << 20
	maxErrorBody    = 64 << 10
)

// Client calls the fleet backend
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     *zap.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger used for request tracing
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a client for the backend at baseURL
func New(baseURL string, timeout time.Duration, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid backend url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid backend url %q: scheme must be http or https", baseURL)
	}

	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{Timeout: timeout},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// endpoint builds an absolute API URL from path segments
func (c *Client) endpoint(query url.Values, segments ...string) string {
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + apiPrefix + "/" + strings.Join(escaped, "/")
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func (c *Client) newRequest(ctx context.Context, method, target, token string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

// do sends req and classifies the outcome. On success the caller owns the body.
func (c *Client) do(op string, req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("backend request failed",
			zap.String("op", op),
			zap.String("method", req.Method),
			zap.String("url", req.URL.Redacted()),
			zap.Error(err),
		)
		return nil, &Error{Kind: KindNetwork, Op: op, Err: err}
	}

	c.logger.Debug("backend request",
		zap.String("op", op),
		zap.String("method", req.Method),
		zap.String("url", req.URL.Redacted()),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}

	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return nil, statusError(op, resp.StatusCode, errorDetail(body))
}

// doJSON sends an optional JSON body and decodes the response into out.
// A nil out discards the response body.
func (c *Client) doJSON(ctx context.Context, op, method, target, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", op, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := c.newRequest(ctx, method, target, token, body)
	if err != nil {
		return &Error{Kind: KindNetwork, Op: op, Err: err}
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.do(op, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBody))
		return nil
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return &Error{Kind: KindNetwork, Op: op, Err: err}
	}
	if decoder, ok := out.(rawDecoder); ok {
		return decoder.decodeRaw(op, raw)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &Error{Kind: KindMalformed, Op: op, Err: err}
	}
	return nil
}

// errorDetail pulls a human readable message out of an error body
func errorDetail(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
		Detail  string `json:"detail"`
		Meta    struct {
			Message string `json:"message"`
		} `json:"meta"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	for _, candidate := range []string{payload.Message, payload.Detail, payload.Meta.Message, payload.Error} {
		if candidate = strings.TrimSpace(candidate); candidate != "" {
			return candidate
		}
	}
	return ""
}

// Login exchanges credentials for a backend JWT
func (c *Client) Login(ctx context.Context, req model.LoginRequest) (*model.LoginResponse, error) {
	var resp model.LoginResponse
	err := c.doJSON(ctx, "login", http.MethodPost, c.endpoint(nil, "auth", "login"), "", req, &resp)
	if err != nil {
		if errors.Is(err, ErrAuthExpired) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !resp.Status || resp.JWT == "" {
		return nil, ErrInvalidCredentials
	}
	return &resp, nil
}

// Statistics fetches the aggregate counters of a whole collection
func (c *Client) Statistics(ctx context.Context, token string, resource model.Resource) (model.Counters, error) {
	var counters model.Counters
	err := c.doJSON(ctx, "statistics", http.MethodGet, c.endpoint(nil, resource.String(), "statistics"), token, nil, &counters)
	if err != nil {
		return nil, err
	}
	if counters == nil {
		counters = model.Counters{}
	}
	return counters, nil
}

// Delete removes one record
func (c *Client) Delete(ctx context.Context, token string, resource model.Resource, id string) error {
	return c.doJSON(ctx, "delete "+resource.String(), http.MethodDelete, c.endpoint(nil, resource.String(), id), token, nil, nil)
}
