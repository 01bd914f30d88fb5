// Package api is the HTTP client for the scheduling API.
//
// Every operation makes exactly one attempt and reports failure as a
// *dynsched.APIError; list operations also return an empty, non-nil slice.
package api

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
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/benjamonnguyen/dynsched"
)

const (
	headerRequestID = "X-Request-ID"
	msgExpired      = "Your session has expired. Please log in again."
)

// TokenSource supplies the bearer token and is told which token the server
// rejected.
type TokenSource interface {
	Token() string
	Invalidate(ctx context.Context, rejected string)
}

type Client struct {
	baseURL string
	hc      *http.Client
	l       dynsched.Logger

	mu     sync.RWMutex
	tokens TokenSource
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.hc = hc
	}
}

func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) {
		c.tokens = ts
	}
}

func NewClient(baseURL string, logger dynsched.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      http.DefaultClient,
		l:       logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// UseTokenSource replaces the token source; the session store is wired in this way
// because it is built on top of the client.
func (c *Client) UseTokenSource(ts TokenSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens = ts
}

func (c *Client) tokenSource() TokenSource {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tokens
}

type request struct {
	method string
	path   string
	query  url.Values
	body   any
	// authenticated requests carry the bearer token when there is one
	authenticated bool
	// failMsg is shown when the server gives no message of its own
	failMsg string
}

type errorBody struct {
	Error   string `json:"error"`
	Success *bool  `json:"success"`
}

func (c *Client) do(ctx context.Context, req request, out any) error {
	reqID := uuid.NewString()
	l := c.l

	var body io.Reader
	if req.body != nil {
		b, err := json.Marshal(req.body)
		if err != nil {
			return &dynsched.APIError{Message: req.failMsg, Err: fmt.Errorf("encode request: %w", err)}
		}
		body = bytes.NewReader(b)
	}

	u := c.baseURL + req.path
	if len(req.query) > 0 {
		u += "?" + req.query.Encode()
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, u, body)
	if err != nil {
		return &dynsched.APIError{Message: req.failMsg, Err: err}
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(headerRequestID, reqID)
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	var ts TokenSource
	if req.authenticated {
		ts = c.tokenSource()
	}
	var sentToken string
	if ts != nil {
		if token := ts.Token(); token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+token)
			sentToken = token
		}
	}

	start := time.Now()
	l.Debug("api request", "method", req.method, "path", req.path, "request_id", reqID, "authenticated", sentToken != "")
	resp, err := c.hc.Do(httpReq)
	if err != nil {
		l.Warn("api request failed", "method", req.method, "path", req.path, "request_id", reqID, "error", err)
		return &dynsched.APIError{Message: req.failMsg, Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		l.Warn("failed reading api response", "request_id", reqID, "error", err)
		return &dynsched.APIError{Status: resp.StatusCode, Message: req.failMsg, Err: err}
	}
	l.Debug("api response", "request_id", reqID, "status", resp.StatusCode, "duration", time.Since(start), "size", len(respBody))

	rejection, rejected := rejectionMessage(respBody)
	if resp.StatusCode < 200 || resp.StatusCode > 299 || rejected {
		apiErr := &dynsched.APIError{
			Status:  resp.StatusCode,
			Message: coalesce(rejection, req.failMsg),
			Err:     fmt.Errorf("%s %s: status %d", req.method, req.path, resp.StatusCode),
		}
		if resp.StatusCode == http.StatusUnauthorized && sentToken != "" {
			l.Info("token rejected, clearing session", "request_id", reqID)
			ts.Invalidate(ctx, sentToken)
			apiErr.Message = coalesce(rejection, msgExpired)
			apiErr.Redirect = dynsched.LoginRoute
		}
		l.Warn("api request rejected", "method", req.method, "path", req.path, "request_id", reqID, "status", resp.StatusCode, "message", apiErr.Message)
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		l.Warn("failed decoding api response", "request_id", reqID, "error", err)
		return &dynsched.APIError{Status: resp.StatusCode, Message: req.failMsg, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// rejectionMessage inspects a JSON object body for an "error" field or
// "success": false. rejected is true when either is present.
func rejectionMessage(body []byte) (msg string, rejected bool) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return "", false
	}
	var eb errorBody
	if err := json.Unmarshal(trimmed, &eb); err != nil {
		return "", false
	}
	return eb.Error, eb.Error != "" || (eb.Success != nil && !*eb.Success)
}

func requireID(id, failMsg string) error {
	if strings.TrimSpace(id) == "" {
		return &dynsched.APIError{Message: failMsg, Err: errors.New("provide id")}
	}
	return nil
}

func coalesce(args ...string) string {
	for _, s := range args {
		if s != "" {
			return s
		}
	}
	return ""
}
