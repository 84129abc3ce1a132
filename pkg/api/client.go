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
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// TokenStore provides the persisted bearer token. Token returns the empty
// string when unauthenticated; Clear drops the persisted session.
type TokenStore interface {
	Token() string
	Clear() error
}

// envelope is the standard server response wrapper. The payload of every
// call lives in Data.
type envelope struct {
	Success   bool            `json:"success"`
	Data      json.RawMessage `json:"data"`
	Message   string          `json:"message,omitempty"`
	Error     string          `json:"error,omitempty"`
	Timestamp string          `json:"timestamp,omitempty"`
	RequestID string          `json:"requestId,omitempty"`
}

// Client is the remote data gateway: it attaches bearer auth and a
// per-request correlation id, unwraps the response envelope, and normalizes
// every failure into *Error.
//
// Side effect: a 401 response clears the stored session and invokes the
// unauthorized hook (once per response, and only when a token was actually
// present) before the error is returned. Consumers must expect the session
// to be gone after an unauthorized error.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	tokens         TokenStore
	logger         *log.Logger
	onUnauthorized func()
}

type Config struct {
	BaseURL string
	Timeout time.Duration
	Tokens  TokenStore
	Logger  *log.Logger
	// OnUnauthorized runs after a 401 has cleared the session. The CLI uses
	// it to tell the user to log in again; a web surface would redirect.
	OnUnauthorized func()
}

func New(cfg Config) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Client{
		httpClient:     &http.Client{Timeout: cfg.Timeout},
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		tokens:         cfg.Tokens,
		logger:         logger,
		onUnauthorized: cfg.OnUnauthorized,
	}
}

// Get issues a GET and decodes the envelope data into out.
func (c *Client) Get(ctx context.Context, path string, params url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, params, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, nil, body, out)
}

func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPatch, path, nil, body, out)
}

func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil, out)
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, body, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return &Error{Message: fmt.Sprintf("failed to encode request body: %v", err)}
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return &Error{Message: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return normalizeTransport(err)
	}
	defer resp.Body.Close()

	c.logger.Debug("api request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	if resp.StatusCode == http.StatusUnauthorized {
		c.handleUnauthorized()
		return &Error{Message: "authentication required", Status: http.StatusUnauthorized}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Message: err.Error(), Status: resp.StatusCode}
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &Error{
			Message: errorMessage(env, resp),
			Status:  resp.StatusCode,
			Code:    env.Error,
		}
	}
	if decodeErr != nil {
		return &Error{Message: fmt.Sprintf("failed to decode response: %v", decodeErr), Status: resp.StatusCode}
	}
	if !env.Success {
		return &Error{Message: errorMessage(env, resp), Status: resp.StatusCode, Code: env.Error}
	}

	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &Error{Message: fmt.Sprintf("failed to decode response data: %v", err), Status: resp.StatusCode}
	}
	return nil
}

// handleUnauthorized clears the session and fires the hook. The hook runs
// only when a token was present to clear, which keeps repeated 401s on an
// already-anonymous client from looping the login prompt.
func (c *Client) handleUnauthorized() {
	if c.tokens.Token() == "" {
		return
	}
	if err := c.tokens.Clear(); err != nil {
		c.logger.Warn("failed to clear stored session", "err", err)
	}
	if c.onUnauthorized != nil {
		c.onUnauthorized()
	}
}

func errorMessage(env envelope, resp *http.Response) string {
	if env.Message != "" {
		return env.Message
	}
	if resp.Status != "" {
		return resp.Status
	}
	return fallbackMessage
}

// normalizeTransport strips the url.Error wrapper so the message reads as
// the underlying transport failure.
func normalizeTransport(err error) *Error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return &Error{Message: uerr.Err.Error()}
	}
	return &Error{Message: err.Error()}
}
