// Package apiclient is the typed HTTP client for the storefront REST
// backend. It injects the session token, tags every request with an id,
// enforces a request timeout, and unwraps the backend's response envelope.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// DefaultTimeout bounds each request. Requests that outlive it count as
// backend failures, which lets cart mutations engage their local fallback.
const DefaultTimeout = 10 * time.Second

// TokenStore supplies the session token for outgoing requests and is told
// to drop it when the backend rejects it.
type TokenStore interface {
	Token() string
	Clear()
}

// AuthError reports a 401-class response: the session token is missing or
// expired. Callers are expected to send the user to sign-in.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	if e.Message == "" {
		return "authentication required"
	}
	return "authentication required: " + e.Message
}

// UserMessage implements the notification message contract.
func (e *AuthError) UserMessage() string { return "Please sign in to continue" }

// StatusError reports a non-success HTTP response with the backend's
// message when it sent one.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend responded %d", e.StatusCode)
	}
	return fmt.Sprintf("backend responded %d: %s", e.StatusCode, e.Message)
}

// UserMessage returns the backend's message for display, when present.
func (e *StatusError) UserMessage() string { return e.Message }

// Config configures a Client.
type Config struct {
	// BaseURL is the API root, e.g. "https://api.example.com/api/v1".
	BaseURL string
	// Timeout per request. Zero means DefaultTimeout.
	Timeout time.Duration
	// Tokens supplies the session token. Nil sends unauthenticated requests.
	Tokens TokenStore
	// Transport overrides the underlying round tripper. Nil uses the default
	// transport wrapped with otel instrumentation.
	Transport http.RoundTripper
	// Logger for request failures. Nil disables logging.
	Logger *zap.Logger
}

// Client issues envelope-wrapped JSON requests against the backend.
type Client struct {
	base   *url.URL
	http   *http.Client
	tokens TokenStore
	lg     *zap.Logger
}

// New validates cfg and builds a Client.
func New(cfg Config) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, errors.Wrap(err, "parse base URL")
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, errors.Errorf("base URL %q must be absolute", cfg.BaseURL)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	transport := cfg.Transport
	if transport == nil {
		transport = otelhttp.NewTransport(http.DefaultTransport)
	}
	lg := cfg.Logger
	if lg == nil {
		lg = zap.NewNop()
	}

	return &Client{
		base: base,
		http: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		tokens: cfg.Tokens,
		lg:     lg,
	}, nil
}

// envelope is the backend's uniform response shape.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// get issues a GET and decodes the envelope data into out.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

// post issues a POST with a JSON body and decodes the envelope data into out.
// Both body and out may be nil.
func (c *Client) post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

// put issues a PUT with a JSON body and decodes the envelope data into out.
func (c *Client) put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, nil, body, out)
}

// del issues a DELETE.
func (c *Client) del(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + path
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "encode request body")
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.New().String())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if tok := c.tokens.Token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return errors.Wrapf(err, "read %s %s response", method, path)
	}

	var env envelope
	// A non-envelope body (proxy error page, plain text) is tolerated: the
	// status code alone decides the outcome then.
	_ = json.Unmarshal(data, &env)

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		// Matches the browser client: a rejected token is dropped so the
		// next attempt starts clean, and the caller gets a distinguishable
		// error to react to.
		if c.tokens != nil {
			c.tokens.Clear()
		}
		return &AuthError{Message: env.Message}
	case resp.StatusCode >= 400:
		c.lg.Warn("request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode))
		return &StatusError{StatusCode: resp.StatusCode, Message: env.Message}
	case !env.Success:
		return &StatusError{StatusCode: resp.StatusCode, Message: env.Message}
	}

	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return errors.Wrapf(err, "decode %s %s response", method, path)
	}
	return nil
}
