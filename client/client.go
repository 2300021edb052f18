package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/google/uuid"
	"github.com/shopglow/go-session"
)

const defaultTimeout = 30 * time.Second

// Config holds the HTTP adapter configuration.
type Config struct {
	// BaseURL is the backend origin, e.g. "https://api.example.com".
	BaseURL string
	// Timeout bounds each request. Defaults to 30 seconds.
	Timeout time.Duration
	// HTTPClient overrides the underlying transport, mainly for tests.
	HTTPClient *http.Client
	// Store supplies the bearer token for outgoing requests and is cleared
	// when the backend answers 401.
	Store session.CredentialStore
	// Unauthorized is invoked after a 401 cleared the store. Wire it to
	// UnauthorizedBridge.Publish.
	Unauthorized func()
	Logger       session.Logger
	// Debug dumps request and response payloads through the logger.
	Debug bool
}

// Client is the single outbound request pipeline: every call attaches the
// persisted bearer token, decodes the backend's response envelope, and maps
// failures onto the session error taxonomy. It never retries; retry is a
// caller decision.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	store        session.CredentialStore
	unauthorized func()
	logger       session.Logger
	debug        bool
}

var _ session.AuthAPI = &Client{}

// New builds a Client. BaseURL and Store are required.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("client requires a base URL")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("client requires a credential store")
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = session.NopLogger{}
	}

	return &Client{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		httpClient:   httpClient,
		store:        cfg.Store,
		unauthorized: cfg.Unauthorized,
		logger:       logger,
		debug:        cfg.Debug,
	}, nil
}

// apiEnvelope is the backend's uniform error body. Success payloads decode
// directly into the caller's target instead.
type apiEnvelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Code    string            `json:"error"`
	Errors  map[string]string `json:"errors"`
}

// authResponse is the success payload of register, login and validate.
type authResponse struct {
	User      *session.User `json:"user"`
	Token     string        `json:"token"`
	ExpiresIn int64         `json:"expiresIn"`
}

// meResponse is the success payload of the profile endpoint.
type meResponse struct {
	User *session.User `json:"user"`
}

// Register implements session.AuthAPI.
func (c *Client) Register(ctx context.Context, payload session.RegisterPayload) (*session.AuthResult, error) {
	var res authResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", payload, &res); err != nil {
		return nil, err
	}
	return &session.AuthResult{User: res.User, Token: res.Token, ExpiresIn: res.ExpiresIn}, nil
}

// Login implements session.AuthAPI.
func (c *Client) Login(ctx context.Context, payload session.LoginPayload) (*session.AuthResult, error) {
	var res authResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", payload, &res); err != nil {
		return nil, err
	}
	return &session.AuthResult{User: res.User, Token: res.Token, ExpiresIn: res.ExpiresIn}, nil
}

// Validate implements session.AuthAPI. The backend may rotate the token.
func (c *Client) Validate(ctx context.Context) (*session.AuthResult, error) {
	var res authResponse
	if err := c.do(ctx, http.MethodGet, "/api/auth/validate", nil, &res); err != nil {
		return nil, err
	}
	return &session.AuthResult{User: res.User, Token: res.Token, ExpiresIn: res.ExpiresIn}, nil
}

// Logout implements session.AuthAPI.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
}

// ForgotPassword implements session.AuthAPI.
func (c *Client) ForgotPassword(ctx context.Context, payload session.ForgotPasswordPayload) error {
	return c.do(ctx, http.MethodPost, "/api/auth/forgot-password", payload, nil)
}

// ResetPassword implements session.AuthAPI.
func (c *Client) ResetPassword(ctx context.Context, payload session.ResetPasswordPayload) error {
	return c.do(ctx, http.MethodPost, "/api/auth/reset-password", payload, nil)
}

// Me implements session.AuthAPI.
func (c *Client) Me(ctx context.Context) (*session.User, error) {
	var res meResponse
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &res); err != nil {
		return nil, err
	}
	return res.User, nil
}

// do runs one request through the pipeline. body is JSON-encoded when
// non-nil; out, when non-nil, receives the decoded success payload.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to encode request body").
				WithTextCode(session.TextCodeUnknownError)
		}
		reader = bytes.NewReader(raw)
		if c.debug {
			c.logger.Debug("request payload", "method", method, "path", path, "body", print.MaybePrettyJSON(body))
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to build request").
			WithTextCode(session.TextCodeUnknownError)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if token := c.store.Load(ctx).Token; token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("request failed before a response arrived", "method", method, "path", path, "error", err)
		return goerrors.Wrap(err, goerrors.CategoryOperation, "could not reach the server").
			WithTextCode(session.TextCodeNetworkError)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to read response").
			WithTextCode(session.TextCodeNetworkError)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		// Clear first, notify second: a subscriber reacting to the event must
		// observe an already-empty store.
		c.store.Clear(ctx)
		if c.unauthorized != nil {
			c.unauthorized()
		}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return c.mapError(resp.StatusCode, raw)
	}

	if out == nil {
		return nil
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to decode response").
			WithTextCode(session.TextCodeUnknownError)
	}

	if c.debug {
		c.logger.Debug("response payload", "method", method, "path", path, "body", print.MaybePrettyJSON(out))
	}

	return nil
}

// mapError converts a non-2xx response into the session error taxonomy,
// keeping the backend's own message and field errors when the body carried
// the uniform envelope.
func (c *Client) mapError(status int, raw []byte) error {
	env := apiEnvelope{}
	if err := json.Unmarshal(raw, &env); err == nil && (env.Message != "" || env.Code != "") {
		code := env.Code
		if code == "" {
			code = statusFallbackCode(status)
		}
		return session.ErrorFromCode(code, env.Message, env.Errors)
	}

	return session.ErrorFromCode(statusFallbackCode(status), "", nil)
}

func statusFallbackCode(status int) string {
	switch {
	case status == http.StatusUnauthorized:
		return session.TextCodeInvalidToken
	case status >= http.StatusInternalServerError:
		return session.TextCodeServerError
	default:
		return session.TextCodeUnknownError
	}
}
