// Package httpapi is the JSON-over-HTTP client for the storefront backend:
// login, token refresh, and order submission. It owns the mapping from
// transport outcomes onto the identity error taxonomy.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	domainid "github.com/shopfront/identity/internal/domain/identity"
	"github.com/shopfront/identity/internal/ports"
)

// Config captures the backend connection settings.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Client  *http.Client
	Roles   ports.RolesMapper
	Logger  *slog.Logger
}

// Client talks to the storefront backend.
type Client struct {
	baseURL string
	client  *http.Client
	roles   ports.RolesMapper
	logger  *slog.Logger
}

// NewClient builds a backend client. Callers should pass a validated config.
func NewClient(cfg Config) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("backend base URL is required")
	}
	if cfg.Roles == nil {
		return nil, errors.New("roles mapper is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	hc := cfg.Client
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL: baseURL,
		client:  hc,
		roles:   cfg.Roles,
		logger:  logger,
	}, nil
}

// loginResponse mirrors the backend's login payload. The id arrives numeric
// from some backend versions and string from others; json.Number absorbs both.
type loginResponse struct {
	Token     string      `json:"token"`
	ID        json.Number `json:"id"`
	FirstName string      `json:"firstName"`
	LastName  string      `json:"lastName"`
	Email     string      `json:"email"`
}

// Login exchanges username/password for a profile and bearer token.
func (c *Client) Login(ctx context.Context, in ports.LoginInput) (ports.LoginResult, error) {
	body, err := json.Marshal(map[string]string{
		"userName": in.UserName,
		"password": in.Password,
	})
	if err != nil {
		return ports.LoginResult{}, fmt.Errorf("encode login request: %w", err)
	}

	payload, err := c.post(ctx, "/users/login", "", body, classifyLogin)
	if err != nil {
		return ports.LoginResult{}, err
	}

	var resp loginResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return ports.LoginResult{}, fmt.Errorf("%w: %v", domainid.ErrMalformedResponse, err)
	}
	if resp.Token == "" || resp.ID.String() == "" {
		return ports.LoginResult{}, fmt.Errorf("%w: missing token or profile", domainid.ErrMalformedResponse)
	}

	profile := domainid.Profile{
		ID:        resp.ID.String(),
		FirstName: resp.FirstName,
		LastName:  resp.LastName,
		Email:     resp.Email,
		Roles:     c.roles.Map(payload),
	}
	return ports.LoginResult{Profile: profile, Credential: resp.Token}, nil
}

// Refresh exchanges the current token for a fresh one.
func (c *Client) Refresh(ctx context.Context, credential string) (string, error) {
	body, err := json.Marshal(map[string]string{"token": credential})
	if err != nil {
		return "", fmt.Errorf("encode refresh request: %w", err)
	}

	payload, err := c.post(ctx, "/users/refresh-token", "", body, classifyLogin)
	if err != nil {
		return "", err
	}

	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(payload, &resp); err != nil {
		return "", fmt.Errorf("%w: %v", domainid.ErrMalformedResponse, err)
	}
	if resp.Token == "" {
		return "", fmt.Errorf("%w: missing token", domainid.ErrMalformedResponse)
	}
	return resp.Token, nil
}

// classify maps a non-2xx status onto the error taxonomy.
type classify func(status int) error

func classifyLogin(status int) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return domainid.ErrInvalidCredentials
	default:
		return fmt.Errorf("%w: backend returned status %d", domainid.ErrUnreachable, status)
	}
}

// post sends a JSON request and returns the raw response body. Transport
// failures classify as unreachable.
func (c *Client) post(ctx context.Context, path, bearer string, body []byte, classifyStatus classify) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("backend request failed", "path", path, "error", err)
		return nil, fmt.Errorf("%w: %v", domainid.ErrUnreachable, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", domainid.ErrUnreachable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, classifyStatus(resp.StatusCode)
	}
	return payload, nil
}
