// Package backend is the gateway's client for the remote identity service.
// The remote service is the sole authority on credentials and sessions: this
// client only relays requests and treats every returned session blob as an
// opaque string. Nothing here verifies tokens or hashes passwords.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/SJarvie/gatehouse/internal/models"
)

// Config holds identity backend connection settings
type Config struct {
	BaseURL      string
	Timeout      time.Duration
	ServiceToken string // bearer token identifying this gateway, optional
}

// Client talks to the remote identity backend over HTTP
type Client struct {
	baseURL      string
	serviceToken string
	httpClient   *http.Client
	logger       *slog.Logger
}

// NewClient creates a backend client
func NewClient(config Config, logger *slog.Logger) *Client {
	return &Client{
		baseURL:      config.BaseURL,
		serviceToken: config.ServiceToken,
		httpClient:   &http.Client{Timeout: config.Timeout},
		logger:       logger,
	}
}

// AuthResult is the backend's pass/fail verdict. On success User and
// SessionBlob are populated; FailureReason is backend-internal and logged,
// never shown to end clients.
type AuthResult struct {
	OK            bool         `json:"ok"`
	User          *models.User `json:"user,omitempty"`
	SessionBlob   string       `json:"session_blob,omitempty"`
	FailureReason string       `json:"failure_reason,omitempty"`
}

type authenticateRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signOutRequest struct {
	SessionBlob string `json:"session_blob"`
}

// Authenticate verifies credentials with the backend. A definitive rejection
// comes back as OK=false with a nil error; an error means the backend could
// not give a verdict. Errors are never retried here.
func (c *Client) Authenticate(ctx context.Context, email, password string) (*AuthResult, error) {
	return c.postForResult(ctx, "/v1/authenticate", authenticateRequest{Email: email, Password: password})
}

// CreateAnonymous asks the backend for an anonymous identity
func (c *Client) CreateAnonymous(ctx context.Context) (*AuthResult, error) {
	return c.postForResult(ctx, "/v1/anonymous", struct{}{})
}

// SignOut tells the backend to invalidate the session. Local teardown does
// not depend on this succeeding.
func (c *Client) SignOut(ctx context.Context, sessionBlob string) error {
	resp, err := c.post(ctx, "/v1/signout", signOutRequest{SessionBlob: sessionBlob})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("signout returned status %d: %w", resp.StatusCode, models.ErrBackendUnavailable)
	}
	return nil
}

// Ping checks backend reachability for the health endpoint
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/health", nil)
	if err != nil {
		return fmt.Errorf("failed to build health request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("backend unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("backend health returned status %d: %w", resp.StatusCode, models.ErrBackendUnavailable)
	}
	return nil
}

func (c *Client) postForResult(ctx context.Context, path string, body any) (*AuthResult, error) {
	resp, err := c.post(ctx, path, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		var result AuthResult
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return nil, fmt.Errorf("failed to decode backend response: %w", err)
		}
		return &result, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		// Definitive rejection, not an availability problem
		var result AuthResult
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			result = AuthResult{}
		}
		result.OK = false
		return &result, nil
	default:
		return nil, fmt.Errorf("backend %s returned status %d: %w", path, resp.StatusCode, models.ErrBackendUnavailable)
	}
}

func (c *Client) post(ctx context.Context, path string, body any) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("backend request failed: %w", err)
	}
	return resp, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.serviceToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.serviceToken)
	}
}
