// Package remote is the HTTP client for the two network surfaces this core
// owns: the profile salt record and the append-only audit store. It
// implements keys.ProfileStore and audit.Sink. There are no internal
// retries; callers decide whether to retry.
package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/auravita/privacykit/internal/audit"
	"github.com/auravita/privacykit/internal/common"
)

// TokenProvider supplies the bearer access token for outbound requests.
// The backend derives the user identity from this token; user identifiers
// passed to client methods are never trusted by the server.
type TokenProvider interface {
	AccessToken(ctx context.Context) (string, error)
}

// TokenProviderFunc adapts a function to the TokenProvider interface.
type TokenProviderFunc func(ctx context.Context) (string, error)

func (f TokenProviderFunc) AccessToken(ctx context.Context) (string, error) { return f(ctx) }

// StaticToken returns a TokenProvider that always yields token. Useful for
// tooling and tests.
func StaticToken(token string) TokenProvider {
	return TokenProviderFunc(func(ctx context.Context) (string, error) { return token, nil })
}

const defaultTimeout = 10 * time.Second

// Client talks to the privacyd backend.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenProvider
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// NewClient constructs a Client for the given base URL (scheme://host[:port]).
func NewClient(baseURL string, tokens TokenProvider, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: defaultTimeout},
		tokens:  tokens,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type saltPayload struct {
	EncryptionSalt string `json:"encryption_salt"`
}

// FetchSalt reads the caller's encryption salt from the profile record.
// Returns common.ErrorNotFound when the profile has no salt yet.
func (c *Client) FetchSalt(ctx context.Context, userID string) (string, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/v1/profile/salt", nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var payload saltPayload
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return "", fmt.Errorf("salt response decode: %w", err)
		}
		if payload.EncryptionSalt == "" {
			return "", common.ErrorNotFound
		}
		return payload.EncryptionSalt, nil
	case http.StatusNotFound:
		return "", common.ErrorNotFound
	case http.StatusUnauthorized:
		return "", common.ErrorUnauthorized
	default:
		return "", fmt.Errorf("salt fetch: unexpected status %d", resp.StatusCode)
	}
}

// SaveSalt writes the caller's encryption salt to the profile record.
// The backend accepts only the first write; a differing existing salt
// yields common.ErrSaltConflict.
func (c *Client) SaveSalt(ctx context.Context, userID, salt string) error {
	body, err := json.Marshal(saltPayload{EncryptionSalt: salt})
	if err != nil {
		return fmt.Errorf("salt request encode: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPut, "/api/v1/profile/salt", body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusNoContent:
		return nil
	case http.StatusConflict:
		return common.ErrSaltConflict
	case http.StatusUnauthorized:
		return common.ErrorUnauthorized
	default:
		return fmt.Errorf("salt save: unexpected status %d", resp.StatusCode)
	}
}

// Append writes one audit event. Implements audit.Sink; the audit pipeline
// swallows any error this returns.
func (c *Client) Append(ctx context.Context, event *audit.Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("audit event encode: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, "/api/v1/audit/events", body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusAccepted, http.StatusCreated, http.StatusOK:
		return nil
	case http.StatusUnauthorized:
		return common.ErrorUnauthorized
	default:
		return fmt.Errorf("audit append: unexpected status %d", resp.StatusCode)
	}
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("request build: %w", err)
	}

	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("access token: %w", err)
	}
	req.Header.Set(common.AuthorizationHeaderName, "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}
