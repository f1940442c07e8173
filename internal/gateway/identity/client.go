package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/wastedesk/admingate/internal/gateway/domain"
)

// DefaultTimeout bounds every backend call. Requests that outlast it fail,
// they are never retried.
const DefaultTimeout = 20 * time.Second

const apiPrefix = "/api/v1"

// Client talks to the concierge backend's identity endpoints.
type Client struct {
	baseURL string
	http    *http.Client

	// Observe, when set, is called once per request with the endpoint name,
	// elapsed time, and outcome.
	Observe func(endpoint string, elapsed time.Duration, err error)
}

// NewClient builds a client for the backend at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
	}
}

// Login exchanges a username and password for a bearer credential.
func (c *Client) Login(ctx context.Context, username, password string) (LoginResult, error) {
	body, err := json.Marshal(map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return LoginResult{}, fmt.Errorf("identity: encode login request: %w", err)
	}

	var payload tokenPayload
	if err := c.do(ctx, http.MethodPost, "/auth/login", bytes.NewReader(body), &payload); err != nil {
		return LoginResult{}, err
	}
	if payload.Token == "" {
		return LoginResult{}, ErrEmptyProfile
	}
	return LoginResult{Token: payload.Token, RefreshToken: payload.RefreshToken}, nil
}

// CurrentUser fetches the profile behind a bearer credential.
func (c *Client) CurrentUser(ctx context.Context, token string) (*domain.User, error) {
	var payload userPayload
	if err := c.doAuthed(ctx, http.MethodGet, "/me", token, &payload); err != nil {
		return nil, err
	}
	if payload.ID == "" && payload.Username == "" {
		return nil, ErrEmptyProfile
	}
	user := payload.toDomain()
	return &user, nil
}

func (c *Client) do(ctx context.Context, method, path string, body *bytes.Reader, out any) error {
	return c.roundTrip(ctx, method, path, "", body, out)
}

func (c *Client) doAuthed(ctx context.Context, method, path, token string, out any) error {
	return c.roundTrip(ctx, method, path, token, nil, out)
}

func (c *Client) roundTrip(ctx context.Context, method, path, token string, body *bytes.Reader, out any) (err error) {
	if c.Observe != nil {
		start := time.Now()
		defer func() { c.Observe(path, time.Since(start), err) }()
	}

	var reqBody *bytes.Reader
	if body != nil {
		reqBody = body
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+apiPrefix+path, reqBody)
	if err != nil {
		return fmt.Errorf("identity: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("identity: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope[json.RawMessage]
	decodeErr := json.NewDecoder(resp.Body).Decode(&env)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Message: envelopeMessage(env)}
	}
	if decodeErr != nil {
		return fmt.Errorf("identity: decode %s response: %w", path, decodeErr)
	}
	if len(env.Data) == 0 {
		return ErrEmptyProfile
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("identity: decode %s payload: %w", path, err)
	}
	return nil
}

// envelopeMessage flattens the backend's message field, which may be a string
// or a list of validation strings.
func envelopeMessage(env envelope[json.RawMessage]) string {
	switch m := env.Message.(type) {
	case string:
		return m
	case []any:
		parts := make([]string, 0, len(m))
		for _, v := range m {
			if s, ok := v.(string); ok {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "; ")
	default:
		return ""
	}
}
