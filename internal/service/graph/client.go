// Package graph talks to the Messenger Platform Graph API.
package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/zhouzirui/paw-relay/backend/internal/model/messenger"
	"github.com/zhouzirui/paw-relay/backend/internal/model/session"
)

// ProfileFields are requested for every user profile lookup.
const ProfileFields = "first_name,last_name,gender,locale,timezone"

var ErrNetwork = errors.New("network error")

// APIError is a non-2xx response from the Graph API.
type APIError struct {
	StatusCode int
	Message    string
	Code       int
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("graph api: status %d", e.StatusCode)
	}
	return fmt.Sprintf("graph api: status %d: %s (code %d)", e.StatusCode, e.Message, e.Code)
}

// Client is a thin Graph API client bound to one page token.
type Client struct {
	platform    string
	accessToken string
	http        *http.Client
}

// New returns a Client for platform (e.g. https://graph.facebook.com/v21.0).
func New(platform, accessToken string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		platform:    platform,
		accessToken: accessToken,
		http:        &http.Client{Timeout: timeout},
	}
}

// WithHTTPClient swaps the transport, mainly for tests.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.http = hc
	return c
}

// FetchProfile loads the user profile for a page-scoped id.
func (c *Client) FetchProfile(ctx context.Context, userID string) (*session.Profile, error) {
	q := url.Values{}
	q.Set("fields", ProfileFields)
	q.Set("access_token", c.accessToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.platform+"/"+url.PathEscape(userID)+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var profile session.Profile
	if err := c.do(req, &profile); err != nil {
		return nil, fmt.Errorf("fetch profile %s: %w", userID, err)
	}
	return &profile, nil
}

// SendMessage posts one message to the Send API.
func (c *Client) SendMessage(ctx context.Context, msg messenger.SendRequest) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode send request: %w", err)
	}

	q := url.Values{}
	q.Set("access_token", c.accessToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.platform+"/me/messages?"+q.Encode(), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, nil)
}

type errorEnvelope struct {
	Error struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: read body: %w", ErrNetwork, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var env errorEnvelope
		if json.Unmarshal(raw, &env) == nil {
			apiErr.Message = env.Error.Message
			apiErr.Code = env.Error.Code
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
