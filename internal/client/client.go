// Package client is a typed SDK for the LevelUp HTTP API and its event
// stream, plus the client-side state that keeps views in sync with pushes.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	types "github.com/yungbote/levelup-backend/internal/domain"
)

// Me mirrors GET /api/users/me.
type Me struct {
	User     *types.User            `json:"user"`
	Badges   []*types.UserBadge     `json:"badges"`
	Progress []*types.TopicProgress `json:"progress"`
}

type LeaderboardQuery struct {
	ClassID *uuid.UUID
	Limit   int
}

// APIError is a non-2xx reply decoded from the error envelope.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("levelup api %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("levelup api %d: %s", e.Status, e.Message)
}

func (e *APIError) HTTPStatusCode() int { return e.Status }

type Option func(*Client)

func WithToken(token string) Option {
	return func(c *Client) { c.token = strings.TrimSpace(token) }
}

// WithHTTPClient replaces the client used for request/response calls. The
// event stream always uses a client without a timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

type Client struct {
	baseURL string
	http    *http.Client
	stream  *http.Client

	mu    sync.RWMutex
	token string
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
		stream:  &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = strings.TrimSpace(token)
	c.mu.Unlock()
}

// Login exchanges credentials for an access token and keeps it on the client.
func (c *Client) Login(ctx context.Context, email, password string) (*types.User, error) {
	body := map[string]string{"email": email, "password": password}
	var out struct {
		AccessToken string      `json:"access_token"`
		User        *types.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/login", nil, body, &out); err != nil {
		return nil, err
	}
	if out.AccessToken == "" {
		return nil, fmt.Errorf("login: empty access token")
	}
	c.SetToken(out.AccessToken)
	return out.User, nil
}

func (c *Client) Me(ctx context.Context) (*Me, error) {
	var out Me
	if err := c.do(ctx, http.MethodGet, "/api/users/me", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Leaderboard(ctx context.Context, q LeaderboardQuery) (*types.Leaderboard, error) {
	params := url.Values{}
	if q.ClassID != nil && *q.ClassID != uuid.Nil {
		params.Set("classId", q.ClassID.String())
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	var out types.Leaderboard
	if err := c.do(ctx, http.MethodGet, "/api/users/leaderboard", params, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Stream opens the SSE stream. The token travels as a query parameter so the
// same URL works for browser EventSource clients.
func (c *Client) Stream(ctx context.Context) (*Stream, error) {
	params := url.Values{}
	if tok := c.Token(); tok != "" {
		params.Set("token", tok)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url("/api/sse/stream", params), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	resp, err := c.stream.Do(req)
	if err != nil {
		return nil, fmt.Errorf("open stream: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, decodeError(resp)
	}
	return newStream(resp.Body), nil
}

func (c *Client) url(path string, params url.Values) string {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return u
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = strings.NewReader(string(raw))
	}
	req, err := http.NewRequestWithContext(ctx, method, c.url(path, params), reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var env struct {
		Error struct {
			Message string `json:"message"`
			Code    string `json:"code"`
		} `json:"error"`
	}
	apiErr := &APIError{Status: resp.StatusCode}
	if json.Unmarshal(raw, &env) == nil && env.Error.Message != "" {
		apiErr.Code = env.Error.Code
		apiErr.Message = env.Error.Message
	} else {
		apiErr.Message = strings.TrimSpace(string(raw))
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}
