package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// ErrUnauthorized is returned when the server rejects the credentials or token.
var ErrUnauthorized = errors.New("unauthorized")

// DefaultTimeout bounds every request to the remote store.
const DefaultTimeout = 30 * time.Second

// StatusError is a non-2xx response from the remote store.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("remote store: %d %s", e.Code, e.Message)
}

// Unwrap maps 401 responses to ErrUnauthorized.
func (e *StatusError) Unwrap() error {
	if e.Code == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return nil
}

// Client talks to the remote row store over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenStore

	mu        sync.Mutex
	session   *Session
	listeners map[int]func(*Session)
	nextID    int
}

// NewClient creates a client for the server at baseURL. An empty baseURL
// yields a client that reports itself as not configured.
func NewClient(baseURL string, tokens TokenStore) *Client {
	if tokens == nil {
		tokens = &MemoryTokenStore{}
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      &http.Client{Timeout: DefaultTimeout},
		tokens:    tokens,
		listeners: make(map[int]func(*Session)),
	}
}

// Configured reports whether a remote store URL is set.
func (c *Client) Configured() bool {
	return c.baseURL != ""
}

// BaseURL returns the remote store URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Session returns the current session, or nil if signed out or expired.
func (c *Client) Session(ctx context.Context) (*Session, error) {
	c.mu.Lock()
	s := c.session
	c.mu.Unlock()

	if s == nil {
		token, err := c.tokens.LoadToken(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading session: %w", err)
		}
		if token == "" {
			return nil, nil
		}
		s, err = ParseSession(token)
		if err != nil {
			slog.Warn("discarding unreadable session token", "error", err)
			return nil, nil
		}
		c.mu.Lock()
		c.session = s
		c.mu.Unlock()
	}

	if s.Expired(time.Now()) {
		return nil, nil
	}
	return s, nil
}

// OnAuthStateChange registers fn to be called after every sign-in and
// sign-out. The returned function unregisters it.
func (c *Client) OnAuthStateChange(fn func(*Session)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// SignUp creates an account and signs in.
func (c *Client) SignUp(ctx context.Context, username, password string) (*Session, error) {
	return c.authenticate(ctx, "/api/auth/signup", username, password)
}

// Login signs in with an existing account.
func (c *Client) Login(ctx context.Context, username, password string) (*Session, error) {
	return c.authenticate(ctx, "/api/auth/login", username, password)
}

func (c *Client) authenticate(ctx context.Context, path, username, password string) (*Session, error) {
	var resp tokenResponse
	if err := c.do(ctx, http.MethodPost, path, "", credentials{username, password}, &resp); err != nil {
		return nil, err
	}

	s, err := ParseSession(resp.Token)
	if err != nil {
		return nil, err
	}
	if err := c.tokens.SaveToken(ctx, resp.Token); err != nil {
		return nil, fmt.Errorf("saving session: %w", err)
	}

	c.setSession(s)
	return s, nil
}

// Logout revokes the session on the server and forgets it locally. The
// local session is dropped even if the server cannot be reached.
func (c *Client) Logout(ctx context.Context) error {
	s, err := c.Session(ctx)
	if err != nil {
		return err
	}

	var remoteErr error
	if s != nil {
		remoteErr = c.do(ctx, http.MethodPost, "/api/auth/logout", s.Token, nil, nil)
	}

	if err := c.tokens.ClearToken(ctx); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	c.setSession(nil)
	return remoteErr
}

func (c *Client) setSession(s *Session) {
	c.mu.Lock()
	c.session = s
	listeners := make([]func(*Session), 0, len(c.listeners))
	for _, fn := range c.listeners {
		listeners = append(listeners, fn)
	}
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(s)
	}
}

type upsertResponse struct {
	Upserted int `json:"upserted"`
}

// UpsertCategories writes rows, replacing any row with the same (user_id, id).
func (c *Client) UpsertCategories(ctx context.Context, rows []CategoryRow) error {
	if len(rows) == 0 {
		return nil
	}
	return c.upsert(ctx, TableCategories, rows)
}

// UpsertItems writes rows, replacing any row with the same (user_id, id).
func (c *Client) UpsertItems(ctx context.Context, rows []ItemRow) error {
	if len(rows) == 0 {
		return nil
	}
	return c.upsert(ctx, TableItems, rows)
}

func (c *Client) upsert(ctx context.Context, table string, rows any) error {
	token, err := c.token(ctx)
	if err != nil {
		return err
	}
	var resp upsertResponse
	if err := c.do(ctx, http.MethodPut, "/api/rows/"+table, token, rows, &resp); err != nil {
		return fmt.Errorf("upserting %s: %w", table, err)
	}
	return nil
}

// CategoriesSince returns owner's category rows with updated_at after since.
func (c *Client) CategoriesSince(ctx context.Context, owner string, since time.Time) ([]CategoryRow, error) {
	var rows []CategoryRow
	if err := c.selectSince(ctx, TableCategories, owner, since, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// ItemsSince returns owner's item rows with updated_at after since.
func (c *Client) ItemsSince(ctx context.Context, owner string, since time.Time) ([]ItemRow, error) {
	var rows []ItemRow
	if err := c.selectSince(ctx, TableItems, owner, since, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *Client) selectSince(ctx context.Context, table, owner string, since time.Time, out any) error {
	token, err := c.token(ctx)
	if err != nil {
		return err
	}

	q := url.Values{}
	q.Set("user_id", owner)
	q.Set("since", since.UTC().Format(time.RFC3339Nano))

	if err := c.do(ctx, http.MethodGet, "/api/rows/"+table+"?"+q.Encode(), token, nil, out); err != nil {
		return fmt.Errorf("selecting %s: %w", table, err)
	}
	return nil
}

func (c *Client) token(ctx context.Context) (string, error) {
	s, err := c.Session(ctx)
	if err != nil {
		return "", err
	}
	if s == nil {
		return "", ErrUnauthorized
	}
	return s.Token, nil
}

// do sends a JSON request and decodes a JSON response into out (if non-nil).
func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	if !c.Configured() {
		return fmt.Errorf("remote store not configured")
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		json.NewDecoder(resp.Body).Decode(&e)
		if e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		return &StatusError{Code: resp.StatusCode, Message: e.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
