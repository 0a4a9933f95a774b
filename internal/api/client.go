// Package api is the HTTP client for the EasyFinances REST backend.
package api

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
	"sort"
	"strconv"
	"strings"
	"time"

	"easyfinances/internal/core"
	"easyfinances/internal/errs"
	"easyfinances/internal/ports"
)

// TokenKey is the key the bearer token is stored under.
const TokenKey = "auth_token"

const (
	serviceName = "backend"

	// maxPages bounds ListAllTransactions against a backend that never stops
	// returning a next link.
	maxPages = 500
)

var ErrNotConfigured = errors.New("api: base URL is required")

// Config configures the REST client.
type Config struct {
	BaseURL string
	Timeout time.Duration

	// HTTPClient overrides the default client, for tests.
	HTTPClient *http.Client
}

// Client talks to the backend. The bearer token is read from tokens on every
// request, so a login or logout from another component is seen immediately.
type Client struct {
	httpClient *http.Client
	baseURL    string
	tokens     ports.KeyValueStore
}

var (
	_ ports.TransactionSource = (*Client)(nil)
	_ ports.TransactionWriter = (*Client)(nil)
	_ ports.DashboardReader   = (*Client)(nil)
	_ ports.CatalogReader     = (*Client)(nil)
	_ ports.GoalStore         = (*Client)(nil)
	_ ports.Authenticator     = (*Client)(nil)
)

func NewClient(cfg Config, tokens ports.KeyValueStore) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, ErrNotConfigured
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		tokens:     tokens,
	}, nil
}

type tokenResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Login exchanges credentials for a token and stores it.
func (c *Client) Login(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return errs.NewValidationError("username and password are required")
	}
	body := map[string]string{"username": username, "password": password}
	var tok tokenResponse
	if err := c.do(ctx, http.MethodPost, "/token/", body, &tok); err != nil {
		if errs.IsUnauthorized(err) {
			return errs.NewUnauthorizedError("invalid credentials")
		}
		return err
	}
	if tok.Access == "" {
		return errs.NewExternalServiceError(serviceName, http.StatusOK, errors.New("token response without access token"))
	}
	if err := c.tokens.Set(ctx, TokenKey, tok.Access); err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	slog.InfoContext(ctx, "Logged in", "username", username)
	return nil
}

// Logout forgets the stored token. The backend keeps no session to end.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.tokens.Remove(ctx, TokenKey); err != nil {
		return fmt.Errorf("remove token: %w", err)
	}
	return nil
}

func (c *Client) ListTransactions(ctx context.Context, page int) (core.Page[core.Transaction], error) {
	if page < 1 {
		page = 1
	}
	return decodePage[core.Transaction](ctx, c, "/transactions/?page="+strconv.Itoa(page))
}

// ListAllTransactions walks every page.
func (c *Client) ListAllTransactions(ctx context.Context) ([]core.Transaction, error) {
	var all []core.Transaction
	for page := 1; page <= maxPages; page++ {
		p, err := c.ListTransactions(ctx, page)
		if err != nil {
			return nil, err
		}
		all = append(all, p.Results...)
		if !p.HasNext() {
			return all, nil
		}
	}
	slog.WarnContext(ctx, "Stopped paging transactions", "max_pages", maxPages)
	return all, nil
}

func (c *Client) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	var t core.Transaction
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/transactions/%d/", id), nil, &t)
	return t, err
}

func (c *Client) CreateTransaction(ctx context.Context, in core.TransactionInput) (core.Transaction, error) {
	var t core.Transaction
	err := c.do(ctx, http.MethodPost, "/transactions/", in, &t)
	return t, err
}

func (c *Client) UpdateTransaction(ctx context.Context, id int64, in core.TransactionInput) (core.Transaction, error) {
	var t core.Transaction
	err := c.do(ctx, http.MethodPut, fmt.Sprintf("/transactions/%d/", id), in, &t)
	return t, err
}

func (c *Client) DeleteTransaction(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/transactions/%d/", id), nil, nil)
}

func (c *Client) Dashboard(ctx context.Context) (core.Dashboard, error) {
	var d core.Dashboard
	err := c.do(ctx, http.MethodGet, "/dashboard/", nil, &d)
	return d, err
}

func (c *Client) ListCategories(ctx context.Context) ([]core.Category, error) {
	p, err := decodePage[core.Category](ctx, c, "/categories/")
	return p.Results, err
}

func (c *Client) ListAccounts(ctx context.Context) ([]core.Account, error) {
	p, err := decodePage[core.Account](ctx, c, "/accounts/")
	if err != nil {
		return nil, err
	}
	for i := range p.Results {
		if p.Results[i].Type == "" {
			p.Results[i].Type = core.DefaultAccountType
		}
	}
	return p.Results, nil
}

func (c *Client) ListGoals(ctx context.Context) ([]core.Goal, error) {
	p, err := decodePage[core.Goal](ctx, c, "/goals/")
	return p.Results, err
}

func (c *Client) CreateGoal(ctx context.Context, g core.Goal) (core.Goal, error) {
	var out core.Goal
	err := c.do(ctx, http.MethodPost, "/goals/", g, &out)
	return out, err
}

func (c *Client) AddGoalProgress(ctx context.Context, id int64, amount core.Money) (core.Goal, error) {
	var out core.Goal
	body := map[string]core.Money{"amount": amount}
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/goals/%d/add_progress/", id), body, &out)
	return out, err
}

// decodePage fetches a collection. The backend answers either with a page
// envelope or, on unpaginated views, with a bare array.
func decodePage[T any](ctx context.Context, c *Client, path string) (core.Page[T], error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, path, nil, &raw); err != nil {
		return core.Page[T]{}, err
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return core.Page[T]{}, fmt.Errorf("decode %s: %w", path, err)
		}
		return core.Page[T]{Count: len(items), Results: items}, nil
	}

	var page core.Page[T]
	if err := json.Unmarshal(trimmed, &page); err != nil {
		return core.Page[T]{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return page, nil
}

// do sends one request. body is JSON-encoded when non-nil; out is decoded
// from a 2xx response when non-nil.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token, ok, err := c.tokens.Get(ctx, TokenKey); err != nil {
		return fmt.Errorf("read token: %w", err)
	} else if ok && token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return errs.NewExternalServiceError(serviceName, 0, err)
	}
	defer resp.Body.Close()

	slog.DebugContext(ctx, "Backend request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.parseError(ctx, resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errs.NewExternalServiceError(serviceName, resp.StatusCode, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// parseError maps a non-2xx response to the errs taxonomy. A 401 also drops
// the stored token, forcing a new login.
func (c *Client) parseError(ctx context.Context, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	msg := errorMessage(raw)

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		if err := c.tokens.Remove(ctx, TokenKey); err != nil {
			slog.WarnContext(ctx, "Failed to clear token after 401", "error", err)
		}
		if msg == "" {
			msg = "authentication required"
		}
		return errs.NewUnauthorizedError(msg)
	case resp.StatusCode == http.StatusNotFound:
		if msg == "" {
			msg = "not found"
		}
		return errs.NewNotFoundError(msg)
	case resp.StatusCode == http.StatusBadRequest:
		if msg == "" {
			msg = "rejected by backend"
		}
		return errs.NewValidationError(msg)
	default:
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return errs.NewExternalServiceError(serviceName, resp.StatusCode, errors.New(msg))
	}
}

// errorMessage extracts a readable message from a DRF error body: either
// {"detail": "..."} or a map of field names to message lists.
func errorMessage(raw []byte) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	var detail struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(raw, &detail); err == nil && detail.Detail != "" {
		return detail.Detail
	}
	var fields map[string][]string
	if err := json.Unmarshal(raw, &fields); err == nil && len(fields) > 0 {
		parts := make([]string, 0, len(fields))
		for name, msgs := range fields {
			parts = append(parts, name+": "+strings.Join(msgs, " "))
		}
		sort.Strings(parts)
		return strings.Join(parts, "; ")
	}
	if len(raw) > 200 {
		raw = raw[:200]
	}
	return string(raw)
}

// PageNumber extracts the page query parameter from a next/previous link.
func PageNumber(link *string) (int, bool) {
	if link == nil || *link == "" {
		return 0, false
	}
	u, err := url.Parse(*link)
	if err != nil {
		return 0, false
	}
	p := u.Query().Get("page")
	if p == "" {
		// DRF omits page=1 from previous links
		return 1, true
	}
	n, err := strconv.Atoi(p)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}
