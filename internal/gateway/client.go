// Package gateway is the dashboard's HTTP client for the hospdash API.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hospdash/hospdash/internal/dashboard"
	"github.com/hospdash/hospdash/pkg/pagination"
)

const (
	requestIDHeader = "X-Request-ID"
	maxErrorBody    = 64 << 10
)

// APIError is a non-2xx response. Message is the server's {"message"} text,
// taken verbatim and never interpreted as markup.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: status %d", e.Status)
	}
	return fmt.Sprintf("api: status %d: %s", e.Status, e.Message)
}

// UserMessage is the text to show the user.
func (e *APIError) UserMessage() string {
	return e.Message
}

// Client talks to the API with a bearer token.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  zerolog.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

func New(baseURL, token string, logger zerolog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 15 * time.Second},
		logger:  logger.With().Str("component", "gateway").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ dashboard.Gateway = (*Client)(nil)

type listEnvelope struct {
	Data    json.RawMessage `json:"data"`
	Total   int             `json:"total"`
	HasMore bool            `json:"has_more"`
}

// maxPages bounds FetchList against a server that never reports the end.
const maxPages = 1000

// FetchList GETs every page of resource and decodes the concatenated "data"
// arrays into out. Pages are requested at pagination.MaxLimit until the
// server reports no more rows. A missing or null data field is an empty page.
func (c *Client) FetchList(ctx context.Context, resource string, out any) error {
	all := []json.RawMessage{}
	page := pagination.Params{Limit: pagination.MaxLimit}
	for n := 0; ; n++ {
		if n == maxPages {
			return fmt.Errorf("list %s: more than %d pages", resource, maxPages)
		}
		items, env, err := c.fetchPage(ctx, resource, page)
		if err != nil {
			return err
		}
		all = append(all, items...)
		got := pagination.Params{Limit: len(items), Offset: page.Offset}
		if len(items) == 0 || !(env.HasMore || got.HasNext(env.Total)) {
			break
		}
		page.Offset += len(items)
	}

	data, err := json.Marshal(all)
	if err != nil {
		return fmt.Errorf("decode %s data: %w", resource, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s data: %w", resource, err)
	}
	return nil
}

func (c *Client) fetchPage(ctx context.Context, resource string, page pagination.Params) ([]json.RawMessage, listEnvelope, error) {
	path, err := withPage(resource, page)
	if err != nil {
		return nil, listEnvelope{}, err
	}
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, listEnvelope{}, err
	}
	defer resp.Body.Close()

	var env listEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, listEnvelope{}, fmt.Errorf("decode %s: %w", resource, err)
	}
	var items []json.RawMessage
	if len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, &items); err != nil {
			return nil, listEnvelope{}, fmt.Errorf("decode %s data: %w", resource, err)
		}
	}
	return items, env, nil
}

// withPage sets limit and offset on resource, keeping any other query.
func withPage(resource string, page pagination.Params) (string, error) {
	u, err := url.Parse(resource)
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", resource, err)
	}
	q := u.Query()
	q.Set("limit", strconv.Itoa(page.Limit))
	q.Set("offset", strconv.Itoa(page.Offset))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// SubmitAction POSTs payload as JSON to endpoint.
func (c *Client) SubmitAction(ctx context.Context, endpoint string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	resp, err := c.do(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return nil
}

// Session returns the identity behind the client's token.
func (c *Client) Session(ctx context.Context) (dashboard.Session, error) {
	resp, err := c.do(ctx, http.MethodGet, "/session", nil)
	if err != nil {
		return dashboard.Session{}, err
	}
	defer resp.Body.Close()

	var s dashboard.Session
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return dashboard.Session{}, fmt.Errorf("decode session: %w", err)
	}
	s.Role = dashboard.ParseRole(string(s.Role))
	if s.Username == "" {
		return dashboard.Session{}, errors.New("session has no username")
	}
	return s, nil
}

// do sends the request and returns the response for 2xx statuses. Any other
// status is returned as *APIError with the body closed.
func (c *Client) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	reqID := uuid.New().String()
	req.Header.Set(requestIDHeader, reqID)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("request_id", reqID).Str("method", method).Str("path", path).Msg("request failed")
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		c.logger.Debug().
			Str("request_id", reqID).
			Str("method", method).
			Str("path", path).
			Int("status", resp.StatusCode).
			Dur("latency", time.Since(start)).
			Msg("request completed")
		return resp, nil
	}

	defer resp.Body.Close()
	apiErr := &APIError{Status: resp.StatusCode, Message: readMessage(resp.Body)}
	c.logger.Warn().
		Str("request_id", reqID).
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Str("message", apiErr.Message).
		Msg("request rejected")
	return nil, apiErr
}

// readMessage extracts {"message": "..."} from an error body. Bodies that are
// not JSON yield an empty message so callers fall back to a generic text.
func readMessage(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil {
		return ""
	}
	var body struct {
		Message json.RawMessage `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err != nil || len(body.Message) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(body.Message, &s); err == nil {
		return strings.TrimSpace(s)
	}
	return ""
}
