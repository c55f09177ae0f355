package client

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

	goerrors "github.com/goliatone/go-errors"
	admin "github.com/goliatone/go-messmass/components/admin"
)

// ErrTransport marks failures that never produced an API response.
var ErrTransport = errors.New("client: transport failure")

// Config configures the admin API client.
type Config struct {
	BaseURL    string
	APIKey     string
	UserID     string
	TenantID   string
	HTTPClient *http.Client
}

// Client talks to the admin REST API.
type Client struct {
	baseURL  string
	apiKey   string
	userID   string
	tenantID string
	client   *http.Client
}

// New builds a client for the API rooted at cfg.BaseURL (for example
// http://localhost:8080/api).
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("client: base url is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:   cfg.APIKey,
		userID:   cfg.UserID,
		tenantID: cfg.TenantID,
		client:   httpClient,
	}, nil
}

// IsTransport reports whether err is a network level failure.
func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport)
}

type errorEnvelope struct {
	Success  bool              `json:"success"`
	Error    string            `json:"error"`
	Category string            `json:"category"`
	Code     string            `json:"code"`
	Fields   map[string]string `json:"fields"`
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload any, target any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("client: encode payload: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("client: build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	if c.userID != "" {
		req.Header.Set("X-User-ID", c.userID)
	}
	if c.tenantID != "" {
		req.Header.Set("X-Tenant-ID", c.tenantID)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", ErrTransport, method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %w", ErrTransport, err)
	}
	if resp.StatusCode >= 300 {
		return decodeFailure(resp.StatusCode, raw)
	}
	var status struct {
		Success *bool `json:"success"`
	}
	if err := json.Unmarshal(raw, &status); err == nil && status.Success != nil && !*status.Success {
		return decodeFailure(resp.StatusCode, raw)
	}
	if target == nil {
		return nil
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("client: decode response: %w", err)
	}
	return nil
}

// decodeFailure rebuilds the server's classified error from the error
// envelope so callers can branch on the same categories.
func decodeFailure(status int, raw []byte) error {
	var env errorEnvelope
	if err := json.Unmarshal(raw, &env); err != nil || env.Error == "" {
		msg := strings.TrimSpace(string(raw))
		if msg == "" {
			msg = http.StatusText(status)
		}
		return goerrors.New(fmt.Sprintf("remote error %d: %s", status, msg), categoryForStatus(status)).
			WithCode(status)
	}
	category := goerrors.Category(env.Category)
	if category == "" {
		category = categoryForStatus(status)
	}
	out := goerrors.New(env.Error, category).WithCode(status)
	if env.Code != "" {
		out = out.WithTextCode(env.Code)
	}
	for field, msg := range env.Fields {
		out.ValidationErrors = append(out.ValidationErrors, goerrors.FieldError{Field: field, Message: msg})
	}
	return out
}

func categoryForStatus(status int) goerrors.Category {
	switch {
	case status == http.StatusNotFound:
		return goerrors.CategoryNotFound
	case status == http.StatusConflict:
		return goerrors.CategoryConflict
	case status >= 400 && status < 500:
		return goerrors.CategoryBadInput
	default:
		return goerrors.CategoryExternal
	}
}

// Message returns the operator facing text of an API error.
func Message(err error) string {
	var typed *goerrors.Error
	if goerrors.As(err, &typed) {
		return typed.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// ListValues encodes a list query with the list endpoint parameter names.
func ListValues(q admin.ListQuery) url.Values {
	values := url.Values{}
	if s := strings.TrimSpace(q.Search); s != "" {
		values.Set("q", s)
	}
	if sort := q.Sort.Normalized(); sort.Active() {
		values.Set("sortField", sort.Field)
		values.Set("sortOrder", string(sort.Order))
	}
	if q.Limit > 0 {
		values.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Cursor != "" {
		values.Set("cursor", q.Cursor)
	} else if q.Offset > 0 {
		values.Set("offset", strconv.Itoa(q.Offset))
	}
	return values
}

type listResponse[T any] struct {
	Items      []T              `json:"items"`
	Pagination admin.Pagination `json:"pagination"`
}

// List fetches one page from a list endpoint.
func List[T any](ctx context.Context, c *Client, path string, q admin.ListQuery) (admin.ListPage[T], error) {
	var resp listResponse[T]
	if err := c.do(ctx, http.MethodGet, path, ListValues(q), nil, &resp); err != nil {
		return admin.ListPage[T]{}, err
	}
	return admin.ListPage[T]{Items: resp.Items, Pagination: resp.Pagination}, nil
}

// Get reads the entity stored under key of a read envelope.
func Get[T any](ctx context.Context, c *Client, path, key string) (T, error) {
	return send[T](ctx, c, http.MethodGet, path, key, nil)
}

// Create posts record and returns the stored entity.
func Create[T any](ctx context.Context, c *Client, path, key string, record T) (T, error) {
	return send[T](ctx, c, http.MethodPost, path, key, record)
}

// Update puts record and returns the stored entity.
func Update[T any](ctx context.Context, c *Client, path, key string, record T) (T, error) {
	return send[T](ctx, c, http.MethodPut, path, key, record)
}

// Delete removes the entity at path.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}

func send[T any](ctx context.Context, c *Client, method, path, key string, payload any) (T, error) {
	var zero T
	var envelope map[string]json.RawMessage
	if err := c.do(ctx, method, path, nil, payload, &envelope); err != nil {
		return zero, err
	}
	raw, ok := envelope[key]
	if !ok {
		return zero, fmt.Errorf("client: response is missing %q", key)
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return zero, fmt.Errorf("client: decode %s: %w", key, err)
	}
	return out, nil
}

// ListFetcher pulls pages of T from one list endpoint.
type ListFetcher[T any] struct {
	client *Client
	path   string
}

// NewListFetcher binds a list endpoint such as /projects.
func NewListFetcher[T any](c *Client, path string) *ListFetcher[T] {
	return &ListFetcher[T]{client: c, path: path}
}

// Fetch requests one page.
func (f *ListFetcher[T]) Fetch(ctx context.Context, q admin.ListQuery) (admin.ListPage[T], error) {
	if f == nil || f.client == nil {
		return admin.ListPage[T]{}, fmt.Errorf("client: list fetcher requires a client")
	}
	return List[T](ctx, f.client, f.path, q)
}
