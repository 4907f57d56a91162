// Package client talks to the dashboard API. It implements the durable
// backend of the optimistic coordinator for terminal clients.
package client

import (
	"bufio"
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
	"time"

	"github.com/odyssey-erp/companydir/internal/company"
	"github.com/odyssey-erp/companydir/internal/listing"
)

// Client is a dashboard API client.
type Client struct {
	base       *url.URL
	httpClient *http.Client
	stream     *http.Client
	userAgent  string
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the client used for request/response calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout. The event stream is exempt.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New returns a client for the dashboard at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("client: parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("client: base url %q must be absolute", baseURL)
	}
	c := &Client{
		base:       u,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		stream:     &http.Client{},
		userAgent:  "companyctl/1.0",
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient.Transport != nil {
		c.stream.Transport = c.httpClient.Transport
	}
	return c, nil
}

// List returns every company.
func (c *Client) List(ctx context.Context) ([]company.Company, error) {
	return c.ListFiltered(ctx, company.Filters{})
}

// ListFiltered returns companies matching filters.
func (c *Client) ListFiltered(ctx context.Context, filters company.Filters) ([]company.Company, error) {
	q := url.Values{}
	if filters.Search != "" {
		q.Set(listing.ParamSearch, filters.Search)
	}
	if filters.Industry != "" {
		q.Set(listing.ParamIndustry, filters.Industry)
	}
	var out struct {
		Companies []company.Company `json:"companies"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/companies", q, nil, &out); err != nil {
		return nil, err
	}
	return out.Companies, nil
}

// Get returns one company.
func (c *Client) Get(ctx context.Context, id string) (company.Company, error) {
	var out company.Company
	err := c.do(ctx, http.MethodGet, "/api/companies/"+url.PathEscape(id), nil, nil, &out)
	return out, err
}

type mutation struct {
	Company company.Company `json:"company"`
	Message string          `json:"message"`
}

// Create stores a new company and returns it with its provisioned id.
func (c *Client) Create(ctx context.Context, attrs company.Attributes) (company.Company, error) {
	var out mutation
	if err := c.do(ctx, http.MethodPost, "/api/companies", nil, attrs, &out); err != nil {
		return company.Company{}, err
	}
	return out.Company, nil
}

// Update applies patch to the company id.
func (c *Client) Update(ctx context.Context, id string, patch company.Patch) (company.Company, error) {
	var out mutation
	if err := c.do(ctx, http.MethodPatch, "/api/companies/"+url.PathEscape(id), nil, patch, &out); err != nil {
		return company.Company{}, err
	}
	return out.Company, nil
}

// Delete removes the company id. Unknown ids succeed.
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/companies/"+url.PathEscape(id), nil, nil, nil)
}

// BulkOutcome is the server's summary of a bulk delete.
type BulkOutcome struct {
	Deleted int      `json:"deleted"`
	Failed  []string `json:"failed"`
	Message string   `json:"message"`
}

// BulkDelete deletes ids in one request.
func (c *Client) BulkDelete(ctx context.Context, ids []string) (BulkOutcome, error) {
	var out BulkOutcome
	err := c.do(ctx, http.MethodPost, "/api/companies/bulk-delete", nil, map[string][]string{"ids": ids}, &out)
	return out, err
}

// SeedOutcome reports a reseed. TaskID is set when the server queued it.
type SeedOutcome struct {
	TaskID  string `json:"task_id"`
	Count   int    `json:"count"`
	Message string `json:"message"`
}

// Seed asks the server to replace every record with the sample dataset.
func (c *Client) Seed(ctx context.Context) (SeedOutcome, error) {
	var out SeedOutcome
	err := c.do(ctx, http.MethodPost, "/api/companies/seed", nil, nil, &out)
	return out, err
}

// Events calls fn with every invalidated tag until ctx is done or the
// stream ends.
func (c *Client) Events(ctx context.Context, fn func(tag string)) error {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/events", nil, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	resp, err := c.stream.Do(req)
	if err != nil {
		return fmt.Errorf("client: open event stream: %w: %v", company.ErrPersistence, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}

	var event string
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			event = ""
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			if event == "invalidate" {
				fn(strings.TrimSpace(strings.TrimPrefix(line, "data:")))
			}
		}
	}
	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("client: read event stream: %w", err)
	}
	c.logger.Debug("event stream closed")
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body any) (*http.Request, error) {
	u := c.base.JoinPath(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("client: encode body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("client: new request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	return req, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, dest any) error {
	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("client: %s %s: %w: %v", method, path, company.ErrPersistence, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return statusError(resp)
	}
	if dest == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("client: decode %s %s: %w", method, path, err)
	}
	return nil
}

type problem struct {
	Title  string              `json:"title"`
	Detail string              `json:"detail"`
	Errors map[string][]string `json:"errors"`
}

// statusError maps a failed response onto the company error taxonomy.
func statusError(resp *http.Response) error {
	var p problem
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	_ = json.Unmarshal(raw, &p)
	detail := p.Detail
	if detail == "" {
		detail = strings.TrimSpace(string(raw))
	}

	switch {
	case resp.StatusCode == http.StatusUnprocessableEntity:
		verr := &company.ValidationError{}
		for field, msgs := range p.Errors {
			for _, m := range msgs {
				verr.Add(field, m)
			}
		}
		if verr.Empty() {
			verr.Add("form", detail)
		}
		return verr
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("client: %s: %w", detail, company.ErrNotFound)
	case resp.StatusCode >= http.StatusInternalServerError:
		return fmt.Errorf("client: status %d: %s: %w", resp.StatusCode, detail, company.ErrPersistence)
	default:
		return &StatusError{Code: resp.StatusCode, Detail: detail}
	}
}

// StatusError is returned for client errors outside the company taxonomy.
type StatusError struct {
	Code   int
	Detail string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("client: status %d: %s", e.Code, e.Detail)
}

// IsStatus reports whether err is a StatusError with code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}
