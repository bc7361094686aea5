// Package client submits waitlist and partnership requests to the intake API.
//
// It mirrors the server's validation so obvious mistakes never leave the
// caller, refuses emails it has already submitted, and enforces a short
// cooldown between sends. None of these checks are authoritative.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/networkhq/network-intake/internal/domain"
	"github.com/networkhq/network-intake/internal/validation"
)

// DefaultCooldown is the minimum spacing between two submissions.
const DefaultCooldown = 5 * time.Second

var (
	// ErrAlreadySubmitted is returned when the ledger already holds the email.
	ErrAlreadySubmitted = errors.New("already submitted from this client")
	// ErrCooldown is returned when a submission follows the previous one too closely.
	ErrCooldown = errors.New("please wait a few seconds before submitting again")
)

// ValidationError reports input rejected before any request was made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// APIError is a non-2xx response from the server.
type APIError struct {
	Status     int
	Message    string
	Duplicate  bool
	RetryAfter int
}

func (e *APIError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("api error %d: %s (retry after %ds)", e.Status, e.Message, e.RetryAfter)
	}
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// Result is a successful submission response.
type Result struct {
	Message   string `json:"message"`
	RequestID string `json:"requestId,omitempty"`
}

// Health is the body of GET /api/health.
type Health struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Service   string `json:"service"`
}

// Partnership holds the partnership form fields.
type Partnership struct {
	Organization string `json:"organization"`
	Contact      string `json:"contact"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
}

// Client talks to one intake API base URL. Safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	ledger     Ledger
	limiter    *rate.Limiter
	now        func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLedger overrides the default in-memory ledger.
func WithLedger(l Ledger) Option {
	return func(c *Client) { c.ledger = l }
}

// WithCooldown sets the spacing between submissions. Zero disables it.
func WithCooldown(d time.Duration) Option {
	return func(c *Client) {
		if d <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(d), 1)
	}
}

// WithClock overrides the time source used for the cooldown.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// New builds a client for baseURL, e.g. "http://localhost:3001/api".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		ledger:     NewMemoryLedger(),
		limiter:    rate.NewLimiter(rate.Every(DefaultCooldown), 1),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SubmitWaitlist adds email to the waitlist.
func (c *Client) SubmitWaitlist(ctx context.Context, email string) (*Result, error) {
	if res := validation.ValidateEmail(email); !res.Valid {
		return nil, &ValidationError{Field: "email", Message: res.Error}
	}
	email = validation.NormalizeEmail(email)

	return c.submit(ctx, domain.KindWaitlist, email, "/waitlist", map[string]string{"email": email})
}

// SubmitPartnership sends a partnership request.
func (c *Client) SubmitPartnership(ctx context.Context, p Partnership) (*Result, error) {
	if err := validation.RequireFields(
		validation.Field{Name: "organization", Value: p.Organization, Message: "Organization name is required"},
		validation.Field{Name: "contact", Value: p.Contact, Message: "Contact person name is required"},
		validation.Field{Name: "email", Value: p.Email, Message: "Email is required"},
		validation.Field{Name: "phone", Value: p.Phone, Message: "Phone number is required"},
	); err != nil {
		var missing *validation.MissingFieldError
		if errors.As(err, &missing) {
			return nil, &ValidationError{Field: missing.Field, Message: missing.Message}
		}
		return nil, err
	}
	if res := validation.ValidateEmail(p.Email); !res.Valid {
		return nil, &ValidationError{Field: "email", Message: res.Error}
	}
	if res := validation.ValidatePhone(p.Phone); !res.Valid {
		return nil, &ValidationError{Field: "phone", Message: res.Error}
	}

	body := Partnership{
		Organization: strings.TrimSpace(p.Organization),
		Contact:      strings.TrimSpace(p.Contact),
		Email:        validation.NormalizeEmail(p.Email),
		Phone:        strings.TrimSpace(p.Phone),
	}
	return c.submit(ctx, domain.KindPartnership, body.Email, "/partner", body)
}

// Health calls GET /health.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return nil, err
	}
	var out Health
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) submit(ctx context.Context, kind domain.SubmissionKind, email, path string, payload any) (*Result, error) {
	if c.ledger.Has(kind, email) {
		return nil, ErrAlreadySubmitted
	}
	if !c.limiter.AllowN(c.now(), 1) {
		return nil, ErrCooldown
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	var out Result
	err = c.do(req, &out)

	var apiErr *APIError
	switch {
	case err == nil:
	case errors.As(err, &apiErr) && apiErr.Duplicate:
	default:
		return nil, err
	}

	if recErr := c.ledger.Record(kind, email); recErr != nil {
		return nil, fmt.Errorf("record submission locally: %w", recErr)
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

type errorBody struct {
	Error      string `json:"error"`
	Duplicate  bool   `json:"duplicate"`
	RetryAfter int    `json:"retryAfter"`
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var body errorBody
		_ = json.Unmarshal(raw, &body)
		if body.Error == "" {
			body.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{
			Status:     resp.StatusCode,
			Message:    body.Error,
			Duplicate:  body.Duplicate,
			RetryAfter: body.RetryAfter,
		}
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
