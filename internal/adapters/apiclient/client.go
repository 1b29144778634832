// Package apiclient talks to a remote auditcore server. Its Client is the
// autosave backend of a draft edited away from the server.
package apiclient

import (
	"auditcore/internal/session"
	"auditcore/pkg/domain"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// DefaultTimeout bounds one request.
const DefaultTimeout = 30 * time.Second

// APIError is a non-2xx answer of the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server answered %d", e.StatusCode)
	}
	return fmt.Sprintf("server answered %d: %s", e.StatusCode, e.Message)
}

// Is lets a 404 match domain.ErrNotFound.
func (e *APIError) Is(target error) bool {
	return target == domain.ErrNotFound && e.StatusCode == http.StatusNotFound
}

type errorBody struct {
	Error string `json:"error"`
}

// Client calls the audit routes as one user.
type Client struct {
	http   *resty.Client
	logger *zap.Logger
}

type settings struct {
	timeout    time.Duration
	retries    int
	httpClient *http.Client
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*settings)

// WithLogger sets the client logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithTimeout overrides the request timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithRetries sets how often a request failing at the transport level is
// retried.
func WithRetries(n int) Option {
	return func(s *settings) {
		if n >= 0 {
			s.retries = n
		}
	}
}

// WithHTTPClient sends requests through hc.
func WithHTTPClient(hc *http.Client) Option {
	return func(s *settings) { s.httpClient = hc }
}

// New returns a client for the server at baseURL acting as userID.
func New(baseURL, userID string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid server url %q", baseURL)
	}
	s := settings{timeout: DefaultTimeout, retries: 2, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&s)
	}
	hc := resty.New()
	if s.httpClient != nil {
		hc = resty.NewWithClient(s.httpClient)
	}
	hc.SetBaseURL(u.String()).
		SetTimeout(s.timeout).
		SetRetryCount(s.retries).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		SetHeader("Accept", "application/json").
		SetError(&errorBody{})
	if userID != "" {
		hc.SetHeader(session.HeaderUserID, userID)
	}
	return &Client{http: hc, logger: s.logger}, nil
}

func (c *Client) check(resp *resty.Response, err error, op string) error {
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !resp.IsError() {
		return nil
	}
	apiErr := &APIError{StatusCode: resp.StatusCode()}
	if body, ok := resp.Error().(*errorBody); ok && body != nil {
		apiErr.Message = body.Error
	}
	c.logger.Debug("server rejected request",
		zap.String("operation", op),
		zap.Int("status_code", apiErr.StatusCode),
		zap.String("message", apiErr.Message))
	return fmt.Errorf("%s: %w", op, apiErr)
}

// GetAudit fetches one audit.
func (c *Client) GetAudit(ctx context.Context, auditID string) (domain.Audit, error) {
	var a domain.Audit
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", auditID).
		SetResult(&a).
		Get("/api/audits/{id}")
	if err := c.check(resp, err, "get audit"); err != nil {
		return domain.Audit{}, err
	}
	return a, nil
}

// GetStatus implements lifecycle.Backend.
func (c *Client) GetStatus(ctx context.Context, auditID string) (domain.Status, error) {
	a, err := c.GetAudit(ctx, auditID)
	if err != nil {
		return "", err
	}
	return a.Status, nil
}

// Save implements lifecycle.Backend: the patch and the requested status go
// out in one PUT.
func (c *Client) Save(ctx context.Context, auditID string, patch domain.Patch, status domain.Status) (domain.Audit, error) {
	body := make(map[string]json.RawMessage, len(patch)+1)
	for k, v := range patch {
		body[k] = v
	}
	delete(body, "status")
	if status != "" {
		raw, err := json.Marshal(status)
		if err != nil {
			return domain.Audit{}, err
		}
		body["status"] = raw
	}
	var a domain.Audit
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", auditID).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		SetResult(&a).
		Put("/api/audits/{id}")
	if err := c.check(resp, err, "save audit"); err != nil {
		return domain.Audit{}, err
	}
	return a, nil
}

// CompleteAudit asks the server to mark an audit completed.
func (c *Client) CompleteAudit(ctx context.Context, auditID string) (domain.Audit, error) {
	var a domain.Audit
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", auditID).
		SetResult(&a).
		Post("/api/audits/{id}/complete")
	if err := c.check(resp, err, "complete audit"); err != nil {
		return domain.Audit{}, err
	}
	return a, nil
}
