package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/payhub-dev/payhub/internal/busy"
	"github.com/payhub-dev/payhub/internal/metrics"
)

// Client represents an HTTP client for the Payment Hub auth API.
//
// Every call goes through the request pipeline: bearer token attachment,
// busy tracking, request id stamping, then the base transport.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tracker    *busy.Tracker
}

// Option configures a Client
type Option func(*options)

type options struct {
	base    http.RoundTripper
	tokens  TokenSource
	tracker *busy.Tracker
	metrics *metrics.Metrics
	logger  zerolog.Logger
	timeout time.Duration
}

// WithTransport sets the base transport (defaults to http.DefaultTransport)
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.base = rt }
}

// WithTokenSource sets where the bearer token is read from on each call
func WithTokenSource(src TokenSource) Option {
	return func(o *options) { o.tokens = src }
}

// WithTracker shares an in-flight tracker; by default each client owns one
// without an indicator.
func WithTracker(t *busy.Tracker) Option {
	return func(o *options) { o.tracker = t }
}

// WithMetrics instruments the base transport
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithLogger sets the logger used for request logging
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithTimeout sets the overall http.Client timeout; zero means none
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// New creates a new API client for the auth API at baseURL
// (e.g. http://localhost:8081/api/v1/auth).
func New(baseURL string, opts ...Option) *Client {
	o := options{
		base:   http.DefaultTransport,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.tracker == nil {
		o.tracker = busy.NewTracker(nil)
	}

	var rt http.RoundTripper = o.base
	if o.metrics != nil {
		rt = o.metrics.InstrumentRoundTripper(rt)
	}
	rt = &RequestIDTransport{Logger: o.logger, Next: rt}
	rt = &BusyTransport{Tracker: o.tracker, Next: rt}
	authRT := &AuthTransport{Source: o.tokens, Next: rt}
	if u, err := url.Parse(baseURL); err == nil && u.Host != "" {
		authRT.Origin = u
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   o.timeout,
			Transport: authRT,
		},
		tracker: o.tracker,
	}
}

// BaseURL returns the API base URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Tracker returns the in-flight tracker used by this client
func (c *Client) Tracker() *busy.Tracker {
	return c.tracker
}

// URL resolves an API path against the base URL
func (c *Client) URL(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}

// Get sends a GET and decodes the JSON response into out (if non-nil)
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.doJSON(ctx, http.MethodGet, path, nil, out)
}

// Post sends body as JSON and decodes the response into out (if non-nil)
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.doJSON(ctx, http.MethodPost, path, body, out)
}

// Put sends body as JSON and decodes the response into out (if non-nil)
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.doJSON(ctx, http.MethodPut, path, body, out)
}

// PostFile uploads a multipart form with a single file field plus extra
// text fields. The multipart content type is set, never application/json.
func (c *Client) PostFile(ctx context.Context, path, field, filename string, content io.Reader, fields map[string]string, out any) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return fmt.Errorf("failed to write form field %s: %w", k, err)
		}
	}
	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		return fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(fw, content); err != nil {
		return fmt.Errorf("failed to copy file content: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("failed to finish multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL(path), &buf)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	return c.do(req, out)
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.URL(path), reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(resp.StatusCode, body)
	}

	if out == nil {
		return nil
	}
	if rd, ok := out.(rawDecoder); ok {
		if err := rd.decodeRaw(body); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
		return nil
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
