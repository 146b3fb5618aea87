package flowable

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
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/kode4food/bpmspec/pkg/api"
)

type (
	// Client is an api.Engine backed by the Flowable REST API
	Client struct {
		httpClient   *http.Client
		baseURL      string
		user         string
		password     string
		pollInterval time.Duration
	}

	// Option configures a Client
	Option func(*Client)

	request struct {
		query  url.Values
		body   any
		method string
		path   string
		user   string
		pass   string
	}

	response struct {
		body   gjson.Result
		status int
	}
)

const (
	DefaultTimeout      = 30 * time.Second
	DefaultPollInterval = 100 * time.Millisecond

	pageSize = 100
)

var (
	ErrRequestFailed = errors.New("flowable request failed")
	ErrBadResponse   = errors.New("flowable response malformed")
	ErrBaseURL       = errors.New("flowable base URL is required")
)

var _ api.Engine = (*Client)(nil)

// NewClient creates a client for the REST service rooted at baseURL, such
// as http://localhost:8080/flowable-rest/service
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, ErrBaseURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBaseURL, err)
	}
	c := &Client{
		httpClient:   &http.Client{Timeout: DefaultTimeout},
		baseURL:      baseURL,
		pollInterval: DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// WithCredentials authenticates every request with HTTP basic auth
func WithCredentials(user, password string) Option {
	return func(c *Client) {
		c.user = user
		c.password = password
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout bounds each HTTP request
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithPollInterval sets how often WaitForJobs checks for remaining jobs
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.pollInterval = d
		}
	}
}

// BaseURL returns the service root the client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) get(
	ctx context.Context, path string, query url.Values,
) (*response, error) {
	return c.do(ctx, &request{method: http.MethodGet, path: path, query: query})
}

func (c *Client) send(
	ctx context.Context, method, path string, body any,
) (*response, error) {
	return c.do(ctx, &request{method: method, path: path, body: body})
}

func (c *Client) do(ctx context.Context, r *request) (*response, error) {
	var body io.Reader
	if r.body != nil {
		data, err := json.Marshal(r.body)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(data)
	}

	u := c.baseURL + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, r.method, u, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	switch {
	case r.user != "":
		req.SetBasicAuth(r.user, r.pass)
	case c.user != "":
		req.SetBasicAuth(c.user, c.password)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w",
			ErrRequestFailed, r.method, r.path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	slog.Debug("Flowable request",
		slog.String("method", r.method),
		slog.String("path", r.path),
		slog.Int("status", resp.StatusCode))

	if len(data) > 0 && !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: %s %s: status %d",
			ErrBadResponse, r.method, r.path, resp.StatusCode)
	}
	return &response{
		body:   gjson.ParseBytes(data),
		status: resp.StatusCode,
	}, nil
}

// list reads every page of a list or query resource
func (c *Client) list(
	ctx context.Context, path string, query url.Values,
) ([]gjson.Result, error) {
	if query == nil {
		query = url.Values{}
	}
	query.Set("size", strconv.Itoa(pageSize))

	var res []gjson.Result
	for start := 0; ; {
		query.Set("start", strconv.Itoa(start))
		resp, err := c.get(ctx, path, query)
		if err != nil {
			return nil, err
		}
		if !resp.ok() {
			return nil, resp.fail(http.MethodGet, path)
		}
		page := resp.body.Get("data").Array()
		res = append(res, page...)
		start += len(page)
		if len(page) == 0 || start >= int(resp.body.Get("total").Int()) {
			return res, nil
		}
	}
}

func (r *response) ok() bool {
	return r.status >= 200 && r.status < 300
}

func (r *response) fail(method, path string) error {
	msg := r.body.Get("message").String()
	if msg == "" {
		msg = http.StatusText(r.status)
	}
	return fmt.Errorf("%w: %s %s: status %d: %s",
		ErrRequestFailed, method, path, r.status, msg)
}

func queryOf(pairs ...string) url.Values {
	res := url.Values{}
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] != "" {
			res.Set(pairs[i], pairs[i+1])
		}
	}
	return res
}

func pathOf(base string, segments ...string) string {
	var sb strings.Builder
	sb.WriteString(base)
	for _, s := range segments {
		sb.WriteByte('/')
		sb.WriteString(url.PathEscape(s))
	}
	return sb.String()
}

func timeOf(r gjson.Result) (time.Time, error) {
	t, err := ParseTime(r.String())
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %w", ErrBadResponse, err)
	}
	return t, nil
}

func optionalTimeOf(r gjson.Result) (*time.Time, error) {
	if !r.Exists() || r.Type == gjson.Null || r.String() == "" {
		return nil, nil
	}
	t, err := timeOf(r)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
