// Package httpclient is the single HTTP client every API call goes through.
//
// It attaches the bearer token read from the session on each request,
// normalizes every failure into *apierror.APIError and runs the session
// expiry flow when the backend answers 401.
package httpclient

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
	"time"

	"zurura-client/internal/middleware"
	"zurura-client/pkg/apierror"
)

const (
	DefaultBaseURL = "http://localhost:8080/a/v1"
	DefaultTimeout = 10 * time.Second

	maxResponseBytes = 10 << 20
)

// Paths where a 401 means bad credentials, not an expired session.
var authPaths = map[string]bool{
	"/auth/login":       true,
	"/auth/register":    true,
	"/auth/register/op": true,
	"/auth/logout":      true,
}

type TokenSource interface {
	Token(ctx context.Context) string
}

type SessionExpirer interface {
	// Expire clears the session if usedToken is still current and reports
	// whether it did.
	Expire(ctx context.Context, usedToken string) bool
}

type Client struct {
	baseURL     *url.URL
	httpClient  *http.Client
	timeout     time.Duration
	middlewares []middleware.Middleware
	tokens      TokenSource
	expirer     SessionExpirer
	onExpired   func()
	logger      *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) {
		client.httpClient = c
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(client *Client) {
		client.logger = logger
	}
}

func WithTokenSource(tokens TokenSource) Option {
	return func(client *Client) {
		client.tokens = tokens
	}
}

// WithSessionExpiry wires the 401 flow. onExpired runs once per expired
// session, after the store has been cleared.
func WithSessionExpiry(expirer SessionExpirer, onExpired func()) Option {
	return func(client *Client) {
		client.expirer = expirer
		client.onExpired = onExpired
	}
}

func WithMiddleware(mw ...middleware.Middleware) Option {
	return func(client *Client) {
		client.middlewares = append(client.middlewares, mw...)
	}
}

func WithTimeout(d time.Duration) Option {
	return func(client *Client) {
		client.timeout = d
	}
}

func New(baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}

	parsed, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", baseURL)
	}

	c := &Client{
		baseURL: parsed,
		timeout: DefaultTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	base := http.DefaultTransport
	if c.httpClient != nil && c.httpClient.Transport != nil {
		base = c.httpClient.Transport
	}

	httpClient := &http.Client{}
	if c.httpClient != nil {
		*httpClient = *c.httpClient
	}
	httpClient.Transport = middleware.Chain(base, c.middlewares...)
	if c.timeout > 0 {
		httpClient.Timeout = c.timeout
	}
	c.httpClient = httpClient

	return c, nil
}

func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Request describes one call. Body is JSON-encoded; RawBody is sent as is
// with ContentType.
type Request struct {
	Method      string
	Path        string
	Query       url.Values
	Body        any
	RawBody     io.Reader
	ContentType string

	retried bool
}

// Do sends req and decodes a successful body into out (when out is not nil).
// The returned status is 0 when no response was received. Every error is an
// *apierror.APIError.
func (c *Client) Do(ctx context.Context, req *Request, out any) (int, error) {
	httpReq, usedToken, err := c.build(ctx, req)
	if err != nil {
		return 0, apierror.RequestFailed(err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return 0, transportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return resp.StatusCode, transportError(err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := apierror.FromResponse(resp.StatusCode, body)
		if resp.StatusCode == http.StatusUnauthorized {
			c.handleUnauthorized(ctx, req, usedToken)
		}
		return resp.StatusCode, apiErr
	}

	if out != nil && len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, out); err != nil {
			return resp.StatusCode, apierror.RequestFailed(fmt.Errorf("decode response: %w", err))
		}
	}

	return resp.StatusCode, nil
}

func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) (int, error) {
	return c.Do(ctx, &Request{Method: http.MethodGet, Path: path, Query: query}, out)
}

func (c *Client) Post(ctx context.Context, path string, body any, out any) (int, error) {
	return c.Do(ctx, &Request{Method: http.MethodPost, Path: path, Body: body}, out)
}

func (c *Client) Put(ctx context.Context, path string, body any, out any) (int, error) {
	return c.Do(ctx, &Request{Method: http.MethodPut, Path: path, Body: body}, out)
}

func (c *Client) Delete(ctx context.Context, path string, out any) (int, error) {
	return c.Do(ctx, &Request{Method: http.MethodDelete, Path: path}, out)
}

func (c *Client) build(ctx context.Context, req *Request) (*http.Request, string, error) {
	if req == nil {
		return nil, "", errors.New("nil request")
	}
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}

	target, err := c.resolve(req.Path, req.Query)
	if err != nil {
		return nil, "", err
	}

	var body io.Reader
	contentType := "application/json"
	switch {
	case req.RawBody != nil:
		body = req.RawBody
		if req.ContentType != "" {
			contentType = req.ContentType
		}
	case req.Body != nil:
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, "", fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, "", err
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "application/json")

	usedToken := ""
	if c.tokens != nil {
		usedToken = c.tokens.Token(ctx)
	}
	if usedToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+usedToken)
	}

	return httpReq, usedToken, nil
}

func (c *Client) resolve(path string, query url.Values) (string, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	ref, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("parse path %q: %w", path, err)
	}
	if ref.IsAbs() || ref.Host != "" {
		return "", fmt.Errorf("path %q must be relative", path)
	}

	target := *c.baseURL
	target.Path = c.baseURL.Path + ref.Path
	if ref.RawPath != "" {
		target.RawPath = c.baseURL.EscapedPath() + ref.RawPath
	}

	values := ref.Query()
	for key, vals := range query {
		for _, v := range vals {
			values.Add(key, v)
		}
	}
	target.RawQuery = values.Encode()

	return target.String(), nil
}

// handleUnauthorized runs the expiry flow at most once per request. It
// outlives the caller's context so a cancelled caller cannot leave the
// session half cleared.
func (c *Client) handleUnauthorized(ctx context.Context, req *Request, usedToken string) {
	if req.retried || authPaths[authPath(req.Path)] || c.expirer == nil {
		return
	}
	req.retried = true

	if !c.expirer.Expire(context.WithoutCancel(ctx), usedToken) {
		return
	}

	c.logger.Info("session expired", "path", req.Path)
	if c.onExpired != nil {
		c.onExpired()
	}
}

func authPath(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	return "/" + strings.Trim(path, "/")
}

// transportError maps a failed round trip. A cancelled caller or a request
// held back by the rate limiter never got to send; anything else means the
// backend did not answer.
func transportError(err error) *apierror.APIError {
	if errors.Is(err, context.Canceled) || errors.Is(err, middleware.ErrRateLimited) {
		return apierror.RequestFailed(err)
	}
	return apierror.NoResponse(err)
}
