package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"
)

const (
	// RefreshCookie carries the refresh token in both directions.
	RefreshCookie = "refresh_token"

	// DefaultTimeout bounds every call to the auth service.
	DefaultTimeout = 10 * time.Second

	maxResponseBytes = 1 << 20
)

// Option configures a Client.
type Option func(*clientConfig)

// clientConfig holds configuration for New.
type clientConfig struct {
	baseTransport http.RoundTripper
	timeout       time.Duration
	userAgent     string
}

// WithTransport sets a custom base transport for all requests.
// If not provided, http.DefaultTransport is used.
func WithTransport(transport http.RoundTripper) Option {
	return func(c *clientConfig) {
		c.baseTransport = transport
	}
}

// WithTimeout overrides DefaultTimeout. Zero keeps the default.
func WithTimeout(timeout time.Duration) Option {
	return func(c *clientConfig) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(userAgent string) Option {
	return func(c *clientConfig) {
		c.userAgent = userAgent
	}
}

// Client calls the login, check-token and refresh-token endpoints.
type Client struct {
	baseURL   *url.URL
	transport http.RoundTripper
	timeout   time.Duration
}

// New creates a Client for the service rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid auth base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid auth base URL %q: scheme must be http or https", baseURL)
	}

	cfg := &clientConfig{
		baseTransport: http.DefaultTransport,
		timeout:       DefaultTimeout,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	var transport http.RoundTripper = cfg.baseTransport
	if cfg.userAgent != "" {
		transport = &userAgentTransport{base: transport, userAgent: cfg.userAgent}
	}

	return &Client{
		baseURL:   u,
		transport: transport,
		timeout:   cfg.timeout,
	}, nil
}

// CheckToken reports whether accessToken is still accepted by the service.
// Returns nil when valid, ErrUnauthorized on 401, and *StatusError or
// *NetworkError for anything inconclusive.
func (c *Client) CheckToken(ctx context.Context, accessToken string) error {
	const op = "check token"

	// oauth2.Transport attaches the "Authorization: Bearer" header
	httpClient := &http.Client{
		Timeout: c.timeout,
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}),
			Base:   c.transport,
		},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/check-token"), nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	body, err := readBody(resp)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusUnauthorized:
		return ErrUnauthorized
	default:
		return &StatusError{Op: op, StatusCode: resp.StatusCode, Detail: errorDetail(body)}
	}
}

// Refresh exchanges refreshToken for a new access and refresh token pair.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	const op = "refresh token"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/refresh-token"), nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req.AddCookie(&http.Cookie{Name: RefreshCookie, Value: refreshToken})

	return c.exchange(op, req)
}

// Login submits identity and secret and returns the issued tokens.
func (c *Client) Login(ctx context.Context, identity, secret string) (*oauth2.Token, error) {
	const op = "login"

	payload, err := json.Marshal(loginRequest{Email: identity, Password: secret})
	if err != nil {
		return nil, fmt.Errorf("%s: marshaling request: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/login"), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.exchange(op, req)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// exchange performs a token-issuing request: access token in the JSON body,
// refresh token in a response cookie.
func (c *Client) exchange(op string, req *http.Request) (*oauth2.Token, error) {
	httpClient := &http.Client{Timeout: c.timeout, Transport: c.transport}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Op: op, Err: err}
	}
	body, err := readBody(resp)
	if err != nil {
		return nil, &NetworkError{Op: op, Err: err}
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return nil, ErrUnauthorized
	default:
		return nil, &StatusError{Op: op, StatusCode: resp.StatusCode, Detail: errorDetail(body)}
	}

	access := gjson.GetBytes(body, "token")
	if access.Type != gjson.String || access.String() == "" {
		return nil, &StatusError{Op: op, StatusCode: resp.StatusCode, Detail: "response has no token"}
	}

	tok := &oauth2.Token{
		AccessToken: access.String(),
		TokenType:   "Bearer",
	}
	for _, cookie := range resp.Cookies() {
		if cookie.Name == RefreshCookie && cookie.Value != "" {
			tok.RefreshToken = cookie.Value
		}
	}
	return tok, nil
}

func (c *Client) endpoint(path string) string {
	return c.baseURL.JoinPath(path).String()
}

func readBody(resp *http.Response) ([]byte, error) {
	defer func() { _ = resp.Body.Close() }()
	return io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
}

// errorDetail extracts a human-readable message from common error payloads.
func errorDetail(body []byte) string {
	if !gjson.ValidBytes(body) {
		return ""
	}
	for _, path := range []string{"detail", "error", "message"} {
		if v := gjson.GetBytes(body, path); v.Type == gjson.String {
			return v.String()
		}
	}
	return ""
}

// userAgentTransport stamps every outgoing request with a fixed User-Agent.
type userAgentTransport struct {
	base      http.RoundTripper
	userAgent string
}

// Compile-time check that userAgentTransport implements http.RoundTripper.
var _ http.RoundTripper = (*userAgentTransport)(nil)

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	newReq := req.Clone(req.Context())
	newReq.Header.Set("User-Agent", t.userAgent)
	return t.base.RoundTrip(newReq)
}
