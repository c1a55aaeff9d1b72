package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/doodlesbykumbi/community-in-go/pkg/tenant"
)

const (
	defaultTimeout = 30 * time.Second
	defaultRetries = 3
	userAgent      = "community-go-client"
)

// Token is the access token returned by Authenticate.
type Token struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	ExpiresIn   int64     `json:"expires_in"`
}

// Expired reports whether the token is no longer usable at now.
func (t Token) Expired(now time.Time) bool {
	return t.AccessToken == "" || !now.Before(t.ExpiresAt)
}

// Client talks to one company on a community server. It is safe for
// concurrent use.
type Client struct {
	base    *url.URL
	company string
	http    *http.Client
	log     zerolog.Logger
	retries uint64
	backoff func() backoff.BackOff
	now     func() time.Time

	mu    sync.RWMutex
	token Token
	login string
}

type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithToken starts the client with an existing access token.
func WithToken(raw string, expiresAt time.Time) Option {
	return func(c *Client) {
		c.token = Token{AccessToken: raw, TokenType: "Bearer", ExpiresAt: expiresAt}
	}
}

// WithLogin records which profile an existing token belongs to.
func WithLogin(login string) Option {
	return func(c *Client) {
		c.login = login
	}
}

func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// WithRetries sets how many times an idempotent read is retried after a
// retryable failure. Zero disables retries.
func WithRetries(n uint64) Option {
	return func(c *Client) {
		c.retries = n
	}
}

// New returns a client for company on the server at baseURL.
func New(baseURL, company string, opts ...Option) (*Client, error) {
	if err := tenant.ValidateSlug(company); err != nil {
		return nil, err
	}
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid base url %q: scheme must be http or https", baseURL)
	}

	c := &Client{
		base:    base,
		company: company,
		http:    &http.Client{Timeout: defaultTimeout},
		log:     zerolog.Nop(),
		retries: defaultRetries,
		backoff: func() backoff.BackOff { return backoff.NewExponentialBackOff() },
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Company returns the slug every request is scoped to.
func (c *Client) Company() string {
	return c.company
}

// Token returns the current access token.
func (c *Client) Token() Token {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Login returns the login of the authenticated profile, if known.
func (c *Client) Login() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.login
}

// SetToken replaces the access token.
func (c *Client) SetToken(t Token) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = t
}

// Authenticate exchanges a profile's API key for an access token, which is
// kept and sent with every later request.
func (c *Client) Authenticate(ctx context.Context, login, apiKey string) (Token, error) {
	resp, err := c.do(ctx, request{
		method:      http.MethodPost,
		path:        fmt.Sprintf("/authn/%s/%s/authenticate", c.company, url.PathEscape(login)),
		body:        strings.NewReader(apiKey),
		contentType: "text/plain",
		anonymous:   true,
	})
	if err != nil {
		return Token{}, err
	}
	var t Token
	if err := decodeBody(resp, &t); err != nil {
		return Token{}, err
	}
	c.mu.Lock()
	c.token = t
	c.login = login
	c.mu.Unlock()
	c.log.Debug().Str("company", c.company).Str("login", login).Time("expires_at", t.ExpiresAt).Msg("authenticated")
	return t, nil
}

// RotateAPIKey issues a new API key for login and returns it. An empty login
// rotates the caller's own key.
func (c *Client) RotateAPIKey(ctx context.Context, login string) (string, error) {
	q := url.Values{}
	if login != "" {
		q.Set("login", login)
	}
	resp, err := c.do(ctx, request{
		method: http.MethodPut,
		path:   fmt.Sprintf("/authn/%s/api_key", c.company),
		query:  q,
	})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	key, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(key), nil
}

type request struct {
	method      string
	path        string // escaped, relative to the base URL
	query       url.Values
	header      http.Header
	body        io.Reader
	contentType string
	anonymous   bool
}

// idempotent requests carry no body and may be replayed.
func (r request) idempotent() bool {
	return r.body == nil && (r.method == http.MethodGet || r.method == http.MethodHead)
}

// do sends req and returns the response when it succeeded. The caller owns
// the response body. Failed responses are returned as *Error.
func (c *Client) do(ctx context.Context, req request) (*http.Response, error) {
	if !req.idempotent() || c.retries == 0 {
		return c.send(ctx, req)
	}

	var resp *http.Response
	op := func() error {
		var err error
		resp, err = c.send(ctx, req)
		if err != nil && !IsRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		c.log.Warn().Err(err).Dur("wait", wait).Str("path", req.path).Msg("retrying request")
	}
	b := backoff.WithContext(backoff.WithMaxRetries(c.backoff(), c.retries), ctx)
	if err := backoff.RetryNotify(op, b, notify); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) send(ctx context.Context, req request) (*http.Response, error) {
	u, err := url.Parse(c.base.String() + req.path)
	if err != nil {
		return nil, err
	}
	if len(req.query) > 0 {
		u.RawQuery = req.query.Encode()
	}

	hr, err := http.NewRequestWithContext(ctx, req.method, u.String(), req.body)
	if err != nil {
		return nil, err
	}
	for k, vs := range req.header {
		for _, v := range vs {
			hr.Header.Add(k, v)
		}
	}
	hr.Header.Set("User-Agent", userAgent)
	hr.Header.Set("Accept", "application/json")
	if req.contentType != "" {
		hr.Header.Set("Content-Type", req.contentType)
	}
	if !req.anonymous {
		t := c.Token()
		if t.AccessToken == "" {
			return nil, ErrNotAuthenticated
		}
		if !t.ExpiresAt.IsZero() && t.Expired(c.now()) {
			return nil, ErrTokenExpired
		}
		hr.Header.Set("Authorization", "Bearer "+t.AccessToken)
	}

	resp, err := c.http.Do(hr)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, decodeError(resp)
	}
	return resp, nil
}

// jsonBody encodes v for a request body. A nil v becomes "{}".
func jsonBody(v interface{}) (io.Reader, error) {
	if v == nil {
		return strings.NewReader("{}"), nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}
	return bytes.NewReader(b), nil
}

// decodeBody decodes the JSON response into dest and closes the body. A nil
// dest discards the body.
func decodeBody(resp *http.Response, dest interface{}) error {
	defer resp.Body.Close()
	if dest == nil {
		_, err := io.Copy(io.Discard, resp.Body)
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
