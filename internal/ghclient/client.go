package ghclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"
	gh "github.com/google/go-github/v57/github"
	"github.com/gregjones/httpcache"
	"golang.org/x/oauth2"

	"github.com/spiffcs/ghreport/internal/errs"
)

// Client wraps the GitHub REST API with the following transport stack:
//  1. go-github-ratelimit (sleeps through secondary rate limits)
//  2. rateLimitTransport (fails fast on an exhausted primary limit)
//  3. oauth2 (token auth)
//  4. httpcache (ETag-based conditional requests)
type Client struct {
	client *gh.Client
	limits *RateLimitState
}

type clientOptions struct {
	baseURL string
	base    http.RoundTripper
}

// Option configures a Client.
type Option func(*clientOptions)

// WithBaseURL points the client at a different API root, such as a GitHub
// Enterprise server or a test server.
func WithBaseURL(u string) Option {
	return func(o *clientOptions) { o.baseURL = u }
}

// WithTransport sets the innermost round tripper.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *clientOptions) { o.base = rt }
}

// NewClient creates a GitHub client authenticated with a personal access
// token. A missing token is a fatal error.
func NewClient(token string, opts ...Option) (*Client, error) {
	if token == "" {
		return nil, errs.Fatalf("GitHub token not provided. Set the GITHUB_TOKEN environment variable")
	}

	var o clientOptions
	for _, opt := range opts {
		opt(&o)
	}

	cache := httpcache.NewMemoryCacheTransport()
	if o.base != nil {
		cache.Transport = o.base
	}
	auth := &oauth2.Transport{
		Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}),
		Base:   cache,
	}
	limits := &RateLimitState{}
	primary := &rateLimitTransport{base: auth, state: limits}

	client := gh.NewClient(github_ratelimit.NewClient(primary))
	if o.baseURL != "" {
		u, err := url.Parse(o.baseURL)
		if err != nil {
			return nil, fmt.Errorf("parse base URL: %w", err)
		}
		if !strings.HasSuffix(u.Path, "/") {
			u.Path += "/"
		}
		client.BaseURL = u
	}

	return &Client{client: client, limits: limits}, nil
}

// AuthenticatedUser returns the login of the token's owner.
func (c *Client) AuthenticatedUser(ctx context.Context) (string, error) {
	user, _, err := c.client.Users.Get(ctx, "")
	if err != nil {
		return "", classify(fmt.Errorf("get authenticated user: %w", err))
	}
	return user.GetLogin(), nil
}

// RateLimit returns the last observed primary rate limit state.
func (c *Client) RateLimit() *RateLimitState {
	return c.limits
}

// classify maps GitHub and transport errors onto the errs taxonomy.
func classify(err error) error {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if errors.Is(err, ErrRateLimited) {
		return errs.Transient(err)
	}

	var rateErr *gh.RateLimitError
	var abuseErr *gh.AbuseRateLimitError
	if errors.As(err, &rateErr) || errors.As(err, &abuseErr) {
		return errs.Transient(err)
	}

	var respErr *gh.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil {
		switch code := respErr.Response.StatusCode; {
		case code == http.StatusUnauthorized:
			return errs.Fatal(err)
		case code >= 500:
			return errs.Transient(err)
		}
		return err
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return errs.Transient(err)
	}
	return err
}
