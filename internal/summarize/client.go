// Package summarize produces short AI summaries of activity items using the
// Anthropic Messages API.
package summarize

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"golang.org/x/time/rate"

	"github.com/spiffcs/ghreport/internal/constants"
	"github.com/spiffcs/ghreport/internal/errs"
)

const systemPrompt = `You summarize GitHub activity for a busy maintainer.
Write two or three plain sentences: what changed or was asked, and what the reader should do about it, if anything.
Mention breaking changes, security impact, and direct requests to the reader first.
Do not repeat the title verbatim. Do not use markdown.`

// Request is a single summarization call.
type Request struct {
	Model         string
	PromptVersion string
	Content       string
}

// Usage reports the tokens consumed by a call.
type Usage struct {
	InputTokens  int64 `json:"inputTokens"`
	OutputTokens int64 `json:"outputTokens"`
}

// Result is a generated summary. It is what the cache stores.
type Result struct {
	Text  string `json:"text"`
	Model string `json:"model"`
	Usage Usage  `json:"usage"`
}

type settings struct {
	baseURL    string
	httpClient *http.Client
	rps        float64
	burst      int
	maxTokens  int64
}

// Option configures a Client.
type Option func(*settings)

// WithBaseURL points the client at a different API endpoint.
func WithBaseURL(u string) Option {
	return func(s *settings) { s.baseURL = u }
}

// WithHTTPClient sets the HTTP client used for API calls.
func WithHTTPClient(c *http.Client) Option {
	return func(s *settings) { s.httpClient = c }
}

// WithRateLimit sets the sustained request rate and burst.
func WithRateLimit(rps float64, burst int) Option {
	return func(s *settings) {
		if rps > 0 {
			s.rps = rps
		}
		if burst > 0 {
			s.burst = burst
		}
	}
}

// WithMaxTokens bounds the length of each summary.
func WithMaxTokens(n int64) Option {
	return func(s *settings) {
		if n > 0 {
			s.maxTokens = n
		}
	}
}

// Client calls the Messages API under a shared rate limit. Retries are left
// to the caller; the SDK's own retry loop is disabled.
type Client struct {
	client    anthropic.Client
	limiter   *rate.Limiter
	maxTokens int64
}

// NewClient creates a summarizer client. A missing key is a fatal error.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, errs.Fatalf("Anthropic API key not provided. Set the ANTHROPIC_API_KEY environment variable")
	}

	s := settings{
		rps:       constants.DefaultSummarizerRPS,
		burst:     constants.DefaultSummarizerBurst,
		maxTokens: constants.DefaultSummaryMaxTokens,
	}
	for _, opt := range opts {
		opt(&s)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if s.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(s.baseURL))
	}
	if s.httpClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(s.httpClient))
	}

	return &Client{
		client:    anthropic.NewClient(reqOpts...),
		limiter:   rate.NewLimiter(rate.Limit(s.rps), s.burst),
		maxTokens: s.maxTokens,
	}, nil
}

// Summarize generates a summary for req.Content with req.Model. Errors are
// classified with errs.Transient and errs.Fatal; anything else should
// degrade the item without retrying.
func (c *Client) Summarize(ctx context.Context, req Request) (Result, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return Result{}, fmt.Errorf("wait for summarizer rate limit: %w", err)
	}

	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: c.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Content)),
		},
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
	})
	if err != nil {
		return Result{}, classify(err)
	}

	var parts []string
	for _, block := range msg.Content {
		if block.Type == "text" && block.Text != "" {
			parts = append(parts, block.Text)
		}
	}
	text := strings.TrimSpace(strings.Join(parts, "\n"))
	if text == "" {
		return Result{}, fmt.Errorf("summarizer returned no text for model %s", req.Model)
	}

	return Result{
		Text:  text,
		Model: req.Model,
		Usage: Usage{
			InputTokens:  msg.Usage.InputTokens,
			OutputTokens: msg.Usage.OutputTokens,
		},
	}, nil
}

// classify maps SDK and transport errors onto the errs taxonomy.
func classify(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		switch code := apiErr.StatusCode; {
		case code == http.StatusUnauthorized, code == http.StatusForbidden, code == http.StatusNotFound:
			return errs.Fatal(fmt.Errorf("summarizer request rejected (%d): %w", code, err))
		case code == http.StatusRequestTimeout, code == http.StatusConflict, code == http.StatusTooManyRequests, code >= 500:
			return errs.Transient(fmt.Errorf("summarizer unavailable (%d): %w", code, err))
		default:
			return fmt.Errorf("summarizer request failed (%d): %w", code, err)
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return errs.Transient(fmt.Errorf("summarizer connection: %w", err))
	}
	return fmt.Errorf("summarizer request: %w", err)
}
