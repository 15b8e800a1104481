package summarize

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spiffcs/ghreport/internal/errs"
)

type messagesAPI struct {
	status int
	body   string
	calls  atomic.Int32
	last   atomic.Value
}

func (m *messagesAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.calls.Add(1)
	if !strings.HasSuffix(r.URL.Path, "/v1/messages") {
		http.NotFound(w, r)
		return
	}
	raw, _ := io.ReadAll(r.Body)
	m.last.Store(raw)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(m.status)
	_, _ = io.WriteString(w, m.body)
}

func (m *messagesAPI) request(t *testing.T) map[string]any {
	t.Helper()
	raw, ok := m.last.Load().([]byte)
	require.True(t, ok, "no request recorded")
	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}

const okBody = `{
  "id": "msg_01",
  "type": "message",
  "role": "assistant",
  "model": "claude-haiku-4-5",
  "content": [{"type": "text", "text": "  Removes the v1 API. Migrate callers before upgrading.  "}],
  "stop_reason": "end_turn",
  "usage": {"input_tokens": 120, "output_tokens": 18}
}`

func errorBody(kind, msg string) string {
	return `{"type":"error","error":{"type":"` + kind + `","message":"` + msg + `"}}`
}

func newTestClient(t *testing.T, api *messagesAPI) *Client {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	c, err := NewClient("test-key", WithBaseURL(srv.URL+"/"), WithRateLimit(1000, 100), WithMaxTokens(256))
	require.NoError(t, err)
	return c
}

func TestNewClient_MissingKeyIsFatal(t *testing.T) {
	_, err := NewClient("")
	require.Error(t, err)
	assert.True(t, errs.IsFatal(err))
}

func TestSummarize_Success(t *testing.T) {
	api := &messagesAPI{status: http.StatusOK, body: okBody}
	c := newTestClient(t, api)

	res, err := c.Summarize(context.Background(), Request{
		Model:         "claude-haiku-4-5",
		PromptVersion: PromptVersion,
		Content:       "Title: drop v1",
	})
	require.NoError(t, err)

	assert.Equal(t, "Removes the v1 API. Migrate callers before upgrading.", res.Text)
	assert.Equal(t, "claude-haiku-4-5", res.Model)
	assert.Equal(t, Usage{InputTokens: 120, OutputTokens: 18}, res.Usage)

	body := api.request(t)
	assert.Equal(t, "claude-haiku-4-5", body["model"])
	assert.EqualValues(t, 256, body["max_tokens"])
	assert.Contains(t, string(api.last.Load().([]byte)), "Title: drop v1")
}

func TestSummarize_ErrorClassification(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		body          string
		wantFatal     bool
		wantTransient bool
	}{
		{name: "bad key", status: http.StatusUnauthorized, body: errorBody("authentication_error", "invalid x-api-key"), wantFatal: true},
		{name: "forbidden", status: http.StatusForbidden, body: errorBody("permission_error", "no access"), wantFatal: true},
		{name: "unknown model", status: http.StatusNotFound, body: errorBody("not_found_error", "model: nope"), wantFatal: true},
		{name: "rate limited", status: http.StatusTooManyRequests, body: errorBody("rate_limit_error", "slow down"), wantTransient: true},
		{name: "server error", status: http.StatusInternalServerError, body: errorBody("api_error", "boom"), wantTransient: true},
		{name: "overloaded", status: 529, body: errorBody("overloaded_error", "overloaded"), wantTransient: true},
		{name: "invalid request", status: http.StatusBadRequest, body: errorBody("invalid_request_error", "prompt is too long")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &messagesAPI{status: tt.status, body: tt.body}
			c := newTestClient(t, api)

			_, err := c.Summarize(context.Background(), Request{Model: "m", Content: "x"})
			require.Error(t, err)
			assert.Equal(t, tt.wantFatal, errs.IsFatal(err), "fatal")
			assert.Equal(t, tt.wantTransient, errs.IsTransient(err), "transient")
			assert.EqualValues(t, 1, api.calls.Load(), "the SDK must not retry on its own")
		})
	}
}

func TestSummarize_EmptyResponse(t *testing.T) {
	api := &messagesAPI{status: http.StatusOK, body: `{"id":"msg","type":"message","role":"assistant","model":"m","content":[],"usage":{"input_tokens":1,"output_tokens":0}}`}
	c := newTestClient(t, api)

	_, err := c.Summarize(context.Background(), Request{Model: "m", Content: "x"})
	require.Error(t, err)
	assert.False(t, errs.IsFatal(err))
	assert.False(t, errs.IsTransient(err))
}

func TestSummarize_CancelledContext(t *testing.T) {
	api := &messagesAPI{status: http.StatusOK, body: okBody}
	c := newTestClient(t, api)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Summarize(ctx, Request{Model: "m", Content: "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, api.calls.Load())
}
