package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"docqa/internal/config"
	"docqa/internal/models"
)

func newProxy(t *testing.T, url string, timeout time.Duration) *ProxyClient {
	t.Helper()
	return NewProxyClient(config.LLMConfig{BaseURL: url, Token: "secret"}, timeout)
}

func TestProxyClientSuccess(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret" {
			t.Errorf("unexpected auth header %q", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  42\n"}}]}`))
	}))
	defer srv.Close()

	answer := newProxy(t, srv.URL, time.Second).Ask(context.Background(), "What is 6*7?", "be precise")
	if !answer.OK() || answer.Message() != "42" {
		t.Fatalf("unexpected answer %+v", answer)
	}
	if got.Model != config.DefaultModel || got.Temperature != 0 {
		t.Fatalf("unexpected request %+v", got)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[0].Content != "be precise" ||
		got.Messages[1].Role != "user" || got.Messages[1].Content != "What is 6*7?" {
		t.Fatalf("unexpected messages %+v", got.Messages)
	}
}

func TestProxyClientStatusMapping(t *testing.T) {
	cases := []struct {
		status  int
		body    string
		outcome models.Outcome
		message string
	}{
		{http.StatusTooManyRequests, "quota", models.OutcomeRateLimited, "AIPROXY monthly request limit reached. Try again next month!"},
		{http.StatusForbidden, "blocked", models.OutcomeCostLimited, "AIPROXY cost limit exceeded. Requests are blocked!"},
		{http.StatusInternalServerError, "boom", models.OutcomeUpstream, "AIPROXY Error 500: boom"},
		{http.StatusOK, "not json", models.OutcomeUpstream, "AIPROXY Error 200: not json"},
		{http.StatusOK, `{"choices":[]}`, models.OutcomeUpstream, `AIPROXY Error 200: {"choices":[]}`},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			_, _ = w.Write([]byte(tc.body))
		}))
		answer := newProxy(t, srv.URL, time.Second).Ask(context.Background(), "q", "s")
		srv.Close()
		if answer.Outcome != tc.outcome {
			t.Fatalf("status %d: outcome = %s, want %s", tc.status, answer.Outcome, tc.outcome)
		}
		if answer.Message() != tc.message {
			t.Fatalf("status %d: message = %q, want %q", tc.status, answer.Message(), tc.message)
		}
	}
}

func TestProxyClientTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	start := time.Now()
	answer := newProxy(t, srv.URL, 50*time.Millisecond).Ask(context.Background(), "q", "s")
	if answer.Outcome != models.OutcomeTimeout {
		t.Fatalf("outcome = %s, want timeout (err %v)", answer.Outcome, answer.Err)
	}
	if answer.Message() != "AIPROXY request timed out. Try again later." {
		t.Fatalf("unexpected message %q", answer.Message())
	}
	if time.Since(start) > 5*time.Second {
		t.Fatalf("timeout not enforced")
	}
}

func TestProxyClientConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	answer := newProxy(t, url, time.Second).Ask(context.Background(), "q", "s")
	if answer.Outcome != models.OutcomeTransport {
		t.Fatalf("outcome = %s, want transport_error", answer.Outcome)
	}
	if !strings.HasPrefix(answer.Message(), "Failed to connect to AIPROXY: ") {
		t.Fatalf("unexpected message %q", answer.Message())
	}
}
