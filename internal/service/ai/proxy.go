package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"docqa/internal/config"
	"docqa/internal/models"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Temperature float32       `json:"temperature"`
	Messages    []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// ProxyClient posts OpenAI-style chat completions to the AI proxy. Each call
// makes exactly one attempt.
type ProxyClient struct {
	url         string
	token       string
	model       string
	temperature float32
	http        *http.Client
}

func NewProxyClient(cfg config.LLMConfig, timeout time.Duration) *ProxyClient {
	url := cfg.BaseURL
	if url == "" {
		url = config.DefaultProxyURL
	}
	model := cfg.Model
	if model == "" {
		model = config.DefaultModel
	}
	return &ProxyClient{
		url:         url,
		token:       cfg.Token,
		model:       model,
		temperature: cfg.Temperature,
		http:        &http.Client{Timeout: timeoutOrDefault(timeout)},
	}
}

func (p *ProxyClient) Model() string {
	return p.model
}

func (p *ProxyClient) Ask(ctx context.Context, prompt, systemInstruction string) models.Answer {
	payload, err := json.Marshal(chatRequest{
		Model:       p.model,
		Temperature: p.temperature,
		Messages: []chatMessage{
			{Role: "system", Content: systemInstruction},
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return models.Answer{Outcome: models.OutcomeTransport, Err: fmt.Errorf("encode request: %w", err)}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(payload))
	if err != nil {
		return models.Answer{Outcome: models.OutcomeTransport, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.token)

	resp, err := p.http.Do(req)
	if err != nil {
		return transportAnswer(err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return transportAnswer(err)
	}
	if resp.StatusCode != http.StatusOK {
		return statusAnswer(resp.StatusCode, string(body))
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil || len(parsed.Choices) == 0 {
		return models.Answer{Outcome: models.OutcomeUpstream, StatusCode: resp.StatusCode, Body: string(body)}
	}
	return models.OKAnswer(parsed.Choices[0].Message.Content)
}

// statusAnswer maps a non-200 upstream status onto an outcome.
func statusAnswer(code int, body string) models.Answer {
	switch code {
	case http.StatusTooManyRequests:
		return models.Answer{Outcome: models.OutcomeRateLimited, StatusCode: code, Body: body}
	case http.StatusForbidden:
		return models.Answer{Outcome: models.OutcomeCostLimited, StatusCode: code, Body: body}
	default:
		return models.Answer{Outcome: models.OutcomeUpstream, StatusCode: code, Body: strings.TrimSpace(body)}
	}
}

func transportAnswer(err error) models.Answer {
	if isTimeout(err) {
		return models.Answer{Outcome: models.OutcomeTimeout, Err: err}
	}
	return models.Answer{Outcome: models.OutcomeTransport, Err: err}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
