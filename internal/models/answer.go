package models

import (
	"fmt"
	"strings"
)

// Outcome tags how an upstream call ended.
type Outcome string

const (
	OutcomeOK          Outcome = "ok"
	OutcomeRateLimited Outcome = "rate_limited"
	OutcomeCostLimited Outcome = "cost_limited"
	OutcomeTimeout     Outcome = "timeout"
	OutcomeTransport   Outcome = "transport_error"
	OutcomeUpstream    Outcome = "upstream_error"
	// OutcomeIntegration reports a failed GitHub or Vercel lookup; Body holds
	// the message.
	OutcomeIntegration Outcome = "integration_error"
)

const (
	rateLimitedMessage = "AIPROXY monthly request limit reached. Try again next month!"
	costLimitedMessage = "AIPROXY cost limit exceeded. Requests are blocked!"
	timeoutMessage     = "AIPROXY request timed out. Try again later."
)

// Answer is the result of asking the model. Only OutcomeOK carries model
// text; every other outcome renders a fallback diagnostic through Message.
type Answer struct {
	Outcome    Outcome `json:"outcome"`
	Text       string  `json:"text,omitempty"`
	StatusCode int     `json:"status_code,omitempty"`
	Body       string  `json:"body,omitempty"`
	Err        error   `json:"-"`
}

func OKAnswer(text string) Answer {
	return Answer{Outcome: OutcomeOK, Text: strings.TrimSpace(text)}
}

func (a Answer) OK() bool {
	return a.Outcome == OutcomeOK
}

// Message returns the string placed in the {"answer": ...} envelope.
func (a Answer) Message() string {
	switch a.Outcome {
	case OutcomeOK:
		return a.Text
	case OutcomeRateLimited:
		return rateLimitedMessage
	case OutcomeCostLimited:
		return costLimitedMessage
	case OutcomeTimeout:
		return timeoutMessage
	case OutcomeIntegration:
		return a.Body
	case OutcomeTransport:
		detail := "unknown error"
		if a.Err != nil {
			detail = a.Err.Error()
		}
		return fmt.Sprintf("Failed to connect to AIPROXY: %s", detail)
	default:
		return fmt.Sprintf("AIPROXY Error %d: %s", a.StatusCode, a.Body)
	}
}

// RequestKind is the route a request takes through the assistant.
type RequestKind int

const (
	KindAsk RequestKind = iota
	KindImage
	KindRepoLookup
	KindDeploy
)

func (k RequestKind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindRepoLookup:
		return "repo_lookup"
	case KindDeploy:
		return "deploy"
	default:
		return "ask"
	}
}
