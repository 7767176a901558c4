// Package prompt builds the user prompt and system instruction sent upstream.
package prompt

import (
	"strings"

	"docqa/internal/config"
	"docqa/internal/extract"
)

const (
	truncationMarker = "..."

	minimalSystemPrompt = "You are a computational expert who outputs correct answers after interpreting and analysing the problem step by step. " +
		"Use provided context strictly. Do not assume missing data. Return only the final answer, no explanations. " +
		"Respond ONLY with the exact answer, no additional text, explanations or context. " +
		"If the answer is a number, only return the number. If the answer is a text, return only the precise text required."

	chainOfThoughtSystemPrompt = "You are a highly accurate data science assignment assistant. " +
		"Before providing your final answer, think step by step through the problem, double-check any calculations, " +
		"and only output the final answer without extra commentary." +
		"While answering, do not return any additional text. If the answer is a number, return ONLY a number." +
		"If the answer is a text, return ONLY the precise text answering the question."

	chainOfThoughtHeader  = "Below is the chain-of-thought reasoning process:\n"
	chainOfThoughtClosing = "Now, think step-by-step through the problem and then provide only the final answer."
)

type Composer struct {
	mode         string
	systemPrompt string
	questionCap  int
	contextCap   int
}

func NewComposer(cfg config.PromptConfig) *Composer {
	c := &Composer{
		mode:         cfg.Mode,
		systemPrompt: strings.TrimSpace(cfg.SystemPrompt),
		questionCap:  cfg.QuestionCap,
		contextCap:   cfg.ContextCap,
	}
	if c.mode == "" {
		c.mode = config.PromptModeChainOfThought
	}
	if c.questionCap <= 0 {
		c.questionCap = config.DefaultQuestionCap
	}
	if c.contextCap <= 0 {
		c.contextCap = config.DefaultContextCap
	}
	return c
}

func (c *Composer) Mode() string {
	return c.mode
}

// SystemPrompt returns the configured instruction, or the default for the mode.
func (c *Composer) SystemPrompt() string {
	if c.systemPrompt != "" {
		return c.systemPrompt
	}
	if c.mode == config.PromptModeMinimal {
		return minimalSystemPrompt
	}
	return chainOfThoughtSystemPrompt
}

// Compose merges question and context into the user prompt. The output depends
// only on its inputs and the composer settings.
func (c *Composer) Compose(question, context string) string {
	question = capText(question, c.questionCap)
	context = capText(context, c.contextCap)

	var b strings.Builder
	switch c.mode {
	case config.PromptModeMinimal:
		if context == "" {
			return question
		}
		b.WriteString("Context: ")
		b.WriteString(context)
		b.WriteString("\nQuestion: ")
		b.WriteString(question)
	default:
		b.WriteString(chainOfThoughtHeader)
		if context != "" {
			b.WriteString("Context:\n")
			b.WriteString(context)
			b.WriteString("\n\n")
		}
		b.WriteString("Question: ")
		b.WriteString(question)
		b.WriteString("\n\n")
		b.WriteString(chainOfThoughtClosing)
	}
	return b.String()
}

func capText(s string, limit int) string {
	cut := extract.Truncate(s, limit)
	if len(cut) < len(s) {
		return cut + truncationMarker
	}
	return s
}
