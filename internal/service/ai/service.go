package ai

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"docqa/internal/config"
	"docqa/internal/models"
)

var statusCodePattern = regexp.MustCompile(`status code:? (\d{3})`)

// ChatModelClient answers through an eino chat model (openai, claude or gemini).
type ChatModelClient struct {
	chatModel model.ToolCallingChatModel
	model     string
	timeout   time.Duration
}

func NewChatModelClient(ctx context.Context, provider string, provCfg config.ProviderConfig, temperature float32, timeout time.Duration) (*ChatModelClient, error) {
	var (
		chatModel model.ToolCallingChatModel
		err       error
	)
	modelName := provCfg.Model
	switch provider {
	case "openai":
		chatModel, err = openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL:     provCfg.BaseURL,
			Model:       modelName,
			APIKey:      provCfg.APIKey,
			Temperature: &temperature,
			Timeout:     timeoutOrDefault(timeout),
		})
	case "gemini":
		var client *genai.Client
		client, err = genai.NewClient(ctx, &genai.ClientConfig{
			APIKey: provCfg.APIKey,
		})
		if err != nil {
			return nil, fmt.Errorf("new gemini client: %w", err)
		}
		chatModel, err = gemini.NewChatModel(ctx, &gemini.Config{
			Client: client,
			Model:  modelName,
		})
	case "claude":
		var baseURLPtr *string
		if provCfg.BaseURL != "" {
			baseURLPtr = &provCfg.BaseURL
		}
		chatModel, err = claude.NewChatModel(ctx, &claude.Config{
			APIKey:      provCfg.APIKey,
			Model:       modelName,
			BaseURL:     baseURLPtr,
			MaxTokens:   3000,
			Temperature: &temperature,
		})
	default:
		return nil, fmt.Errorf("invalid provider: %s", provider)
	}
	if err != nil {
		return nil, fmt.Errorf("init %s chat model: %w", provider, err)
	}
	return NewChatModelClientFrom(chatModel, modelName, timeout), nil
}

// NewChatModelClientFrom wraps an already built chat model.
func NewChatModelClientFrom(chatModel model.ToolCallingChatModel, modelName string, timeout time.Duration) *ChatModelClient {
	return &ChatModelClient{
		chatModel: chatModel,
		model:     modelName,
		timeout:   timeoutOrDefault(timeout),
	}
}

func (c *ChatModelClient) Model() string {
	return c.model
}

func (c *ChatModelClient) Ask(ctx context.Context, prompt, systemInstruction string) models.Answer {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	messages := []*schema.Message{
		{Role: schema.System, Content: systemInstruction},
		{Role: schema.User, Content: prompt},
	}
	resp, err := c.chatModel.Generate(ctx, messages)
	if err != nil {
		return chatErrorAnswer(ctx, err)
	}
	if resp == nil {
		return models.Answer{Outcome: models.OutcomeUpstream, StatusCode: 200, Body: "empty response"}
	}
	return models.OKAnswer(resp.Content)
}

// chatErrorAnswer maps provider SDK errors onto the proxy outcomes. The SDKs
// only expose the HTTP status inside the error text.
func chatErrorAnswer(ctx context.Context, err error) models.Answer {
	if isTimeout(err) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return models.Answer{Outcome: models.OutcomeTimeout, Err: err}
	}
	if m := statusCodePattern.FindStringSubmatch(err.Error()); m != nil {
		code, _ := strconv.Atoi(m[1])
		answer := statusAnswer(code, err.Error())
		answer.Err = err
		return answer
	}
	return models.Answer{Outcome: models.OutcomeTransport, Err: err}
}
