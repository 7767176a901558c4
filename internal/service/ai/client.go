// Package ai asks the configured language model for an answer and folds every
// upstream failure into a models.Answer outcome.
package ai

import (
	"context"
	"fmt"
	"time"

	"docqa/internal/cache"
	"docqa/internal/config"
	"docqa/internal/models"
)

// Client never returns an error: failures come back as non-OK outcomes.
type Client interface {
	Ask(ctx context.Context, prompt, systemInstruction string) models.Answer
}

// NewClient builds the client for cfg.LLM.Provider, wrapped with the answer
// cache when store is non-nil.
func NewClient(ctx context.Context, cfg *config.Config, store cache.Store) (Client, error) {
	var (
		client Client
		model  string
	)
	if cfg.LLM.Provider == config.ProviderAIProxy {
		proxy := NewProxyClient(cfg.LLM, cfg.UpstreamTimeout())
		client, model = proxy, proxy.Model()
	} else {
		provCfg, ok := cfg.Providers[cfg.LLM.Provider]
		if !ok {
			return nil, fmt.Errorf("provider %s not configured", cfg.LLM.Provider)
		}
		chat, err := NewChatModelClient(ctx, cfg.LLM.Provider, provCfg, cfg.LLM.Temperature, cfg.UpstreamTimeout())
		if err != nil {
			return nil, err
		}
		client, model = chat, chat.Model()
	}
	if store != nil {
		client = NewCachedClient(client, store, model)
	}
	return client, nil
}

func timeoutOrDefault(d time.Duration) time.Duration {
	if d <= 0 {
		return config.DefaultUpstreamTimeout
	}
	return d
}
