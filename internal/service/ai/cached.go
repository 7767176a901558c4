package ai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log"

	"docqa/internal/cache"
	"docqa/internal/models"
)

// CachedClient serves repeated prompts from a store. Fallback outcomes are
// never stored.
type CachedClient struct {
	next  Client
	store cache.Store
	model string
}

func NewCachedClient(next Client, store cache.Store, model string) *CachedClient {
	return &CachedClient{next: next, store: store, model: model}
}

func (c *CachedClient) Ask(ctx context.Context, prompt, systemInstruction string) models.Answer {
	key := cacheKey(c.model, systemInstruction, prompt)
	if text, ok, err := c.store.Get(ctx, key); err != nil {
		log.Printf("answer cache get failed: %v", err)
	} else if ok {
		return models.OKAnswer(text)
	}

	answer := c.next.Ask(ctx, prompt, systemInstruction)
	if answer.OK() {
		if err := c.store.Set(ctx, key, answer.Text); err != nil {
			log.Printf("answer cache set failed: %v", err)
		}
	}
	return answer
}

func cacheKey(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
