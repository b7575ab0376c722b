// Package llm generates short sales advice through OpenAI. Responses are
// cached in Redis and calls retry on a bounded policy; callers degrade to a
// fallback string when generation still fails, so no domain mutation ever
// blocks on this package succeeding.
package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/dkenzhebek/tgcrm-bot/internal/shared/retry"
)

const cacheTTL = 6 * time.Hour

// Advisor produces a short advice text for the given prompt context.
type Advisor interface {
	Advice(ctx context.Context, prompt string) (string, error)
}

// KeyResolver returns the OpenAI API key to use for a call, letting a
// settings-store override take precedence over static configuration.
type KeyResolver func(ctx context.Context) string

// Client is the OpenAI-backed Advisor.
type Client struct {
	model      string
	resolveKey KeyResolver
	cache      *redis.Client
	policy     retry.Policy
}

// NewClient builds an Advisor. cache may be nil to disable caching.
func NewClient(model string, resolveKey KeyResolver, cache *redis.Client, policy retry.Policy) *Client {
	return &Client{model: model, resolveKey: resolveKey, cache: cache, policy: policy}
}

func cacheKey(prompt string) string {
	digest := sha256.Sum256([]byte(prompt))
	return "ai:" + hex.EncodeToString(digest[:])
}

func (c *Client) Advice(ctx context.Context, prompt string) (string, error) {
	key := cacheKey(prompt)
	if c.cache != nil {
		if cached, err := c.cache.Get(ctx, key).Result(); err == nil && cached != "" {
			return cached, nil
		}
	}

	apiKey := c.resolveKey(ctx)
	if apiKey == "" {
		return "", fmt.Errorf("openai api key is not configured")
	}
	api := openai.NewClient(apiKey)

	var answer string
	op := func() error {
		resp, err := api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
			Temperature: 0.4,
		})
		if err != nil {
			return fmt.Errorf("openai: %w", err)
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("openai: empty response")
		}
		answer = resp.Choices[0].Message.Content
		return nil
	}
	if err := c.policy.Do(ctx, op); err != nil {
		return "", err
	}

	if c.cache != nil && answer != "" {
		if err := c.cache.Set(ctx, key, answer, cacheTTL).Err(); err != nil {
			log.Warn().Err(err).Msg("advice cache write failed")
		}
	}
	return answer, nil
}
