package services

import (
	"context"
	"errors"
	"log"

	"github.com/mjozefiak/polcare/config"

	openai "github.com/sashabaranov/go-openai"
)

// CompletionContext carries the conversational context sent alongside the
// prompt to the completion provider.
type CompletionContext struct {
	History      []string
	Symptoms     []string
	LocationHint string
}

// CompletionClient is the upstream language-completion provider, treated as
// an opaque asynchronous call. It may fail, time out, or return malformed
// or empty content; callers own the fallback behaviour.
type CompletionClient interface {
	Complete(ctx context.Context, prompt string, cc CompletionContext) (string, error)
}

type openAICompletionClient struct {
	client *openai.Client
	model  string
}

// NewCompletionClient creates a client for the configured OpenAI-compatible
// endpoint. The provider base URL and model come from application config;
// the API key is read from the environment at config load time. A missing
// key is not fatal here: calls fail and the conversation falls back to its
// apology message.
func NewCompletionClient(cfg config.LLMConfig) CompletionClient {
	var client *openai.Client
	if cfg.APIKey != "" {
		clientConfig := openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			clientConfig.BaseURL = cfg.BaseURL
		}
		client = openai.NewClientWithConfig(clientConfig)
	}
	return &openAICompletionClient{
		client: client,
		model:  cfg.Model,
	}
}

// Complete sends the prompt to the provider and returns the raw completion
// text. An empty completion is returned as-is; the orchestrator treats it
// the same as a transport failure.
func (c *openAICompletionClient) Complete(ctx context.Context, prompt string, cc CompletionContext) (string, error) {
	if c.client == nil {
		return "", errors.New("completion-provider API key is not set")
	}
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.2,
	})
	if err != nil {
		log.Printf("ERROR: [Completion] Provider call failed: %v", err)
		return "", err
	}
	if len(resp.Choices) == 0 {
		log.Printf("WARN: [Completion] Provider returned no choices for model '%s'.", c.model)
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}
