package agent

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/openai"
)

// langChainProvider adapts a langchaingo model to the Provider interface.
type langChainProvider struct {
	llm  llms.Model
	name string
}

func newOpenAIProvider(apiKey, model string) (Provider, error) {
	llm, err := openai.New(
		openai.WithToken(apiKey),
		openai.WithModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("create openai provider: %w", err)
	}
	return &langChainProvider{llm: llm, name: "openai"}, nil
}

func newGoogleProvider(apiKey, model string) (Provider, error) {
	llm, err := googleai.New(
		context.Background(),
		googleai.WithAPIKey(apiKey),
		googleai.WithDefaultModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("create google provider: %w", err)
	}
	return &langChainProvider{llm: llm, name: "google"}, nil
}

func (p *langChainProvider) Name() string {
	return p.name
}

func (p *langChainProvider) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	var messages []llms.MessageContent
	if systemPrompt != "" {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt))
	}
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, userPrompt))

	resp, err := p.llm.GenerateContent(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrProviderError, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no response choices", ErrProviderError)
	}
	return resp.Choices[0].Content, nil
}
