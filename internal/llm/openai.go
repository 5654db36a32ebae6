package llm

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sashabaranov/go-openai"
)

// OpenAIProvider implements the Provider interface for OpenAI-compatible models
type OpenAIProvider struct {
	client *openai.Client
	config Config
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(config Config) (*OpenAIProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}, nil
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// IsAvailable checks if the provider is properly configured
func (p *OpenAIProvider) IsAvailable(ctx context.Context) bool {
	// Lightweight API call; also surfaces API-key problems early
	_, err := p.client.ListModels(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "OpenAI API check failed: %v\n", err)
		return false
	}
	return true
}

// ExtractPrices asks the model for structured price observations
func (p *OpenAIProvider) ExtractPrices(ctx context.Context, req ExtractRequest) (*ExtractResponse, error) {
	content, model, tokens, err := p.complete(ctx, extractSystemPrompt, BuildExtractPrompt(req.Text), req.Model)
	if err != nil {
		return nil, err
	}

	items, err := ParseExtractPayload(content)
	if err != nil {
		return nil, err
	}

	return &ExtractResponse{
		Items:      items,
		Model:      model,
		TokensUsed: tokens,
	}, nil
}

// SuggestPrice asks the model for an advisory pricing opinion
func (p *OpenAIProvider) SuggestPrice(ctx context.Context, req PriceRequest) (*PriceResponse, error) {
	content, model, tokens, err := p.complete(ctx, priceSystemPrompt, BuildPricePrompt(req.Spec), req.Model)
	if err != nil {
		return nil, err
	}

	resp, err := ParsePricePayload(content)
	if err != nil {
		return nil, err
	}

	resp.Model = model
	resp.TokensUsed = tokens
	return resp, nil
}

// complete runs one chat completion with the provider's timeout applied
func (p *OpenAIProvider) complete(ctx context.Context, system, prompt, modelOverride string) (string, string, int, error) {
	model := modelOverride
	if model == "" {
		model = p.config.Model
	}
	if model == "" {
		model = openai.GPT4oMini
	}

	maxTokens := p.config.MaxTokens
	if maxTokens == 0 {
		maxTokens = 2000
	}

	timeout := p.config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	ctxWithTimeout, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := p.client.CreateChatCompletion(ctxWithTimeout, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   maxTokens,
		Temperature: 0.1, // Low temperature for deterministic extraction
	})
	if err != nil {
		return "", "", 0, fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", "", 0, fmt.Errorf("no response from OpenAI")
	}

	return resp.Choices[0].Message.Content, model, resp.Usage.TotalTokens, nil
}
