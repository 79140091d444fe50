package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/example/lingua/pkg/models"
)

const DefaultModel = "gpt-4o-mini"

// Config selects the OpenAI-compatible endpoint used for example sentences
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

// ExampleGenerator writes short usage examples for vocabulary cards
type ExampleGenerator struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
}

// New creates a generator. An empty API key is an error.
func New(cfg Config) (*ExampleGenerator, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai API key is required")
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	return &ExampleGenerator{
		client:      openai.NewClientWithConfig(config),
		model:       model,
		maxTokens:   100,
		temperature: 0.7,
	}, nil
}

// Example returns one English sentence that uses word naturally
func (g *ExampleGenerator) Example(ctx context.Context, word models.Word) (string, error) {
	prompt := fmt.Sprintf(
		"Generate a short, practical example sentence in English that naturally includes the word '%s' (which translates to '%s' in Russian). Reply with the sentence only.",
		word.Word, word.Translation,
	)

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: "Ты - помощник для изучения английского языка. Твоя задача - создавать качественные примеры использования английских слов."},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxCompletionTokens: g.maxTokens,
		Temperature:         g.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate example for %q: %w", word.Word, err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no response choices returned")
	}

	example := strings.TrimSpace(resp.Choices[0].Message.Content)
	if example == "" {
		return "", errors.New("empty example returned")
	}
	return strings.Trim(example, `"`), nil
}
