package summarize

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/gauthierbraillon/rivalscope/internal/errs"
)

const (
	OpenAIName = "openai_gpt"

	openAIDefaultModel = "gpt-4o-mini"
	openAIMaxChars     = 12000
	openAIMaxTokens    = 500
	openAITemperature  = 0.7

	openAISystemPrompt = "You are a helpful assistant that summarizes podcast transcripts into concise, informative summaries."
	openAIUserPrompt   = "Please provide a comprehensive summary of this podcast transcript:\n\n"
)

// generator is the part of an eino chat model used here.
type generator interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

// OpenAI asks an OpenAI chat model for a concise summary.
type OpenAI struct {
	chat     generator
	maxChars int
}

// NewOpenAI creates an OpenAI strategy through eino's chat model. An empty
// model uses gpt-4o-mini; an empty baseURL uses OpenAI's endpoint.
func NewOpenAI(ctx context.Context, apiKey, modelName, baseURL string) (*OpenAI, error) {
	if modelName == "" {
		modelName = openAIDefaultModel
	}

	chat, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Model:   modelName,
	})
	if err != nil {
		return nil, fmt.Errorf("openai chat model: %w: %v", errs.ErrProviderUnavailable, err)
	}

	return &OpenAI{chat: chat, maxChars: openAIMaxChars}, nil
}

func (o *OpenAI) Name() string { return OpenAIName }

// Summarize implements Strategy.
func (o *OpenAI) Summarize(ctx context.Context, transcript string) (string, error) {
	messages := []*schema.Message{
		{Role: schema.System, Content: openAISystemPrompt},
		{Role: schema.User, Content: openAIUserPrompt + truncate(transcript, o.maxChars)},
	}

	resp, err := o.chat.Generate(ctx, messages,
		model.WithTemperature(openAITemperature),
		model.WithMaxTokens(openAIMaxTokens),
	)
	if err != nil {
		return "", err
	}
	if resp == nil {
		return "", fmt.Errorf("openai: %w: no message", errs.ErrProviderUnavailable)
	}

	text := strings.TrimSpace(resp.Content)
	if text == "" {
		return "", fmt.Errorf("openai: %w: empty response", errs.ErrProviderUnavailable)
	}
	return text, nil
}
