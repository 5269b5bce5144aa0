package summarize

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/anatolykoptev/go-kit/llm"

	"github.com/gauthierbraillon/rivalscope/internal/errs"
)

const (
	GeminiName = "gemini"

	// GeminiBaseURL is Gemini's OpenAI-compatible endpoint.
	GeminiBaseURL      = "https://generativelanguage.googleapis.com/v1beta/openai"
	geminiDefaultModel = "gemini-1.5-flash"
	geminiMaxChars     = 30000
	geminiMaxTokens    = 8000
	geminiTemperature  = 0.7
)

const geminiPrompt = `Please provide a VERY DETAILED and COMPREHENSIVE summary of this podcast transcript. This is for a 1-hour video, so provide extensive coverage of all topics, insights, and discussions.

Provide a thorough summary covering:
- All main topics discussed in detail
- Key insights and takeaways for each topic
- Important points, quotes, and examples from speakers
- Detailed explanations of concepts discussed
- Overall themes and conclusions
- Important business lessons or advice shared

Make this summary detailed enough that someone can understand the full content of this podcast without watching it. Include specific details, numbers, examples, and important quotes.

Transcript:
%s

Summary (be VERY detailed and comprehensive):`

// completeFunc sends one system+user exchange and returns the reply text.
type completeFunc func(ctx context.Context, system, prompt string) (string, error)

// Gemini asks Gemini for a long, structured summary.
type Gemini struct {
	complete completeFunc
	maxChars int
}

// NewGemini creates a Gemini strategy. An empty baseURL uses Google's
// endpoint and an empty model uses gemini-1.5-flash.
func NewGemini(apiKey, model, baseURL string, fallbackKeys ...string) *Gemini {
	if baseURL == "" {
		baseURL = GeminiBaseURL
	}
	if model == "" {
		model = geminiDefaultModel
	}

	client := llm.NewClient(baseURL, apiKey, model,
		llm.WithFallbackKeys(fallbackKeys),
		llm.WithMaxTokens(geminiMaxTokens),
		llm.WithTemperature(geminiTemperature),
		llm.WithHTTPClient(&http.Client{Timeout: 120 * time.Second}),
	)

	return &Gemini{
		complete: func(ctx context.Context, system, prompt string) (string, error) {
			return client.Complete(ctx, system, prompt,
				llm.WithChatTemperature(geminiTemperature),
				llm.WithChatMaxTokens(geminiMaxTokens),
			)
		},
		maxChars: geminiMaxChars,
	}
}

func (g *Gemini) Name() string { return GeminiName }

// Summarize implements Strategy.
func (g *Gemini) Summarize(ctx context.Context, transcript string) (string, error) {
	prompt := fmt.Sprintf(geminiPrompt, truncate(transcript, g.maxChars))

	text, err := g.complete(ctx, "", prompt)
	if err != nil {
		return "", err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("gemini: %w: empty response", errs.ErrProviderUnavailable)
	}
	return text, nil
}
