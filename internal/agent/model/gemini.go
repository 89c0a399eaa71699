package model

import (
	"context"
	"fmt"
	"iter"

	"google.golang.org/adk/model"
	"google.golang.org/genai"
)

// DefaultGeminiModel is the hosted model used when none is configured.
const DefaultGeminiModel = "gemini-2.5-flash"

// GeminiLLM implements the ADK model.LLM interface over the Gemini API.
// ADK requests already use genai types, so this adapter passes contents
// and config through unchanged.
type GeminiLLM struct {
	client *genai.Client
	model  string
}

// NewGeminiLLM creates a Gemini adapter. The API key falls back to the
// GEMINI_API_KEY environment variable when empty.
func NewGeminiLLM(ctx context.Context, apiKey, modelName string) (*GeminiLLM, error) {
	if modelName == "" {
		modelName = DefaultGeminiModel
	}

	cfg := &genai.ClientConfig{}
	if apiKey != "" {
		cfg.APIKey = apiKey
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiLLM{
		client: client,
		model:  modelName,
	}, nil
}

// Name returns the model identifier.
func (g *GeminiLLM) Name() string {
	return g.model
}

// GenerateContent implements model.LLM.GenerateContent. Streaming falls
// back to a single complete response.
func (g *GeminiLLM) GenerateContent(ctx context.Context, req *model.LLMRequest, stream bool) iter.Seq2[*model.LLMResponse, error] {
	return func(yield func(*model.LLMResponse, error) bool) {
		resp, err := g.client.Models.GenerateContent(ctx, g.model, req.Contents, req.Config)
		if err != nil {
			yield(nil, fmt.Errorf("gemini generate failed: %w", err))
			return
		}

		if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
			yield(nil, fmt.Errorf("gemini returned no candidates"))
			return
		}

		candidate := resp.Candidates[0]
		yield(&model.LLMResponse{
			Content:       candidate.Content,
			FinishReason:  candidate.FinishReason,
			TurnComplete:  true,
			UsageMetadata: resp.UsageMetadata,
		}, nil)
	}
}

// Ensure GeminiLLM implements model.LLM at compile time.
var _ model.LLM = (*GeminiLLM)(nil)
