package ai

import (
	"context"

	"google.golang.org/genai"

	"tradingagents/pkg/errors"
)

// GeminiClient implements ChatClient on the native Gemini content-generation
// API via the official SDK.
type GeminiClient struct {
	client *genai.Client
}

// Ensure GeminiClient implements ChatClient
var _ ChatClient = (*GeminiClient)(nil)

// NewGeminiClient creates a Gemini chat client.
func NewGeminiClient(ctx context.Context, apiKey string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, errors.Wrap(errors.ErrConfig, "gemini API key not configured")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create gemini client")
	}

	return &GeminiClient{client: client}, nil
}

// Complete sends a generateContent request and returns the response text.
// System messages become the system instruction; the rest map to user turns.
func (g *GeminiClient) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(req.Temperature)),
		MaxOutputTokens: int32(req.MaxTokens),
	}

	var contents []*genai.Content
	for _, msg := range req.Messages {
		if msg.Role == RoleSystem {
			cfg.SystemInstruction = genai.NewContentFromText(msg.Content, genai.RoleUser)
			continue
		}
		contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
	}
	if len(contents) == 0 {
		return nil, errors.Wrap(errors.ErrInvalidInput, "gemini request has no user content")
	}

	resp, err := g.client.Models.GenerateContent(ctx, req.Model, contents, cfg)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.Wrap(errors.ErrCancelled, "gemini request aborted")
		}
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			if apiErr.Code >= 500 || apiErr.Code == 429 {
				return nil, errors.Wrapf(errors.ErrTransient, "gemini API error (%d): %s", apiErr.Code, apiErr.Message)
			}
			return nil, errors.Wrapf(errors.ErrPermanent, "gemini API error (%d): %s", apiErr.Code, apiErr.Message)
		}
		return nil, errors.Wrapf(errors.ErrTransient, "gemini request failed: %v", err)
	}

	completion := &Completion{Text: resp.Text()}
	if resp.UsageMetadata != nil {
		completion.Usage = Usage{
			PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
		}
	}
	return completion, nil
}
