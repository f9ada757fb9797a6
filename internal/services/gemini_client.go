package services

import (
	"context"
	"errors"
	"net/http"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"google.golang.org/api/googleapi"
)

// GeminiClient adapts the langchaingo Gemini model to LLMClient: system
// instructions are folded into the first human turn and failures are
// reported as *ProviderError.
type GeminiClient struct {
	model LLMClient
}

func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	llm, err := googleai.New(ctx,
		googleai.WithAPIKey(apiKey),
		googleai.WithDefaultModel(model),
	)
	if err != nil {
		return nil, err
	}
	return &GeminiClient{model: llm}, nil
}

// GenerateContent implements LLMClient.
func (c *GeminiClient) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	resp, err := c.model.GenerateContent(ctx, foldSystemMessages(messages), options...)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		status := http.StatusBadGateway
		var gErr *googleapi.Error
		if errors.As(err, &gErr) && gErr.Code != 0 {
			status = gErr.Code
		}
		return nil, &ProviderError{Provider: "Gemini", StatusCode: status, Message: err.Error()}
	}
	return resp, nil
}

func foldSystemMessages(messages []llms.MessageContent) []llms.MessageContent {
	var system []llms.ContentPart
	out := make([]llms.MessageContent, 0, len(messages))
	for _, m := range messages {
		m.Parts = plainParts(m.Parts)
		if m.Role == llms.ChatMessageTypeSystem {
			system = append(system, m.Parts...)
			continue
		}
		if len(system) > 0 && m.Role == llms.ChatMessageTypeHuman {
			parts := make([]llms.ContentPart, 0, len(system)+len(m.Parts))
			parts = append(parts, system...)
			m.Parts = append(parts, m.Parts...)
			system = nil
		}
		out = append(out, m)
	}
	return out
}

// plainParts unwraps FileContent, which googleai does not know about.
func plainParts(parts []llms.ContentPart) []llms.ContentPart {
	out := make([]llms.ContentPart, len(parts))
	for i, p := range parts {
		if f, ok := p.(FileContent); ok {
			p = f.BinaryContent
		}
		out[i] = p
	}
	return out
}
