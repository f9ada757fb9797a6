package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/strove-app/strove/internal/config"
	"github.com/tmc/langchaingo/llms"
)

// LLMClient is the part of a langchaingo model the service needs. Both the
// OpenAI client and the langchaingo Gemini model satisfy it.
type LLMClient interface {
	GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error)
}

// ProviderError is a failure reported by the model provider itself.
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s API error (HTTP %d): %s", e.Provider, e.StatusCode, e.Message)
}

var quotaKeywords = []string{"quota", "billing", "exceeded", "insufficient"}

// IsQuota reports whether the provider refused the call for quota or billing reasons.
func (e *ProviderError) IsQuota() bool {
	msg := strings.ToLower(e.Message)
	for _, kw := range quotaKeywords {
		if strings.Contains(msg, kw) {
			return true
		}
	}
	return false
}

// QuotaMessage is the user-facing text for a quota failure.
func (e *ProviderError) QuotaMessage() string {
	return fmt.Sprintf("%s API quota exceeded. Please check your %s account billing or skip this step.", e.Provider, e.Provider)
}

type LLMService struct {
	// Client is nil when no provider is configured.
	Client      LLMClient
	Provider    string
	TextModel   string
	VisionModel string
}

// NewLLMService builds the client for the configured provider. A missing API
// key is not fatal: the service runs disabled and extraction soft-fails.
func NewLLMService(ctx context.Context, cfg config.LLMConfig) *LLMService {
	switch cfg.Provider {
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			log.Println("⚠️  GEMINI_API_KEY is empty, resume parsing disabled")
			return &LLMService{Provider: "Gemini"}
		}
		client, err := NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			log.Printf("⚠️  Failed to create Gemini client: %v", err)
			return &LLMService{Provider: "Gemini"}
		}
		return &LLMService{
			Client:      client,
			Provider:    "Gemini",
			TextModel:   cfg.GeminiModel,
			VisionModel: cfg.GeminiModel,
		}
	default:
		if cfg.OpenAIAPIKey == "" {
			log.Println("⚠️  OPENAI_API_KEY is empty, resume parsing disabled")
			return &LLMService{Provider: "OpenAI"}
		}
		return &LLMService{
			Client:      NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel, cfg.Timeout),
			Provider:    "OpenAI",
			TextModel:   cfg.OpenAIModel,
			VisionModel: cfg.OpenAIVisionModel,
		}
	}
}

// Enabled reports whether a provider client is configured.
func (s *LLMService) Enabled() bool { return s != nil && s.Client != nil }

func (s *LLMService) generate(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (string, error) {
	resp, err := s.Client.GenerateContent(ctx, messages, options...)
	if err != nil {
		return "", err
	}
	if resp == nil || len(resp.Choices) == 0 || resp.Choices[0] == nil {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Content, nil
}

// ParseResume sends the resume to the model once and returns the extracted
// fields. Without a provider it returns an empty extraction and no error.
// Provider failures come back as *ProviderError.
func (s *LLMService) ParseResume(ctx context.Context, upload ResumeUpload) (*ResumeExtraction, error) {
	if strings.TrimSpace(upload.Resume) == "" {
		return nil, ErrResumeRequired
	}
	if !s.Enabled() {
		log.Println("LLM disabled, returning empty extraction")
		return EmptyExtraction(), nil
	}
	decoded, err := DecodeResume(upload)
	if err != nil {
		return nil, err
	}

	model := s.TextModel
	if decoded.Kind.Vision() {
		model = s.VisionModel
	}
	log.Printf("📄 Parsing resume %q (%s, %d bytes) with %s", decoded.FileName, decoded.Kind, len(decoded.Data), model)

	content, err := s.generate(ctx, BuildResumePrompt(decoded),
		llms.WithModel(model),
		llms.WithTemperature(0.3),
		llms.WithJSONMode(),
	)
	if err != nil {
		return nil, err
	}

	extraction, err := ParseExtraction(content)
	if err != nil {
		return nil, err
	}
	log.Printf("✅ Extracted GPA=%v and %d work experience entries", extraction.GPA != nil, len(extraction.WorkExperience))
	return extraction, nil
}

// AsProviderError unwraps a *ProviderError from err.
func AsProviderError(err error) (*ProviderError, bool) {
	var pErr *ProviderError
	if errors.As(err, &pErr) {
		return pErr, true
	}
	return nil, false
}

// StatusDecision is the model's reading of a professor's reply.
type StatusDecision struct {
	Status  string `json:"status"`
	Summary string `json:"summary"`
}

const replyStatusPrompt = `
You are an assistant that tracks a student's research position applications.
Read the email below, sent about the position "%s" with %s, and decide what it means for the application.

### OUTPUT SCHEMA (JSON only, no markdown):
{
    "status": one of "UNDER_REVIEW", "ACCEPTED", "REJECTED", "NO_CHANGE", "UNKNOWN",
    "summary": "One sentence summary of the email"
}

### RULES:
- Interview invitations, requests for more material or "we are reviewing" mean UNDER_REVIEW.
- An offer of the position means ACCEPTED. A decline means REJECTED.
- Newsletters, confirmations of receipt without news, or unrelated mail mean NO_CHANGE.

### EMAIL
Subject: %s

%s
`

// AnalyzeReplyStatus classifies a professor's email about an application.
func (s *LLMService) AnalyzeReplyStatus(ctx context.Context, postingTitle, professor, subject, body string) (*StatusDecision, error) {
	if !s.Enabled() {
		return nil, errors.New("llm disabled")
	}
	if len(body) > maxResumeTextBytes {
		body = body[:maxResumeTextBytes]
	}
	prompt := fmt.Sprintf(replyStatusPrompt, postingTitle, professor, subject, body)
	content, err := s.generate(ctx,
		[]llms.MessageContent{llms.TextParts(llms.ChatMessageTypeHuman, prompt)},
		llms.WithModel(s.TextModel),
		llms.WithJSONMode(),
	)
	if err != nil {
		return nil, err
	}
	var decision StatusDecision
	if err := ExtractJSON(content, &decision); err != nil {
		return nil, err
	}
	decision.Status = strings.ToUpper(strings.TrimSpace(decision.Status))
	return &decision, nil
}

const identifyPrompt = `
A student applied to several research positions with the same lab. Which position is this email about?

Positions:
%s
Subject: %s

%s

Reply with JSON only: {"index": <number from the list>} or {"index": -1} if it cannot be determined.
`

// IdentifyApplication asks the model which of titles the email refers to and
// returns its index, or -1.
func (s *LLMService) IdentifyApplication(ctx context.Context, titles []string, subject, body string) int {
	if !s.Enabled() || len(titles) == 0 {
		return -1
	}
	var list strings.Builder
	for i, t := range titles {
		fmt.Fprintf(&list, "%d. %s\n", i, t)
	}
	if len(body) > maxResumeTextBytes {
		body = body[:maxResumeTextBytes]
	}
	content, err := s.generate(ctx,
		[]llms.MessageContent{llms.TextParts(llms.ChatMessageTypeHuman, fmt.Sprintf(identifyPrompt, list.String(), subject, body))},
		llms.WithModel(s.TextModel),
		llms.WithJSONMode(),
	)
	if err != nil {
		log.Printf("⚠️  Identify application failed: %v", err)
		return -1
	}
	var out struct {
		Index int `json:"index"`
	}
	if err := ExtractJSON(content, &out); err != nil || out.Index < 0 || out.Index >= len(titles) {
		return -1
	}
	return out.Index
}
