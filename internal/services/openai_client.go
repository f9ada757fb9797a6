package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
)

// OpenAIClient talks to /v1/chat/completions directly so that the provider's
// status code and error message reach the caller intact.
type OpenAIClient struct {
	apiKey       string
	baseURL      string
	defaultModel string
	httpClient   *http.Client
}

func NewOpenAIClient(apiKey, baseURL, model string, timeout time.Duration) *OpenAIClient {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &OpenAIClient{
		apiKey:       apiKey,
		baseURL:      strings.TrimRight(baseURL, "/"),
		defaultModel: model,
		httpClient:   &http.Client{Timeout: timeout},
	}
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
	Temperature    *float64        `json:"temperature,omitempty"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

// chatMessage content is either a string or a list of contentParts.
type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
	File     *filePart `json:"file,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type filePart struct {
	Filename string `json:"filename,omitempty"`
	FileData string `json:"file_data"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

type errorResponse struct {
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    any    `json:"code"`
	} `json:"error"`
	Message string `json:"message"`
}

// GenerateContent implements LLMClient.
func (c *OpenAIClient) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	opts := llms.CallOptions{}
	for _, o := range options {
		o(&opts)
	}

	reqBody := chatRequest{
		Model:     c.defaultModel,
		MaxTokens: opts.MaxTokens,
	}
	if opts.Model != "" {
		reqBody.Model = opts.Model
	}
	if opts.JSONMode {
		reqBody.ResponseFormat = &responseFormat{Type: "json_object"}
	}
	if opts.Temperature > 0 {
		t := opts.Temperature
		reqBody.Temperature = &t
	}
	for _, m := range messages {
		msg, err := toChatMessage(m)
		if err != nil {
			return nil, err
		}
		reqBody.Messages = append(reqBody.Messages, msg)
	}

	b, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("call OpenAI: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read OpenAI response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, &ProviderError{
			Provider:   "OpenAI",
			StatusCode: resp.StatusCode,
			Message:    providerMessage(resp.StatusCode, body),
		}
	}

	var cr chatResponse
	if err := json.Unmarshal(body, &cr); err != nil {
		return nil, fmt.Errorf("decode OpenAI response: %w", err)
	}
	if len(cr.Choices) == 0 {
		return nil, ErrEmptyResponse
	}

	out := &llms.ContentResponse{}
	for _, ch := range cr.Choices {
		out.Choices = append(out.Choices, &llms.ContentChoice{
			Content:    ch.Message.Content,
			StopReason: ch.FinishReason,
		})
	}
	return out, nil
}

// providerMessage prefers error.message, then message, then the raw body.
func providerMessage(status int, body []byte) string {
	var er errorResponse
	if err := json.Unmarshal(body, &er); err == nil {
		if er.Error != nil && er.Error.Message != "" {
			return er.Error.Message
		}
		if er.Message != "" {
			return er.Message
		}
	}
	if text := strings.TrimSpace(string(body)); text != "" {
		return text
	}
	return http.StatusText(status)
}

func toChatMessage(m llms.MessageContent) (chatMessage, error) {
	var role string
	switch m.Role {
	case llms.ChatMessageTypeSystem:
		role = "system"
	case llms.ChatMessageTypeAI:
		role = "assistant"
	case llms.ChatMessageTypeHuman, llms.ChatMessageTypeGeneric:
		role = "user"
	default:
		return chatMessage{}, fmt.Errorf("unsupported message role %q", m.Role)
	}

	// text-only messages go out as a plain string
	if len(m.Parts) == 1 {
		if tc, ok := m.Parts[0].(llms.TextContent); ok {
			return chatMessage{Role: role, Content: tc.Text}, nil
		}
	}

	parts := make([]contentPart, 0, len(m.Parts))
	for _, p := range m.Parts {
		switch part := p.(type) {
		case llms.TextContent:
			parts = append(parts, contentPart{Type: "text", Text: part.Text})
		case llms.ImageURLContent:
			parts = append(parts, contentPart{Type: "image_url", ImageURL: &imageURL{URL: part.URL}})
		case FileContent:
			parts = append(parts, binaryPart(part.BinaryContent, part.Name))
		case llms.BinaryContent:
			parts = append(parts, binaryPart(part, ""))
		default:
			return chatMessage{}, fmt.Errorf("unsupported content part %T", p)
		}
	}
	return chatMessage{Role: role, Content: parts}, nil
}

// binaryPart sends images as image_url and anything else as a file part.
func binaryPart(b llms.BinaryContent, name string) contentPart {
	dataURL := "data:" + b.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(b.Data)
	if strings.HasPrefix(b.MIMEType, "image/") {
		return contentPart{Type: "image_url", ImageURL: &imageURL{URL: dataURL}}
	}
	if name == "" {
		name = "resume.pdf"
	}
	return contentPart{Type: "file", File: &filePart{Filename: name, FileData: dataURL}}
}
