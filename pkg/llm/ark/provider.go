package ark

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ywqqqq/xuedong-ai/pkg/llm"
)

// ArkProvider talks to the Volcengine Ark chat completions endpoint,
// which follows the OpenAI wire format and accepts vision content
// parts for image questions.
type ArkProvider struct {
	BaseURL   string
	APIKey    string
	ModelName string
	Client    *http.Client
}

var _ llm.LLMProvider = &ArkProvider{}

func NewArkProvider(baseURL, apiKey, modelName string, timeout time.Duration) *ArkProvider {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &ArkProvider{
		BaseURL:   baseURL,
		APIKey:    apiKey,
		ModelName: modelName,
		Client: &http.Client{
			Timeout: timeout,
		},
	}
}

// --- Request/Response structs (Internal to this package) ---

type arkContentPart struct {
	Type     string       `json:"type"`
	Text     string       `json:"text,omitempty"`
	ImageURL *arkImageURL `json:"image_url,omitempty"`
}

type arkImageURL struct {
	URL string `json:"url"`
}

type arkMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"` // string or []arkContentPart
}

type arkChatRequest struct {
	Model       string       `json:"model"`
	Messages    []arkMessage `json:"messages"`
	Temperature float64      `json:"temperature,omitempty"`
	MaxTokens   int          `json:"max_tokens,omitempty"`
}

type arkChatResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// --- Interface Implementation ---

func (a *ArkProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	options := &llm.Options{}
	for _, opt := range opts {
		opt(options)
	}

	arkMessages := make([]arkMessage, len(history))
	for i, msg := range history {
		arkMessages[i] = toArkMessage(msg)
	}

	model := a.ModelName
	if options.Model != "" {
		model = options.Model
	}

	reqPayload := arkChatRequest{
		Model:       model,
		Messages:    arkMessages,
		Temperature: options.Temperature,
		MaxTokens:   options.MaxTokens,
	}

	payloadBytes, err := json.Marshal(reqPayload)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := a.BaseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(payloadBytes))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.APIKey)

	resp, err := a.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ark request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ark error: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	var arkResp arkChatResponse
	if err := json.Unmarshal(bodyBytes, &arkResp); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if arkResp.Error != nil {
		return "", fmt.Errorf("ark error: %s", arkResp.Error.Message)
	}
	if len(arkResp.Choices) == 0 {
		return "", fmt.Errorf("ark returned no choices")
	}

	return arkResp.Choices[0].Message.Content, nil
}

func (a *ArkProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return a.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, opts...)
}

func toArkMessage(msg llm.Message) arkMessage {
	if len(msg.Parts) == 0 {
		return arkMessage{Role: msg.Role, Content: msg.Content}
	}

	parts := make([]arkContentPart, 0, len(msg.Parts))
	for _, p := range msg.Parts {
		switch p.Type {
		case "image_url":
			parts = append(parts, arkContentPart{
				Type:     "image_url",
				ImageURL: &arkImageURL{URL: p.ImageURL},
			})
		default:
			parts = append(parts, arkContentPart{Type: "text", Text: p.Text})
		}
	}
	return arkMessage{Role: msg.Role, Content: parts}
}
