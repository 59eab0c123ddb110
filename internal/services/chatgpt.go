package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/jwebster45206/npc-dialogue/pkg/chat"
)

const (
	chatGPTBaseURL = "https://api.openai.com/v1"

	DefaultChatGPTTemperature = 0.7
	DefaultChatGPTMaxTokens   = 300
)

// ChatGPTService implements LLMService for OpenAI chat completions.
type ChatGPTService struct {
	apiKey     string
	modelName  string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// ChatGPTRequest is the chat completions request body. The reply is
// requested as a JSON object so the agent can validate it.
type ChatGPTRequest struct {
	Model          string             `json:"model"`
	Messages       []chat.ChatMessage `json:"messages"`
	Temperature    float64            `json:"temperature,omitempty"`
	MaxTokens      int                `json:"max_tokens,omitempty"`
	ResponseFormat *ChatGPTFormat     `json:"response_format,omitempty"`
}

type ChatGPTFormat struct {
	Type string `json:"type"`
}

type ChatGPTChoice struct {
	Index   int `json:"index"`
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
		Refusal string `json:"refusal,omitempty"`
	} `json:"message"`
	FinishReason string `json:"finish_reason"`
}

type ChatGPTResponse struct {
	ID      string          `json:"id"`
	Model   string          `json:"model"`
	Choices []ChatGPTChoice `json:"choices"`
	Usage   struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage,omitempty"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error,omitempty"`
}

func NewChatGPTService(apiKey string, modelName string, logger *slog.Logger) *ChatGPTService {
	return &ChatGPTService{
		apiKey:    apiKey,
		modelName: modelName,
		baseURL:   chatGPTBaseURL,
		httpClient: &http.Client{
			Timeout: 90 * time.Second,
		},
		logger: logger,
	}
}

// WithBaseURL points the service at another endpoint (tests, proxies).
func (c *ChatGPTService) WithBaseURL(url string) *ChatGPTService {
	c.baseURL = url
	return c
}

func (c *ChatGPTService) Chat(ctx context.Context, messages []chat.ChatMessage) (*chat.ChatResponse, error) {
	if len(messages) == 0 {
		return nil, fmt.Errorf("no messages provided")
	}

	request := ChatGPTRequest{
		Model:          c.modelName,
		Messages:       messages,
		Temperature:    DefaultChatGPTTemperature,
		MaxTokens:      DefaultChatGPTMaxTokens,
		ResponseFormat: &ChatGPTFormat{Type: "json_object"},
	}

	reqBody, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var chatResp ChatGPTResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if chatResp.Error != nil {
		return nil, fmt.Errorf("API error: %s", chatResp.Error.Message)
	}

	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("no choices returned from API")
	}

	choice := chatResp.Choices[0]
	if choice.Message.Refusal != "" {
		return nil, fmt.Errorf("model refused to respond: %s", choice.Message.Refusal)
	}
	if choice.Message.Content == "" {
		return nil, fmt.Errorf("no text content found in response")
	}

	c.logger.Debug("ChatGPT reply received",
		"model", c.modelName,
		"duration", time.Since(start),
		"total_tokens", chatResp.Usage.TotalTokens)

	return &chat.ChatResponse{
		Message: choice.Message.Content,
	}, nil
}
