package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jwebster45206/gamebook-engine/pkg/chat"
)

const (
	anthropicBaseURL = "https://api.anthropic.com/v1"
	anthropicVersion = "2023-06-01"

	DefaultAnthropicModel       = "claude-sonnet-4-20250514"
	DefaultAnthropicTemperature = 0.7
	DefaultAnthropicMaxTokens   = 2048
)

// AnthropicService implements LLMService for Anthropic Claude
type AnthropicService struct {
	apiKey     string
	modelName  string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ LLMService = (*AnthropicService)(nil)

type anthropicMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type anthropicTool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

type anthropicChatRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature *float64           `json:"temperature,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	System      string             `json:"system,omitempty"`
	Tools       []anthropicTool    `json:"tools,omitempty"`
}

type anthropicContentBlock struct {
	Type  string          `json:"type"`
	Text  string          `json:"text,omitempty"`
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`

	// tool_result fields, used when sending results back
	ToolUseID string `json:"tool_use_id,omitempty"`
	Content   string `json:"content,omitempty"`
}

type anthropicChatResponse struct {
	ID         string                  `json:"id"`
	Type       string                  `json:"type"`
	Role       string                  `json:"role"`
	Content    []anthropicContentBlock `json:"content"`
	Model      string                  `json:"model"`
	StopReason string                  `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func NewAnthropicService(apiKey string, modelName string, logger *slog.Logger) *AnthropicService {
	if modelName == "" {
		modelName = DefaultAnthropicModel
	}
	return &AnthropicService{
		apiKey:    apiKey,
		modelName: modelName,
		baseURL:   anthropicBaseURL,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		logger: logger,
	}
}

func (a *AnthropicService) InitModel(ctx context.Context, modelName string) error {
	if modelName != "" {
		a.modelName = modelName
	}
	return nil
}

// splitChatMessages combines all system messages into a single system
// prompt and converts the rest to Anthropic roles.
func (a *AnthropicService) splitChatMessages(messages []chat.ChatMessage) (string, []anthropicMessage) {
	var systemParts []string
	var conversation []anthropicMessage

	for _, msg := range messages {
		switch msg.Role {
		case chat.ChatRoleSystem:
			systemParts = append(systemParts, msg.Content)
		case chat.ChatRoleAgent:
			conversation = append(conversation, anthropicMessage{Role: "assistant", Content: msg.Content})
		default:
			conversation = append(conversation, anthropicMessage{Role: "user", Content: msg.Content})
		}
	}

	return strings.Join(systemParts, "\n\n"), conversation
}

func anthropicTools(tools []chat.ToolDefinition) []anthropicTool {
	out := make([]anthropicTool, 0, len(tools))
	for _, t := range tools {
		properties := make(map[string]any, len(t.Params))
		required := make([]string, 0, len(t.Params))
		for _, p := range t.Params {
			properties[p.Name] = map[string]any{
				"type":        p.Type,
				"description": p.Description,
			}
			if p.Required {
				required = append(required, p.Name)
			}
		}
		out = append(out, anthropicTool{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: map[string]any{
				"type":       "object",
				"properties": properties,
				"required":   required,
			},
		})
	}
	return out
}

func (a *AnthropicService) chatCompletion(ctx context.Context, req anthropicChatRequest) (*anthropicChatResponse, error) {
	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", a.baseURL+"/messages", bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Set required Anthropic headers
	httpReq.Header.Set("x-api-key", a.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)
	httpReq.Header.Set("content-type", "application/json")

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var anthropicResp anthropicChatResponse
	if err := json.Unmarshal(body, &anthropicResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if anthropicResp.Error != nil {
		return nil, fmt.Errorf("API error: %s", anthropicResp.Error.Message)
	}
	return &anthropicResp, nil
}

func (a *AnthropicService) Generate(ctx context.Context, messages []chat.ChatMessage, tools []chat.ToolDefinition, exec ToolExecutor) (*chat.GenerateResult, error) {
	systemPrompt, conversation := a.splitChatMessages(messages)

	temperature := DefaultAnthropicTemperature
	req := anthropicChatRequest{
		Model:       a.modelName,
		MaxTokens:   DefaultAnthropicMaxTokens,
		Temperature: &temperature,
		System:      systemPrompt,
		Messages:    conversation,
	}
	if len(tools) > 0 {
		req.Tools = anthropicTools(tools)
	}

	// Every fetched response is split before deciding whether to
	// continue, so narrative text from the final round is never lost.
	result := &chat.GenerateResult{}
	for round := 0; ; round++ {
		resp, err := a.chatCompletion(ctx, req)
		if err != nil {
			return nil, err
		}

		var toolUses []anthropicContentBlock
		for _, block := range resp.Content {
			switch block.Type {
			case "text":
				result.Text += block.Text
			case "tool_use":
				toolUses = append(toolUses, block)
			}
		}

		if resp.StopReason != "tool_use" || len(toolUses) == 0 || exec == nil {
			break
		}
		if round == MaxToolIterations {
			a.logger.Warn("Tool round limit reached, ignoring further calls", "model", a.modelName)
			break
		}

		// Echo the assistant turn, then answer every tool call.
		req.Messages = append(req.Messages, anthropicMessage{Role: "assistant", Content: resp.Content})
		var results []anthropicContentBlock
		for _, use := range toolUses {
			call := chat.ToolCall{ID: use.ID, Name: use.Name, Args: use.Input}
			result.ToolCalls = append(result.ToolCalls, call)

			toolResult := exec(ctx, call)
			content, err := json.Marshal(toolResultPayload(toolResult))
			if err != nil {
				content = []byte(`{"success":false}`)
			}
			results = append(results, anthropicContentBlock{
				Type:      "tool_result",
				ToolUseID: use.ID,
				Content:   string(content),
			})
		}
		req.Messages = append(req.Messages, anthropicMessage{Role: "user", Content: results})
	}

	if result.Text == "" && !result.HasToolCalls() {
		return nil, fmt.Errorf("anthropic returned an empty response")
	}
	return result, nil
}
