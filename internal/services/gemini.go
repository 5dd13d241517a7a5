package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/jwebster45206/gamebook-engine/pkg/chat"
)

const (
	DefaultGeminiModel       = "gemini-2.5-flash"
	DefaultGeminiTemperature = 0.7
)

// GeminiService implements LLMService using the Gemini API.
type GeminiService struct {
	client    *genai.Client
	modelName string
	logger    *slog.Logger
}

var _ LLMService = (*GeminiService)(nil)

// NewGeminiService creates a Gemini-backed LLM service.
func NewGeminiService(ctx context.Context, apiKey string, modelName string, logger *slog.Logger) (*GeminiService, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	if modelName == "" {
		modelName = DefaultGeminiModel
	}
	return &GeminiService{
		client:    client,
		modelName: modelName,
		logger:    logger,
	}, nil
}

func (g *GeminiService) InitModel(ctx context.Context, modelName string) error {
	if modelName != "" {
		g.modelName = modelName
	}
	return nil
}

// Close releases the underlying API client.
func (g *GeminiService) Close() error {
	return g.client.Close()
}

func (g *GeminiService) Generate(ctx context.Context, messages []chat.ChatMessage, tools []chat.ToolDefinition, exec ToolExecutor) (*chat.GenerateResult, error) {
	model := g.client.GenerativeModel(g.modelName)
	model.SetTemperature(DefaultGeminiTemperature)

	system, history, last := splitForGemini(messages)
	if system != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(system)},
		}
	}
	if len(tools) > 0 {
		model.Tools = []*genai.Tool{{FunctionDeclarations: geminiDeclarations(tools)}}
	}

	session := model.StartChat()
	session.History = history

	resp, err := session.SendMessage(ctx, genai.Text(last))
	if err != nil {
		return nil, fmt.Errorf("gemini generation failed: %w", err)
	}

	// Every fetched response is split before deciding whether to
	// continue, so narrative text from the final round is never lost.
	result := &chat.GenerateResult{}
	for round := 0; ; round++ {
		text, calls := splitGeminiResponse(resp)
		result.Text += text
		if len(calls) == 0 || exec == nil {
			break
		}
		if round == MaxToolIterations {
			g.logger.Warn("Tool round limit reached, ignoring further calls", "model", g.modelName)
			break
		}

		var responses []genai.Part
		for _, call := range calls {
			result.ToolCalls = append(result.ToolCalls, call)
			toolResult := exec(ctx, call)
			responses = append(responses, genai.FunctionResponse{
				Name:     call.Name,
				Response: toolResultPayload(toolResult),
			})
		}

		resp, err = session.SendMessage(ctx, responses...)
		if err != nil {
			return nil, fmt.Errorf("gemini tool continuation failed: %w", err)
		}
	}

	if result.Text == "" && !result.HasToolCalls() {
		return nil, fmt.Errorf("gemini returned an empty response")
	}
	return result, nil
}

// splitForGemini partitions chat messages into a system instruction,
// prior history, and the final user message that drives the turn.
func splitForGemini(messages []chat.ChatMessage) (string, []*genai.Content, string) {
	var system string
	var history []*genai.Content

	for _, msg := range messages {
		switch msg.Role {
		case chat.ChatRoleSystem:
			if system != "" {
				system += "\n\n"
			}
			system += msg.Content
		case chat.ChatRoleAgent:
			history = append(history, &genai.Content{
				Role:  "model",
				Parts: []genai.Part{genai.Text(msg.Content)},
			})
		default:
			history = append(history, &genai.Content{
				Role:  "user",
				Parts: []genai.Part{genai.Text(msg.Content)},
			})
		}
	}

	last := "Continue the story."
	if n := len(history); n > 0 && history[n-1].Role == "user" {
		if text, ok := history[n-1].Parts[0].(genai.Text); ok {
			last = string(text)
			history = history[:n-1]
		}
	}
	return system, history, last
}

func geminiDeclarations(tools []chat.ToolDefinition) []*genai.FunctionDeclaration {
	decls := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, t := range tools {
		properties := make(map[string]*genai.Schema, len(t.Params))
		var required []string
		for _, p := range t.Params {
			properties[p.Name] = &genai.Schema{
				Type:        geminiType(p.Type),
				Description: p.Description,
			}
			if p.Required {
				required = append(required, p.Name)
			}
		}
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        t.Name,
			Description: t.Description,
			Parameters: &genai.Schema{
				Type:       genai.TypeObject,
				Properties: properties,
				Required:   required,
			},
		})
	}
	return decls
}

func geminiType(t string) genai.Type {
	switch t {
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	default:
		return genai.TypeString
	}
}

// splitGeminiResponse separates narrative text from function calls in
// a model response.
func splitGeminiResponse(resp *genai.GenerateContentResponse) (string, []chat.ToolCall) {
	var text string
	var calls []chat.ToolCall

	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for i, part := range cand.Content.Parts {
			switch p := part.(type) {
			case genai.Text:
				text += string(p)
			case genai.FunctionCall:
				args, err := json.Marshal(p.Args)
				if err != nil {
					args = []byte("{}")
				}
				calls = append(calls, chat.ToolCall{
					ID:   fmt.Sprintf("%s-%d", p.Name, i),
					Name: p.Name,
					Args: args,
				})
			}
		}
	}
	return text, calls
}

func toolResultPayload(r chat.ToolResult) map[string]any {
	payload := map[string]any{
		"success": r.Success,
	}
	if r.Message != "" {
		payload["message"] = r.Message
	}
	if r.Value != nil {
		payload["value"] = r.Value
	}
	return payload
}
