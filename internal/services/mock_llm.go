package services

import (
	"context"
	"sync"

	"github.com/jwebster45206/gamebook-engine/pkg/chat"
)

// MockLLM is a mock implementation of LLMService for testing
type MockLLM struct {
	InitModelFunc func(ctx context.Context, modelName string) error
	GenerateFunc  func(ctx context.Context, messages []chat.ChatMessage, tools []chat.ToolDefinition, exec ToolExecutor) (*chat.GenerateResult, error)

	// Track calls for testing
	InitModelCalls []string
	GenerateCalls  []GenerateCall

	mu sync.Mutex // protects all fields above
}

type GenerateCall struct {
	Messages []chat.ChatMessage
	Tools    []chat.ToolDefinition
}

var _ LLMService = (*MockLLM)(nil)

// NewMockLLM creates a new mock LLM service
func NewMockLLM() *MockLLM {
	return &MockLLM{
		InitModelCalls: make([]string, 0),
		GenerateCalls:  make([]GenerateCall, 0),
	}
}

func (m *MockLLM) InitModel(ctx context.Context, modelName string) error {
	m.mu.Lock()
	m.InitModelCalls = append(m.InitModelCalls, modelName)
	fn := m.InitModelFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, modelName)
	}
	return nil
}

func (m *MockLLM) Generate(ctx context.Context, messages []chat.ChatMessage, tools []chat.ToolDefinition, exec ToolExecutor) (*chat.GenerateResult, error) {
	m.mu.Lock()
	m.GenerateCalls = append(m.GenerateCalls, GenerateCall{Messages: messages, Tools: tools})
	fn := m.GenerateFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, messages, tools, exec)
	}
	return &chat.GenerateResult{Text: "The story continues."}, nil
}

// CallCount returns how many generations were requested.
func (m *MockLLM) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.GenerateCalls)
}
