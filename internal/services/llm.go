package services

import (
	"context"

	"github.com/jwebster45206/gamebook-engine/pkg/chat"
)

// MaxToolIterations bounds the tool-call round trips in a single
// generation, preventing unbounded back-and-forth with the model.
const MaxToolIterations = 5

// ToolExecutor resolves one tool call proposed by the model. The
// executor validates the call before acting; a failed result tells
// the model the change did not happen.
type ToolExecutor func(ctx context.Context, call chat.ToolCall) chat.ToolResult

// LLMService defines the interface for narrative generation backends.
type LLMService interface {
	// InitModel initializes the LLM model on startup
	InitModel(ctx context.Context, modelName string) error

	// Generate produces narrative text for the given messages. When
	// tools are provided the model may call them; each call is passed
	// to exec and its result fed back, for at most MaxToolIterations
	// rounds. The returned result carries the final text plus every
	// tool call that was attempted.
	Generate(ctx context.Context, messages []chat.ChatMessage, tools []chat.ToolDefinition, exec ToolExecutor) (*chat.GenerateResult, error)
}
