package chat

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

const (
	ChatRoleUser   = "user"      // Player
	ChatRoleAgent  = "assistant" // Narrator response
	ChatRoleSystem = "system"    // Game master instructions
)

// ChatMessage represents a single chat message in the conversation.
// Roles follow the common LLM chat API convention.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// TurnRequest represents a player turn submitted to the gamebook api.
type TurnRequest struct {
	SessionID uuid.UUID `json:"session_id"`
	Action    string    `json:"action"`
}

func (tr *TurnRequest) Validate() error {
	if tr.SessionID == uuid.Nil {
		return fmt.Errorf("session_id is required")
	}
	if tr.Action == "" {
		return fmt.Errorf("action cannot be empty")
	}
	return nil
}

// TurnResponse is the player-facing result of a processed turn.
// It exposes public stats only; raw section text and internal flags
// stay server-side.
type TurnResponse struct {
	SessionID      uuid.UUID      `json:"session_id"`
	Narrative      string         `json:"narrative"`
	Stats          map[string]int `json:"stats,omitempty"`
	Inventory      []string       `json:"inventory,omitempty"`
	CurrentSection int            `json:"current_section"`
	InCombat       bool           `json:"in_combat"`
	GameOver       bool           `json:"game_over"`
	Victory        bool           `json:"victory"`
	Error          string         `json:"error,omitempty"`
}

// ToolCall is a single function invocation requested by the model
// during tool-augmented generation. Args is the raw JSON argument
// object exactly as the model produced it; the engine re-validates
// every call before applying anything.
type ToolCall struct {
	ID   string          `json:"id,omitempty"`
	Name string          `json:"name"`
	Args json.RawMessage `json:"args"`
}

// ToolResult is the outcome of executing (or rejecting) a ToolCall.
// It is serialized back to the model so generation can continue.
type ToolResult struct {
	ID      string `json:"id,omitempty"`
	Name    string `json:"name"`
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Value   any    `json:"value,omitempty"`
}

// GenerateResult is the output of one LLM generation call.
// Text may be empty on intermediate rounds of a tool loop where the
// model only requested tool calls.
type GenerateResult struct {
	Text      string
	ToolCalls []ToolCall
}

// HasToolCalls reports whether the model requested any tool invocations.
func (gr *GenerateResult) HasToolCalls() bool {
	return gr != nil && len(gr.ToolCalls) > 0
}
