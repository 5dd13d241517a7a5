package prompts

import (
	"fmt"

	"github.com/jwebster45206/gamebook-engine/pkg/book"
	"github.com/jwebster45206/gamebook-engine/pkg/chat"
	"github.com/jwebster45206/gamebook-engine/pkg/state"
)

// Builder constructs the chat messages for one generation call using a
// fluent interface. It separates prompt assembly from turn logic.
type Builder struct {
	gs           *state.GameState
	book         *book.Book
	retrieval    *book.RetrievalResult
	signals      book.ExtractedSignals
	userAction   string
	historyLimit int
	toolUse      bool
	retryNote    string
	diceResults  []string
}

// New creates a prompt builder with default settings.
func New() *Builder {
	return &Builder{
		historyLimit: 20,
	}
}

// WithGameState sets the session state.
func (b *Builder) WithGameState(gs *state.GameState) *Builder {
	b.gs = gs
	return b
}

// WithBook sets the book being played.
func (b *Builder) WithBook(bk *book.Book) *Builder {
	b.book = bk
	return b
}

// WithRetrieval sets the consolidated scene content and its extracted
// signals.
func (b *Builder) WithRetrieval(r book.RetrievalResult, signals book.ExtractedSignals) *Builder {
	b.retrieval = &r
	b.signals = signals
	return b
}

// WithUserAction sets the player's free-text action for this turn.
func (b *Builder) WithUserAction(action string) *Builder {
	b.userAction = action
	return b
}

// WithHistoryLimit sets the chat history window size.
func (b *Builder) WithHistoryLimit(limit int) *Builder {
	b.historyLimit = limit
	return b
}

// WithToolUse enables the tool-calling instructions.
func (b *Builder) WithToolUse(enabled bool) *Builder {
	b.toolUse = enabled
	return b
}

// WithRetryNote appends a strengthened constraint message after a
// compliance failure.
func (b *Builder) WithRetryNote(note string) *Builder {
	b.retryNote = note
	return b
}

// WithDiceResults adds authoritative dice outcomes rolled this turn.
func (b *Builder) WithDiceResults(results []string) *Builder {
	b.diceResults = results
	return b
}

// Build assembles the final message array for the LLM.
func (b *Builder) Build() ([]chat.ChatMessage, error) {
	if b.gs == nil {
		return nil, fmt.Errorf("gamestate is required")
	}
	if b.book == nil {
		return nil, fmt.Errorf("book is required")
	}

	messages := make([]chat.ChatMessage, 0, 8)

	system, err := b.systemPrompt()
	if err != nil {
		return nil, fmt.Errorf("error building system prompt: %w", err)
	}
	messages = append(messages, chat.ChatMessage{
		Role:    chat.ChatRoleSystem,
		Content: system,
	})

	messages = b.appendHistory(messages)

	if b.userAction != "" {
		messages = append(messages, chat.ChatMessage{
			Role:    chat.ChatRoleUser,
			Content: b.userAction,
		})
	}

	for _, roll := range b.diceResults {
		messages = append(messages, chat.ChatMessage{
			Role:    chat.ChatRoleSystem,
			Content: "DICE RESULT (authoritative): " + roll,
		})
	}

	if b.retryNote != "" {
		messages = append(messages, chat.ChatMessage{
			Role:    chat.ChatRoleSystem,
			Content: b.retryNote,
		})
	}

	messages = append(messages, chat.ChatMessage{
		Role:    chat.ChatRoleSystem,
		Content: b.finalPrompt(),
	})

	return messages, nil
}

func (b *Builder) systemPrompt() (string, error) {
	system := fmt.Sprintf(BaseSystemPrompt, b.book.Title)

	statePrompt, err := StatePrompt(b.gs)
	if err != nil {
		return "", err
	}
	system += "\n\n" + statePrompt

	if b.retrieval != nil {
		system += "\n\n" + ScenePrompt(*b.retrieval, b.signals)
	}

	if b.toolUse {
		system += "\n\n" + ToolUsePrompt
	}
	return system, nil
}

func (b *Builder) appendHistory(messages []chat.ChatMessage) []chat.ChatMessage {
	history := b.gs.ChatHistory
	if len(history) == 0 {
		return messages
	}
	if len(history) > b.historyLimit {
		history = history[len(history)-b.historyLimit:]
	}
	return append(messages, history...)
}

func (b *Builder) finalPrompt() string {
	if b.gs.GameOver {
		return GameEndSystemPrompt
	}
	return UserPostPrompt
}
