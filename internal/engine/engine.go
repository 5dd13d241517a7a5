// Package engine sequences one game turn: validate the player's
// action, retrieve grounded book content, generate narrative, check
// compliance, apply mutations, and detect game-ending conditions.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/gamebook-engine/internal/services"
	"github.com/jwebster45206/gamebook-engine/internal/storage"
	"github.com/jwebster45206/gamebook-engine/pkg/chat"
	"github.com/jwebster45206/gamebook-engine/pkg/dice"
	"github.com/jwebster45206/gamebook-engine/pkg/state"
	"github.com/jwebster45206/gamebook-engine/pkg/textfilter"
)

var (
	// ErrTurnInFlight is returned when a turn arrives for a session
	// that is still processing its previous turn.
	ErrTurnInFlight = errors.New("a turn is already in progress for this session")

	// ErrSessionNotFound is returned for unknown session IDs.
	ErrSessionNotFound = errors.New("session not found")

	// ErrBookNotFound is returned when a session references a book
	// that no longer exists.
	ErrBookNotFound = errors.New("book not found")

	// ErrUpstreamUnavailable is returned when the LLM or vector
	// search stayed unavailable after a retry. Retryable.
	ErrUpstreamUnavailable = errors.New("upstream service unavailable")
)

// Engine orchestrates turns. Different sessions run in parallel;
// turns within one session are mutually exclusive because the state
// updater assumes a single writer.
type Engine struct {
	llm       services.LLMService
	retriever services.Retriever
	storage   storage.Storage
	logger    *slog.Logger

	topK       int
	llmTimeout time.Duration
	roller     *dice.Roller
	filter     *textfilter.NarrationFilter

	mu       sync.Mutex
	inFlight map[uuid.UUID]bool
}

// New creates an engine with default settings.
func New(llm services.LLMService, retriever services.Retriever, store storage.Storage, logger *slog.Logger) *Engine {
	return &Engine{
		llm:        llm,
		retriever:  retriever,
		storage:    store,
		logger:     logger,
		topK:       3,
		llmTimeout: 30 * time.Second,
		roller:     dice.NewRoller(nil),
		filter:     textfilter.NewNarrationFilter(),
		inFlight:   make(map[uuid.UUID]bool),
	}
}

// WithTopK sets how many retrieval hits are requested per turn.
func (e *Engine) WithTopK(k int) *Engine {
	e.topK = k
	return e
}

// WithLLMTimeout bounds each generation call.
func (e *Engine) WithLLMTimeout(d time.Duration) *Engine {
	e.llmTimeout = d
	return e
}

// WithRoller replaces the dice source, used by tests for determinism.
func (e *Engine) WithRoller(r *dice.Roller) *Engine {
	e.roller = r
	return e
}

// acquireSession marks a session busy, failing if a turn is already
// running for it.
func (e *Engine) acquireSession(id uuid.UUID) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.inFlight[id] {
		return ErrTurnInFlight
	}
	e.inFlight[id] = true
	return nil
}

func (e *Engine) releaseSession(id uuid.UUID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.inFlight, id)
}

// NewSession creates a game session for a book, rolling starting
// stats by the standard rules: skill 1d6+6, stamina 2d6+12, luck
// 1d6+6.
func (e *Engine) NewSession(ctx context.Context, bookID string) (*state.GameState, error) {
	b, err := e.storage.GetBook(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("failed to load book: %w", err)
	}
	if b == nil {
		return nil, ErrBookNotFound
	}

	skill, _ := e.roller.RollNotation("1d6+6")
	stamina, _ := e.roller.RollNotation("2d6+12")
	luck, _ := e.roller.RollNotation("1d6+6")

	gs := state.NewGameState(b.ID, b.StartSection, state.Stats{
		Skill:          skill.Total,
		InitialSkill:   skill.Total,
		Stamina:        stamina.Total,
		InitialStamina: stamina.Total,
		Luck:           luck.Total,
	})

	if b.OpeningNarrative != "" {
		gs.ChatHistory = append(gs.ChatHistory, chat.ChatMessage{
			Role:    chat.ChatRoleAgent,
			Content: b.OpeningNarrative,
		})
	}

	if err := e.storage.SaveGameState(ctx, gs.ID, gs); err != nil {
		return nil, fmt.Errorf("failed to save new session: %w", err)
	}
	e.logger.Info("Session created",
		"session_id", gs.ID,
		"book_id", b.ID,
		"skill", gs.Stats.Skill,
		"stamina", gs.Stats.Stamina,
		"luck", gs.Stats.Luck)
	return gs, nil
}
