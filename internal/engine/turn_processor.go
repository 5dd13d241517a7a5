package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwebster45206/gamebook-engine/pkg/book"
	"github.com/jwebster45206/gamebook-engine/pkg/chat"
	"github.com/jwebster45206/gamebook-engine/pkg/rules"
	"github.com/jwebster45206/gamebook-engine/pkg/state"
)

const gameOverNarrative = "Your adventure has already ended. Start a new game to play again."

// ProcessTurn runs one full turn for a session. The flow is strictly
// linear: validate, retrieve, generate, comply, apply, check terminal.
// A validation rejection short-circuits before retrieval with an
// in-fiction message and zero state changes.
func (e *Engine) ProcessTurn(ctx context.Context, sessionID uuid.UUID, action string) (*chat.TurnResponse, error) {
	if err := e.acquireSession(sessionID); err != nil {
		return nil, err
	}
	defer e.releaseSession(sessionID)

	gs, err := e.storage.LoadGameState(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if gs == nil {
		return nil, ErrSessionNotFound
	}

	if gs.GameOver {
		return e.turnResponse(gs, gameOverNarrative, ""), nil
	}

	b, err := e.storage.GetBook(ctx, gs.BookID)
	if err != nil {
		return nil, fmt.Errorf("failed to load book: %w", err)
	}
	if b == nil {
		return nil, ErrBookNotFound
	}

	// Signals for the current section inform validation (locked
	// doors, combat demands). The lookup is cached and cheap; the
	// expensive vector search waits until validation passes.
	var signals book.ExtractedSignals
	current, err := e.retriever.GetBySection(ctx, gs.BookID, gs.CurrentSection)
	if err != nil {
		e.logger.Warn("Section lookup failed, validating without signals",
			"session_id", sessionID, "section", gs.CurrentSection, "error", err)
	} else if current != nil {
		signals = book.ExtractSignals(current.Content)
	}

	parsed := rules.ParseAction(action)
	validator := rules.NewValidator(b)

	verdict := validator.ValidateAction(gs, parsed, signals)
	if !verdict.Valid {
		e.logger.Info("Action rejected",
			"session_id", sessionID,
			"action_type", parsed.Type,
			"reason", verdict.Reason)
		return e.turnResponse(gs, verdict.Message, verdict.Reason), nil
	}

	// Deterministic mechanics resolve before generation so their
	// outcomes reach the model as authoritative dice results.
	preMuts, diceResults := e.resolveMechanics(gs, parsed, signals)

	retrieval, retrieved := e.retrieve(ctx, gs, current, action)
	if !retrieved && current != nil {
		retrieval = book.RetrievalResult{Primary: *current}
		retrieved = true
	}

	gen, err := e.generate(ctx, generateInput{
		gs:          gs,
		book:        b,
		validator:   validator,
		signals:     signals,
		retrieval:   retrieval,
		retrieved:   retrieved,
		action:      action,
		diceResults: diceResults,
	})
	if err != nil {
		return nil, err
	}

	muts := append(preMuts, gen.mutations...)
	next, err := state.Apply(gs, muts)
	if err != nil {
		// Tool calls were validated before acceptance, so this is a
		// programming error rather than a model failure.
		return nil, fmt.Errorf("failed to apply mutations: %w", err)
	}

	next.ChatHistory = append(next.ChatHistory,
		chat.ChatMessage{Role: chat.ChatRoleUser, Content: action},
		chat.ChatMessage{Role: chat.ChatRoleAgent, Content: gen.narrative},
	)

	terminal := state.CheckTerminal(next, b)
	if terminal.GameOver {
		next.GameOver = true
		next.Victory = terminal.Victory
		e.logger.Info("Game over",
			"session_id", sessionID,
			"victory", terminal.Victory,
			"reason", terminal.Reason)
	}

	// The whole post-turn state persists as one unit; a failure here
	// leaves the previous turn's state intact.
	if err := e.storage.SaveGameState(ctx, sessionID, next); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return e.turnResponse(next, gen.narrative, ""), nil
}

// resolveMechanics runs the rule-driven parts of a turn that must not
// be left to the model: combat rounds, fleeing, luck tests, and
// combat initiation when a hostile stat block is present.
func (e *Engine) resolveMechanics(gs *state.GameState, parsed rules.Action, signals book.ExtractedSignals) ([]state.Mutation, []string) {
	var muts []state.Mutation
	var diceResults []string

	switch {
	case gs.InCombat && parsed.Type == rules.ActionFlee:
		// Fleeing always succeeds but the enemy lands a parting blow:
		// 2 stamina, no roll.
		enemy := "the enemy"
		if gs.Enemy != nil {
			enemy = gs.Enemy.Name
		}
		muts = append(muts,
			state.Mutation{Kind: state.MutationStatDelta, Stat: state.StatStamina, Delta: -2},
			state.Mutation{Kind: state.MutationEndCombat},
		)
		diceResults = append(diceResults,
			fmt.Sprintf("Flee: you escape %s but take a parting blow - you lose 2 stamina", enemy))
	case gs.InCombat && parsed.Type == rules.ActionAttack:
		round, roundMuts, err := state.ResolveCombatRound(gs, e.roller)
		if err == nil {
			muts = append(muts, roundMuts...)
			diceResults = append(diceResults, describeRound(gs, round))
		}
	case !gs.InCombat && signals.Combat != nil &&
		(parsed.Type == rules.ActionAttack || signals.Flags.CombatRequired):
		muts = append(muts, state.Mutation{
			Kind: state.MutationStartCombat,
			Enemy: &state.Enemy{
				Name:    signals.Combat.EnemyName,
				Skill:   signals.Combat.Skill,
				Stamina: signals.Combat.Stamina,
			},
		})
	case parsed.Type == rules.ActionTestLuck:
		res := e.roller.TestLuck(gs.Stats.Luck)
		outcome := "unlucky"
		if res.Success {
			outcome = "lucky"
		}
		diceResults = append(diceResults,
			fmt.Sprintf("Luck test: %s against luck %d - %s", res.Roll.String(), res.Against, outcome))
		// Testing luck always costs one luck point.
		muts = append(muts, state.Mutation{
			Kind:  state.MutationStatDelta,
			Stat:  state.StatLuck,
			Delta: -1,
		})
	}

	return muts, diceResults
}

func describeRound(gs *state.GameState, round state.CombatRound) string {
	enemy := "the enemy"
	if gs.Enemy != nil {
		enemy = gs.Enemy.Name
	}
	switch round.Outcome {
	case "player_hit":
		return fmt.Sprintf("Combat round: your attack %d (%s) beats %s's %d - %s loses 2 stamina",
			round.PlayerAttack, round.PlayerRoll.String(), enemy, round.EnemyAttack, enemy)
	case "enemy_hit":
		return fmt.Sprintf("Combat round: %s's attack %d beats your %d (%s) - you lose 2 stamina",
			enemy, round.EnemyAttack, round.PlayerAttack, round.PlayerRoll.String())
	default:
		return fmt.Sprintf("Combat round: attack strengths tie at %d - blades clash, no wound dealt",
			round.PlayerAttack)
	}
}

// retrieve runs the vector search with one retry, consolidating hits
// around the current section. A failed search degrades to the current
// section's cached record rather than failing the turn.
func (e *Engine) retrieve(ctx context.Context, gs *state.GameState, current *book.SectionRecord, query string) (book.RetrievalResult, bool) {
	var records []book.SectionRecord
	var err error

	maxAttempts := 2
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		records, err = e.retriever.Search(ctx, gs.BookID, query, e.topK)
		if err == nil {
			break
		}
		e.logger.Warn("Vector search failed",
			"session_id", gs.ID, "attempt", attempt, "error", err)
	}
	if err != nil || len(records) == 0 {
		return book.RetrievalResult{}, false
	}

	result, ok := book.Consolidate(records, gs.CurrentSection)
	if !ok {
		return book.RetrievalResult{}, false
	}
	if result.Mismatch {
		e.logger.Warn("Retrieval mismatch, using top-ranked section",
			"session_id", gs.ID,
			"expected_section", gs.CurrentSection,
			"got_section", result.Primary.SectionID)
	}
	return result, true
}

func (e *Engine) turnResponse(gs *state.GameState, narrative string, errCode string) *chat.TurnResponse {
	return &chat.TurnResponse{
		SessionID:      gs.ID,
		Narrative:      narrative,
		Stats:          gs.PublicStats(),
		Inventory:      gs.Inventory,
		CurrentSection: gs.CurrentSection,
		InCombat:       gs.InCombat,
		GameOver:       gs.GameOver,
		Victory:        gs.Victory,
		Error:          errCode,
	}
}
