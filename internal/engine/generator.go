package engine

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jwebster45206/gamebook-engine/pkg/book"
	"github.com/jwebster45206/gamebook-engine/pkg/chat"
	"github.com/jwebster45206/gamebook-engine/pkg/compliance"
	"github.com/jwebster45206/gamebook-engine/pkg/prompts"
	"github.com/jwebster45206/gamebook-engine/pkg/rules"
	"github.com/jwebster45206/gamebook-engine/pkg/state"
)

type generateInput struct {
	gs          *state.GameState
	book        *book.Book
	validator   *rules.Validator
	signals     book.ExtractedSignals
	retrieval   book.RetrievalResult
	retrieved   bool
	action      string
	diceResults []string
}

type generateOutput struct {
	narrative string
	mutations []state.Mutation
}

// generate runs tool-augmented generation with one retry on upstream
// failure, then a single compliance-driven regeneration if the text
// leaked out-of-fiction content. The regeneration is plain-mode so
// already-accepted mutations are not proposed twice.
func (e *Engine) generate(ctx context.Context, in generateInput) (*generateOutput, error) {
	messages, err := e.buildMessages(in, "")
	if err != nil {
		return nil, err
	}

	var result *chat.GenerateResult
	var session *toolSession

	maxAttempts := 2
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		// A fresh session per attempt: a failed call must not leave
		// half its tool mutations behind.
		session = newToolSession(e, in)

		callCtx, cancel := context.WithTimeout(ctx, e.llmTimeout)
		result, err = e.llm.Generate(callCtx, messages, chat.GameTools(), session.execute)
		cancel()
		if err == nil {
			break
		}
		e.logger.Warn("Generation failed",
			"session_id", in.gs.ID, "attempt", attempt, "error", err)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}

	narrative := result.Text
	issues := e.checkCompliance(in, session, narrative)
	if compliance.HasHighSeverity(issues) {
		e.logger.Warn("Compliance violation, regenerating",
			"session_id", in.gs.ID, "issues", len(issues))

		narrative, err = e.regenerate(ctx, in, compliance.RetryInstruction(issues), narrative)
		if err != nil {
			e.logger.Warn("Regeneration failed, keeping original narrative",
				"session_id", in.gs.ID, "error", err)
			narrative = result.Text
		}
	}

	return &generateOutput{
		narrative: e.filter.FilterText(narrative),
		mutations: session.mutations,
	}, nil
}

// regenerate asks for a cleaned-up narrative once. Remaining issues
// after the retry are logged and passed through rather than failing
// the turn.
func (e *Engine) regenerate(ctx context.Context, in generateInput, note string, previous string) (string, error) {
	messages, err := e.buildMessages(in, note)
	if err != nil {
		return "", err
	}

	callCtx, cancel := context.WithTimeout(ctx, e.llmTimeout)
	defer cancel()

	result, err := e.llm.Generate(callCtx, messages, nil, nil)
	if err != nil {
		return "", err
	}

	if issues := e.checkCompliance(in, nil, result.Text); compliance.HasHighSeverity(issues) {
		e.logger.Warn("Compliance issues remain after regeneration",
			"session_id", in.gs.ID, "issues", len(issues))
	}
	return result.Text, nil
}

func (e *Engine) buildMessages(in generateInput, retryNote string) ([]chat.ChatMessage, error) {
	builder := prompts.New().
		WithGameState(in.gs).
		WithBook(in.book).
		WithUserAction(in.action).
		WithToolUse(retryNote == "").
		WithDiceResults(in.diceResults)
	if in.retrieved {
		builder = builder.WithRetrieval(in.retrieval, in.signals)
	}
	if retryNote != "" {
		builder = builder.WithRetryNote(retryNote)
	}
	return builder.Build()
}

// checkCompliance scans a narrative against everything legitimately
// nameable this turn: the section whitelist, the inventory, and any
// known enemy.
func (e *Engine) checkCompliance(in generateInput, session *toolSession, narrative string) []compliance.Issue {
	allowed := in.book.AllowedItems(in.gs.CurrentSection)
	allowed = append(allowed, in.gs.Inventory...)

	var enemies []string
	if in.gs.Enemy != nil {
		enemies = append(enemies, in.gs.Enemy.Name)
	}
	if in.signals.Combat != nil {
		enemies = append(enemies, in.signals.Combat.EnemyName)
	}

	diceRolled := len(in.diceResults) > 0
	if session != nil && session.diceRolled {
		diceRolled = true
	}
	return compliance.NewChecker(allowed, enemies).Check(narrative, diceRolled)
}

// toolSession accumulates validated mutations across the tool calls
// of one generation attempt. Every call is re-checked against the
// same rules as direct player actions; the model is never trusted to
// have validated itself.
type toolSession struct {
	engine     *Engine
	validator  *rules.Validator
	signals    book.ExtractedSignals
	working    *state.GameState
	mutations  []state.Mutation
	diceRolled bool
}

func newToolSession(e *Engine, in generateInput) *toolSession {
	return &toolSession{
		engine:    e,
		validator: in.validator,
		signals:   in.signals,
		working:   in.gs.DeepCopy(),
	}
}

// accept records a mutation and applies it to the working copy so
// later calls validate against up-to-date state.
func (ts *toolSession) accept(m state.Mutation) error {
	next, err := state.Apply(ts.working, []state.Mutation{m})
	if err != nil {
		return err
	}
	ts.working = next
	ts.mutations = append(ts.mutations, m)
	return nil
}

func (ts *toolSession) execute(ctx context.Context, call chat.ToolCall) chat.ToolResult {
	result := ts.run(call)
	if !result.Success {
		ts.engine.logger.Debug("Tool call rejected",
			"session_id", ts.working.ID, "tool", call.Name, "message", result.Message)
	}
	result.ID = call.ID
	result.Name = call.Name
	return result
}

func (ts *toolSession) run(call chat.ToolCall) chat.ToolResult {
	switch call.Name {
	case chat.ToolUpdateStat:
		var args struct {
			Stat  string `json:"stat"`
			Delta int    `json:"delta"`
		}
		if err := json.Unmarshal(call.Args, &args); err != nil {
			return failure("invalid arguments")
		}
		if verdict := ts.validator.ValidateStatDelta(args.Stat); !verdict.Valid {
			return failure(verdict.Message)
		}
		m := state.Mutation{Kind: state.MutationStatDelta, Stat: args.Stat, Delta: args.Delta}
		if err := ts.accept(m); err != nil {
			return failure(err.Error())
		}
		return success(fmt.Sprintf("%s adjusted by %d", args.Stat, args.Delta))

	case chat.ToolAddItem:
		var args struct {
			Item string `json:"item"`
		}
		if err := json.Unmarshal(call.Args, &args); err != nil {
			return failure("invalid arguments")
		}
		if verdict := ts.validator.ValidatePickup(ts.working, args.Item); !verdict.Valid {
			return failure(verdict.Message)
		}
		if err := ts.accept(state.Mutation{Kind: state.MutationAddItem, Item: args.Item}); err != nil {
			return failure(err.Error())
		}
		return success(args.Item + " added to inventory")

	case chat.ToolRemoveItem:
		var args struct {
			Item string `json:"item"`
		}
		if err := json.Unmarshal(call.Args, &args); err != nil {
			return failure("invalid arguments")
		}
		if !ts.working.HasItem(args.Item) {
			return failure("not carrying " + args.Item)
		}
		if err := ts.accept(state.Mutation{Kind: state.MutationRemoveItem, Item: args.Item}); err != nil {
			return failure(err.Error())
		}
		return success(args.Item + " removed from inventory")

	case chat.ToolCheckItem:
		var args struct {
			Item string `json:"item"`
		}
		if err := json.Unmarshal(call.Args, &args); err != nil {
			return failure("invalid arguments")
		}
		has := ts.working.HasItem(args.Item)
		r := success(fmt.Sprintf("carrying %s: %v", args.Item, has))
		r.Value = has
		return r

	case chat.ToolAttemptNavigation:
		var args struct {
			Target int `json:"target"`
		}
		if err := json.Unmarshal(call.Args, &args); err != nil {
			return failure("invalid arguments")
		}
		if verdict := ts.validator.ValidateNavigation(ts.working, args.Target, ts.signals.Exits); !verdict.Valid {
			return failure(verdict.Message)
		}
		if err := ts.accept(state.Mutation{Kind: state.MutationNavigate, Target: args.Target}); err != nil {
			return failure(err.Error())
		}
		return success("moved to the new scene")

	case chat.ToolSetFlag:
		var args struct {
			Flag  string `json:"flag"`
			Value string `json:"value"`
		}
		if err := json.Unmarshal(call.Args, &args); err != nil {
			return failure("invalid arguments")
		}
		if verdict := ts.validator.ValidateFlag(args.Flag); !verdict.Valid {
			return failure(verdict.Message)
		}
		m := state.Mutation{
			Kind:      state.MutationSetFlag,
			Flag:      args.Flag,
			FlagValue: args.Value != "false",
		}
		if err := ts.accept(m); err != nil {
			return failure(err.Error())
		}
		return success(args.Flag + " recorded")

	case chat.ToolRollDice:
		var args struct {
			Notation string `json:"notation"`
		}
		if err := json.Unmarshal(call.Args, &args); err != nil {
			return failure("invalid arguments")
		}
		roll, err := ts.engine.roller.RollNotation(args.Notation)
		if err != nil {
			return failure(err.Error())
		}
		ts.diceRolled = true
		r := success(roll.String())
		r.Value = roll.Total
		return r

	default:
		return failure("unknown tool " + call.Name)
	}
}
func success(message string) chat.ToolResult {
	return chat.ToolResult{Success: true, Message: message}
}

func failure(message string) chat.ToolResult {
	return chat.ToolResult{Success: false, Message: message}
}
