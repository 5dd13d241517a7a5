package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/gamebook-engine/pkg/chat"
	"github.com/jwebster45206/gamebook-engine/pkg/state"
)

type ErrorHandlingMode string

const ErrorHandlingExit ErrorHandlingMode = "exit"
const ErrorHandlingContinue ErrorHandlingMode = "continue"

// Runner executes integration tests against a running gamebook-engine API
type Runner struct {
	BaseURL           string
	Client            *http.Client
	Logger            func(format string, args ...interface{})
	ErrorHandlingMode ErrorHandlingMode
	BookOverride      string // If set, overrides the book for all test cases
}

// NewRunner creates a new test runner
func NewRunner(baseURL string) *Runner {
	return &Runner{
		BaseURL:           strings.TrimSuffix(baseURL, "/"),
		Client:            &http.Client{Timeout: 120 * time.Second},
		ErrorHandlingMode: ErrorHandlingContinue,
	}
}

// LoadTestSuite loads a test suite from a JSON file
func LoadTestSuite(filename string) (TestSuite, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return TestSuite{}, fmt.Errorf("failed to read test file %s: %w", filename, err)
	}

	var suite TestSuite
	if err := json.Unmarshal(content, &suite); err != nil {
		return TestSuite{}, fmt.Errorf("failed to parse JSON in %s: %w", filename, err)
	}

	return suite, nil
}

// LoadTestSuiteWithExpansion loads a test suite and expands it if it's a sequence
// Returns a list of actual test suites (expanded from the sequence if needed)
func LoadTestSuiteWithExpansion(filename string, casesDir string) ([]TestJob, error) {
	suite, err := LoadTestSuite(filename)
	if err != nil {
		return nil, err
	}

	// If this is not a sequence, return it as-is
	if !suite.IsSequence() {
		return []TestJob{{
			Name:     suite.Name,
			Suite:    suite,
			CaseFile: filename,
		}}, nil
	}

	// This is a sequence - load all referenced cases
	var jobs []TestJob
	for _, caseFile := range suite.Cases {
		casePath := filepath.Join(casesDir, caseFile)

		// Recursively load (in case a sequence references another sequence)
		subJobs, err := LoadTestSuiteWithExpansion(casePath, casesDir)
		if err != nil {
			return nil, fmt.Errorf("failed to load case '%s' referenced by sequence '%s': %w", caseFile, suite.Name, err)
		}
		jobs = append(jobs, subJobs...)
	}

	return jobs, nil
}

// RunSuite executes a complete test suite
func (r *Runner) RunSuite(ctx context.Context, suite TestSuite) (TestRunResult, error) {
	start := time.Now()
	result := TestRunResult{
		Job: TestJob{
			Name:  suite.Name,
			Suite: suite,
		},
		Results: make([]TestResult, 0, len(suite.Steps)),
	}

	book := suite.Book
	if r.BookOverride != "" {
		book = r.BookOverride
	}

	sessionID, err := r.createSession(ctx, book)
	if err != nil {
		result.Error = fmt.Errorf("failed to create session: %w", err)
		result.Duration = time.Since(start)
		return result, result.Error
	}
	result.Session = sessionID
	defer func() { _ = r.deleteSession(context.Background(), sessionID) }()

	// Execute each test step
	for i, step := range suite.Steps {
		r.Logger("    [%d/%d] Running step: %s", i+1, len(suite.Steps), step.Name)

		var stepResult TestResult
		if step.Action == NewSessionPrompt {
			stepResult, sessionID = r.restartSession(ctx, sessionID, book, step)
			result.Session = sessionID
		} else {
			stepResult = r.executeStep(ctx, sessionID, step)
		}
		result.Results = append(result.Results, stepResult)

		if stepResult.Error != nil {
			r.Logger("    [%d/%d] ✗ %s: %v", i+1, len(suite.Steps), step.Name, stepResult.Error)
			if result.Error == nil {
				result.Error = fmt.Errorf("step %d (%s) failed: %w", i, step.Name, stepResult.Error)
			}
			// Break only if error handling mode is "exit"
			if r.ErrorHandlingMode == ErrorHandlingExit {
				break
			}
			continue
		}

		r.Logger("    [%d/%d] ✓ %s (%v)", i+1, len(suite.Steps), step.Name, stepResult.Duration)
	}

	result.Duration = time.Since(start)
	return result, result.Error
}

// restartSession deletes the current session and starts a fresh one,
// checking the step's expectations against the opening state.
func (r *Runner) restartSession(ctx context.Context, oldSessionID uuid.UUID, book string, step TestStep) (TestResult, uuid.UUID) {
	start := time.Now()
	result := TestResult{StepName: step.Name, IsReset: true}

	_ = r.deleteSession(ctx, oldSessionID)

	sessionID, err := r.createSession(ctx, book)
	if err != nil {
		result.Error = fmt.Errorf("failed to create fresh session: %w", err)
		result.Duration = time.Since(start)
		return result, oldSessionID
	}

	gs, err := r.getGameState(ctx, sessionID)
	if err != nil {
		result.Error = fmt.Errorf("failed to get fresh gamestate: %w", err)
		result.Duration = time.Since(start)
		return result, sessionID
	}

	if err := r.checkExpectations(step.Expectations, gs, ""); err != nil {
		result.Error = fmt.Errorf("fresh session expectation failed: %w", err)
		result.Duration = time.Since(start)
		return result, sessionID
	}

	result.Success = true
	result.ResponseText = "[NEW SESSION]"
	result.Duration = time.Since(start)
	return result, sessionID
}

// executeStep sends one turn and checks expectations
func (r *Runner) executeStep(ctx context.Context, sessionID uuid.UUID, step TestStep) TestResult {
	start := time.Now()
	result := TestResult{StepName: step.Name}

	turnResp, err := r.sendTurn(ctx, sessionID, step.Action)
	if err != nil {
		result.Error = fmt.Errorf("failed to send turn: %w", err)
		result.Duration = time.Since(start)
		return result
	}
	result.ResponseText = turnResp.Narrative

	gs, err := r.getGameState(ctx, sessionID)
	if err != nil {
		result.Error = fmt.Errorf("failed to get gamestate after turn: %w", err)
		result.Duration = time.Since(start)
		return result
	}

	// Rejected actions surface in the response error field; the
	// narrative still carries the refusal text for content checks.
	responseText := turnResp.Narrative
	if turnResp.Error != "" {
		responseText = turnResp.Error
	}

	if err := r.checkExpectations(step.Expectations, gs, responseText); err != nil {
		result.Error = fmt.Errorf("expectation failed: %w", err)
		result.Duration = time.Since(start)
		return result
	}

	result.Success = true
	result.Duration = time.Since(start)
	return result
}

// createSession starts a new play session for a book
func (r *Runner) createSession(ctx context.Context, book string) (uuid.UUID, error) {
	createBody, err := json.Marshal(map[string]string{"book": book})
	if err != nil {
		return uuid.UUID{}, fmt.Errorf("failed to marshal create request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", r.BaseURL+"/v1/gamestate", bytes.NewBuffer(createBody))
	if err != nil {
		return uuid.UUID{}, fmt.Errorf("failed to create POST request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.Client.Do(req)
	if err != nil {
		return uuid.UUID{}, fmt.Errorf("failed to create session: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return uuid.UUID{}, fmt.Errorf("create session returned %d: %s", resp.StatusCode, string(body))
	}

	var gs state.GameState
	if err := json.NewDecoder(resp.Body).Decode(&gs); err != nil {
		return uuid.UUID{}, fmt.Errorf("failed to decode created gamestate: %w", err)
	}
	return gs.ID, nil
}

// sendTurn posts a player action and returns the turn response
func (r *Runner) sendTurn(ctx context.Context, sessionID uuid.UUID, action string) (*chat.TurnResponse, error) {
	turnBody, err := json.Marshal(chat.TurnRequest{SessionID: sessionID, Action: action})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal turn request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", r.BaseURL+"/v1/turn", bytes.NewBuffer(turnBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create POST request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send turn: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("turn returned %d: %s", resp.StatusCode, string(body))
	}

	var turnResp chat.TurnResponse
	if err := json.NewDecoder(resp.Body).Decode(&turnResp); err != nil {
		return nil, fmt.Errorf("failed to decode turn response: %w", err)
	}
	return &turnResp, nil
}

// getGameState retrieves the current gamestate
func (r *Runner) getGameState(ctx context.Context, sessionID uuid.UUID) (*state.GameState, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", r.BaseURL+"/v1/gamestate/"+sessionID.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create GET request: %w", err)
	}

	resp, err := r.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get gamestate: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("get gamestate returned %d: %s", resp.StatusCode, string(body))
	}

	var gs state.GameState
	if err := json.NewDecoder(resp.Body).Decode(&gs); err != nil {
		return nil, fmt.Errorf("failed to decode gamestate: %w", err)
	}
	return &gs, nil
}

// deleteSession removes a session after a test run
func (r *Runner) deleteSession(ctx context.Context, sessionID uuid.UUID) error {
	req, err := http.NewRequestWithContext(ctx, "DELETE", r.BaseURL+"/v1/gamestate/"+sessionID.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to create DELETE request: %w", err)
	}

	resp, err := r.Client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("delete session returned %d", resp.StatusCode)
	}
	return nil
}

// checkExpectations validates the test expectations against the actual gamestate
func (r *Runner) checkExpectations(exp Expectations, gs *state.GameState, responseText string) error {
	if exp.CurrentSection != nil {
		if gs.CurrentSection != *exp.CurrentSection {
			return fmt.Errorf("expected current_section %d, got %d", *exp.CurrentSection, gs.CurrentSection)
		}
	}

	// Full inventory check (order independent)
	if len(exp.Inventory) > 0 {
		expected := make(map[string]bool)
		for _, item := range exp.Inventory {
			expected[item] = true
		}

		actual := make(map[string]bool)
		for _, item := range gs.Inventory {
			actual[item] = true
		}

		for expectedItem := range expected {
			if !actual[expectedItem] {
				return fmt.Errorf("expected inventory to contain '%s', but it's missing. Actual inventory: %v", expectedItem, gs.Inventory)
			}
		}
		for actualItem := range actual {
			if !expected[actualItem] {
				return fmt.Errorf("inventory contains unexpected item '%s'. Expected inventory: %v, Actual: %v", actualItem, exp.Inventory, gs.Inventory)
			}
		}
	}

	if len(exp.VisitedContains) > 0 {
		visited := make(map[int]bool)
		for _, s := range gs.Visited {
			visited[s] = true
		}
		for _, want := range exp.VisitedContains {
			if !visited[want] {
				return fmt.Errorf("expected visited to contain section %d, got %v", want, gs.Visited)
			}
		}
	}

	if exp.InCombat != nil {
		if gs.InCombat != *exp.InCombat {
			return fmt.Errorf("expected in_combat to be %t, got %t", *exp.InCombat, gs.InCombat)
		}
	}
	if exp.GameOver != nil {
		if gs.GameOver != *exp.GameOver {
			return fmt.Errorf("expected game_over to be %t, got %t", *exp.GameOver, gs.GameOver)
		}
	}
	if exp.Victory != nil {
		if gs.Victory != *exp.Victory {
			return fmt.Errorf("expected victory to be %t, got %t", *exp.Victory, gs.Victory)
		}
	}

	// Adventure sheet checks
	if exp.Skill != nil && gs.Stats.Skill != *exp.Skill {
		return fmt.Errorf("expected skill %d, got %d", *exp.Skill, gs.Stats.Skill)
	}
	if exp.Stamina != nil && gs.Stats.Stamina != *exp.Stamina {
		return fmt.Errorf("expected stamina %d, got %d", *exp.Stamina, gs.Stats.Stamina)
	}
	if exp.Luck != nil && gs.Stats.Luck != *exp.Luck {
		return fmt.Errorf("expected luck %d, got %d", *exp.Luck, gs.Stats.Luck)
	}
	if exp.Gold != nil && gs.Stats.Gold != *exp.Gold {
		return fmt.Errorf("expected gold %d, got %d", *exp.Gold, gs.Stats.Gold)
	}

	// Response content checks
	if len(exp.ResponseContains) > 0 {
		lowerResponse := strings.ToLower(responseText)
		for _, expectedText := range exp.ResponseContains {
			if !strings.Contains(lowerResponse, strings.ToLower(expectedText)) {
				return fmt.Errorf("expected response to contain '%s', but it didn't", expectedText)
			}
		}
	}

	if len(exp.ResponseNotContains) > 0 {
		lowerResponse := strings.ToLower(responseText)
		for _, unexpectedText := range exp.ResponseNotContains {
			if strings.Contains(lowerResponse, strings.ToLower(unexpectedText)) {
				return fmt.Errorf("expected response to NOT contain '%s', but it did", unexpectedText)
			}
		}
	}

	// Regex check
	if exp.ResponseRegex != "" {
		matched, err := regexp.MatchString(exp.ResponseRegex, responseText)
		if err != nil {
			return fmt.Errorf("invalid regex pattern: %w", err)
		}
		if !matched {
			return fmt.Errorf("response didn't match regex pattern: %s", exp.ResponseRegex)
		}
	}

	// Response length checks
	if exp.ResponseMinLength != nil {
		if len(responseText) < *exp.ResponseMinLength {
			return fmt.Errorf("expected response length >= %d, got %d", *exp.ResponseMinLength, len(responseText))
		}
	}
	if exp.ResponseMaxLength != nil {
		if len(responseText) > *exp.ResponseMaxLength {
			return fmt.Errorf("expected response length <= %d, got %d", *exp.ResponseMaxLength, len(responseText))
		}
	}

	return nil
}
