package runner

import (
	"time"

	"github.com/google/uuid"
)

// Special action values that trigger non-turn behavior
const (
	// NewSessionPrompt discards the current session and starts a
	// fresh one for the suite's book.
	NewSessionPrompt = "NEW_SESSION"
)

// TestSuite defines a complete integration test scenario
// Can either be a regular test with Steps, or a suite that references other Cases
type TestSuite struct {
	Name  string     `json:"name"`
	Book  string     `json:"book,omitempty"`  // Used for regular tests
	Steps []TestStep `json:"steps,omitempty"` // Used for regular tests
	Cases []string   `json:"cases,omitempty"` // Used for suite tests (list of case files)
}

// IsSequence returns true if this is a suite that sequences other cases
func (ts *TestSuite) IsSequence() bool {
	return len(ts.Cases) > 0
}

// TestStep defines a single test interaction and its expected outcomes
// Use action: "NEW_SESSION" to restart play from the book's opening
type TestStep struct {
	Name         string       `json:"name,omitempty"`
	Action       string       `json:"action"`
	Expectations Expectations `json:"expect"`
}

// Expectations defines what to check after a test step executes
type Expectations struct {
	// Game state properties - aligned with pkg/state/gamestate.go
	CurrentSection  *int     `json:"current_section,omitempty"`
	Inventory       []string `json:"inventory,omitempty"` // Full inventory contents (order independent)
	VisitedContains []int    `json:"visited_contains,omitempty"`
	InCombat        *bool    `json:"in_combat,omitempty"`
	GameOver        *bool    `json:"game_over,omitempty"`
	Victory         *bool    `json:"victory,omitempty"`

	// Adventure sheet stats
	Skill   *int `json:"skill,omitempty"`
	Stamina *int `json:"stamina,omitempty"`
	Luck    *int `json:"luck,omitempty"`
	Gold    *int `json:"gold,omitempty"`

	// Response Analysis
	ResponseContains    []string `json:"response_contains,omitempty"`
	ResponseNotContains []string `json:"response_not_contains,omitempty"`
	ResponseRegex       string   `json:"response_regex,omitempty"`
	ResponseMinLength   *int     `json:"response_min_length,omitempty"`
	ResponseMaxLength   *int     `json:"response_max_length,omitempty"`
}

// TestResult contains the outcome of running a test step
type TestResult struct {
	TestName     string
	StepName     string
	Success      bool
	Error        error
	Duration     time.Duration
	ResponseText string
	IsReset      bool // True if this was a NEW_SESSION step (should not count toward pass/fail metrics)
}

// TestJob represents a test suite to be executed by a worker
type TestJob struct {
	Name     string
	Suite    TestSuite
	CaseFile string
}

// TestRunResult contains the results of running an entire test suite
type TestRunResult struct {
	Job      TestJob
	Results  []TestResult
	Error    error
	Duration time.Duration
	Session  uuid.UUID // ID of the session used for this test
}
