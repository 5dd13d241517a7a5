// Package compliance scans generated narrative for out-of-fiction
// leaks and invented game content that the prompt alone did not
// prevent.
package compliance

import (
	"fmt"
	"regexp"
	"strings"
)

// Severity levels for compliance issues.
const (
	SeverityLow  = "low"
	SeverityHigh = "high"
)

// Issue codes.
const (
	IssueInventedItem = "invented_item"
	IssueSectionLeak  = "section_leak"
	IssueDiceClaim    = "dice_claim"
)

// Issue is one finding from a narrative scan.
type Issue struct {
	Code     string `json:"code"`
	Severity string `json:"severity"`
	Detail   string `json:"detail"`
}

var (
	// Candidate invented items: UPPER_SNAKE_CASE tokens of two or more
	// characters, the form the whitelist uses.
	capsItemPattern = regexp.MustCompile(`\b[A-Z][A-Z_]{2,}(?:_[A-Z]+)*\b`)

	// Out-of-fiction structure leaks.
	sectionLeakPattern = regexp.MustCompile(`(?i)\b(?:section|paragraph)\s+\d+\b`)

	// Narrated dice results, e.g. "you rolled a 9". Legitimate rolls
	// come through the dice tool and are reported separately.
	diceClaimPattern = regexp.MustCompile(`(?i)\b(?:you )?roll(?:ed)?s? (?:a |an )?\d+\b`)
)

// capsStopwords are ALL-CAPS tokens that are emphasis, stats or
// game terms rather than items.
var capsStopwords = map[string]bool{
	"SKILL": true, "STAMINA": true, "LUCK": true, "GOLD": true,
	"YES": true, "NO": true, "NOT": true, "STOP": true, "RUN": true,
	"NOW": true, "AND": true, "THE": true, "YOU": true, "BEWARE": true,
	"DANGER": true, "WARNING": true, "HELP": true,
}

// Checker scans narrative text against a section's item whitelist.
type Checker struct {
	allowed map[string]bool
	enemies map[string]bool
}

// NewChecker creates a checker for one turn. allowedItems is the
// whitelist for the current section plus the player's inventory;
// enemyNames are stat-block names permitted to appear in caps.
func NewChecker(allowedItems []string, enemyNames []string) *Checker {
	c := &Checker{
		allowed: make(map[string]bool, len(allowedItems)),
		enemies: make(map[string]bool, len(enemyNames)),
	}
	for _, it := range allowedItems {
		c.allowed[strings.ToUpper(it)] = true
	}
	for _, e := range enemyNames {
		for _, word := range strings.Fields(strings.ToUpper(e)) {
			c.enemies[word] = true
		}
	}
	return c
}

// Check scans the narrative and returns every issue found. diceRolled
// reports whether a dice tool call actually happened this turn; when
// it did, narrated roll results are legitimate.
func (c *Checker) Check(narrative string, diceRolled bool) []Issue {
	var issues []Issue

	for _, token := range capsItemPattern.FindAllString(narrative, -1) {
		if capsStopwords[token] || c.allowed[token] || c.enemies[token] {
			continue
		}
		issues = append(issues, Issue{
			Code:     IssueInventedItem,
			Severity: SeverityHigh,
			Detail:   fmt.Sprintf("item %q is not in the whitelist for this section", token),
		})
	}

	for _, m := range sectionLeakPattern.FindAllString(narrative, -1) {
		issues = append(issues, Issue{
			Code:     IssueSectionLeak,
			Severity: SeverityHigh,
			Detail:   fmt.Sprintf("narrative leaks book structure: %q", m),
		})
	}

	if !diceRolled {
		for _, m := range diceClaimPattern.FindAllString(narrative, -1) {
			issues = append(issues, Issue{
				Code:     IssueDiceClaim,
				Severity: SeverityLow,
				Detail:   fmt.Sprintf("narrated dice result without a roll: %q", m),
			})
		}
	}

	return issues
}

// HasHighSeverity reports whether any issue warrants regeneration.
func HasHighSeverity(issues []Issue) bool {
	for _, issue := range issues {
		if issue.Severity == SeverityHigh {
			return true
		}
	}
	return false
}

// RetryInstruction builds the strengthened constraint appended to the
// prompt on the single regeneration attempt.
func RetryInstruction(issues []Issue) string {
	var sb strings.Builder
	sb.WriteString("Your previous response violated the story constraints:\n")
	for _, issue := range issues {
		sb.WriteString("- ")
		sb.WriteString(issue.Detail)
		sb.WriteString("\n")
	}
	sb.WriteString("Rewrite the narration. Mention only items that exist in this scene, never reveal section or paragraph numbers, and never state dice results that were not rolled.")
	return sb.String()
}
