package compliance

import (
	"strings"
	"testing"
)

func TestCheckInventedItems(t *testing.T) {
	c := NewChecker([]string{"BRASS_KEY", "ROPE"}, []string{"GOBLIN GUARD"})

	tests := []struct {
		name      string
		narrative string
		wantCodes []string
	}{
		{
			name:      "clean narrative",
			narrative: "You lift the BRASS_KEY from the alcove and pocket it.",
		},
		{
			name:      "invented item",
			narrative: "A DRAGON_EGG glitters in the corner.",
			wantCodes: []string{IssueInventedItem},
		},
		{
			name:      "enemy name in caps is fine",
			narrative: "The GOBLIN GUARD snarls and blocks your path.",
		},
		{
			name:      "stat words are fine",
			narrative: "Your STAMINA is fading, but your SKILL holds.",
		},
		{
			name:      "section leak",
			narrative: "You may now turn to section 42 if you wish.",
			wantCodes: []string{IssueSectionLeak},
		},
		{
			name:      "paragraph leak",
			narrative: "As described in Paragraph 118, the door opens.",
			wantCodes: []string{IssueSectionLeak},
		},
		{
			name:      "multiple issues",
			narrative: "Take the MAGIC_ORB and go to section 7.",
			wantCodes: []string{IssueInventedItem, IssueSectionLeak},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issues := c.Check(tt.narrative, false)
			if len(issues) != len(tt.wantCodes) {
				t.Fatalf("got %d issues %+v, want %d", len(issues), issues, len(tt.wantCodes))
			}
			for i, code := range tt.wantCodes {
				if issues[i].Code != code {
					t.Errorf("issue %d code = %s, want %s", i, issues[i].Code, code)
				}
			}
		})
	}
}

func TestCheckDiceClaims(t *testing.T) {
	c := NewChecker(nil, nil)
	narrative := "You rolled a 9 and the blade finds its mark."

	issues := c.Check(narrative, false)
	if len(issues) != 1 || issues[0].Code != IssueDiceClaim {
		t.Fatalf("expected one dice claim issue, got %+v", issues)
	}
	if issues[0].Severity != SeverityLow {
		t.Errorf("dice claim severity = %s, want %s", issues[0].Severity, SeverityLow)
	}

	// With an actual roll this turn the claim is legitimate.
	if issues := c.Check(narrative, true); len(issues) != 0 {
		t.Errorf("expected no issues when dice were rolled, got %+v", issues)
	}
}

func TestHasHighSeverity(t *testing.T) {
	if HasHighSeverity(nil) {
		t.Error("empty issue list reported high severity")
	}
	if HasHighSeverity([]Issue{{Code: IssueDiceClaim, Severity: SeverityLow}}) {
		t.Error("low-only issues reported high severity")
	}
	if !HasHighSeverity([]Issue{{Code: IssueInventedItem, Severity: SeverityHigh}}) {
		t.Error("high-severity issue not detected")
	}
}

func TestRetryInstruction(t *testing.T) {
	issues := []Issue{{Code: IssueInventedItem, Severity: SeverityHigh, Detail: `item "MAGIC_ORB" is not in the whitelist for this section`}}
	msg := RetryInstruction(issues)
	if msg == "" {
		t.Fatal("expected a retry instruction")
	}
	if want := "MAGIC_ORB"; !strings.Contains(msg, want) {
		t.Errorf("retry instruction missing %q: %s", want, msg)
	}
}
