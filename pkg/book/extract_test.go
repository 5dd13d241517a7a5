package book

import (
	"reflect"
	"testing"
)

func TestExtractExits(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []int
	}{
		{
			name: "two distinct exits sorted",
			text: "go to section 42 or return to 15",
			want: []int{15, 42},
		},
		{
			name: "overlapping patterns dedupe by number",
			text: "If you open the door, go to section 42. Section 42 awaits.",
			want: []int{42},
		},
		{
			name: "turn to phrasing",
			text: "Turn to 118 if you drink the potion.",
			want: []int{118},
		},
		{
			name: "paragraph phrasing",
			text: "consult paragraph 7 before continuing",
			want: []int{7},
		},
		{
			name: "out of range ignored",
			text: "go to section 999",
			want: nil,
		},
		{
			name: "no exits",
			text: "The corridor stretches endlessly into darkness.",
			want: nil,
		},
		{
			name: "empty text",
			text: "",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractExits(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractExits(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestExtractFlags(t *testing.T) {
	tests := []struct {
		name string
		text string
		want SectionFlag
	}{
		{
			name: "combat keywords",
			text: "The goblin attacks you with a rusty blade!",
			want: SectionFlag{CombatRequired: true},
		},
		{
			name: "luck test",
			text: "Test your Luck. If you are lucky, turn to 30.",
			want: SectionFlag{LuckTestRequired: true},
		},
		{
			name: "skill test",
			text: "Test your SKILL to leap across the chasm.",
			want: SectionFlag{SkillTestRequired: true},
		},
		{
			name: "locked door",
			text: "The door is locked and will not budge.",
			want: SectionFlag{DoorLocked: true},
		},
		{
			name: "trap and lethal",
			text: "A trap springs shut. Your adventure ends here.",
			want: SectionFlag{Trap: true, LethalDanger: true},
		},
		{
			name: "quiet section",
			text: "You rest by the fire and regain your strength.",
			want: SectionFlag{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractFlags(tt.text); got != tt.want {
				t.Errorf("ExtractFlags(%q) = %+v, want %+v", tt.text, got, tt.want)
			}
		})
	}
}

func TestExtractCombatInfo(t *testing.T) {
	tests := []struct {
		name string
		text string
		want *CombatInfo
	}{
		{
			name: "name closes the sentence before the stat block",
			text: "Fight the ORC. SKILL 6 STAMINA 5",
			want: &CombatInfo{EnemyName: "ORC", Skill: 6, Stamina: 5},
		},
		{
			name: "multi word enemy",
			text: "GOBLIN GUARD SKILL 7 STAMINA 6",
			want: &CombatInfo{EnemyName: "GOBLIN GUARD", Skill: 7, Stamina: 6},
		},
		{
			name: "comma between name and stat block",
			text: "You face the CAVE TROLL, SKILL 9 STAMINA 10.",
			want: &CombatInfo{EnemyName: "CAVE TROLL", Skill: 9, Stamina: 10},
		},
		{
			name: "no stat block",
			text: "A peaceful meadow with no enemies in sight.",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractCombatInfo(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractCombatInfo(%q) = %+v, want %+v", tt.text, got, tt.want)
			}
		})
	}
}

func TestExtractSignals(t *testing.T) {
	text := "Fight the TROLL. SKILL 8 STAMINA 7. If you win, go to section 42. You need the brass key to open the chest."
	sig := ExtractSignals(text)

	if !sig.Flags.CombatRequired {
		t.Error("expected combat_required flag")
	}
	if sig.Combat == nil || sig.Combat.EnemyName != "TROLL" {
		t.Errorf("expected TROLL combat info, got %+v", sig.Combat)
	}
	if !reflect.DeepEqual(sig.Exits, []int{42}) {
		t.Errorf("expected exits [42], got %v", sig.Exits)
	}
	if sig.RequiredItem != "brass key" {
		t.Errorf("expected required item %q, got %q", "brass key", sig.RequiredItem)
	}
}

func TestExtractSignalsMalformedText(t *testing.T) {
	// Extraction never errors, it just yields empty signals.
	for _, text := range []string{"", "12345", "SKILL STAMINA", "go to section"} {
		sig := ExtractSignals(text)
		if sig.Combat != nil {
			t.Errorf("ExtractSignals(%q) produced combat info %+v", text, sig.Combat)
		}
		if len(sig.Exits) != 0 {
			t.Errorf("ExtractSignals(%q) produced exits %v", text, sig.Exits)
		}
	}
}
