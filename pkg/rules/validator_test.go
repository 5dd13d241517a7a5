package rules

import (
	"testing"

	"github.com/jwebster45206/gamebook-engine/pkg/book"
	"github.com/jwebster45206/gamebook-engine/pkg/state"
)

func testBook() *book.Book {
	return &book.Book{
		ID:           "test-book",
		Title:        "Test Book",
		StartSection: 1,
		GlobalItems:  []string{"PROVISIONS"},
		SectionItems: map[int][]string{
			23: {"BRASS_KEY", "ROPE"},
		},
	}
}

func testState() *state.GameState {
	gs := state.NewGameState("test-book", 1, state.Stats{
		Skill: 10, InitialSkill: 10,
		Stamina: 18, InitialStamina: 18,
		Luck: 9, Gold: 5,
	})
	gs.CurrentSection = 23
	gs.Visited = []int{1, 23}
	return gs
}

func TestValidateActionCombatLockIn(t *testing.T) {
	v := NewValidator(testBook())
	gs := testState()
	gs.InCombat = true
	gs.Enemy = &state.Enemy{Name: "ORC", Skill: 6, Stamina: 5}

	allowed := []Action{
		{Type: ActionAttack},
		{Type: ActionFlee},
		{Type: ActionTestLuck},
		{Type: ActionUseItem},
	}
	for _, a := range allowed {
		if verdict := v.ValidateAction(gs, a, book.ExtractedSignals{}); !verdict.Valid {
			t.Errorf("action %s should be allowed in combat: %+v", a.Type, verdict)
		}
	}

	blocked := []Action{
		{Type: ActionNavigate, Target: 42},
		{Type: ActionPickup, Item: "ROPE"},
		{Type: ActionOpen},
		{Type: ActionOther},
	}
	for _, a := range blocked {
		verdict := v.ValidateAction(gs, a, book.ExtractedSignals{})
		if verdict.Valid {
			t.Errorf("action %s should be blocked in combat", a.Type)
		}
		if verdict.Reason != ReasonMustResolveCombat {
			t.Errorf("expected reason %s, got %s", ReasonMustResolveCombat, verdict.Reason)
		}
	}
}

func TestValidateNavigationBacktrack(t *testing.T) {
	v := NewValidator(testBook())
	gs := testState()
	gs.Visited = []int{30, 50, 23}

	tests := []struct {
		name   string
		target int
		valid  bool
		reason string
	}{
		{name: "forward", target: 100, valid: true},
		{name: "within window", target: 13, valid: true},
		{name: "just past window", target: 12, valid: false, reason: ReasonExcessiveBacktrack},
		{name: "far behind", target: 2, valid: false, reason: ReasonExcessiveBacktrack},
		{name: "out of range high", target: 401, valid: false, reason: ReasonUnknownExit},
		{name: "out of range low", target: 0, valid: false, reason: ReasonUnknownExit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict := v.ValidateNavigation(gs, tt.target, nil)
			if verdict.Valid != tt.valid {
				t.Errorf("target %d: valid = %v, want %v", tt.target, verdict.Valid, tt.valid)
			}
			if !tt.valid && verdict.Reason != tt.reason {
				t.Errorf("target %d: reason = %s, want %s", tt.target, verdict.Reason, tt.reason)
			}
		})
	}
}

func TestValidateNavigationExits(t *testing.T) {
	v := NewValidator(testBook())
	gs := testState()

	// With known exits, membership is enforced.
	if verdict := v.ValidateNavigation(gs, 42, []int{42, 118}); !verdict.Valid {
		t.Errorf("listed exit rejected: %+v", verdict)
	}
	verdict := v.ValidateNavigation(gs, 99, []int{42, 118})
	if verdict.Valid || verdict.Reason != ReasonUnknownExit {
		t.Errorf("unlisted exit accepted: %+v", verdict)
	}

	// Without extracted exits, navigation is permitted (extraction is
	// best-effort, not ground truth).
	if verdict := v.ValidateNavigation(gs, 99, nil); !verdict.Valid {
		t.Errorf("navigation with no exit signals rejected: %+v", verdict)
	}
}

func TestValidatePickup(t *testing.T) {
	v := NewValidator(testBook())

	t.Run("whitelisted item", func(t *testing.T) {
		gs := testState()
		if verdict := v.ValidatePickup(gs, "BRASS_KEY"); !verdict.Valid {
			t.Errorf("whitelisted item rejected: %+v", verdict)
		}
	})

	t.Run("global item anywhere", func(t *testing.T) {
		gs := testState()
		gs.CurrentSection = 99
		if verdict := v.ValidatePickup(gs, "PROVISIONS"); !verdict.Valid {
			t.Errorf("global item rejected: %+v", verdict)
		}
	})

	t.Run("item not here", func(t *testing.T) {
		gs := testState()
		verdict := v.ValidatePickup(gs, "DRAGON_EGG")
		if verdict.Valid || verdict.Reason != ReasonItemNotHere {
			t.Errorf("invented item accepted: %+v", verdict)
		}
	})

	t.Run("inventory full", func(t *testing.T) {
		gs := testState()
		for i := 0; i < state.InventoryCapacity; i++ {
			gs.Inventory = append(gs.Inventory, string(rune('A'+i)))
		}
		verdict := v.ValidatePickup(gs, "BRASS_KEY")
		if verdict.Valid || verdict.Reason != ReasonInventoryFull {
			t.Errorf("pickup at capacity accepted: %+v", verdict)
		}
	})

	t.Run("already carried", func(t *testing.T) {
		gs := testState()
		gs.Inventory = []string{"BRASS_KEY"}
		verdict := v.ValidatePickup(gs, "BRASS_KEY")
		if verdict.Valid || verdict.Reason != ReasonAlreadyCarried {
			t.Errorf("duplicate pickup accepted: %+v", verdict)
		}
	})
}

func TestValidateActionLockedDoor(t *testing.T) {
	v := NewValidator(testBook())
	signals := book.ExtractedSignals{Flags: book.SectionFlag{DoorLocked: true}}

	gs := testState()
	verdict := v.ValidateAction(gs, Action{Type: ActionOpen}, signals)
	if verdict.Valid || verdict.Reason != ReasonMissingFlag {
		t.Errorf("locked door opened without key: %+v", verdict)
	}

	gs.Flags.HasKey = true
	if verdict := v.ValidateAction(gs, Action{Type: ActionOpen}, signals); !verdict.Valid {
		t.Errorf("door with key rejected: %+v", verdict)
	}
}

func TestValidateActionUseItemNotCarried(t *testing.T) {
	v := NewValidator(testBook())
	gs := testState()

	verdict := v.ValidateAction(gs, Action{Type: ActionUseItem, Item: "HEALING_POTION"}, book.ExtractedSignals{})
	if verdict.Valid || verdict.Reason != ReasonItemNotCarried {
		t.Errorf("using an item not carried accepted: %+v", verdict)
	}

	gs.Inventory = []string{"HEALING_POTION"}
	if verdict := v.ValidateAction(gs, Action{Type: ActionUseItem, Item: "HEALING_POTION"}, book.ExtractedSignals{}); !verdict.Valid {
		t.Errorf("using a carried item rejected: %+v", verdict)
	}
}

func TestValidateStatDelta(t *testing.T) {
	v := NewValidator(testBook())

	for _, stat := range []string{state.StatSkill, state.StatStamina, state.StatLuck, state.StatGold} {
		if verdict := v.ValidateStatDelta(stat); !verdict.Valid {
			t.Errorf("stat %s rejected: %+v", stat, verdict)
		}
	}
	if verdict := v.ValidateStatDelta("charisma"); verdict.Valid {
		t.Error("unknown stat accepted")
	}
}

func TestValidateFlag(t *testing.T) {
	v := NewValidator(testBook())

	if verdict := v.ValidateFlag(state.FlagHasKey); !verdict.Valid {
		t.Errorf("known flag rejected: %+v", verdict)
	}
	if verdict := v.ValidateFlag("ate_breakfast"); verdict.Valid {
		t.Error("unknown flag accepted")
	}
}
