package rules

import (
	"fmt"

	"github.com/jwebster45206/gamebook-engine/pkg/book"
	"github.com/jwebster45206/gamebook-engine/pkg/state"
)

// BacktrackWindow is how far below the minimum visited section a
// navigation target may fall before it is rejected as retrogression.
const BacktrackWindow = 10

// Reason codes for validation verdicts.
const (
	ReasonOK                 = "ok"
	ReasonMustResolveCombat  = "must_resolve_combat"
	ReasonExcessiveBacktrack = "excessive_backtrack"
	ReasonUnknownExit        = "unknown_exit"
	ReasonInventoryFull      = "inventory_full"
	ReasonItemNotHere        = "item_not_here"
	ReasonItemNotCarried     = "item_not_carried"
	ReasonAlreadyCarried     = "already_carried"
	ReasonMissingFlag        = "missing_flag"
	ReasonUnknownFlag        = "unknown_flag"
	ReasonUnknownStat        = "unknown_stat"
)

// Verdict is the outcome of validating one action or tool call.
// Messages are written in-fiction so rejections can be surfaced to
// the player directly as narrative.
type Verdict struct {
	Valid   bool   `json:"valid"`
	Reason  string `json:"reason"`
	Message string `json:"message,omitempty"`
}

func accept() Verdict {
	return Verdict{Valid: true, Reason: ReasonOK}
}

func reject(reason, message string) Verdict {
	return Verdict{Valid: false, Reason: reason, Message: message}
}

// Validator applies game-rule checks against a book's static data.
// It is pure: invoked fresh each turn with the full state, holding no
// per-session data of its own.
type Validator struct {
	book *book.Book
}

// NewValidator creates a validator for one book.
func NewValidator(b *book.Book) *Validator {
	return &Validator{book: b}
}

// combatActions are the only action categories allowed mid-combat.
var combatActions = map[ActionType]bool{
	ActionAttack:   true,
	ActionFlee:     true,
	ActionUseItem:  true,
	ActionTestLuck: true,
}

// ValidateAction decides whether a player action may proceed to
// retrieval and generation. Rules are checked in precedence order:
// combat lock-in first, then per-category checks.
func (v *Validator) ValidateAction(gs *state.GameState, action Action, signals book.ExtractedSignals) Verdict {
	if gs.InCombat && !combatActions[action.Type] {
		enemy := "your foe"
		if gs.Enemy != nil {
			enemy = "the " + gs.Enemy.Name
		}
		return reject(ReasonMustResolveCombat,
			fmt.Sprintf("You cannot do that while %s stands against you. Fight, flee, or find another way to survive.", enemy))
	}

	switch action.Type {
	case ActionNavigate:
		if action.Target > 0 {
			return v.ValidateNavigation(gs, action.Target, signals.Exits)
		}
		return accept()
	case ActionPickup:
		if action.Item == "" {
			return accept()
		}
		return v.ValidatePickup(gs, action.Item)
	case ActionUseItem:
		if action.Item != "" && !gs.HasItem(action.Item) {
			return reject(ReasonItemNotCarried,
				"You search your pack, but you are not carrying that.")
		}
		return accept()
	case ActionOpen:
		if signals.Flags.DoorLocked && !gs.Flags.HasKey {
			return reject(ReasonMissingFlag,
				"The door holds fast. Without the right key, it will not yield.")
		}
		return accept()
	default:
		return accept()
	}
}

// ValidateNavigation enforces the retrogression guard and, when the
// section's exits are known, membership in them. Unknown exits are
// allowed when no exit signal was extracted, since extraction is
// best-effort.
func (v *Validator) ValidateNavigation(gs *state.GameState, target int, exits []int) Verdict {
	if target < book.MinSection || target > book.MaxSection {
		return reject(ReasonUnknownExit, "No path leads that way.")
	}
	if target < gs.MinVisited()-BacktrackWindow {
		return reject(ReasonExcessiveBacktrack,
			"The way back has crumbled behind you. Your adventure lies ahead.")
	}
	if len(exits) > 0 {
		for _, e := range exits {
			if e == target {
				return accept()
			}
		}
		return reject(ReasonUnknownExit, "No path from here leads where you intend.")
	}
	return accept()
}

// ValidatePickup enforces inventory capacity and the per-section item
// whitelist.
func (v *Validator) ValidatePickup(gs *state.GameState, item string) Verdict {
	if gs.HasItem(item) {
		return reject(ReasonAlreadyCarried, "You already carry that.")
	}
	if len(gs.Inventory) >= state.InventoryCapacity {
		return reject(ReasonInventoryFull,
			"Your pack is full. You must leave something behind first.")
	}
	if v.book != nil && !v.book.ItemAllowed(gs.CurrentSection, item) {
		return reject(ReasonItemNotHere,
			"You look around, but no such thing is to be found here.")
	}
	return accept()
}

// ValidateStatDelta checks a proposed stat adjustment. Deltas are
// never rejected for magnitude since the updater clamps; only unknown
// stat names fail.
func (v *Validator) ValidateStatDelta(stat string) Verdict {
	switch stat {
	case state.StatSkill, state.StatStamina, state.StatLuck, state.StatGold:
		return accept()
	default:
		return reject(ReasonUnknownStat, fmt.Sprintf("There is no such attribute as %q.", stat))
	}
}

// ValidateFlag checks that a flag name belongs to the closed flag set.
func (v *Validator) ValidateFlag(name string) Verdict {
	var f state.Flags
	if _, ok := f.Get(name); !ok {
		return reject(ReasonUnknownFlag, fmt.Sprintf("Unknown story marker %q.", name))
	}
	return accept()
}
