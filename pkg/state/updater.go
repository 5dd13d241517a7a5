package state

import (
	"fmt"
	"time"
)

// MutationKind identifies a state mutation type.
type MutationKind string

const (
	MutationStatDelta   MutationKind = "stat_delta"
	MutationAddItem     MutationKind = "add_item"
	MutationRemoveItem  MutationKind = "remove_item"
	MutationSetFlag     MutationKind = "set_flag"
	MutationNavigate    MutationKind = "navigate"
	MutationStartCombat MutationKind = "start_combat"
	MutationEndCombat   MutationKind = "end_combat"
)

// Stat names accepted by stat-delta mutations.
const (
	StatSkill   = "skill"
	StatStamina = "stamina"
	StatLuck    = "luck"
	StatGold    = "gold"
)

// Mutation is one accepted state change. Mutations are produced by
// the engine from validated tool calls or deterministic rules, never
// taken raw from the model.
type Mutation struct {
	Kind MutationKind `json:"kind"`

	// Stat delta fields.
	Stat  string `json:"stat,omitempty"`
	Delta int    `json:"delta,omitempty"`

	// Inventory fields.
	Item string `json:"item,omitempty"`

	// Flag fields.
	Flag      string `json:"flag,omitempty"`
	FlagValue bool   `json:"flag_value,omitempty"`

	// Navigation fields.
	Target int `json:"target,omitempty"`

	// Combat fields.
	Enemy *Enemy `json:"enemy,omitempty"`

	// EnemyStaminaDelta adjusts the current enemy instead of the
	// player when set with a stat-delta mutation on stamina.
	EnemyTarget bool `json:"enemy_target,omitempty"`
}

// Apply runs every mutation in order against a deep copy of the state
// and returns the copy. The original state is never touched, so a
// mid-sequence error leaves no partial changes visible. Stat deltas
// are clamped rather than rejected; structural violations (capacity,
// unknown stat or flag) are errors.
func Apply(gs *GameState, muts []Mutation) (*GameState, error) {
	next := gs.DeepCopy()
	for i, m := range muts {
		if err := applyOne(next, m); err != nil {
			return nil, fmt.Errorf("mutation %d (%s): %w", i, m.Kind, err)
		}
	}
	next.UpdatedAt = time.Now().UTC()
	return next, nil
}

func applyOne(gs *GameState, m Mutation) error {
	switch m.Kind {
	case MutationStatDelta:
		return applyStatDelta(gs, m)
	case MutationAddItem:
		if gs.HasItem(m.Item) {
			return fmt.Errorf("already carrying %s", m.Item)
		}
		if len(gs.Inventory) >= InventoryCapacity {
			return fmt.Errorf("inventory is full (%d items)", InventoryCapacity)
		}
		gs.Inventory = append(gs.Inventory, m.Item)
	case MutationRemoveItem:
		for i, it := range gs.Inventory {
			if it == m.Item {
				gs.Inventory = append(gs.Inventory[:i], gs.Inventory[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("not carrying %s", m.Item)
	case MutationSetFlag:
		return gs.Flags.Set(m.Flag, m.FlagValue)
	case MutationNavigate:
		if m.Target < 1 {
			return fmt.Errorf("invalid target section %d", m.Target)
		}
		gs.CurrentSection = m.Target
		gs.Visited = append(gs.Visited, m.Target)
	case MutationStartCombat:
		if m.Enemy == nil {
			return fmt.Errorf("start combat requires an enemy")
		}
		enemy := *m.Enemy
		gs.InCombat = true
		gs.Enemy = &enemy
	case MutationEndCombat:
		gs.InCombat = false
		gs.Enemy = nil
	default:
		return fmt.Errorf("unknown mutation kind %q", m.Kind)
	}
	return nil
}

func applyStatDelta(gs *GameState, m Mutation) error {
	if m.EnemyTarget {
		if gs.Enemy == nil {
			return fmt.Errorf("no enemy to adjust")
		}
		if m.Stat != StatStamina {
			return fmt.Errorf("enemy stat %q cannot be adjusted", m.Stat)
		}
		gs.Enemy.Stamina = clamp(gs.Enemy.Stamina+m.Delta, 0, -1)
		return nil
	}
	switch m.Stat {
	case StatSkill:
		gs.Stats.Skill = clamp(gs.Stats.Skill+m.Delta, 0, gs.Stats.InitialSkill)
	case StatStamina:
		gs.Stats.Stamina = clamp(gs.Stats.Stamina+m.Delta, 0, gs.Stats.InitialStamina)
	case StatLuck:
		gs.Stats.Luck = clamp(gs.Stats.Luck+m.Delta, 0, -1)
	case StatGold:
		gs.Stats.Gold = clamp(gs.Stats.Gold+m.Delta, 0, -1)
	default:
		return fmt.Errorf("unknown stat %q", m.Stat)
	}
	return nil
}

// clamp bounds v to [min, max]. A negative max means uncapped above.
func clamp(v, min, max int) int {
	if v < min {
		return min
	}
	if max >= 0 && v > max {
		return max
	}
	return v
}
