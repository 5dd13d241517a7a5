package state

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/gamebook-engine/pkg/chat"
)

// InventoryCapacity is the maximum number of items a character can
// carry. Pickups beyond capacity are rejected, never silently dropped.
const InventoryCapacity = 12

// Stats are the character's Fighting Fantasy attributes. All values
// are non-negative; stamina and skill are capped at their initial
// values when healed.
type Stats struct {
	Skill          int `json:"skill"`
	InitialSkill   int `json:"initial_skill"`
	Stamina        int `json:"stamina"`
	InitialStamina int `json:"initial_stamina"`
	Luck           int `json:"luck"`
	Gold           int `json:"gold"`
}

// Enemy describes the opponent while in combat.
type Enemy struct {
	Name    string `json:"name"`
	Skill   int    `json:"skill"`
	Stamina int    `json:"stamina"`
}

// Flags is the closed set of story-progression markers. Keeping this
// a struct rather than a free-form map means every consumer can be
// checked exhaustively; unknown flag names are rejected at SetFlag.
type Flags struct {
	HasKey        bool `json:"has_key,omitempty"`
	DoorOpened    bool `json:"door_opened,omitempty"`
	BossDefeated  bool `json:"boss_defeated,omitempty"`
	TrapTriggered bool `json:"trap_triggered,omitempty"`
	LuckTested    bool `json:"luck_tested,omitempty"`
	SecretFound   bool `json:"secret_found,omitempty"`
	RiverCrossed  bool `json:"river_crossed,omitempty"`
}

// Flag names accepted by SetFlag and Get.
const (
	FlagHasKey        = "has_key"
	FlagDoorOpened    = "door_opened"
	FlagBossDefeated  = "boss_defeated"
	FlagTrapTriggered = "trap_triggered"
	FlagLuckTested    = "luck_tested"
	FlagSecretFound   = "secret_found"
	FlagRiverCrossed  = "river_crossed"
)

// Set assigns a named flag. Unknown flag names are an error so the
// model cannot invent progression markers.
func (f *Flags) Set(name string, value bool) error {
	switch name {
	case FlagHasKey:
		f.HasKey = value
	case FlagDoorOpened:
		f.DoorOpened = value
	case FlagBossDefeated:
		f.BossDefeated = value
	case FlagTrapTriggered:
		f.TrapTriggered = value
	case FlagLuckTested:
		f.LuckTested = value
	case FlagSecretFound:
		f.SecretFound = value
	case FlagRiverCrossed:
		f.RiverCrossed = value
	default:
		return fmt.Errorf("unknown flag %q", name)
	}
	return nil
}

// Get reads a named flag. The second return is false for unknown names.
func (f Flags) Get(name string) (bool, bool) {
	switch name {
	case FlagHasKey:
		return f.HasKey, true
	case FlagDoorOpened:
		return f.DoorOpened, true
	case FlagBossDefeated:
		return f.BossDefeated, true
	case FlagTrapTriggered:
		return f.TrapTriggered, true
	case FlagLuckTested:
		return f.LuckTested, true
	case FlagSecretFound:
		return f.SecretFound, true
	case FlagRiverCrossed:
		return f.RiverCrossed, true
	default:
		return false, false
	}
}

// GameState is the full state of one play session. It is owned by a
// single session and mutated only through Apply; every other component
// reads or proposes.
type GameState struct {
	ID             uuid.UUID          `json:"id"`
	BookID         string             `json:"book_id"`
	CurrentSection int                `json:"current_section"`
	Visited        []int              `json:"visited"`
	Stats          Stats              `json:"stats"`
	Flags          Flags              `json:"flags"`
	Inventory      []string           `json:"inventory,omitempty"`
	InCombat       bool               `json:"in_combat,omitempty"`
	Enemy          *Enemy             `json:"enemy,omitempty"`
	ChatHistory    []chat.ChatMessage `json:"chat_history,omitempty"`
	GameOver       bool               `json:"game_over,omitempty"`
	Victory        bool               `json:"victory,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

// NewGameState creates a fresh session positioned at the book's
// starting section.
func NewGameState(bookID string, startSection int, stats Stats) *GameState {
	now := time.Now().UTC()
	return &GameState{
		ID:             uuid.New(),
		BookID:         bookID,
		CurrentSection: startSection,
		Visited:        []int{startSection},
		Stats:          stats,
		ChatHistory:    make([]chat.ChatMessage, 0),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// DeepCopy returns an independent copy of the state. The updater
// mutates a copy and swaps it in only on success, so a failed turn
// never leaves partial mutations visible.
func (gs *GameState) DeepCopy() *GameState {
	cp := *gs
	cp.Visited = append([]int(nil), gs.Visited...)
	cp.Inventory = append([]string(nil), gs.Inventory...)
	cp.ChatHistory = append([]chat.ChatMessage(nil), gs.ChatHistory...)
	if gs.Enemy != nil {
		enemy := *gs.Enemy
		cp.Enemy = &enemy
	}
	return &cp
}

// MinVisited returns the smallest section number ever visited, used
// by the backtrack guard. Returns the current section when history is
// empty.
func (gs *GameState) MinVisited() int {
	if len(gs.Visited) == 0 {
		return gs.CurrentSection
	}
	min := gs.Visited[0]
	for _, s := range gs.Visited[1:] {
		if s < min {
			min = s
		}
	}
	return min
}

// HasItem reports whether the inventory contains the item.
func (gs *GameState) HasItem(item string) bool {
	for _, it := range gs.Inventory {
		if it == item {
			return true
		}
	}
	return false
}

// Validate checks structural invariants on a loaded state.
func (gs *GameState) Validate() error {
	if gs.ID == uuid.Nil {
		return fmt.Errorf("game state id is required")
	}
	if gs.BookID == "" {
		return fmt.Errorf("book id is required")
	}
	if gs.CurrentSection < 1 {
		return fmt.Errorf("current section %d is invalid", gs.CurrentSection)
	}
	if len(gs.Visited) > 0 && gs.Visited[len(gs.Visited)-1] != gs.CurrentSection {
		return fmt.Errorf("current section %d does not match last visited %d",
			gs.CurrentSection, gs.Visited[len(gs.Visited)-1])
	}
	if len(gs.Inventory) > InventoryCapacity {
		return fmt.Errorf("inventory size %d exceeds capacity %d", len(gs.Inventory), InventoryCapacity)
	}
	if gs.InCombat && gs.Enemy == nil {
		return fmt.Errorf("in combat with no enemy")
	}
	return nil
}

// PublicStats returns the stats exposed to the player over the turn
// API. Initial values stay internal.
func (gs *GameState) PublicStats() map[string]int {
	return map[string]int{
		"skill":   gs.Stats.Skill,
		"stamina": gs.Stats.Stamina,
		"luck":    gs.Stats.Luck,
		"gold":    gs.Stats.Gold,
	}
}
