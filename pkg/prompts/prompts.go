package prompts

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jwebster45206/gamebook-engine/pkg/book"
	"github.com/jwebster45206/gamebook-engine/pkg/state"
)

// BaseSystemPrompt frames the narrator for an interactive gamebook. The
// first %s is the book title.
const BaseSystemPrompt = `You are the narrator of "%s", an interactive adventure gamebook. You retell the book's scenes in vivid second-person prose and respond to the player's actions. You never discuss things outside of the story.

### CREATIVE FREEDOMS:
- Describe scenes with rich sensory detail beyond the book's terse text.
- Give voice and personality to characters the book only sketches.
- React to unusual player actions with improvised narration that stays true to the scene.

### RIGID RESTRICTIONS:
- DO NOT INVENT ITEMS. Only items named in the scene content or the player's inventory exist.
- DO NOT INVENT EXITS OR PASSAGES. The player can only go where the scene allows.
- DO NOT INVENT CHARACTERS OR GIVE THEM TRAITS THE BOOK CONTRADICTS.
- NEVER reveal section or paragraph numbers. The player lives inside the story, not the book.
- Dice results are authoritative. If a roll happened, narrate exactly that result; if no roll happened, never claim one did.
- If the player tries something impossible, narrate the attempt failing gracefully within the fiction.

### Writing rules:
- Respond in 1 to 3 paragraphs, each at most 4 sentences.
- Second person, present tense.
- When a character speaks, use the format: CharacterName: "Spoken line."`

// GameEndSystemPrompt wraps up a finished session.
const GameEndSystemPrompt = `The adventure has ended. Regardless of the player's input, the story will not continue. Respond with a short closing narration that honors how the adventure ended, finishing with "*.*.*.*.*.*. THE END .*.*.*.*.*.*".`

// UserPostPrompt is the final reminder appended to every live turn.
const UserPostPrompt = `Narrate the outcome of the player's action. Stay inside the scene content provided. Do not mention game mechanics, section numbers, or anything outside the fiction.`

// ToolUsePrompt is appended when tool-augmented generation is active.
const ToolUsePrompt = `When the story causes a mechanical change, call the matching tool rather than assuming the change: stats with update_stat, items with add_item/remove_item/check_item, movement with attempt_navigation, story progress with set_flag, and any chance outcome with roll_dice. A rejected tool call means the change did not happen; narrate accordingly.`

// sanitizedState is the game state as shown to the model. Section
// numbers and initial stat values stay hidden.
type sanitizedState struct {
	Stats     map[string]int `json:"stats"`
	Inventory []string       `json:"inventory"`
	InCombat  bool           `json:"in_combat,omitempty"`
	Enemy     *state.Enemy   `json:"enemy,omitempty"`
	Flags     state.Flags    `json:"flags"`
}

// StatePrompt renders the player-visible game state as a JSON block
// for the system prompt.
func StatePrompt(gs *state.GameState) (string, error) {
	s := sanitizedState{
		Stats:     gs.PublicStats(),
		Inventory: gs.Inventory,
		InCombat:  gs.InCombat,
		Enemy:     gs.Enemy,
		Flags:     gs.Flags,
	}
	if s.Inventory == nil {
		s.Inventory = []string{}
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", fmt.Errorf("error marshaling game state: %w", err)
	}
	return "### Player state:\n" + string(data), nil
}

// ScenePrompt renders the consolidated retrieval into the scene
// content block the narrator must stay inside.
func ScenePrompt(r book.RetrievalResult, signals book.ExtractedSignals) string {
	var sb strings.Builder
	sb.WriteString("### Current scene (source material, never quote directly):\n")
	sb.WriteString(r.Primary.Content)

	if len(r.Secondaries) > 0 {
		sb.WriteString("\n\n### Nearby context (background only, the player is not there):\n")
		for _, s := range r.Secondaries {
			sb.WriteString("- ")
			sb.WriteString(s.Preview)
			sb.WriteString("\n")
		}
	}

	var notes []string
	if signals.Flags.CombatRequired {
		notes = append(notes, "this scene demands combat before anything else")
	}
	if signals.Flags.LuckTestRequired {
		notes = append(notes, "the book calls for a luck test here")
	}
	if signals.Flags.SkillTestRequired {
		notes = append(notes, "the book calls for a skill test here")
	}
	if signals.Flags.DoorLocked {
		notes = append(notes, "a locked door blocks the way")
	}
	if signals.Flags.Trap {
		notes = append(notes, "a trap threatens the player")
	}
	if signals.Flags.LethalDanger {
		notes = append(notes, "lethal danger is present")
	}
	if signals.Combat != nil {
		notes = append(notes, fmt.Sprintf("the enemy here is %s (skill %d, stamina %d)",
			signals.Combat.EnemyName, signals.Combat.Skill, signals.Combat.Stamina))
	}
	if len(signals.NPCs) > 0 {
		notes = append(notes, "characters present in this scene: "+strings.Join(signals.NPCs, ", "))
	}
	if signals.RequiredItem != "" {
		notes = append(notes, fmt.Sprintf("progress here hinges on the %s", signals.RequiredItem))
	}
	if len(notes) > 0 {
		sb.WriteString("\n### Scene notes:\n")
		for _, n := range notes {
			sb.WriteString("- ")
			sb.WriteString(n)
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
