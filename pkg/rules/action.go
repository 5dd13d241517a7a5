// Package rules decides whether player actions and model tool calls
// are allowed before any generation or state change happens. It is
// the authoritative safety layer; extraction signals only inform it.
package rules

import (
	"regexp"
	"strconv"
	"strings"
)

// ActionType is a coarse category for a free-text player action.
type ActionType string

const (
	ActionAttack   ActionType = "attack"
	ActionFlee     ActionType = "flee"
	ActionUseItem  ActionType = "use_item"
	ActionTestLuck ActionType = "test_luck"
	ActionNavigate ActionType = "navigate"
	ActionPickup   ActionType = "pickup"
	ActionOpen     ActionType = "open"
	ActionOther    ActionType = "other"
)

// Action is the parsed form of a player's free-text input. Parsing is
// heuristic; ActionOther is the safe default and is handled by the
// narrative generator without mechanical effect.
type Action struct {
	Type   ActionType `json:"type"`
	Raw    string     `json:"raw"`
	Target int        `json:"target,omitempty"` // navigation destination, 0 when absent
	Item   string     `json:"item,omitempty"`   // pickup/use item phrase
}

var actionKeywords = []struct {
	typ      ActionType
	keywords []string
}{
	{ActionAttack, []string{"attack", "fight", "strike", "stab", "swing", "hit the", "kill"}},
	{ActionFlee, []string{"flee", "run away", "escape", "retreat"}},
	{ActionTestLuck, []string{"test my luck", "test your luck", "try my luck", "luck test"}},
	{ActionPickup, []string{"pick up", "take the", "grab", "collect", "take a"}},
	{ActionUseItem, []string{"use the", "use my", "drink", "eat", "apply", "equip"}},
	{ActionOpen, []string{"open the", "unlock", "open door", "force the door"}},
	{ActionNavigate, []string{"go to", "go back", "head to", "walk to", "move to", "travel to", "return to", "enter the", "climb", "descend", "follow the", "go north", "go south", "go east", "go west"}},
}

var sectionNumberPattern = regexp.MustCompile(`\b(\d{1,3})\b`)

var pickupItemPattern = regexp.MustCompile(`(?i)(?:pick up|take|grab|collect)\s+(?:the |a |an )?([a-zA-Z][a-zA-Z '_\-]{1,40}?)(?:[.,!?]|$)`)

var useItemPattern = regexp.MustCompile(`(?i)(?:use|drink|eat|apply|equip)\s+(?:the |a |an |my )?([a-zA-Z][a-zA-Z '_\-]{1,40}?)(?:[.,!?]|$)`)

// ParseAction categorizes a free-text action and extracts its target
// where possible.
func ParseAction(raw string) Action {
	action := Action{Type: ActionOther, Raw: raw}
	lower := strings.ToLower(strings.TrimSpace(raw))
	if lower == "" {
		return action
	}

	for _, group := range actionKeywords {
		for _, kw := range group.keywords {
			if strings.Contains(lower, kw) {
				action.Type = group.typ
				break
			}
		}
		if action.Type != ActionOther {
			break
		}
	}

	switch action.Type {
	case ActionNavigate:
		if m := sectionNumberPattern.FindStringSubmatch(lower); m != nil {
			action.Target, _ = strconv.Atoi(m[1])
		}
	case ActionPickup:
		if m := pickupItemPattern.FindStringSubmatch(raw); m != nil {
			action.Item = normalizeItem(m[1])
		}
	case ActionUseItem:
		if m := useItemPattern.FindStringSubmatch(raw); m != nil {
			action.Item = normalizeItem(m[1])
		}
	}
	return action
}

// normalizeItem converts a free-text item phrase into the whitelist's
// UPPER_SNAKE_CASE identifier form.
func normalizeItem(phrase string) string {
	phrase = strings.TrimSpace(phrase)
	phrase = strings.Join(strings.Fields(phrase), "_")
	return strings.ToUpper(phrase)
}
