package book

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// ExtractedSignals are the structural hints pulled from a section's
// text. Extraction is best-effort: missing patterns yield empty
// results, never errors. The validator and whitelist remain the
// authoritative safety layer; these signals only enrich context.
type ExtractedSignals struct {
	Exits        []int       `json:"exits,omitempty"`
	Flags        SectionFlag `json:"flags"`
	NPCs         []string    `json:"npcs,omitempty"`
	Combat       *CombatInfo `json:"combat,omitempty"`
	RequiredItem string      `json:"required_item,omitempty"`
}

// SectionFlag marks the requirements a section's text implies. Kept
// as a closed struct so consumers can be checked exhaustively.
type SectionFlag struct {
	CombatRequired    bool `json:"combat_required,omitempty"`
	LuckTestRequired  bool `json:"luck_test_required,omitempty"`
	SkillTestRequired bool `json:"skill_test_required,omitempty"`
	DoorLocked        bool `json:"door_locked,omitempty"`
	Trap              bool `json:"trap,omitempty"`
	LethalDanger      bool `json:"lethal_danger,omitempty"`
}

// CombatInfo is a parsed enemy stat block.
type CombatInfo struct {
	EnemyName string `json:"enemy_name"`
	Skill     int    `json:"skill"`
	Stamina   int    `json:"stamina"`
}

var exitPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bgo to (?:section |paragraph )?(\d{1,3})\b`),
	regexp.MustCompile(`(?i)\bturn to (?:section |paragraph )?(\d{1,3})\b`),
	regexp.MustCompile(`(?i)\breturn to (?:section |paragraph )?(\d{1,3})\b`),
	regexp.MustCompile(`(?i)\bsection (\d{1,3})\b`),
	regexp.MustCompile(`(?i)\bparagraph (\d{1,3})\b`),
}

var flagKeywords = map[string][]string{
	"combat":     {"fight", "combat", "battle", "attacks you", "attack you", "draws its weapon", "lunges at you"},
	"luck_test":  {"test your luck", "luck test"},
	"skill_test": {"test your skill", "skill test"},
	"locked":     {"locked door", "door is locked", "the lock", "bolted shut", "locked tight"},
	"trap":       {"trap", "pitfall", "tripwire", "pressure plate"},
	"lethal":     {"instant death", "you die", "your adventure ends here", "certain death", "kills you instantly"},
}

// Stat blocks look like "GOBLIN GUARD SKILL 6 STAMINA 5". The enemy
// name may close the preceding sentence, as in "Fight the ORC. SKILL 6
// STAMINA 5".
var combatPattern = regexp.MustCompile(`([A-Z][A-Z '\-]+?)[.,!]?\s+SKILL\s+(\d+)\s+STAMINA\s+(\d+)`)

// NPC mentions: consecutive capitalized words mid-sentence, filtered
// against common sentence starters. Heuristic only.
var npcPattern = regexp.MustCompile(`\b([A-Z][a-z]+(?: [A-Z][a-z]+)?)\b`)

var npcStopwords = map[string]bool{
	"The": true, "You": true, "Your": true, "If": true, "When": true,
	"Then": true, "There": true, "This": true, "That": true, "After": true,
	"Before": true, "Section": true, "Paragraph": true, "Skill": true,
	"Stamina": true, "Luck": true, "Test": true, "Go": true, "Turn": true,
	"Return": true, "It": true, "As": true, "But": true, "Suddenly": true,
	"Inside": true, "Outside": true, "He": true, "She": true, "They": true,
}

var requiredItemPattern = regexp.MustCompile(`(?i)\byou (?:need|require|must have) (?:the |a |an )?([A-Za-z][A-Za-z '\-]{2,40}?)(?:\s+to\b|[.,;]|$)`)

// ExtractSignals runs all extractors over a section's text.
func ExtractSignals(text string) ExtractedSignals {
	return ExtractedSignals{
		Exits:        ExtractExits(text),
		Flags:        ExtractFlags(text),
		NPCs:         ExtractNPCs(text),
		Combat:       ExtractCombatInfo(text),
		RequiredItem: extractRequiredItem(text),
	}
}

// ExtractExits collects every section number the text points at,
// deduped by integer and sorted ascending. Numbers outside the valid
// section range are discarded.
func ExtractExits(text string) []int {
	seen := make(map[int]bool)
	for _, pattern := range exitPatterns {
		for _, m := range pattern.FindAllStringSubmatch(text, -1) {
			n, err := strconv.Atoi(m[1])
			if err != nil || n < MinSection || n > MaxSection {
				continue
			}
			seen[n] = true
		}
	}
	if len(seen) == 0 {
		return nil
	}
	exits := make([]int, 0, len(seen))
	for n := range seen {
		exits = append(exits, n)
	}
	sort.Ints(exits)
	return exits
}

// ExtractFlags keyword-matches the lowercased text against fixed
// keyword groups.
func ExtractFlags(text string) SectionFlag {
	lower := strings.ToLower(text)
	match := func(group string) bool {
		for _, kw := range flagKeywords[group] {
			if strings.Contains(lower, kw) {
				return true
			}
		}
		return false
	}
	return SectionFlag{
		CombatRequired:    match("combat"),
		LuckTestRequired:  match("luck_test"),
		SkillTestRequired: match("skill_test"),
		DoorLocked:        match("locked"),
		Trap:              match("trap"),
		LethalDanger:      match("lethal"),
	}
}

// ExtractCombatInfo parses an enemy stat block if present.
func ExtractCombatInfo(text string) *CombatInfo {
	m := combatPattern.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	skill, err := strconv.Atoi(m[2])
	if err != nil {
		return nil
	}
	stamina, err := strconv.Atoi(m[3])
	if err != nil {
		return nil
	}
	return &CombatInfo{
		EnemyName: strings.TrimSpace(m[1]),
		Skill:     skill,
		Stamina:   stamina,
	}
}

// ExtractNPCs returns capitalized names mentioned in the text, minus
// common sentence starters. Best-effort.
func ExtractNPCs(text string) []string {
	seen := make(map[string]bool)
	var npcs []string
	for _, m := range npcPattern.FindAllStringSubmatch(text, -1) {
		name := m[1]
		first := strings.SplitN(name, " ", 2)[0]
		if npcStopwords[first] || seen[name] {
			continue
		}
		seen[name] = true
		npcs = append(npcs, name)
	}
	return npcs
}

func extractRequiredItem(text string) string {
	m := requiredItemPattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}
