// Package textfilter cleans generated narration for a general
// audience and renders internal identifiers as display text.
package textfilter

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Gamebook narration is aimed at all ages, so profanity the model
// slips in gets softened rather than surfaced.
var swearWords = []string{
	"fuck", "shit", "damn", "hell", "ass", "bitch", "bastard", "crap",
	"piss", "asshole", "goddamn", "bullshit", "motherfucker", "prick",
}

var swearWordReplacements = map[string]string{
	"fuck":         "curse",
	"shit":         "filth",
	"damn":         "accursed",
	"hell":         "the abyss",
	"ass":          "fool",
	"bitch":        "wretch",
	"bastard":      "scoundrel",
	"crap":         "rot",
	"piss":         "spite",
	"asshole":      "villain",
	"goddamn":      "accursed",
	"bullshit":     "nonsense",
	"motherfucker": "fiend",
	"prick":        "knave",
}

// NarrationFilter softens profanity in generated text.
type NarrationFilter struct {
	regexes map[string]*regexp.Regexp
}

// NewNarrationFilter creates a filter with patterns pre-compiled.
func NewNarrationFilter() *NarrationFilter {
	nf := &NarrationFilter{
		regexes: make(map[string]*regexp.Regexp),
	}
	for _, word := range swearWords {
		pattern := `\b` + regexp.QuoteMeta(word) + `\b`
		nf.regexes[word] = regexp.MustCompile(`(?i)` + pattern)
	}
	return nf
}

// FilterText replaces profanity with period-appropriate alternatives,
// preserving the case of each replaced word.
func (nf *NarrationFilter) FilterText(text string) string {
	result := text
	for _, word := range swearWords {
		regex, ok := nf.regexes[word]
		if !ok {
			continue
		}
		replacement, ok := swearWordReplacements[word]
		if !ok {
			continue
		}
		result = regex.ReplaceAllStringFunc(result, func(match string) string {
			return preserveCase(match, replacement)
		})
	}
	return result
}

// ContainsProfanity reports whether the text matches any filtered word.
func (nf *NarrationFilter) ContainsProfanity(text string) bool {
	for _, regex := range nf.regexes {
		if regex.MatchString(text) {
			return true
		}
	}
	return false
}

var titleCaser = cases.Title(language.English)

// preserveCase applies the case pattern of the original word to the
// replacement.
func preserveCase(original, replacement string) string {
	if len(original) == 0 {
		return replacement
	}

	if strings.ToUpper(original) == original {
		return strings.ToUpper(replacement)
	}
	if strings.ToLower(original) == original {
		return strings.ToLower(replacement)
	}
	if titleCaser.String(strings.ToLower(original)) == original {
		return titleCaser.String(replacement)
	}

	result := make([]rune, 0, len(replacement))
	originalRunes := []rune(original)
	for i, r := range []rune(replacement) {
		if i < len(originalRunes) && unicode.IsUpper(originalRunes[i]) {
			result = append(result, unicode.ToUpper(r))
		} else {
			result = append(result, unicode.ToLower(r))
		}
	}
	return string(result)
}

// DisplayName renders an UPPER_SNAKE_CASE identifier as player-facing
// text: BRASS_KEY becomes "Brass Key".
func DisplayName(id string) string {
	if id == "" {
		return ""
	}
	words := strings.Split(strings.ToLower(id), "_")
	return titleCaser.String(strings.Join(words, " "))
}

// DisplayNames renders a slice of identifiers, preserving order.
func DisplayNames(ids []string) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = DisplayName(id)
	}
	return out
}
