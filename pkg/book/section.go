// Package book holds the gamebook content model: section records
// returned by vector search, extraction of structural signals from
// section text, retrieval consolidation, and per-section item
// whitelists.
package book

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Section numbering bounds for a standard gamebook.
const (
	MinSection = 1
	MaxSection = 400
)

// SectionRecord is one vector-search hit: a book section with its
// raw content and relevance score. Read-only once retrieved.
type SectionRecord struct {
	SectionID int            `json:"section_id"`
	Content   string         `json:"content"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Score     float64        `json:"score"`
}

// RetrievalResult is the consolidated view handed to the narrative
// generator: one primary section plus bounded secondary context.
type RetrievalResult struct {
	Primary     SectionRecord `json:"primary"`
	Secondaries []Secondary   `json:"secondaries,omitempty"`

	// Mismatch is true when no retrieved record matched the expected
	// section and the top-ranked record was used instead.
	Mismatch bool `json:"mismatch,omitempty"`
}

// Secondary is a truncated preview of a non-primary retrieval hit.
type Secondary struct {
	SectionID int     `json:"section_id"`
	Preview   string  `json:"preview"`
	Score     float64 `json:"score"`
}

// Ending describes a book-defined terminal section.
type Ending struct {
	Section int    `yaml:"section" json:"section"`
	Victory bool   `yaml:"victory" json:"victory"`
	Summary string `yaml:"summary,omitempty" json:"summary,omitempty"`
}

// Book is a playable gamebook definition loaded from YAML. Whitelists
// and endings are static per book; game state references the book by ID.
type Book struct {
	ID           string   `yaml:"id" json:"id"`
	Title        string   `yaml:"title" json:"title"`
	Author       string   `yaml:"author,omitempty" json:"author,omitempty"`
	StartSection int      `yaml:"start_section" json:"start_section"`
	Endings      []Ending `yaml:"endings,omitempty" json:"endings,omitempty"`

	// GlobalItems may be picked up anywhere; SectionItems are keyed by
	// section number. Together they form the item whitelist.
	GlobalItems  []string         `yaml:"global_items,omitempty" json:"global_items,omitempty"`
	SectionItems map[int][]string `yaml:"section_items,omitempty" json:"section_items,omitempty"`

	// OpeningNarrative is shown when a session begins.
	OpeningNarrative string `yaml:"opening_narrative,omitempty" json:"opening_narrative,omitempty"`
}

// LoadBook reads and validates a book definition from a YAML file.
func LoadBook(path string) (*Book, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read book file: %w", err)
	}
	var b Book
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("failed to parse book file: %w", err)
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return &b, nil
}

// Validate checks the book definition for structural problems.
func (b *Book) Validate() error {
	if b.ID == "" {
		return fmt.Errorf("book id is required")
	}
	if b.Title == "" {
		return fmt.Errorf("book title is required")
	}
	if b.StartSection < MinSection || b.StartSection > MaxSection {
		return fmt.Errorf("start_section %d out of range %d-%d", b.StartSection, MinSection, MaxSection)
	}
	for _, e := range b.Endings {
		if e.Section < MinSection || e.Section > MaxSection {
			return fmt.Errorf("ending section %d out of range %d-%d", e.Section, MinSection, MaxSection)
		}
	}
	for section := range b.SectionItems {
		if section < MinSection || section > MaxSection {
			return fmt.Errorf("section_items key %d out of range %d-%d", section, MinSection, MaxSection)
		}
	}
	return nil
}

// EndingAt returns the ending defined for the given section, if any.
func (b *Book) EndingAt(section int) (Ending, bool) {
	for _, e := range b.Endings {
		if e.Section == section {
			return e, true
		}
	}
	return Ending{}, false
}

// AllowedItems returns the item whitelist for a section: the union of
// the book's global items and the section's own items, sorted.
func (b *Book) AllowedItems(section int) []string {
	seen := make(map[string]bool)
	var items []string
	for _, it := range b.GlobalItems {
		if !seen[it] {
			seen[it] = true
			items = append(items, it)
		}
	}
	for _, it := range b.SectionItems[section] {
		if !seen[it] {
			seen[it] = true
			items = append(items, it)
		}
	}
	sort.Strings(items)
	return items
}

// ItemAllowed reports whether an item may be picked up at a section.
func (b *Book) ItemAllowed(section int, item string) bool {
	for _, it := range b.GlobalItems {
		if it == item {
			return true
		}
	}
	for _, it := range b.SectionItems[section] {
		if it == item {
			return true
		}
	}
	return false
}
