package book

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// SectionsFile is the full section text of a book, used to populate
// the vector store. It is kept separate from the Book definition so
// the API server never has to load section text from disk.
type SectionsFile struct {
	BookID   string         `yaml:"book_id"`
	Sections map[int]string `yaml:"sections"`
}

// LoadSectionsFile reads and validates a sections file from YAML.
func LoadSectionsFile(path string) (*SectionsFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sections file: %w", err)
	}
	var sf SectionsFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("failed to parse sections file: %w", err)
	}
	if err := sf.Validate(); err != nil {
		return nil, err
	}
	return &sf, nil
}

// Validate checks the sections file for structural problems.
func (sf *SectionsFile) Validate() error {
	if sf.BookID == "" {
		return fmt.Errorf("book_id is required")
	}
	if len(sf.Sections) == 0 {
		return fmt.Errorf("sections file has no sections")
	}
	for id, text := range sf.Sections {
		if id < MinSection || id > MaxSection {
			return fmt.Errorf("section %d out of range %d-%d", id, MinSection, MaxSection)
		}
		if text == "" {
			return fmt.Errorf("section %d is empty", id)
		}
	}
	return nil
}

// SortedIDs returns the section numbers in ascending order, so
// ingestion and logs are deterministic.
func (sf *SectionsFile) SortedIDs() []int {
	ids := make([]int, 0, len(sf.Sections))
	for id := range sf.Sections {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
