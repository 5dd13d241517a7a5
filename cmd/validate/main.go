package main

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/jwebster45206/gamebook-engine/pkg/book"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <book.yaml> [book.yaml ...]\n", os.Args[0])
		os.Exit(1)
	}

	failed := false
	for _, filename := range os.Args[1:] {
		validator := &BookValidator{}
		if err := validator.validateFile(filename); err != nil {
			fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
			failed = true
			continue
		}
		fmt.Printf("%s is valid\n", filename)
	}
	if failed {
		os.Exit(1)
	}
}

type BookValidator struct {
	errors []string
}

func (v *BookValidator) validateFile(filename string) error {
	fmt.Printf("Validating %s...\n", filename)

	baseName := filepath.Base(filename)
	if !strings.HasSuffix(baseName, ".yaml") && !strings.HasSuffix(baseName, ".yml") {
		return fmt.Errorf("book file must have .yaml or .yml extension: %s", baseName)
	}

	nameWithoutExt := strings.TrimSuffix(strings.TrimSuffix(baseName, ".yaml"), ".yml")
	if !isValidBookFilename(nameWithoutExt) {
		return fmt.Errorf("book filename %q must be lowercase kebab-case (e.g., warlock-mountain.yaml)", baseName)
	}

	b, err := book.LoadBook(filename)
	if err != nil {
		return err
	}

	v.errors = nil
	v.validateBook(b, nameWithoutExt)

	if len(v.errors) > 0 {
		return fmt.Errorf("validation errors in %s:\n%s", filename, strings.Join(v.errors, "\n"))
	}
	return nil
}

func (v *BookValidator) validateBook(b *book.Book, expectedID string) {
	if b.ID != expectedID {
		v.addError(fmt.Sprintf("book id %q does not match filename %q", b.ID, expectedID))
	}

	if len(b.Endings) == 0 {
		v.addError("book defines no endings; no session could ever finish")
	}
	victories := 0
	for _, e := range b.Endings {
		if e.Victory {
			victories++
		}
	}
	if victories == 0 {
		v.addError("book defines no victory ending")
	}

	for _, item := range b.GlobalItems {
		v.validateItemFormat("global_items", item)
	}
	for section, items := range b.SectionItems {
		for _, item := range items {
			v.validateItemFormat(fmt.Sprintf("section_items[%d]", section), item)
		}
	}

	if b.OpeningNarrative == "" {
		v.addError("opening_narrative is empty; new sessions would start silent")
	}
}

var itemPattern = regexp.MustCompile(`^[A-Z][A-Z0-9]*(_[A-Z0-9]+)*$`)

func (v *BookValidator) validateItemFormat(field, item string) {
	if !itemPattern.MatchString(item) {
		v.addError(fmt.Sprintf("%s item %q must be UPPER_SNAKE_CASE", field, item))
	}
}

var bookFilenamePattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

func isValidBookFilename(name string) bool {
	return bookFilenamePattern.MatchString(name)
}

func (v *BookValidator) addError(msg string) {
	v.errors = append(v.errors, msg)
}
