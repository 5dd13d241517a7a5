package book

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func testSectionsFile() *SectionsFile {
	return &SectionsFile{
		BookID: "warlock-mountain",
		Sections: map[int]string{
			1:  "The village elder presses a worn map into your hands.",
			23: "A locked iron door bars the corridor.",
			42: "Stairs descend into darkness.",
		},
	}
}

func TestSectionsFileValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*SectionsFile)
		wantErr bool
	}{
		{name: "valid", mutate: func(sf *SectionsFile) {}},
		{name: "missing book id", mutate: func(sf *SectionsFile) { sf.BookID = "" }, wantErr: true},
		{name: "no sections", mutate: func(sf *SectionsFile) { sf.Sections = nil }, wantErr: true},
		{name: "section out of range", mutate: func(sf *SectionsFile) { sf.Sections[401] = "text" }, wantErr: true},
		{name: "empty section text", mutate: func(sf *SectionsFile) { sf.Sections[23] = "" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sf := testSectionsFile()
			tt.mutate(sf)
			err := sf.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSectionsFileSortedIDs(t *testing.T) {
	sf := testSectionsFile()
	got := sf.SortedIDs()
	want := []int{1, 23, 42}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SortedIDs() = %v, want %v", got, want)
	}
}

func TestLoadSectionsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "warlock-mountain.yaml")
	data := `book_id: warlock-mountain
sections:
  1: "The village elder presses a worn map into your hands."
  23: "A locked iron door bars the corridor."
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	sf, err := LoadSectionsFile(path)
	if err != nil {
		t.Fatalf("LoadSectionsFile failed: %v", err)
	}
	if sf.BookID != "warlock-mountain" {
		t.Errorf("unexpected book id %q", sf.BookID)
	}
	if len(sf.Sections) != 2 || sf.Sections[23] != "A locked iron door bars the corridor." {
		t.Errorf("unexpected sections: %+v", sf.Sections)
	}

	if _, err := LoadSectionsFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
