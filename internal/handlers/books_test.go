package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jwebster45206/gamebook-engine/internal/storage"
	"github.com/jwebster45206/gamebook-engine/pkg/book"
)

func TestBookHandler_List(t *testing.T) {
	mockStorage := storage.NewMockStorage()
	mockStorage.AddBook(&book.Book{ID: "warlock-mountain", Title: "The Warlock of Firetop Mountain", StartSection: 1})

	handler := NewBookHandler(testLogger(), mockStorage)

	req := httptest.NewRequest(http.MethodGet, "/v1/books", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}

	var response map[string][]string
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(response["books"]) != 1 || response["books"][0] != "warlock-mountain" {
		t.Errorf("Unexpected book list: %v", response["books"])
	}
}

func TestBookHandler_Get(t *testing.T) {
	mockStorage := storage.NewMockStorage()
	mockStorage.AddBook(&book.Book{ID: "warlock-mountain", Title: "The Warlock of Firetop Mountain", StartSection: 1})

	handler := NewBookHandler(testLogger(), mockStorage)

	tests := []struct {
		name           string
		path           string
		expectedStatus int
	}{
		{"found", "/v1/books/warlock-mountain", http.StatusOK},
		{"not found", "/v1/books/no-such-book", http.StatusNotFound},
		{"path traversal", "/v1/books/..%2Fsecrets", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d. Body: %s", tt.expectedStatus, rr.Code, rr.Body.String())
			}
			if tt.expectedStatus != http.StatusOK {
				return
			}

			var b book.Book
			if err := json.NewDecoder(rr.Body).Decode(&b); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if b.Title != "The Warlock of Firetop Mountain" {
				t.Errorf("Unexpected title %q", b.Title)
			}
		})
	}
}

func TestBookHandler_MethodNotAllowed(t *testing.T) {
	handler := NewBookHandler(testLogger(), storage.NewMockStorage())

	req := httptest.NewRequest(http.MethodPost, "/v1/books", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", rr.Code)
	}
}
