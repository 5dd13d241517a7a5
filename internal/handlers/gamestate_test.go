package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/jwebster45206/gamebook-engine/internal/engine"
	"github.com/jwebster45206/gamebook-engine/internal/storage"
	"github.com/jwebster45206/gamebook-engine/pkg/chat"
	"github.com/jwebster45206/gamebook-engine/pkg/state"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError, // Reduce noise in tests
	}))
}

// mockEngine implements GameEngine with overridable behavior.
type mockEngine struct {
	NewSessionFunc  func(ctx context.Context, bookID string) (*state.GameState, error)
	ProcessTurnFunc func(ctx context.Context, sessionID uuid.UUID, action string) (*chat.TurnResponse, error)
}

func (m *mockEngine) NewSession(ctx context.Context, bookID string) (*state.GameState, error) {
	if m.NewSessionFunc != nil {
		return m.NewSessionFunc(ctx, bookID)
	}
	return state.NewGameState(bookID, 1, state.Stats{
		Skill: 9, InitialSkill: 9,
		Stamina: 18, InitialStamina: 18,
		Luck: 10,
	}), nil
}

func (m *mockEngine) ProcessTurn(ctx context.Context, sessionID uuid.UUID, action string) (*chat.TurnResponse, error) {
	if m.ProcessTurnFunc != nil {
		return m.ProcessTurnFunc(ctx, sessionID, action)
	}
	return &chat.TurnResponse{SessionID: sessionID, Narrative: "The story continues."}, nil
}

func TestGameStateHandler_Create(t *testing.T) {
	handler := NewGameStateHandler(testLogger(), &mockEngine{}, storage.NewMockStorage())

	reqBody := `{"book":"warlock-mountain"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/gamestate", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Errorf("Expected status 201, got %d. Response body: %s", rr.Code, rr.Body.String())
	}
	if rr.Header().Get("Content-Type") != "application/json" {
		t.Errorf("Expected Content-Type application/json, got %s", rr.Header().Get("Content-Type"))
	}

	var response state.GameState
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response.ID == uuid.Nil {
		t.Error("Expected non-nil game state ID")
	}
	if response.BookID != "warlock-mountain" {
		t.Errorf("Expected book ID warlock-mountain, got %s", response.BookID)
	}
}

func TestGameStateHandler_CreateErrors(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    string
		newSession     func(ctx context.Context, bookID string) (*state.GameState, error)
		expectedStatus int
	}{
		{
			name:           "missing book field",
			requestBody:    `{}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid JSON",
			requestBody:    `{not json`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:        "unknown book",
			requestBody: `{"book":"no-such-book"}`,
			newSession: func(ctx context.Context, bookID string) (*state.GameState, error) {
				return nil, engine.ErrBookNotFound
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng := &mockEngine{NewSessionFunc: tt.newSession}
			handler := NewGameStateHandler(testLogger(), eng, storage.NewMockStorage())

			req := httptest.NewRequest(http.MethodPost, "/v1/gamestate", strings.NewReader(tt.requestBody))
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d. Body: %s", tt.expectedStatus, rr.Code, rr.Body.String())
			}

			var errResp ErrorResponse
			if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
				t.Fatalf("Failed to decode error response: %v", err)
			}
			if errResp.Error == "" {
				t.Error("Expected error message in response")
			}
		})
	}
}

func TestGameStateHandler_Read(t *testing.T) {
	mockStorage := storage.NewMockStorage()
	gs := state.NewGameState("warlock-mountain", 1, state.Stats{Skill: 9, Stamina: 18, Luck: 10})
	if err := mockStorage.SaveGameState(context.Background(), gs.ID, gs); err != nil {
		t.Fatal(err)
	}

	handler := NewGameStateHandler(testLogger(), &mockEngine{}, mockStorage)

	req := httptest.NewRequest(http.MethodGet, "/v1/gamestate/"+gs.ID.String(), nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d. Body: %s", rr.Code, rr.Body.String())
	}

	var response state.GameState
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response.ID != gs.ID {
		t.Errorf("Expected game state ID %s, got %s", gs.ID, response.ID)
	}
}

func TestGameStateHandler_ReadErrors(t *testing.T) {
	handler := NewGameStateHandler(testLogger(), &mockEngine{}, storage.NewMockStorage())

	tests := []struct {
		name           string
		path           string
		expectedStatus int
	}{
		{"missing ID", "/v1/gamestate", http.StatusBadRequest},
		{"malformed ID", "/v1/gamestate/not-a-uuid", http.StatusBadRequest},
		{"unknown ID", "/v1/gamestate/" + uuid.New().String(), http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, rr.Code)
			}
		})
	}
}

func TestGameStateHandler_Delete(t *testing.T) {
	mockStorage := storage.NewMockStorage()
	gs := state.NewGameState("warlock-mountain", 1, state.Stats{Skill: 9, Stamina: 18, Luck: 10})
	if err := mockStorage.SaveGameState(context.Background(), gs.ID, gs); err != nil {
		t.Fatal(err)
	}

	handler := NewGameStateHandler(testLogger(), &mockEngine{}, mockStorage)

	req := httptest.NewRequest(http.MethodDelete, "/v1/gamestate/"+gs.ID.String(), nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", rr.Code)
	}

	loaded, err := mockStorage.LoadGameState(context.Background(), gs.ID)
	if err != nil {
		t.Fatal(err)
	}
	if loaded != nil {
		t.Error("Expected game state to be deleted")
	}
}

func TestGameStateHandler_MethodNotAllowed(t *testing.T) {
	handler := NewGameStateHandler(testLogger(), &mockEngine{}, storage.NewMockStorage())

	req := httptest.NewRequest(http.MethodPut, "/v1/gamestate", strings.NewReader(`{}`))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", rr.Code)
	}
}
