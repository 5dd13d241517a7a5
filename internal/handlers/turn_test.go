package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/jwebster45206/gamebook-engine/internal/engine"
	"github.com/jwebster45206/gamebook-engine/pkg/chat"
)

func TestTurnHandler_Success(t *testing.T) {
	sessionID := uuid.New()
	eng := &mockEngine{
		ProcessTurnFunc: func(ctx context.Context, id uuid.UUID, action string) (*chat.TurnResponse, error) {
			assert.Equal(t, sessionID, id, "session ID should be passed through")
			assert.Equal(t, "look around", action)
			return &chat.TurnResponse{
				SessionID: id,
				Narrative: "Dust motes drift in the torchlight.",
				Stats:     map[string]int{"skill": 9, "stamina": 18, "luck": 10, "gold": 0},
			}, nil
		},
	}
	handler := NewTurnHandler(eng, testLogger())

	reqBody := `{"session_id":"` + sessionID.String() + `","action":"look around"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/turn", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code, "body: %s", rr.Body.String())

	var response chat.TurnResponse
	err := json.NewDecoder(rr.Body).Decode(&response)
	assert.NoError(t, err, "response should decode")
	assert.NotEmpty(t, response.Narrative, "expected narrative in response")
	assert.Equal(t, 18, response.Stats["stamina"])
}

func TestTurnHandler_BadRequests(t *testing.T) {
	handler := NewTurnHandler(&mockEngine{}, testLogger())

	tests := []struct {
		name           string
		method         string
		body           string
		expectedStatus int
	}{
		{"wrong method", http.MethodGet, "", http.StatusMethodNotAllowed},
		{"invalid JSON", http.MethodPost, `{not json`, http.StatusBadRequest},
		{"missing session", http.MethodPost, `{"action":"look"}`, http.StatusBadRequest},
		{"empty action", http.MethodPost, `{"session_id":"` + uuid.New().String() + `","action":""}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/v1/turn", strings.NewReader(tt.body))
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code, "body: %s", rr.Body.String())
		})
	}
}

func TestTurnHandler_EngineErrors(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
	}{
		{"session not found", engine.ErrSessionNotFound, http.StatusNotFound},
		{"book not found", engine.ErrBookNotFound, http.StatusNotFound},
		{"turn in flight", engine.ErrTurnInFlight, http.StatusConflict},
		{"upstream unavailable", engine.ErrUpstreamUnavailable, http.StatusServiceUnavailable},
		{"wrapped upstream error", errors.Join(engine.ErrUpstreamUnavailable, errors.New("timeout")), http.StatusServiceUnavailable},
		{"unexpected error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng := &mockEngine{
				ProcessTurnFunc: func(ctx context.Context, id uuid.UUID, action string) (*chat.TurnResponse, error) {
					return nil, tt.err
				},
			}
			handler := NewTurnHandler(eng, testLogger())

			reqBody := `{"session_id":"` + uuid.New().String() + `","action":"look"}`
			req := httptest.NewRequest(http.MethodPost, "/v1/turn", strings.NewReader(reqBody))
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)

			var errResp ErrorResponse
			err := json.NewDecoder(rr.Body).Decode(&errResp)
			assert.NoError(t, err, "error response should decode")
			assert.NotEmpty(t, errResp.Error, "expected error message in response")
		})
	}
}
