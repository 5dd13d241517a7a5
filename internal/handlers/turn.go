package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/jwebster45206/gamebook-engine/internal/engine"
	"github.com/jwebster45206/gamebook-engine/pkg/chat"
)

// TurnHandler runs game turns.
type TurnHandler struct {
	engine GameEngine
	logger *slog.Logger
}

// NewTurnHandler creates a new turn handler.
func NewTurnHandler(eng GameEngine, logger *slog.Logger) *TurnHandler {
	return &TurnHandler{
		engine: eng,
		logger: logger,
	}
}

// ServeHTTP handles POST /v1/turn. The request names a session and a
// free-text action; the response carries the narrative and the
// player-visible state after the turn.
func (h *TurnHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		h.logger.Warn("Method not allowed for turn endpoint",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr)
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only POST is supported.")
		return
	}

	var request chat.TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body. Expected JSON with 'session_id' and 'action' fields.")
		return
	}

	if err := request.Validate(); err != nil {
		h.logger.Warn("Invalid turn request", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	h.logger.Info("Turn requested",
		"session_id", request.SessionID,
		"remote_addr", r.RemoteAddr)

	response, err := h.engine.ProcessTurn(r.Context(), request.SessionID, request.Action)
	if err != nil {
		switch {
		case errors.Is(err, engine.ErrSessionNotFound):
			writeError(w, h.logger, http.StatusNotFound, "Session not found")
		case errors.Is(err, engine.ErrBookNotFound):
			writeError(w, h.logger, http.StatusNotFound, "Book not found for session")
		case errors.Is(err, engine.ErrTurnInFlight):
			writeError(w, h.logger, http.StatusConflict, "A turn is already in progress for this session")
		case errors.Is(err, engine.ErrUpstreamUnavailable):
			h.logger.Error("Upstream unavailable for turn", "error", err, "session_id", request.SessionID)
			writeError(w, h.logger, http.StatusServiceUnavailable, "The narrator is unavailable. Please try again.")
		default:
			h.logger.Error("Error processing turn", "error", err, "session_id", request.SessionID)
			writeError(w, h.logger, http.StatusInternalServerError, "Failed to process turn. Please try again.")
		}
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("Error encoding turn response", "error", err)
	}
}
