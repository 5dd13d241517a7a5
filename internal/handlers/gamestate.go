package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/jwebster45206/gamebook-engine/internal/engine"
	"github.com/jwebster45206/gamebook-engine/internal/storage"
	"github.com/jwebster45206/gamebook-engine/pkg/chat"
	"github.com/jwebster45206/gamebook-engine/pkg/state"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// GameEngine is the slice of the turn engine the HTTP layer needs.
type GameEngine interface {
	NewSession(ctx context.Context, bookID string) (*state.GameState, error)
	ProcessTurn(ctx context.Context, sessionID uuid.UUID, action string) (*chat.TurnResponse, error)
}

type GameStateHandler struct {
	engine  GameEngine
	storage storage.Storage
	logger  *slog.Logger
}

func NewGameStateHandler(logger *slog.Logger, eng GameEngine, storage storage.Storage) *GameStateHandler {
	return &GameStateHandler{
		engine:  eng,
		storage: storage,
		logger:  logger,
	}
}

// CreateGameStateRequest defines the request body for creating a new
// game session.
type CreateGameStateRequest struct {
	Book string `json:"book"` // Required: book ID
}

// ServeHTTP handles HTTP requests for game state operations
// Routes:
// POST /v1/gamestate         - Create new game session
// GET /v1/gamestate/{id}     - Read game state by ID
// DELETE /v1/gamestate/{id}  - Delete game state by ID
func (h *GameStateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	path := strings.TrimPrefix(r.URL.Path, "/v1/gamestate")
	var gameStateID uuid.UUID
	var err error

	if path != "" && path != "/" {
		idStr := strings.Trim(path, "/")
		gameStateID, err = uuid.Parse(idStr)
		if err != nil {
			h.logger.Warn("Invalid game state ID", "id", idStr, "error", err)
			writeError(w, h.logger, http.StatusBadRequest, "Invalid game state ID format")
			return
		}
	}

	switch r.Method {
	case http.MethodPost:
		h.handleCreate(w, r)

	case http.MethodGet:
		if gameStateID == uuid.Nil {
			h.logger.Warn("GET request without game state ID")
			writeError(w, h.logger, http.StatusBadRequest, "Game state ID is required for GET requests")
			return
		}
		h.handleRead(w, r, gameStateID)

	case http.MethodDelete:
		if gameStateID == uuid.Nil {
			h.logger.Warn("DELETE request without game state ID")
			writeError(w, h.logger, http.StatusBadRequest, "Game state ID is required for DELETE requests")
			return
		}
		h.handleDelete(w, r, gameStateID)

	default:
		h.logger.Warn("Method not allowed for game state endpoint", "method", r.Method)
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: POST, GET, DELETE")
	}
}

func (h *GameStateHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	h.logger.Debug("Creating new game session")

	var req CreateGameStateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid JSON in request body", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}

	req.Book = strings.TrimSpace(strings.ToLower(req.Book))
	if req.Book == "" {
		h.logger.Warn("Missing required field: book")
		writeError(w, h.logger, http.StatusBadRequest, "book field is required")
		return
	}

	gs, err := h.engine.NewSession(r.Context(), req.Book)
	if err != nil {
		if errors.Is(err, engine.ErrBookNotFound) {
			h.logger.Warn("Book not found", "book", req.Book)
			writeError(w, h.logger, http.StatusNotFound, "Book not found: "+req.Book)
			return
		}
		h.logger.Error("Failed to create game session", "error", err, "book", req.Book)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to create game session")
		return
	}

	h.logger.Debug("Game session created successfully", "id", gs.ID.String())
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(gs); err != nil {
		h.logger.Error("Failed to encode game state response", "error", err)
	}
}

func (h *GameStateHandler) handleRead(w http.ResponseWriter, r *http.Request, gameStateID uuid.UUID) {
	gs, err := h.storage.LoadGameState(r.Context(), gameStateID)
	if err != nil {
		h.logger.Error("Failed to load game state", "error", err, "id", gameStateID.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load game state")
		return
	}

	if gs == nil {
		h.logger.Warn("Game state not found", "id", gameStateID.String())
		writeError(w, h.logger, http.StatusNotFound, "Game state not found")
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(gs); err != nil {
		h.logger.Error("Failed to encode game state response", "error", err)
	}
}

func (h *GameStateHandler) handleDelete(w http.ResponseWriter, r *http.Request, gameStateID uuid.UUID) {
	if err := h.storage.DeleteGameState(r.Context(), gameStateID); err != nil {
		h.logger.Error("Failed to delete game state", "error", err, "id", gameStateID.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to delete game state")
		return
	}
	h.logger.Debug("Game state deleted successfully", "id", gameStateID.String())
	w.WriteHeader(http.StatusNoContent)
}

func writeError(w http.ResponseWriter, logger *slog.Logger, status int, message string) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(ErrorResponse{Error: message}); err != nil {
		logger.Error("Failed to encode error response", "error", err)
	}
}
