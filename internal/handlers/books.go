package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jwebster45206/gamebook-engine/internal/storage"
)

type BookHandler struct {
	log     *slog.Logger
	storage storage.Storage
}

func NewBookHandler(log *slog.Logger, storage storage.Storage) *BookHandler {
	return &BookHandler{
		log:     log,
		storage: storage,
	}
}

func (h *BookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.handleGet(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *BookHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/books"), "/")

	if id == "" {
		h.handleList(w, r)
		return
	}

	if strings.Contains(id, "..") || strings.Contains(id, "/") {
		http.Error(w, "Invalid book ID", http.StatusBadRequest)
		return
	}

	b, err := h.storage.GetBook(r.Context(), id)
	if err != nil {
		h.log.Error("Failed to get book", "error", err, "id", id)
		http.Error(w, "Failed to retrieve book", http.StatusInternalServerError)
		return
	}
	if b == nil {
		http.Error(w, "Book not found", http.StatusNotFound)
		return
	}

	data, err := json.Marshal(b)
	if err != nil {
		h.log.Error("Failed to marshal book", "error", err, "id", id)
		http.Error(w, "Failed to process book", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (h *BookHandler) handleList(w http.ResponseWriter, r *http.Request) {
	ids, err := h.storage.ListBooks(r.Context())
	if err != nil {
		h.log.Error("Failed to list books", "error", err)
		http.Error(w, "Failed to list books", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(map[string][]string{"books": ids}); err != nil {
		h.log.Error("Failed to encode book list", "error", err)
	}
}
