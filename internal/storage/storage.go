package storage

import (
	"context"

	"github.com/google/uuid"

	"github.com/jwebster45206/gamebook-engine/pkg/book"
	"github.com/jwebster45206/gamebook-engine/pkg/state"
)

// Storage is the persistence boundary: game states in Redis, book
// definitions on the filesystem. Session saves are atomic (the whole
// post-turn state written as one value), so a crash mid-turn never
// exposes partial mutations.
type Storage interface {
	// Ping tests the storage connection
	Ping(ctx context.Context) error

	// Close closes the storage connection
	Close() error

	// SaveGameState saves a gamestate with the given UUID
	SaveGameState(ctx context.Context, id uuid.UUID, gs *state.GameState) error

	// LoadGameState retrieves a gamestate by UUID.
	// Returns nil if the gamestate doesn't exist.
	LoadGameState(ctx context.Context, id uuid.UUID) (*state.GameState, error)

	// DeleteGameState removes a gamestate by UUID
	DeleteGameState(ctx context.Context, id uuid.UUID) error

	// ListBooks returns the IDs of all available book definitions
	ListBooks(ctx context.Context) ([]string, error)

	// GetBook loads a book definition by ID.
	// Returns nil if the book doesn't exist.
	GetBook(ctx context.Context, id string) (*book.Book, error)
}
