package storage

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/jwebster45206/gamebook-engine/pkg/book"
	"github.com/jwebster45206/gamebook-engine/pkg/state"
)

// MockStorage is an in-memory Storage for tests. Behavior can be
// overridden per call via the function fields; calls are tracked.
type MockStorage struct {
	mu sync.Mutex

	PingFn            func(ctx context.Context) error
	SaveGameStateFn   func(ctx context.Context, id uuid.UUID, gs *state.GameState) error
	LoadGameStateFn   func(ctx context.Context, id uuid.UUID) (*state.GameState, error)
	DeleteGameStateFn func(ctx context.Context, id uuid.UUID) error
	ListBooksFn       func(ctx context.Context) ([]string, error)
	GetBookFn         func(ctx context.Context, id string) (*book.Book, error)

	SaveCalls   int
	LoadCalls   int
	DeleteCalls int

	states map[uuid.UUID]*state.GameState
	books  map[string]*book.Book
}

var _ Storage = (*MockStorage)(nil)

// NewMockStorage creates an empty in-memory storage.
func NewMockStorage() *MockStorage {
	return &MockStorage{
		states: make(map[uuid.UUID]*state.GameState),
		books:  make(map[string]*book.Book),
	}
}

// AddBook registers a book definition for GetBook/ListBooks.
func (m *MockStorage) AddBook(b *book.Book) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.books[b.ID] = b
}

func (m *MockStorage) Ping(ctx context.Context) error {
	if m.PingFn != nil {
		return m.PingFn(ctx)
	}
	return nil
}

func (m *MockStorage) Close() error {
	return nil
}

func (m *MockStorage) SaveGameState(ctx context.Context, id uuid.UUID, gs *state.GameState) error {
	m.mu.Lock()
	m.SaveCalls++
	fn := m.SaveGameStateFn
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, id, gs)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[id] = gs.DeepCopy()
	return nil
}

func (m *MockStorage) LoadGameState(ctx context.Context, id uuid.UUID) (*state.GameState, error) {
	m.mu.Lock()
	m.LoadCalls++
	fn := m.LoadGameStateFn
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	gs, ok := m.states[id]
	if !ok {
		return nil, nil
	}
	return gs.DeepCopy(), nil
}

func (m *MockStorage) DeleteGameState(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	m.DeleteCalls++
	fn := m.DeleteGameStateFn
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, id)
	return nil
}

func (m *MockStorage) ListBooks(ctx context.Context) ([]string, error) {
	if m.ListBooksFn != nil {
		return m.ListBooksFn(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.books))
	for id := range m.books {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *MockStorage) GetBook(ctx context.Context, id string) (*book.Book, error) {
	if m.GetBookFn != nil {
		return m.GetBookFn(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.books[id], nil
}
