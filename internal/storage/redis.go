package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/gamebook-engine/pkg/book"
	"github.com/jwebster45206/gamebook-engine/pkg/state"
)

const gameStatePrefix = "gamestate:"

// Sessions expire after a day of inactivity; every save refreshes the
// TTL.
const gameStateTTL = 24 * time.Hour

// RedisStorage implements Storage using Redis for game states and the
// filesystem for static book definitions.
type RedisStorage struct {
	client  *redis.Client
	logger  *slog.Logger
	dataDir string

	mu    sync.RWMutex
	books map[string]*book.Book
}

var _ Storage = (*RedisStorage)(nil)

// NewRedisStorage creates a new Redis storage instance. Book YAML
// files are read from dataDir/books on demand and cached.
func NewRedisStorage(redisURL string, dataDir string, logger *slog.Logger) *RedisStorage {
	rdb := redis.NewClient(&redis.Options{
		Addr: redisURL,
	})

	if dataDir == "" {
		dataDir = "./data"
	}

	return &RedisStorage{
		client:  rdb,
		logger:  logger,
		dataDir: dataDir,
		books:   make(map[string]*book.Book),
	}
}

func (r *RedisStorage) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStorage) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	r.logger.Info("Redis connection closed")
	return nil
}

// WaitForConnection waits for Redis to become available (used during startup)
func (r *RedisStorage) WaitForConnection(ctx context.Context) error {
	maxRetries := 30
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		if err := r.Ping(ctx); err != nil {
			r.logger.Debug("Redis not ready yet", "error", err, "attempt", i+1)

			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled while waiting for redis: %w", ctx.Err())
			case <-time.After(retryDelay):
				continue
			}
		}

		r.logger.Info("Redis connection established")
		return nil
	}

	return fmt.Errorf("redis did not become available after %d attempts", maxRetries)
}

// GameState operations (Redis-backed)

func (r *RedisStorage) SaveGameState(ctx context.Context, id uuid.UUID, gs *state.GameState) error {
	data, err := json.Marshal(gs)
	if err != nil {
		r.logger.Error("Failed to marshal gamestate", "uuid", id, "error", err)
		return fmt.Errorf("failed to marshal gamestate: %w", err)
	}

	key := gameStatePrefix + id.String()
	if err := r.client.Set(ctx, key, string(data), gameStateTTL).Err(); err != nil {
		r.logger.Error("Failed to save gamestate", "uuid", id, "error", err)
		return fmt.Errorf("failed to save gamestate: %w", err)
	}
	return nil
}

func (r *RedisStorage) LoadGameState(ctx context.Context, id uuid.UUID) (*state.GameState, error) {
	key := gameStatePrefix + id.String()
	data, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			r.logger.Warn("Gamestate not found", "uuid", id)
			return nil, nil
		}
		r.logger.Error("Failed to load gamestate", "uuid", id, "error", err)
		return nil, fmt.Errorf("failed to load gamestate: %w", err)
	}

	var gs state.GameState
	if err := json.Unmarshal([]byte(data), &gs); err != nil {
		r.logger.Error("Failed to unmarshal gamestate", "uuid", id, "error", err)
		return nil, fmt.Errorf("failed to unmarshal gamestate: %w", err)
	}
	return &gs, nil
}

func (r *RedisStorage) DeleteGameState(ctx context.Context, id uuid.UUID) error {
	key := gameStatePrefix + id.String()
	if err := r.client.Del(ctx, key).Err(); err != nil {
		r.logger.Error("Failed to delete gamestate", "uuid", id, "error", err)
		return fmt.Errorf("failed to delete gamestate: %w", err)
	}
	return nil
}

// Book operations (filesystem-backed)

func (r *RedisStorage) ListBooks(ctx context.Context) ([]string, error) {
	booksDir := filepath.Join(r.dataDir, "books")
	entries, err := os.ReadDir(booksDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read books directory: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || (!strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml")) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(strings.TrimSuffix(name, ".yaml"), ".yml"))
	}
	return ids, nil
}

func (r *RedisStorage) GetBook(ctx context.Context, id string) (*book.Book, error) {
	r.mu.RLock()
	if b, ok := r.books[id]; ok {
		r.mu.RUnlock()
		return b, nil
	}
	r.mu.RUnlock()

	// Book IDs come from URL paths; keep them inside the books dir.
	if strings.ContainsAny(id, "/\\.") {
		return nil, fmt.Errorf("invalid book id %q", id)
	}

	booksDir := filepath.Join(r.dataDir, "books")
	var b *book.Book
	var err error
	for _, ext := range []string{".yaml", ".yml"} {
		path := filepath.Join(booksDir, id+ext)
		if _, statErr := os.Stat(path); statErr != nil {
			continue
		}
		b, err = book.LoadBook(path)
		break
	}
	if err != nil {
		r.logger.Error("Failed to load book", "book_id", id, "error", err)
		return nil, fmt.Errorf("failed to load book %s: %w", id, err)
	}
	if b == nil {
		return nil, nil
	}

	r.mu.Lock()
	r.books[id] = b
	r.mu.Unlock()
	return b, nil
}
