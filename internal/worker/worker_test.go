package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/gamebook-engine/internal/services/queue"
	queuePkg "github.com/jwebster45206/gamebook-engine/pkg/queue"
)

type mockIndexer struct {
	mu       sync.Mutex
	indexed  []string
	failOnce map[string]bool
	done     chan string
}

func newMockIndexer() *mockIndexer {
	return &mockIndexer{
		failOnce: make(map[string]bool),
		done:     make(chan string, 16),
	}
}

func (m *mockIndexer) IndexSection(ctx context.Context, bookID string, sectionID int, content string) error {
	key := fmt.Sprintf("%s:%d", bookID, sectionID)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOnce[key] {
		delete(m.failOnce, key)
		return errors.New("vector store unavailable")
	}
	m.indexed = append(m.indexed, key)
	m.done <- key
	return nil
}

func (m *mockIndexer) Indexed() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.indexed))
	copy(out, m.indexed)
	return out
}

func newTestWorker(t *testing.T) (*Worker, *queue.IndexQueue, *mockIndexer, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	client, err := queue.NewClient(context.Background(), mr.Addr(), logger)
	if err != nil {
		t.Fatalf("failed to create queue client: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	q := queue.NewIndexQueue(client)
	idx := newMockIndexer()
	w := New(q, idx, rdb, logger, "test-worker")
	return w, q, idx, mr
}

func enqueueSection(t *testing.T, q *queue.IndexQueue, sectionID int, content string) {
	t.Helper()
	err := q.Enqueue(context.Background(), &queuePkg.IndexRequest{
		RequestID:  uuid.New().String(),
		BookID:     "test-book",
		SectionID:  sectionID,
		Content:    content,
		EnqueuedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
}

func waitIndexed(t *testing.T, idx *mockIndexer, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-idx.done:
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for %d sections, got %d", n, i)
		}
	}
}

func TestWorkerProcessesQueue(t *testing.T) {
	w, q, idx, _ := newTestWorker(t)

	enqueueSection(t, q, 23, "A locked iron door bars the corridor.")
	enqueueSection(t, q, 42, "Stairs descend into darkness.")

	go func() { _ = w.Start() }()
	defer w.Stop()

	waitIndexed(t, idx, 2)

	indexed := idx.Indexed()
	if len(indexed) != 2 {
		t.Fatalf("expected 2 indexed sections, got %v", indexed)
	}
	if indexed[0] != "test-book:23" || indexed[1] != "test-book:42" {
		t.Errorf("expected FIFO order, got %v", indexed)
	}

	depth, err := q.Depth(context.Background())
	if err != nil {
		t.Fatalf("Depth failed: %v", err)
	}
	if depth != 0 {
		t.Errorf("expected drained queue, got depth %d", depth)
	}
}

func TestWorkerReleasesSectionLock(t *testing.T) {
	w, q, idx, mr := newTestWorker(t)

	enqueueSection(t, q, 23, "A locked iron door bars the corridor.")

	go func() { _ = w.Start() }()
	defer w.Stop()

	waitIndexed(t, idx, 1)

	// Lock release races the done signal by a hair, so poll briefly.
	deadline := time.Now().Add(time.Second)
	for mr.Exists("index-lock:test-book:23") {
		if time.Now().After(deadline) {
			t.Fatal("section lock was not released")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestWorkerContinuesAfterIndexError(t *testing.T) {
	w, q, idx, _ := newTestWorker(t)
	idx.failOnce["test-book:23"] = true

	enqueueSection(t, q, 23, "A locked iron door bars the corridor.")
	enqueueSection(t, q, 42, "Stairs descend into darkness.")

	go func() { _ = w.Start() }()
	defer w.Stop()

	// First request fails and is dropped; the second still lands.
	waitIndexed(t, idx, 1)

	indexed := idx.Indexed()
	if len(indexed) != 1 || indexed[0] != "test-book:42" {
		t.Errorf("expected only section 42 indexed, got %v", indexed)
	}
}

func TestWorkerStop(t *testing.T) {
	w, _, _, _ := newTestWorker(t)

	done := make(chan error, 1)
	go func() { done <- w.Start() }()

	time.Sleep(50 * time.Millisecond)
	w.Stop()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start returned error on stop: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("worker did not stop")
	}
}
