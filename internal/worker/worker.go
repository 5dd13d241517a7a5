// Package worker consumes section indexing requests from the Redis
// queue and upserts them into the vector store.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/gamebook-engine/internal/services/queue"
	queuePkg "github.com/jwebster45206/gamebook-engine/pkg/queue"
)

const (
	dequeueTimeout = 5 * time.Second
	lockTTL        = 30 * time.Second
)

// Indexer writes one section into the vector store. Upserts must be
// idempotent: re-indexing a section replaces its stored content.
type Indexer interface {
	IndexSection(ctx context.Context, bookID string, sectionID int, content string) error
}

// Worker processes section indexing requests from the queue.
type Worker struct {
	id          string
	queue       *queue.IndexQueue
	indexer     Indexer
	redisClient *redis.Client
	log         *slog.Logger
	ctx         context.Context
	cancel      context.CancelFunc
}

// New creates a new worker instance
func New(indexQueue *queue.IndexQueue, indexer Indexer, redisClient *redis.Client, log *slog.Logger, workerID string) *Worker {
	ctx, cancel := context.WithCancel(context.Background())

	if workerID == "" {
		workerID = fmt.Sprintf("worker-%s", uuid.New().String()[:8])
	}

	return &Worker{
		id:          workerID,
		queue:       indexQueue,
		indexer:     indexer,
		redisClient: redisClient,
		log:         log,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start begins processing requests from the queue. It blocks until
// Stop is called.
func (w *Worker) Start() error {
	w.log.Info("Worker starting", "worker_id", w.id)

	for {
		select {
		case <-w.ctx.Done():
			w.log.Info("Worker shutting down", "worker_id", w.id)
			return nil
		default:
			if err := w.processNextRequest(); err != nil {
				w.log.Error("Error processing request", "error", err, "worker_id", w.id)
				// Continue processing even on error
				time.Sleep(1 * time.Second)
			}
		}
	}
}

// Stop gracefully shuts down the worker
func (w *Worker) Stop() {
	w.log.Info("Worker stop requested", "worker_id", w.id)
	w.cancel()
}

// processNextRequest pulls the next request from the queue and processes it
func (w *Worker) processNextRequest() error {
	// Block waiting for next request (timeout after 5 seconds to check for shutdown)
	ctx, cancel := context.WithTimeout(w.ctx, dequeueTimeout+time.Second)
	defer cancel()

	req, err := w.queue.BlockingDequeue(ctx, dequeueTimeout)
	if err != nil {
		return fmt.Errorf("failed to dequeue request: %w", err)
	}

	if req == nil {
		// Queue is empty or timeout occurred - this is normal
		return nil
	}

	w.log.Info("Received request from queue",
		"worker_id", w.id,
		"request_id", req.RequestID,
		"book_id", req.BookID,
		"section_id", req.SectionID,
	)

	// Try to acquire the section lock
	locked, err := w.acquireSectionLock(req.BookID, req.SectionID)
	if err != nil {
		return fmt.Errorf("failed to acquire section lock: %w", err)
	}
	if !locked {
		// Another worker is indexing this section
		// Re-queue at the end and try next request
		w.log.Info("Section already locked, re-queueing request",
			"worker_id", w.id,
			"request_id", req.RequestID,
			"book_id", req.BookID,
			"section_id", req.SectionID,
		)
		if err := w.queue.Enqueue(w.ctx, req); err != nil {
			return fmt.Errorf("failed to re-queue request: %w", err)
		}
		return nil
	}

	// Process the request, blocking the worker until done
	defer w.releaseSectionLock(req.BookID, req.SectionID)
	return w.processRequest(req)
}

func sectionLockKey(bookID string, sectionID int) string {
	return fmt.Sprintf("index-lock:%s:%d", bookID, sectionID)
}

// acquireSectionLock attempts to acquire a lock for a section
// Returns true if lock was acquired, false if already locked
func (w *Worker) acquireSectionLock(bookID string, sectionID int) (bool, error) {
	result, err := w.redisClient.SetNX(w.ctx, sectionLockKey(bookID, sectionID), w.id, lockTTL).Result()
	if err != nil {
		return false, err
	}
	return result, nil
}

// releaseSectionLock releases the lock for a section
func (w *Worker) releaseSectionLock(bookID string, sectionID int) {
	lockKey := sectionLockKey(bookID, sectionID)

	// Only delete if we own the lock
	script := redis.NewScript(`
		if redis.call("get", KEYS[1]) == ARGV[1] then
			return redis.call("del", KEYS[1])
		else
			return 0
		end
	`)

	if err := script.Run(w.ctx, w.redisClient, []string{lockKey}, w.id).Err(); err != nil {
		w.log.Error("Failed to release section lock", "error", err, "book_id", bookID, "section_id", sectionID)
	}
}

// processRequest upserts a single section into the vector store.
func (w *Worker) processRequest(req *queuePkg.IndexRequest) error {
	start := time.Now()

	if err := w.indexer.IndexSection(w.ctx, req.BookID, req.SectionID, req.Content); err != nil {
		w.log.Error("Failed to index section",
			"error", err,
			"worker_id", w.id,
			"request_id", req.RequestID,
			"book_id", req.BookID,
			"section_id", req.SectionID,
		)
		return fmt.Errorf("failed to index section %d of %s: %w", req.SectionID, req.BookID, err)
	}

	w.log.Info("Section indexed",
		"worker_id", w.id,
		"request_id", req.RequestID,
		"book_id", req.BookID,
		"section_id", req.SectionID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}
