// Command ingest enqueues a book's section text for indexing. The
// indexing workers consume the queue and upsert each section into the
// vector store.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/gamebook-engine/internal/config"
	"github.com/jwebster45206/gamebook-engine/internal/services/queue"
	"github.com/jwebster45206/gamebook-engine/pkg/book"
	queuePkg "github.com/jwebster45206/gamebook-engine/pkg/queue"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <sections.yaml> [sections.yaml ...]\n", os.Args[0])
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	client, err := queue.NewClient(ctx, cfg.RedisURL, logger)
	if err != nil {
		log.Fatal("Failed to connect to Redis: ", err)
	}
	defer func() { _ = client.Close() }()

	indexQueue := queue.NewIndexQueue(client)

	for _, filename := range os.Args[1:] {
		sf, err := book.LoadSectionsFile(filename)
		if err != nil {
			log.Fatalf("Failed to load %s: %v", filename, err)
		}

		enqueued := 0
		for _, sectionID := range sf.SortedIDs() {
			req := &queuePkg.IndexRequest{
				RequestID:  uuid.New().String(),
				BookID:     sf.BookID,
				SectionID:  sectionID,
				Content:    sf.Sections[sectionID],
				EnqueuedAt: time.Now(),
			}
			if err := indexQueue.Enqueue(ctx, req); err != nil {
				log.Fatalf("Failed to enqueue section %d of %s: %v", sectionID, sf.BookID, err)
			}
			enqueued++
		}
		fmt.Printf("Enqueued %d sections for %s\n", enqueued, sf.BookID)
	}

	depth, err := indexQueue.Depth(ctx)
	if err != nil {
		log.Fatal("Failed to get queue depth: ", err)
	}
	fmt.Printf("Queue depth: %d requests\n", depth)
}
