package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jwebster45206/gamebook-engine/internal/config"
	"github.com/jwebster45206/gamebook-engine/internal/logger"
	"github.com/jwebster45206/gamebook-engine/internal/services"
	"github.com/jwebster45206/gamebook-engine/internal/services/queue"
	"github.com/jwebster45206/gamebook-engine/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting Gamebook Engine indexing worker",
		"environment", cfg.Environment,
		"worker_count", cfg.WorkerCount,
		"weaviate_url", cfg.WeaviateURL)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	queueClient, err := queue.NewClient(ctx, cfg.RedisURL, log)
	cancel()
	if err != nil {
		log.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer func() { _ = queueClient.Close() }()

	indexQueue := queue.NewIndexQueue(queueClient)
	indexer := services.NewWeaviateRetriever(cfg.WeaviateURL, cfg.WeaviateAPIKey, cfg.RetrievalCacheTTL, log)

	workers := make([]*worker.Worker, 0, cfg.WorkerCount)
	var wg sync.WaitGroup
	for i := 0; i < cfg.WorkerCount; i++ {
		w := worker.New(indexQueue, indexer, queueClient.GetRedisClient(), log, fmt.Sprintf("indexer-%d", i+1))
		workers = append(workers, w)

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := w.Start(); err != nil {
				log.Error("Worker exited with error", "error", err)
			}
		}()
	}

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Workers are shutting down...")
	for _, w := range workers {
		w.Stop()
	}
	wg.Wait()

	log.Info("Workers exited")
}
