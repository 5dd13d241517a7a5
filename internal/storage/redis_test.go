package storage

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"

	"github.com/jwebster45206/gamebook-engine/pkg/state"
)

func newTestStorage(t *testing.T) (*RedisStorage, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	s := NewRedisStorage(mr.Addr(), t.TempDir(), logger)
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func testGameState() *state.GameState {
	return state.NewGameState("test-book", 1, state.Stats{
		Skill: 10, InitialSkill: 10,
		Stamina: 18, InitialStamina: 18,
		Luck: 9, Gold: 5,
	})
}

func TestGameStateRoundTrip(t *testing.T) {
	s, _ := newTestStorage(t)
	ctx := context.Background()

	gs := testGameState()
	gs.Inventory = []string{"BRASS_KEY"}
	gs.Flags.HasKey = true

	if err := s.SaveGameState(ctx, gs.ID, gs); err != nil {
		t.Fatalf("SaveGameState failed: %v", err)
	}

	loaded, err := s.LoadGameState(ctx, gs.ID)
	if err != nil {
		t.Fatalf("LoadGameState failed: %v", err)
	}
	if loaded == nil {
		t.Fatal("expected gamestate, got nil")
	}
	if loaded.ID != gs.ID || loaded.BookID != gs.BookID {
		t.Errorf("loaded state mismatch: %+v", loaded)
	}
	if !loaded.HasItem("BRASS_KEY") || !loaded.Flags.HasKey {
		t.Errorf("loaded state lost data: %+v", loaded)
	}
}

func TestLoadGameStateNotFound(t *testing.T) {
	s, _ := newTestStorage(t)

	gs, err := s.LoadGameState(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gs != nil {
		t.Errorf("expected nil for missing gamestate, got %+v", gs)
	}
}

func TestDeleteGameState(t *testing.T) {
	s, _ := newTestStorage(t)
	ctx := context.Background()

	gs := testGameState()
	if err := s.SaveGameState(ctx, gs.ID, gs); err != nil {
		t.Fatalf("SaveGameState failed: %v", err)
	}
	if err := s.DeleteGameState(ctx, gs.ID); err != nil {
		t.Fatalf("DeleteGameState failed: %v", err)
	}
	loaded, err := s.LoadGameState(ctx, gs.ID)
	if err != nil {
		t.Fatalf("LoadGameState failed: %v", err)
	}
	if loaded != nil {
		t.Errorf("expected gamestate deleted, got %+v", loaded)
	}
}

func TestSaveGameStateSetsTTL(t *testing.T) {
	s, mr := newTestStorage(t)

	gs := testGameState()
	if err := s.SaveGameState(context.Background(), gs.ID, gs); err != nil {
		t.Fatalf("SaveGameState failed: %v", err)
	}
	key := gameStatePrefix + gs.ID.String()
	if ttl := mr.TTL(key); ttl <= 0 {
		t.Errorf("expected TTL on %s, got %v", key, ttl)
	}
}

func TestBookOperations(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	dataDir := t.TempDir()
	booksDir := filepath.Join(dataDir, "books")
	if err := os.MkdirAll(booksDir, 0o755); err != nil {
		t.Fatal(err)
	}
	bookYAML := `id: test-book
title: Test Book
start_section: 1
global_items:
  - PROVISIONS
`
	if err := os.WriteFile(filepath.Join(booksDir, "test-book.yaml"), []byte(bookYAML), 0o644); err != nil {
		t.Fatal(err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	s := NewRedisStorage(mr.Addr(), dataDir, logger)
	t.Cleanup(func() { _ = s.Close() })
	ctx := context.Background()

	ids, err := s.ListBooks(ctx)
	if err != nil {
		t.Fatalf("ListBooks failed: %v", err)
	}
	if len(ids) != 1 || ids[0] != "test-book" {
		t.Errorf("ListBooks = %v, want [test-book]", ids)
	}

	b, err := s.GetBook(ctx, "test-book")
	if err != nil {
		t.Fatalf("GetBook failed: %v", err)
	}
	if b == nil || b.Title != "Test Book" {
		t.Errorf("unexpected book: %+v", b)
	}

	// Second read comes from cache and still works.
	b2, err := s.GetBook(ctx, "test-book")
	if err != nil || b2 == nil {
		t.Fatalf("cached GetBook failed: %v", err)
	}

	missing, err := s.GetBook(ctx, "no-such-book")
	if err != nil {
		t.Fatalf("GetBook for missing book errored: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for missing book, got %+v", missing)
	}

	if _, err := s.GetBook(ctx, "../escape"); err == nil {
		t.Error("expected error for path traversal id")
	}
}
