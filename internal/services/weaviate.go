package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/gamebook-engine/pkg/book"
)

const weaviateClass = "BookSection"

// WeaviateRetriever implements Retriever against a Weaviate instance
// via its GraphQL endpoint. Section lookups are cached with a TTL
// since book content never changes during play.
type WeaviateRetriever struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger

	cacheTTL time.Duration
	mu       sync.Mutex
	cache    map[string]cacheEntry
}

type cacheEntry struct {
	records []book.SectionRecord
	expires time.Time
}

var _ Retriever = (*WeaviateRetriever)(nil)

// NewWeaviateRetriever creates a retriever for the given Weaviate
// endpoint. A zero cacheTTL disables caching.
func NewWeaviateRetriever(baseURL string, apiKey string, cacheTTL time.Duration, logger *slog.Logger) *WeaviateRetriever {
	return &WeaviateRetriever{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger:   logger,
		cacheTTL: cacheTTL,
		cache:    make(map[string]cacheEntry),
	}
}

type graphQLRequest struct {
	Query string `json:"query"`
}

type graphQLResponse struct {
	Data struct {
		Get map[string][]weaviateSection `json:"Get"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors,omitempty"`
}

type weaviateSection struct {
	BookID     string  `json:"bookId"`
	SectionID  int     `json:"sectionId"`
	Content    string  `json:"content"`
	Additional *struct {
		Certainty float64 `json:"certainty"`
	} `json:"_additional,omitempty"`
}

func (w *WeaviateRetriever) Search(ctx context.Context, bookID string, query string, k int) ([]book.SectionRecord, error) {
	gql := fmt.Sprintf(`{
  Get {
    %s(
      nearText: {concepts: [%s]}
      where: {path: ["bookId"], operator: Equal, valueText: %s}
      limit: %d
    ) {
      bookId
      sectionId
      content
      _additional { certainty }
    }
  }
}`, weaviateClass, jsonString(query), jsonString(bookID), k)

	records, err := w.query(ctx, gql)
	if err != nil {
		return nil, fmt.Errorf("weaviate search failed: %w", err)
	}
	return records, nil
}

func (w *WeaviateRetriever) GetBySection(ctx context.Context, bookID string, sectionID int) (*book.SectionRecord, error) {
	cacheKey := fmt.Sprintf("%s:%d", bookID, sectionID)
	if records, ok := w.cached(cacheKey); ok {
		if len(records) == 0 {
			return nil, nil
		}
		r := records[0]
		return &r, nil
	}

	gql := fmt.Sprintf(`{
  Get {
    %s(
      where: {operator: And, operands: [
        {path: ["bookId"], operator: Equal, valueText: %s},
        {path: ["sectionId"], operator: Equal, valueInt: %d}
      ]}
      limit: 1
    ) {
      bookId
      sectionId
      content
    }
  }
}`, weaviateClass, jsonString(bookID), sectionID)

	records, err := w.query(ctx, gql)
	if err != nil {
		return nil, fmt.Errorf("weaviate section lookup failed: %w", err)
	}
	w.store(cacheKey, records)

	if len(records) == 0 {
		return nil, nil
	}
	r := records[0]
	return &r, nil
}

// sectionObjectID derives a stable object ID from the book and
// section, so re-indexing replaces instead of duplicating.
func sectionObjectID(bookID string, sectionID int) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(fmt.Sprintf("gamebook://%s/%d", bookID, sectionID)))
}

// IndexSection upserts one section's text into Weaviate.
func (w *WeaviateRetriever) IndexSection(ctx context.Context, bookID string, sectionID int, content string) error {
	objectID := sectionObjectID(bookID, sectionID)

	payload := map[string]any{
		"class": weaviateClass,
		"id":    objectID.String(),
		"properties": map[string]any{
			"bookId":    bookID,
			"sectionId": sectionID,
			"content":   content,
		},
	}
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal object: %w", err)
	}

	url := fmt.Sprintf("%s/v1/objects/%s/%s", w.baseURL, weaviateClass, objectID)
	req, err := http.NewRequestWithContext(ctx, "PUT", url, bytes.NewBuffer(reqBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("content-type", "application/json")
	if w.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+w.apiKey)
	}

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("weaviate upsert failed with status %d: %s", resp.StatusCode, string(body))
	}

	// Drop any stale cached lookup for this section.
	w.mu.Lock()
	delete(w.cache, fmt.Sprintf("%s:%d", bookID, sectionID))
	w.mu.Unlock()

	w.logger.Debug("Indexed section", "book_id", bookID, "section_id", sectionID)
	return nil
}

func (w *WeaviateRetriever) query(ctx context.Context, gql string) ([]book.SectionRecord, error) {
	reqBody, err := json.Marshal(graphQLRequest{Query: gql})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", w.baseURL+"/v1/graphql", bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("content-type", "application/json")
	if w.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+w.apiKey)
	}

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var gqlResp graphQLResponse
	if err := json.Unmarshal(body, &gqlResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(gqlResp.Errors) > 0 {
		return nil, fmt.Errorf("graphql error: %s", gqlResp.Errors[0].Message)
	}

	sections := gqlResp.Data.Get[weaviateClass]
	records := make([]book.SectionRecord, 0, len(sections))
	for _, s := range sections {
		record := book.SectionRecord{
			SectionID: s.SectionID,
			Content:   s.Content,
			Metadata:  map[string]any{"book_id": s.BookID},
		}
		if s.Additional != nil {
			record.Score = s.Additional.Certainty
		}
		records = append(records, record)
	}
	return records, nil
}

func (w *WeaviateRetriever) cached(key string) ([]book.SectionRecord, bool) {
	if w.cacheTTL <= 0 {
		return nil, false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	entry, ok := w.cache[key]
	if !ok || time.Now().After(entry.expires) {
		delete(w.cache, key)
		return nil, false
	}
	return entry.records, true
}

func (w *WeaviateRetriever) store(key string, records []book.SectionRecord) {
	if w.cacheTTL <= 0 {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cache[key] = cacheEntry{
		records: records,
		expires: time.Now().Add(w.cacheTTL),
	}
}

// jsonString quotes a value for safe embedding in a GraphQL query.
func jsonString(s string) string {
	data, _ := json.Marshal(s)
	return string(data)
}
