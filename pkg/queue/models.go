package queue

import (
	"encoding/json"
	"fmt"
	"time"
)

// IndexRequest is a unit of indexing work: one book section to be
// upserted into the vector store.
type IndexRequest struct {
	RequestID string `json:"request_id"`
	BookID    string `json:"book_id"`
	SectionID int    `json:"section_id"`
	Content   string `json:"content"`

	EnqueuedAt time.Time `json:"enqueued_at"`
}

// Validate checks that the request carries everything a worker needs.
func (r *IndexRequest) Validate() error {
	if r.BookID == "" {
		return fmt.Errorf("book_id is required")
	}
	if r.SectionID <= 0 {
		return fmt.Errorf("section_id must be positive")
	}
	if r.Content == "" {
		return fmt.Errorf("content is required")
	}
	return nil
}

// ToJSON converts the request to JSON bytes for Redis
func (r *IndexRequest) ToJSON() ([]byte, error) {
	return json.Marshal(r)
}

// FromJSON parses a request from JSON bytes
func FromJSON(data []byte) (*IndexRequest, error) {
	var req IndexRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, err
	}
	return &req, nil
}
