package services

import (
	"context"
	"sync"

	"github.com/jwebster45206/gamebook-engine/pkg/book"
)

// Retriever is the vector-search boundary: ranked section lookup by
// query text, plus direct lookup by section number.
type Retriever interface {
	// Search returns the top-k sections ranked by relevance to the
	// query within one book.
	Search(ctx context.Context, bookID string, query string, k int) ([]book.SectionRecord, error)

	// GetBySection returns the record for one section, or nil when
	// the section is not indexed.
	GetBySection(ctx context.Context, bookID string, sectionID int) (*book.SectionRecord, error)
}

// MockRetriever is an in-memory Retriever for testing.
type MockRetriever struct {
	SearchFunc       func(ctx context.Context, bookID string, query string, k int) ([]book.SectionRecord, error)
	GetBySectionFunc func(ctx context.Context, bookID string, sectionID int) (*book.SectionRecord, error)

	// Records backs the default behavior, keyed by section ID.
	Records map[int]book.SectionRecord

	SearchCalls int

	mu sync.Mutex
}

var _ Retriever = (*MockRetriever)(nil)

// NewMockRetriever creates a mock retriever over fixed records.
func NewMockRetriever(records ...book.SectionRecord) *MockRetriever {
	m := &MockRetriever{Records: make(map[int]book.SectionRecord)}
	for _, r := range records {
		m.Records[r.SectionID] = r
	}
	return m
}

func (m *MockRetriever) Search(ctx context.Context, bookID string, query string, k int) ([]book.SectionRecord, error) {
	m.mu.Lock()
	m.SearchCalls++
	fn := m.SearchFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, bookID, query, k)
	}
	var out []book.SectionRecord
	for _, r := range m.Records {
		out = append(out, r)
		if len(out) >= k {
			break
		}
	}
	return out, nil
}

func (m *MockRetriever) GetBySection(ctx context.Context, bookID string, sectionID int) (*book.SectionRecord, error) {
	if m.GetBySectionFunc != nil {
		return m.GetBySectionFunc(ctx, bookID, sectionID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.Records[sectionID]; ok {
		return &r, nil
	}
	return nil, nil
}
