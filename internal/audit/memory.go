package audit

import (
	"context"
	"sync"
	"time"

	"github.com/alnoor-clinic/platform/internal/shared/types"
)

// MemoryStore is an in-memory Store for tests and development
type MemoryStore struct {
	mu      sync.Mutex
	entries []Entry
}

// NewMemoryStore creates an empty in-memory audit store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Append seals and stores the entry
func (s *MemoryStore) Append(ctx context.Context, entry *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prevHash := ""
	if len(s.entries) > 0 {
		prevHash = s.entries[len(s.entries)-1].Hash
	}

	if entry.ID.IsZero() {
		entry.ID = types.NewID()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if entry.Details == nil {
		entry.Details = map[string]any{}
	}
	entry.Sequence = int64(len(s.entries) + 1)
	entry.Seal(prevHash)

	s.entries = append(s.entries, *entry)
	return nil
}

// List returns entries newest first with the filters applied
func (s *MemoryStore) List(ctx context.Context, filter ListFilter) ([]Entry, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []Entry
	for i := len(s.entries) - 1; i >= 0; i-- {
		e := s.entries[i]
		if filter.Action != "" && e.Action != filter.Action {
			continue
		}
		if filter.ResourceType != "" && e.ResourceType != filter.ResourceType {
			continue
		}
		if filter.ResourceID != "" && e.ResourceID != filter.ResourceID {
			continue
		}
		matched = append(matched, e)
	}

	total := len(matched)

	limit := 50
	if filter.Limit > 0 && filter.Limit <= 100 {
		limit = filter.Limit
	}
	if filter.Offset >= len(matched) {
		return nil, total, nil
	}
	matched = matched[filter.Offset:]
	if len(matched) > limit {
		matched = matched[:limit]
	}

	return matched, total, nil
}

// All returns the chain in sequence order
func (s *MemoryStore) All(ctx context.Context) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out, nil
}

// Ensure MemoryStore satisfies Store
var _ Store = (*MemoryStore)(nil)
