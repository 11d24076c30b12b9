package audit

import "context"

// Store persists the audit chain. Append seals the entry against the
// current chain head; implementations must serialize appends so two
// entries never share a previous hash.
type Store interface {
	Append(ctx context.Context, entry *Entry) error
	List(ctx context.Context, filter ListFilter) ([]Entry, int, error)

	// All returns the full chain in sequence order, for verification
	All(ctx context.Context) ([]Entry, error)
}
