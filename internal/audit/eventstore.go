package audit

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/EventStore/EventStore-Client-Go/v4/esdb"
	"github.com/google/uuid"

	"github.com/alnoor-clinic/platform/internal/shared/errors"
	"github.com/alnoor-clinic/platform/internal/shared/types"
)

const (
	auditStream    = "clinic-audit"
	auditEventType = "AuditEntry"
)

// EventStoreRepository keeps the audit chain in an EventStoreDB stream.
// The stream is append-only at the storage level, so the hash chain is
// a second, independent tamper check on top of it.
type EventStoreRepository struct {
	client *esdb.Client

	mu       sync.Mutex
	lastHash string
	sequence int64
}

// NewEventStoreRepository creates an EventStoreDB-backed audit store
func NewEventStoreRepository(client *esdb.Client) *EventStoreRepository {
	return &EventStoreRepository{client: client}
}

// Initialize loads the chain head from the stream
func (r *EventStoreRepository) Initialize(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stream, err := r.client.ReadStream(ctx, auditStream, esdb.ReadStreamOptions{
		Direction: esdb.Backwards,
		From:      esdb.End{},
	}, 1)
	if err != nil {
		// Stream not existing yet just means an empty chain
		if esdbErr, ok := esdb.FromError(err); ok && esdbErr.Code() == esdb.ErrorCodeResourceNotFound {
			return nil
		}
		return errors.Wrap(err, "failed to read audit stream")
	}
	defer stream.Close()

	event, err := stream.Recv()
	if err != nil {
		return nil
	}

	if event.Event != nil && event.Event.EventType == auditEventType {
		var entry Entry
		if err := json.Unmarshal(event.Event.Data, &entry); err == nil {
			r.lastHash = entry.Hash
			r.sequence = entry.Sequence
		}
	}

	return nil
}

// Append seals the entry against the in-memory chain head and writes it
func (r *EventStoreRepository) Append(ctx context.Context, entry *Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry.ID.IsZero() {
		entry.ID = types.NewID()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if entry.Details == nil {
		entry.Details = map[string]any{}
	}
	r.sequence++
	entry.Sequence = r.sequence
	entry.Seal(r.lastHash)

	data, err := json.Marshal(entry)
	if err != nil {
		return errors.Wrap(err, "failed to marshal audit entry")
	}

	eventData := esdb.EventData{
		EventID:     uuid.New(),
		EventType:   auditEventType,
		ContentType: esdb.ContentTypeJson,
		Data:        data,
	}

	_, err = r.client.AppendToStream(ctx, auditStream, esdb.AppendToStreamOptions{}, eventData)
	if err != nil {
		r.sequence--
		return errors.Wrap(err, "failed to append audit entry")
	}

	r.lastHash = entry.Hash
	return nil
}

// List lists audit entries newest first with the filters applied
func (r *EventStoreRepository) List(ctx context.Context, filter ListFilter) ([]Entry, int, error) {
	all, err := r.All(ctx)
	if err != nil {
		return nil, 0, err
	}

	var matched []Entry
	for i := len(all) - 1; i >= 0; i-- {
		e := all[i]
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

// All returns the full chain in sequence order
func (r *EventStoreRepository) All(ctx context.Context) ([]Entry, error) {
	stream, err := r.client.ReadStream(ctx, auditStream, esdb.ReadStreamOptions{
		Direction: esdb.Forwards,
		From:      esdb.Start{},
	}, 100000)
	if err != nil {
		if esdbErr, ok := esdb.FromError(err); ok && esdbErr.Code() == esdb.ErrorCodeResourceNotFound {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to read audit stream")
	}
	defer stream.Close()

	var entries []Entry
	for {
		event, err := stream.Recv()
		if err != nil {
			break
		}
		if event.Event == nil || event.Event.EventType != auditEventType {
			continue
		}

		var entry Entry
		if err := json.Unmarshal(event.Event.Data, &entry); err != nil {
			return nil, errors.Wrap(err, "failed to decode audit entry")
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// Ensure EventStoreRepository satisfies Store
var _ Store = (*EventStoreRepository)(nil)
