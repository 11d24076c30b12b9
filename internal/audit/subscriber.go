package audit

import (
	"context"
	"fmt"
	"log"

	"github.com/alnoor-clinic/platform/internal/shared/events"
	"github.com/alnoor-clinic/platform/internal/shared/metrics"
)

// Patterns lists the event families the audit trail records
var Patterns = []string{
	"patient.*",
	"doctor.*",
	"treatment.*",
	"appointment.*",
	"payment.*",
	"expense.*",
	"inventory.*",
}

// Recorder turns domain events into audit chain entries
type Recorder struct {
	store Store
}

// NewRecorder creates a new audit recorder
func NewRecorder(store Store) *Recorder {
	return &Recorder{store: store}
}

// Start subscribes the recorder to every audited event family
func (r *Recorder) Start(ctx context.Context, bus events.EventBus) error {
	for _, pattern := range Patterns {
		if err := bus.Subscribe(ctx, pattern, "audit", r.Record); err != nil {
			return fmt.Errorf("failed to subscribe audit recorder to %s: %w", pattern, err)
		}
	}
	return nil
}

// Record appends one audit entry for a domain event
func (r *Recorder) Record(ctx context.Context, event events.Event) error {
	entry := &Entry{
		Action:       event.Type,
		Actor:        event.Actor,
		ResourceType: event.Source,
		ResourceID:   resourceID(event),
		Details:      details(event),
	}
	if entry.Actor == "" {
		entry.Actor = "system"
	}

	if err := r.store.Append(ctx, entry); err != nil {
		log.Printf("audit: failed to record %s: %v", event.Type, err)
		return err
	}

	metrics.RecordAuditEntry()
	return nil
}

// resourceID pulls the entity id matching the event source out of the
// payload, falling back to any *_id field.
func resourceID(event events.Event) string {
	data, ok := event.Data.(map[string]any)
	if !ok {
		return ""
	}

	if v, ok := data[event.Source+"_id"]; ok {
		return fmt.Sprintf("%v", v)
	}
	if v, ok := data["item_id"]; ok {
		return fmt.Sprintf("%v", v)
	}
	return ""
}

func details(event events.Event) map[string]any {
	if data, ok := event.Data.(map[string]any); ok {
		return data
	}
	return map[string]any{"data": event.Data}
}
