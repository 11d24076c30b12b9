package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/alnoor-clinic/platform/internal/shared/types"
)

// Entry is one link in the tamper-evident audit chain. Each entry's
// hash covers its own content plus the previous entry's hash, so
// editing or removing any historical entry breaks every hash after it.
type Entry struct {
	ID           types.ID       `json:"id"`
	Sequence     int64          `json:"sequence"`
	Action       string         `json:"action"`
	Actor        string         `json:"actor"`
	ResourceType string         `json:"resource_type"`
	ResourceID   string         `json:"resource_id"`
	Details      map[string]any `json:"details"`
	PrevHash     string         `json:"prev_hash"`
	Hash         string         `json:"hash"`
	CreatedAt    time.Time      `json:"created_at"`
}

// hashPayload fixes the field order of the hashed content. Details is a
// map, which encoding/json serializes with sorted keys, so the payload
// is canonical.
type hashPayload struct {
	ID           types.ID       `json:"id"`
	Action       string         `json:"action"`
	Actor        string         `json:"actor"`
	ResourceType string         `json:"resource_type"`
	ResourceID   string         `json:"resource_id"`
	Details      map[string]any `json:"details"`
	CreatedAt    string         `json:"created_at"`
	PrevHash     string         `json:"prev_hash"`
}

// ComputeHash returns the SHA-256 of the entry's canonical content.
// Sequence is excluded: it is assigned by the store and only orders the
// chain.
func (e *Entry) ComputeHash() string {
	payload := hashPayload{
		ID:           e.ID,
		Action:       e.Action,
		Actor:        e.Actor,
		ResourceType: e.ResourceType,
		ResourceID:   e.ResourceID,
		Details:      e.Details,
		CreatedAt:    e.CreatedAt.UTC().Format(time.RFC3339Nano),
		PrevHash:     e.PrevHash,
	}

	data, _ := json.Marshal(payload)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Seal sets PrevHash from the previous entry and computes the hash.
// The first entry of the chain seals against an empty previous hash.
func (e *Entry) Seal(prevHash string) {
	e.PrevHash = prevHash
	e.Hash = e.ComputeHash()
}

// VerifyChain recomputes every hash in sequence order and checks the
// links between entries. Entries must be passed in sequence order.
func VerifyChain(entries []Entry) error {
	prevHash := ""
	for i, e := range entries {
		if e.PrevHash != prevHash {
			return fmt.Errorf("entry %d (seq %d): prev_hash mismatch", i, e.Sequence)
		}
		if e.ComputeHash() != e.Hash {
			return fmt.Errorf("entry %d (seq %d): content does not match hash", i, e.Sequence)
		}
		prevHash = e.Hash
	}
	return nil
}

// ListFilter narrows an audit listing
type ListFilter struct {
	Action       string
	ResourceType string
	ResourceID   string
	Limit        int
	Offset       int
}

// VerifyResult is the outcome of a chain verification pass
type VerifyResult struct {
	Valid   bool   `json:"valid"`
	Entries int    `json:"entries"`
	Error   string `json:"error,omitempty"`
}
