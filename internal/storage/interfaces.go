// Package storage defines the persistence contract for the Recall memory
// lifecycle engine.
//
// The store is the only shared mutable resource in the system. Every method
// is independently atomic; no cross-record transactions are required. The
// defining invariant is uniqueness: at most one MemoryRecord exists per
// (owner_id, kind, key), enforced by a unique constraint plus a conditional
// merge on conflict.
package storage

import (
	"context"

	"github.com/recallengine/recall/pkg/types"
)

// MemoryStore provides the persistence operations consumed by the lifecycle
// engine. Implementations must serialize conflicting upserts for the same
// (owner_id, kind, key) so the one-row invariant always holds.
type MemoryStore interface {
	// Upsert inserts a new memory or merges into the existing row for the
	// same (owner_id, kind, key). The merge applies only when the new
	// confidence is at least MergeThreshold times the existing confidence;
	// otherwise the existing row wins untouched. On merge: value is replaced
	// only if the new confidence is >= the existing one, confidence becomes
	// the max of the two, source_turn the min (earliest-observed), and
	// decay_score is lifted to at least MergeDecayFloor.
	// Returns the id of the surviving row (new or existing).
	Upsert(ctx context.Context, req UpsertRequest) (string, error)

	// Query returns records for an owner, optionally filtered to kinds,
	// ordered by (last_used_turn DESC, confidence DESC). An empty kinds
	// slice means all kinds. No rows is not an error: the result is empty.
	Query(ctx context.Context, ownerID string, kinds []types.Kind, limit int) ([]*types.MemoryRecord, error)

	// Get retrieves a single record by id. Returns ErrNotFound if absent.
	Get(ctx context.Context, id string) (*types.MemoryRecord, error)

	// Touch updates decay_score and last_used_turn on the named record.
	// Returns ErrNotFound if the record no longer exists; callers may
	// ignore that.
	Touch(ctx context.Context, id string, newDecay float64, usedAtTurn int) error

	// RecordUsage appends a usage event for analytics. Best-effort: a
	// failure here must never abort the surrounding turn.
	RecordUsage(ctx context.Context, id string, usedAtTurn int, relevance float64) error

	// RecordUsageBatch appends several usage events. Best-effort like
	// RecordUsage; implementations may stop at the first failure.
	RecordUsageBatch(ctx context.Context, events []types.UsageEvent) error

	// Delete permanently removes a record and its usage events. This is an
	// administrative primitive; the lifecycle engine never calls it.
	// Returns ErrNotFound if the record doesn't exist.
	Delete(ctx context.Context, id string) error

	// Statistics aggregates an owner's memory usage. Analytics only.
	Statistics(ctx context.Context, ownerID string) (*types.Statistics, error)

	// Close releases any resources held by the store.
	Close() error
}

// UpsertRequest carries the fields of a candidate write. LastUsedTurn is
// initialized to SourceTurn and DecayScore to 1.0 on insert; both are
// store-managed afterwards.
type UpsertRequest struct {
	OwnerID    string
	Kind       types.Kind
	Key        string
	Value      string
	Confidence float64
	SourceTurn int
}
