package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recallengine/recall/internal/storage"
	"github.com/recallengine/recall/pkg/types"
)

// newTestStore creates an in-memory SQLite store for testing.
func newTestStore(t *testing.T) *MemoryStore {
	t.Helper()
	store, err := NewMemoryStore(":memory:", storage.Options{})
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func upsert(t *testing.T, s *MemoryStore, kind types.Kind, key, value string, confidence float64, turn int) string {
	t.Helper()
	id, err := s.Upsert(context.Background(), storage.UpsertRequest{
		OwnerID:    "owner-1",
		Kind:       kind,
		Key:        key,
		Value:      value,
		Confidence: confidence,
		SourceTurn: turn,
	})
	require.NoError(t, err)
	return id
}

func TestUpsertCreatesRecord(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id := upsert(t, store, types.KindFact, "name", "John", 0.95, 1)

	rec, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "owner-1", rec.OwnerID)
	assert.Equal(t, types.KindFact, rec.Kind)
	assert.Equal(t, "John", rec.Value)
	assert.Equal(t, 0.95, rec.Confidence)
	assert.Equal(t, 1, rec.SourceTurn)
	assert.Equal(t, 1, rec.LastUsedTurn, "last_used_turn initializes to source_turn")
	assert.Equal(t, 1.0, rec.DecayScore)
}

func TestUpsertIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id1 := upsert(t, store, types.KindFact, "name", "John", 0.9, 1)
	id2 := upsert(t, store, types.KindFact, "name", "John", 0.9, 1)

	assert.Equal(t, id1, id2, "second upsert resolves to the existing row")

	records, err := store.Query(ctx, "owner-1", nil, 10)
	require.NoError(t, err)
	require.Len(t, records, 1, "at most one row per (owner, kind, key)")
	assert.Equal(t, "John", records[0].Value)
	assert.Equal(t, 0.9, records[0].Confidence)
}

func TestUpsertHigherConfidenceReplacesValue(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id := upsert(t, store, types.KindFact, "location", "Boston", 0.6, 1)
	upsert(t, store, types.KindFact, "location", "New York", 0.9, 3)

	rec, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "New York", rec.Value)
	assert.Equal(t, 0.9, rec.Confidence, "confidence becomes max(existing, new)")
	assert.Equal(t, 1, rec.SourceTurn, "source_turn keeps the earliest observation")
}

func TestUpsertMuchLowerConfidenceDiscarded(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// 0.5 < 0.9 * 0.8, so the merge threshold rejects the update entirely.
	id := upsert(t, store, types.KindFact, "name", "John", 0.9, 1)
	id2 := upsert(t, store, types.KindFact, "name", "Johnny", 0.5, 4)

	assert.Equal(t, id, id2)

	rec, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "John", rec.Value)
	assert.Equal(t, 0.9, rec.Confidence)
}

func TestUpsertSlightlyLowerConfidenceMergesWithoutValueChange(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// 0.8 >= 0.9 * 0.8 passes the threshold, but value only changes when the
	// new confidence is >= the existing one.
	id := upsert(t, store, types.KindFact, "name", "John", 0.9, 1)
	upsert(t, store, types.KindFact, "name", "Jon", 0.8, 4)

	rec, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "John", rec.Value)
	assert.Equal(t, 0.9, rec.Confidence)
}

func TestUpsertMergeLiftsDecay(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id := upsert(t, store, types.KindPreference, "interest", "chess", 0.9, 1)
	require.NoError(t, store.Touch(ctx, id, 0.2, 5))

	upsert(t, store, types.KindPreference, "interest", "chess", 0.95, 8)

	rec, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 0.5, rec.DecayScore, "merge lifts decay to the floor")
}

func TestUpsertValidation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Upsert(ctx, storage.UpsertRequest{OwnerID: "o", Kind: "note", Key: "k", Value: "v"})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)

	_, err = store.Upsert(ctx, storage.UpsertRequest{OwnerID: "o", Kind: types.KindFact, Key: "", Value: "v"})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}

func TestQueryFiltersAndOrders(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	upsert(t, store, types.KindFact, "name", "John", 0.95, 1)
	upsert(t, store, types.KindFact, "location", "New York", 0.9, 1)
	idPref := upsert(t, store, types.KindPreference, "interest", "chess", 0.85, 2)

	// Bump the preference so it sorts first on last_used_turn.
	require.NoError(t, store.Touch(ctx, idPref, 1.0, 7))

	all, err := store.Query(ctx, "owner-1", nil, 10)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "interest", all[0].Key)
	// Equal last_used_turn (1): higher confidence first.
	assert.Equal(t, "name", all[1].Key)
	assert.Equal(t, "location", all[2].Key)

	facts, err := store.Query(ctx, "owner-1", []types.Kind{types.KindFact}, 10)
	require.NoError(t, err)
	assert.Len(t, facts, 2)

	none, err := store.Query(ctx, "owner-2", nil, 10)
	require.NoError(t, err)
	assert.Empty(t, none, "no rows is not an error")
}

func TestTouchMissingRecord(t *testing.T) {
	store := newTestStore(t)

	err := store.Touch(context.Background(), "mem_missing00000", 1.0, 3)
	assert.True(t, errors.Is(err, storage.ErrNotFound))
}

func TestRecordUsageAndDeleteCascade(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id := upsert(t, store, types.KindFact, "name", "John", 0.95, 1)
	require.NoError(t, store.RecordUsage(ctx, id, 5, 0.42))
	require.NoError(t, store.RecordUsageBatch(ctx, []types.UsageEvent{
		{MemoryID: id, UsedAtTurn: 6, RelevanceScore: 0.5},
		{MemoryID: id, UsedAtTurn: 7, RelevanceScore: 0.6},
	}))

	require.NoError(t, store.Delete(ctx, id))

	_, err := store.Get(ctx, id)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	var count int
	require.NoError(t, store.GetDB().QueryRow(
		`SELECT COUNT(*) FROM memory_usage WHERE memory_id = ?`, id).Scan(&count))
	assert.Zero(t, count, "usage events cascade on delete")

	assert.ErrorIs(t, store.Delete(ctx, id), storage.ErrNotFound)
}

func TestStatistics(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	idName := upsert(t, store, types.KindFact, "name", "John", 0.9, 1)
	upsert(t, store, types.KindFact, "location", "New York", 0.8, 1)
	upsert(t, store, types.KindPreference, "interest", "chess", 1.0, 2)

	require.NoError(t, store.Touch(ctx, idName, 1.0, 5))

	stats, err := store.Statistics(ctx, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalMemories)
	assert.Equal(t, 2, stats.KindDistribution[types.KindFact])
	assert.Equal(t, 1, stats.KindDistribution[types.KindPreference])
	assert.InDelta(t, 0.9, stats.AverageConfidence, 0.0001)
	assert.Equal(t, 1, stats.RecentlyUsed)
	assert.InDelta(t, 33.3, stats.UtilizationRate, 0.1)
}

func TestStatisticsEmptyOwner(t *testing.T) {
	store := newTestStore(t)

	stats, err := store.Statistics(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Zero(t, stats.TotalMemories)
	assert.Zero(t, stats.AverageConfidence)
	assert.Zero(t, stats.UtilizationRate)
}
