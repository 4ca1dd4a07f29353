package postgres_test

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recallengine/recall/internal/storage"
	"github.com/recallengine/recall/internal/storage/postgres"
	"github.com/recallengine/recall/pkg/types"
)

// newTestStore connects to the database named by POSTGRES_TEST_DSN. The
// integration tests are skipped when no test database is available.
func newTestStore(t *testing.T) *postgres.MemoryStore {
	t.Helper()

	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set; skipping PostgreSQL integration tests")
	}

	store, err := postgres.NewMemoryStore(dsn, storage.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return store
}

func TestUpsertMergeRule(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	req := storage.UpsertRequest{
		OwnerID:    "pg-test-owner",
		Kind:       types.KindFact,
		Key:        "name",
		Value:      "John",
		Confidence: 0.9,
		SourceTurn: 1,
	}
	id, err := store.Upsert(ctx, req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Delete(context.Background(), id) })

	// Below the merge threshold: discarded, same id returned.
	req.Value = "Johnny"
	req.Confidence = 0.5
	req.SourceTurn = 4
	id2, err := store.Upsert(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, id, id2)

	rec, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "John", rec.Value)
	assert.Equal(t, 0.9, rec.Confidence)

	// Higher confidence: value replaced, source_turn stays earliest.
	req.Value = "Jonathan"
	req.Confidence = 0.95
	req.SourceTurn = 6
	_, err = store.Upsert(ctx, req)
	require.NoError(t, err)

	rec, err = store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Jonathan", rec.Value)
	assert.Equal(t, 0.95, rec.Confidence)
	assert.Equal(t, 1, rec.SourceTurn)
}

func TestTouchAndUsage(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.Upsert(ctx, storage.UpsertRequest{
		OwnerID:    "pg-test-owner",
		Kind:       types.KindPreference,
		Key:        "interest",
		Value:      "chess",
		Confidence: 0.9,
		SourceTurn: 2,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Delete(context.Background(), id) })

	require.NoError(t, store.Touch(ctx, id, 1.0, 7))
	require.NoError(t, store.RecordUsage(ctx, id, 7, 0.33))

	rec, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 7, rec.LastUsedTurn)
	assert.Equal(t, 1.0, rec.DecayScore)

	assert.ErrorIs(t, store.Touch(ctx, "mem_missing00000", 1.0, 1), storage.ErrNotFound)
}
