// Package sqlite provides the SQLite implementation of the memory store.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/recallengine/recall/internal/storage"
	"github.com/recallengine/recall/pkg/types"
)

// MemoryStore implements storage.MemoryStore using SQLite.
type MemoryStore struct {
	db   *sql.DB
	opts storage.Options
}

// NewMemoryStore opens a SQLite database at dsn (":memory:" for tests),
// configures WAL mode, and applies the schema.
func NewMemoryStore(dsn string, opts storage.Options) (*MemoryStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to open database: %w", err)
	}

	// SQLite only supports one concurrent writer. A single open connection
	// serialises writes and avoids SQLITE_BUSY errors under concurrent load.
	// WAL mode lets readers proceed without blocking the writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: failed to enable WAL mode: %w", err)
	}

	// Wait instead of failing immediately when the connection is held by
	// another goroutine.
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: failed to set busy timeout: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: failed to enable foreign keys: %w", err)
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: failed to create schema: %w", err)
	}

	return &MemoryStore{db: db, opts: opts.Normalize()}, nil
}

// newMemoryID generates a record id in the mem_<12 hex> format.
func newMemoryID() string {
	return "mem_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// Upsert inserts a new memory or merges into the existing (owner, kind, key)
// row. The conditional update encodes the merge rule in a single statement so
// concurrent upserts serialize on the unique constraint and the winning value
// is deterministic.
func (s *MemoryStore) Upsert(ctx context.Context, req storage.UpsertRequest) (string, error) {
	if req.OwnerID == "" || req.Key == "" || req.Value == "" {
		return "", fmt.Errorf("%w: owner_id, key, and value are required", storage.ErrInvalidInput)
	}
	if !types.IsValidKind(req.Kind) {
		return "", fmt.Errorf("%w: unknown kind %q", storage.ErrInvalidInput, req.Kind)
	}

	now := time.Now().UTC()
	id := newMemoryID()

	query := `
		INSERT INTO memories (
			id, owner_id, kind, key, value, confidence,
			source_turn, last_used_turn, decay_score, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1.0, ?, ?)
		ON CONFLICT(owner_id, kind, key) DO UPDATE SET
			value = CASE
				WHEN excluded.confidence >= memories.confidence
				THEN excluded.value
				ELSE memories.value
			END,
			confidence = MAX(memories.confidence, excluded.confidence),
			source_turn = MIN(memories.source_turn, excluded.source_turn),
			decay_score = MAX(memories.decay_score, ?),
			updated_at = excluded.updated_at
		WHERE excluded.confidence >= memories.confidence * ?
	`

	_, err := s.db.ExecContext(ctx, query,
		id, req.OwnerID, string(req.Kind), req.Key, req.Value, req.Confidence,
		req.SourceTurn, req.SourceTurn, now, now,
		s.opts.MergeDecayFloor, s.opts.MergeThreshold,
	)
	if err != nil {
		return "", fmt.Errorf("sqlite: failed to upsert memory: %w", err)
	}

	// The insert may have been absorbed by the conflict clause (merged or
	// discarded); the surviving row's id is authoritative either way.
	var survivingID string
	err = s.db.QueryRowContext(ctx,
		`SELECT id FROM memories WHERE owner_id = ? AND kind = ? AND key = ?`,
		req.OwnerID, string(req.Kind), req.Key,
	).Scan(&survivingID)
	if err != nil {
		return "", fmt.Errorf("sqlite: failed to resolve upserted memory id: %w", err)
	}

	return survivingID, nil
}

// Query returns an owner's records, optionally filtered to kinds, ordered by
// (last_used_turn DESC, confidence DESC).
func (s *MemoryStore) Query(ctx context.Context, ownerID string, kinds []types.Kind, limit int) ([]*types.MemoryRecord, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("%w: owner_id is required", storage.ErrInvalidInput)
	}
	if limit <= 0 {
		limit = 100
	}

	var (
		query strings.Builder
		args  []interface{}
	)
	query.WriteString(`
		SELECT id, owner_id, kind, key, value, confidence,
		       source_turn, last_used_turn, decay_score, created_at, updated_at
		FROM memories
		WHERE owner_id = ?`)
	args = append(args, ownerID)

	if len(kinds) > 0 {
		query.WriteString(" AND kind IN (?" + strings.Repeat(",?", len(kinds)-1) + ")")
		for _, k := range kinds {
			args = append(args, string(k))
		}
	}

	query.WriteString(" ORDER BY last_used_turn DESC, confidence DESC LIMIT ?")
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to query memories: %w", err)
	}
	defer rows.Close()

	var records []*types.MemoryRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: failed to iterate memories: %w", err)
	}

	return records, nil
}

// Get retrieves a single record by id.
func (s *MemoryStore) Get(ctx context.Context, id string) (*types.MemoryRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, kind, key, value, confidence,
		       source_turn, last_used_turn, decay_score, created_at, updated_at
		FROM memories WHERE id = ?`, id)

	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Touch updates decay_score and last_used_turn on a record.
func (s *MemoryStore) Touch(ctx context.Context, id string, newDecay float64, usedAtTurn int) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE memories
		SET decay_score = ?, last_used_turn = ?, updated_at = ?
		WHERE id = ?`,
		newDecay, usedAtTurn, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("sqlite: failed to touch memory: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: failed to check touch result: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// RecordUsage appends a single usage event.
func (s *MemoryStore) RecordUsage(ctx context.Context, id string, usedAtTurn int, relevance float64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO memory_usage (memory_id, used_at_turn, relevance_score)
		VALUES (?, ?, ?)`,
		id, usedAtTurn, relevance)
	if err != nil {
		return fmt.Errorf("sqlite: failed to record usage: %w", err)
	}
	return nil
}

// RecordUsageBatch appends several usage events, stopping at the first failure.
func (s *MemoryStore) RecordUsageBatch(ctx context.Context, events []types.UsageEvent) error {
	for _, ev := range events {
		if err := s.RecordUsage(ctx, ev.MemoryID, ev.UsedAtTurn, ev.RelevanceScore); err != nil {
			return err
		}
	}
	return nil
}

// Delete permanently removes a record; usage events cascade.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM memories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: failed to delete memory: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: failed to check delete result: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Statistics aggregates an owner's memory usage.
func (s *MemoryStore) Statistics(ctx context.Context, ownerID string) (*types.Statistics, error) {
	stats := &types.Statistics{KindDistribution: make(map[types.Kind]int)}

	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(AVG(confidence), 0),
		       COALESCE(SUM(CASE WHEN last_used_turn > source_turn THEN 1 ELSE 0 END), 0)
		FROM memories WHERE owner_id = ?`, ownerID,
	).Scan(&stats.TotalMemories, &stats.AverageConfidence, &stats.RecentlyUsed)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to aggregate statistics: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, COUNT(*) FROM memories WHERE owner_id = ? GROUP BY kind`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to aggregate kind distribution: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			kind  string
			count int
		)
		if err := rows.Scan(&kind, &count); err != nil {
			return nil, fmt.Errorf("sqlite: failed to scan kind distribution: %w", err)
		}
		stats.KindDistribution[types.Kind(kind)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: failed to iterate kind distribution: %w", err)
	}

	if stats.TotalMemories > 0 {
		stats.UtilizationRate = float64(stats.RecentlyUsed) / float64(stats.TotalMemories) * 100
	}
	return stats, nil
}

// Close releases the database connection.
func (s *MemoryStore) Close() error {
	return s.db.Close()
}

// GetDB exposes the underlying connection for administrative tooling.
func (s *MemoryStore) GetDB() *sql.DB {
	return s.db
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (*types.MemoryRecord, error) {
	var (
		rec  types.MemoryRecord
		kind string
	)
	err := row.Scan(&rec.ID, &rec.OwnerID, &kind, &rec.Key, &rec.Value,
		&rec.Confidence, &rec.SourceTurn, &rec.LastUsedTurn, &rec.DecayScore,
		&rec.CreatedAt, &rec.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to scan memory row: %w", err)
	}
	rec.Kind = types.Kind(kind)
	return &rec, nil
}
