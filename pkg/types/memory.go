// Package types defines the core data model for the Recall memory system.
// Memory records are the atomic units of long-term memory: durable, keyed
// facts about a single owner with confidence and freshness tracking.
package types

import "time"

// Kind classifies what a memory record represents. The enum is closed:
// no other values are ever stored.
type Kind string

const (
	KindPreference  Kind = "preference"
	KindConstraint  Kind = "constraint"
	KindCommitment  Kind = "commitment"
	KindInstruction Kind = "instruction"
	KindFact        Kind = "fact"
)

// AllKinds lists every valid memory kind in a stable order.
var AllKinds = []Kind{KindPreference, KindConstraint, KindCommitment, KindInstruction, KindFact}

// IsValidKind reports whether k is a member of the closed kind enum.
func IsValidKind(k Kind) bool {
	switch k {
	case KindPreference, KindConstraint, KindCommitment, KindInstruction, KindFact:
		return true
	}
	return false
}

// MemoryRecord is a single durable memory about an owner. At most one record
// exists per (owner_id, kind, key); conflicting writes merge according to the
// store's confidence rule.
type MemoryRecord struct {
	ID           string    `json:"id"`             // Unique identifier (format: mem_<12 hex>), immutable
	OwnerID      string    `json:"owner_id"`       // User/conversation this memory belongs to
	Kind         Kind      `json:"kind"`           // Closed enum: preference, constraint, commitment, instruction, fact
	Key          string    `json:"key"`            // Stable semantic slot (e.g. "name", "location")
	Value        string    `json:"value"`          // Free-text content
	Confidence   float64   `json:"confidence"`     // Extraction certainty in [0,1]
	SourceTurn   int       `json:"source_turn"`    // Turn at which the memory was first observed
	LastUsedTurn int       `json:"last_used_turn"` // Turn of most recent retrieval use
	DecayScore   float64   `json:"decay_score"`    // Relevance freshness in [0,1]
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Candidate is a validated extraction result: a memory that the extractor
// believes is worth persisting, prior to the store's merge decision.
type Candidate struct {
	Kind       Kind    `json:"kind"`
	Key        string  `json:"key"`
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
	SourceTurn int     `json:"source_turn"`
}

// UsageEvent records one retrieval use of a memory. Events are append-only
// and consulted for analytics only, never for retrieval correctness.
type UsageEvent struct {
	MemoryID       string    `json:"memory_id"`
	UsedAtTurn     int       `json:"used_at_turn"`
	RelevanceScore float64   `json:"relevance_score"`
	CreatedAt      time.Time `json:"created_at"`
}

// ScoredMemory pairs a retrieved record with its retrieval score components.
type ScoredMemory struct {
	Record    *MemoryRecord `json:"record"`
	Relevance float64       `json:"relevance"`
	Decay     float64       `json:"decay"`
	Score     float64       `json:"score"` // relevance * confidence * decay
}

// Statistics aggregates an owner's memory usage. Analytics only.
type Statistics struct {
	TotalMemories     int          `json:"total_memories"`
	KindDistribution  map[Kind]int `json:"kind_distribution"`
	AverageConfidence float64      `json:"average_confidence"`
	RecentlyUsed      int          `json:"recently_used"`
	UtilizationRate   float64      `json:"utilization_rate"` // recently used / total, as a percentage
}

// TurnResult is the outcome of processing one conversation turn.
type TurnResult struct {
	Response          string         `json:"response"`
	ExtractedMemories []Candidate    `json:"extracted_memories"`
	RetrievedMemories []ScoredMemory `json:"retrieved_memories"`
	Intent            string         `json:"intent"`
	ProcessingTime    time.Duration  `json:"processing_time"`
}
