package engine

import (
	"context"
	"log"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/recallengine/recall/internal/storage"
	"github.com/recallengine/recall/pkg/types"
)

// Retriever scores stored memories against the current input and returns the
// best few. Retrieval has write side effects: every returned memory is
// touched (decay reset, last_used_turn advanced) and logged as a usage event.
type Retriever struct {
	store  storage.MemoryStore
	params Params
}

// NewRetriever builds a retriever over a store.
func NewRetriever(store storage.MemoryStore, params Params) *Retriever {
	return &Retriever{store: store, params: params.Normalize()}
}

// Retrieve returns up to TopK memories relevant to userInput under the given
// intent, scored by relevance * confidence * decay. Intents with no eligible
// kinds short-circuit to empty without touching the store.
func (r *Retriever) Retrieve(ctx context.Context, ownerID, userInput string, intent Intent, turn int) ([]types.ScoredMemory, error) {
	kinds := EligibleKinds(intent)
	if len(kinds) == 0 {
		return nil, nil
	}

	records, err := r.store.Query(ctx, ownerID, kinds, r.params.FetchLimit)
	if err != nil {
		return nil, err
	}

	scored := make([]types.ScoredMemory, 0, len(records))
	for _, rec := range records {
		relevance := r.lexicalRelevance(userInput, rec.Key, rec.Value)
		decay := r.RecomputeDecay(turn - rec.LastUsedTurn)
		final := relevance * rec.Confidence * decay
		if final <= r.params.RetrievalCutoff {
			continue
		}
		scored = append(scored, types.ScoredMemory{
			Record:    rec,
			Relevance: relevance,
			Decay:     decay,
			Score:     final,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if len(scored) > r.params.TopK {
		scored = scored[:r.params.TopK]
	}

	r.markUsed(ctx, scored, turn)
	return scored, nil
}

// markUsed resets decay on the retrieved records and appends usage events.
// Failures are logged, never propagated: retrieval already succeeded.
func (r *Retriever) markUsed(ctx context.Context, scored []types.ScoredMemory, turn int) {
	if len(scored) == 0 {
		return
	}
	events := make([]types.UsageEvent, 0, len(scored))
	for _, sm := range scored {
		if err := r.store.Touch(ctx, sm.Record.ID, 1.0, turn); err != nil {
			log.Printf("engine: touch %s: %v", sm.Record.ID, err)
			continue
		}
		sm.Record.DecayScore = 1.0
		sm.Record.LastUsedTurn = turn
		events = append(events, types.UsageEvent{
			MemoryID:       sm.Record.ID,
			UsedAtTurn:     turn,
			RelevanceScore: sm.Relevance,
		})
	}
	if err := r.store.RecordUsageBatch(ctx, events); err != nil {
		log.Printf("engine: record usage: %v", err)
	}
}

// RecomputeDecay computes freshness from the turns elapsed since last use:
// DecayBase ^ (elapsed / DecayHorizon), floored at DecayFloor. A freshly
// used memory (elapsed <= 0) scores 1.0. The persisted decay_score is a
// snapshot for inspection; scoring always recomputes from elapsed turns.
func (r *Retriever) RecomputeDecay(elapsed int) float64 {
	if elapsed <= 0 {
		return 1.0
	}
	decayed := math.Pow(r.params.DecayBase, float64(elapsed)/r.params.DecayHorizon)
	if decayed < r.params.DecayFloor {
		return r.params.DecayFloor
	}
	return decayed
}

// lexicalRelevance measures token overlap between the input and a memory's
// key plus value, normalized by the larger token set, with a bonus when the
// key itself appears verbatim in the input. Result is clamped to [0,1].
func (r *Retriever) lexicalRelevance(userInput, key, value string) float64 {
	inputTokens := tokenize(userInput)
	memoryTokens := tokenize(key + " " + value)
	if len(inputTokens) == 0 || len(memoryTokens) == 0 {
		return 0
	}

	overlap := 0
	for tok := range memoryTokens {
		if _, ok := inputTokens[tok]; ok {
			overlap++
		}
	}
	larger := len(inputTokens)
	if len(memoryTokens) > larger {
		larger = len(memoryTokens)
	}
	relevance := float64(overlap) / float64(larger)

	if key != "" && strings.Contains(strings.ToLower(userInput), strings.ToLower(key)) {
		relevance += r.params.KeyMatchBonus
	}
	if relevance > 1.0 {
		relevance = 1.0
	}
	return relevance
}

// tokenize splits on any non-letter, non-digit rune and lowercases, yielding
// a set rather than a sequence: repeated words do not weigh more.
func tokenize(s string) map[string]struct{} {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}
