// Package engine implements the memory lifecycle: extraction gating and
// validation, intent-conditioned retrieval scoring, behavioral injection,
// and the per-turn orchestration that ties them to the store and the model.
package engine

// Params holds the engine's tuning constants. The values are empirically
// chosen; they are configuration rather than hard-coded truths so a
// deployment can adjust them without a rebuild.
type Params struct {
	// ConfidenceFloor rejects extraction candidates below this confidence.
	// Deliberately looser than the model-facing directive's 0.85, since
	// models do not always obey instructions exactly.
	ConfidenceFloor float64

	// RetrievalCutoff discards scored memories at or below this final score
	// so low-relevance noise never reaches the prompt.
	RetrievalCutoff float64

	// DecayBase and DecayHorizon define the freshness curve:
	// decay = DecayBase ^ (elapsed / DecayHorizon).
	DecayBase    float64
	DecayHorizon float64

	// DecayFloor is the minimum decay; memories never fully vanish.
	DecayFloor float64

	// KeyMatchBonus is added to lexical relevance when a memory's key
	// appears verbatim in the input.
	KeyMatchBonus float64

	// TopK caps how many memories are injected per turn.
	TopK int

	// FetchLimit bounds the candidate fetch from the store.
	FetchLimit int

	// ExtractionCacheSize is the LRU capacity for cached extraction
	// results, keyed by input hash. Zero means the default capacity;
	// a negative value disables the cache.
	ExtractionCacheSize int

	// ModelIntentFallback enables asking the model for an intent label when
	// the heuristic classifier yields CHIT_CHAT on substantial input.
	ModelIntentFallback bool
}

// DefaultParams returns the standard tuning.
func DefaultParams() Params {
	return Params{
		ConfidenceFloor:     0.5,
		RetrievalCutoff:     0.15,
		DecayBase:           0.95,
		DecayHorizon:        100,
		DecayFloor:          0.1,
		KeyMatchBonus:       0.3,
		TopK:                3,
		FetchLimit:          50,
		ExtractionCacheSize: 256,
		ModelIntentFallback: false,
	}
}

// Normalize fills zero values with defaults so a partially-populated Params
// behaves sensibly.
func (p Params) Normalize() Params {
	def := DefaultParams()
	if p.ConfidenceFloor <= 0 {
		p.ConfidenceFloor = def.ConfidenceFloor
	}
	if p.RetrievalCutoff <= 0 {
		p.RetrievalCutoff = def.RetrievalCutoff
	}
	if p.DecayBase <= 0 {
		p.DecayBase = def.DecayBase
	}
	if p.DecayHorizon <= 0 {
		p.DecayHorizon = def.DecayHorizon
	}
	if p.DecayFloor <= 0 {
		p.DecayFloor = def.DecayFloor
	}
	if p.KeyMatchBonus <= 0 {
		p.KeyMatchBonus = def.KeyMatchBonus
	}
	if p.TopK <= 0 {
		p.TopK = def.TopK
	}
	if p.FetchLimit <= 0 {
		p.FetchLimit = def.FetchLimit
	}
	if p.ExtractionCacheSize == 0 {
		p.ExtractionCacheSize = def.ExtractionCacheSize
	}
	return p
}
