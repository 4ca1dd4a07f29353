package engine

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/recallengine/recall/internal/llm"
	"github.com/recallengine/recall/pkg/types"
)

// placeholderValues are model outputs that carry no information. A candidate
// whose value normalizes to one of these is dropped before it can pollute
// the store.
var placeholderValues = map[string]struct{}{
	"null": {}, "none": {}, "": {}, "unknown": {}, "n/a": {}, "not specified": {},
}

// Extractor turns raw user input into validated memory candidates. It gates
// inputs that cannot contain memorable content, caches results by input hash,
// and sanitizes whatever the model returns.
type Extractor struct {
	caller llm.ModelCaller
	params Params
	cache  *lru.Cache[string, []types.Candidate]
}

// NewExtractor builds an extractor around a model caller. The cache is on
// by default; a negative ExtractionCacheSize disables it.
func NewExtractor(caller llm.ModelCaller, params Params) *Extractor {
	e := &Extractor{caller: caller, params: params.Normalize()}
	if e.params.ExtractionCacheSize > 0 {
		// lru.New only errors on non-positive size, which is excluded here.
		e.cache, _ = lru.New[string, []types.Candidate](e.params.ExtractionCacheSize)
	}
	return e
}

// Extract returns the validated memory candidates found in userInput, stamped
// with the given turn. Inputs that cannot contain durable information are
// gated out without a model call. A failed model call returns an error;
// unparseable model output degrades to no candidates rather than an error.
func (e *Extractor) Extract(ctx context.Context, userInput string, turn int) ([]types.Candidate, error) {
	if !shouldExtract(userInput) {
		return nil, nil
	}

	key := cacheKey(userInput)
	if e.cache != nil {
		if cached, ok := e.cache.Get(key); ok {
			return stampTurn(cached, turn), nil
		}
	}

	raw, err := e.caller.Extract(ctx, llm.ExtractionPrompt(userInput, turn))
	if err != nil {
		return nil, fmt.Errorf("extraction call: %w", err)
	}

	parsed, err := llm.ParseCandidates(raw)
	if err != nil {
		log.Printf("extractor: unparseable model output: %v", err)
		return nil, nil
	}

	candidates := e.validate(parsed)
	if e.cache != nil {
		e.cache.Add(key, candidates)
	}
	return stampTurn(candidates, turn), nil
}

// shouldExtract gates inputs with no chance of memorable content: empty or
// whitespace text, questions, and fragments under three characters.
func shouldExtract(userInput string) bool {
	trimmed := strings.TrimSpace(userInput)
	if trimmed == "" || len(trimmed) < 3 {
		return false
	}
	if strings.HasSuffix(trimmed, "?") {
		return false
	}
	return true
}

// validate sanitizes raw model output into storable candidates. Invalid
// kinds are remapped from the key's shape rather than dropped, placeholder
// values and sub-floor confidence are rejected, and surviving confidence is
// clamped to at most 1.0.
func (e *Extractor) validate(raw []llm.RawCandidate) []types.Candidate {
	candidates := make([]types.Candidate, 0, len(raw))
	for _, rc := range raw {
		key := strings.ToLower(strings.TrimSpace(rc.Key))
		value := strings.TrimSpace(rc.Value)
		if key == "" {
			continue
		}
		if _, bad := placeholderValues[strings.ToLower(value)]; bad {
			continue
		}

		kind := types.Kind(strings.ToLower(strings.TrimSpace(rc.Type)))
		if !types.IsValidKind(kind) {
			kind = remapKind(key, value)
			log.Printf("extractor: remapped invalid kind %q to %q for key %q", rc.Type, kind, key)
		}

		confidence := rc.Confidence
		if confidence < e.params.ConfidenceFloor {
			continue
		}
		if confidence > 1.0 {
			confidence = 1.0
		}

		candidates = append(candidates, types.Candidate{
			Kind:       kind,
			Key:        key,
			Value:      value,
			Confidence: confidence,
		})
	}
	return candidates
}

// remapKind guesses a kind when the model invents one outside the enum.
// Identity-shaped keys become facts, sentiment verbs become preferences,
// anything else defaults to fact.
func remapKind(key, value string) types.Kind {
	switch {
	case strings.Contains(key, "name") || strings.Contains(key, "location") || strings.Contains(key, "job"):
		return types.KindFact
	case containsAny(strings.ToLower(value), []string{"like", "prefer", "hate", "love", "favorite"}):
		return types.KindPreference
	default:
		return types.KindFact
	}
}

func stampTurn(candidates []types.Candidate, turn int) []types.Candidate {
	if len(candidates) == 0 {
		return nil
	}
	out := make([]types.Candidate, len(candidates))
	copy(out, candidates)
	for i := range out {
		out[i].SourceTurn = turn
	}
	return out
}

func cacheKey(userInput string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(userInput)))
	return hex.EncodeToString(sum[:])
}
