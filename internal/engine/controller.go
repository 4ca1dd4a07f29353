package engine

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/recallengine/recall/internal/llm"
	"github.com/recallengine/recall/internal/storage"
	"github.com/recallengine/recall/pkg/types"
)

// fallbackReply is returned when the response model call fails. Memory work
// for the turn has already been committed by then.
const fallbackReply = "I'm having trouble generating a response right now. Please try again in a moment."

// Controller orchestrates one conversation turn: extract and persist
// memories from the input, classify intent, retrieve and inject relevant
// memories, and produce the assistant's reply.
//
// Turns for the same owner are serialized; different owners proceed
// concurrently.
type Controller struct {
	store     storage.MemoryStore
	caller    llm.ModelCaller
	extractor *Extractor
	retriever *Retriever
	params    Params

	ownerLocks sync.Map // owner id -> *sync.Mutex
}

// NewController wires a controller from its collaborators.
func NewController(store storage.MemoryStore, caller llm.ModelCaller, params Params) *Controller {
	params = params.Normalize()
	return &Controller{
		store:     store,
		caller:    caller,
		extractor: NewExtractor(caller, params),
		retriever: NewRetriever(store, params),
		params:    params,
	}
}

// ProcessTurn runs the full memory lifecycle for one user turn and returns
// the result. It never returns an error: each stage degrades independently,
// and at worst the caller gets the fallback reply with whatever memory work
// did succeed.
func (c *Controller) ProcessTurn(ctx context.Context, ownerID, userInput string, turn int) *types.TurnResult {
	start := time.Now()
	lock := c.ownerLock(ownerID)
	lock.Lock()
	defer lock.Unlock()

	result := &types.TurnResult{Response: fallbackReply}

	// Stage 1: extraction. A failure here loses new memories for this turn
	// but must not block retrieval or the reply.
	candidates, err := c.extractor.Extract(ctx, userInput, turn)
	if err != nil {
		log.Printf("engine: extraction for %s turn %d: %v", ownerID, turn, err)
	}
	for _, cand := range candidates {
		if _, err := c.store.Upsert(ctx, storage.UpsertRequest{
			OwnerID:    ownerID,
			Kind:       cand.Kind,
			Key:        cand.Key,
			Value:      cand.Value,
			Confidence: cand.Confidence,
			SourceTurn: cand.SourceTurn,
		}); err != nil {
			log.Printf("engine: upsert %s/%s for %s: %v", cand.Kind, cand.Key, ownerID, err)
			continue
		}
		result.ExtractedMemories = append(result.ExtractedMemories, cand)
	}

	// Stage 2: intent and retrieval.
	intent := c.classify(ctx, userInput)
	result.Intent = string(intent)

	retrieved, err := c.retriever.Retrieve(ctx, ownerID, userInput, intent, turn)
	if err != nil {
		log.Printf("engine: retrieval for %s turn %d: %v", ownerID, turn, err)
	}
	result.RetrievedMemories = retrieved

	// Stage 3: response. The injected block carries the retrieved memories
	// as behavioral directives.
	reply, err := c.caller.Respond(ctx, BuildSystemDirectives(retrieved), userInput)
	if err != nil {
		log.Printf("engine: respond for %s turn %d: %v", ownerID, turn, err)
	} else {
		result.Response = reply
	}

	result.ProcessingTime = time.Since(start)
	return result
}

// classify picks the turn's intent. The heuristic classifier always runs;
// when ModelIntentFallback is enabled and the heuristic lands on CHIT_CHAT
// for substantial input, the model gets one chance to refine the label.
func (c *Controller) classify(ctx context.Context, userInput string) Intent {
	intent := ClassifyIntent(userInput)
	if intent != IntentChitChat || !c.params.ModelIntentFallback {
		return intent
	}
	if len(strings.Fields(userInput)) < 4 {
		return intent
	}

	raw, err := c.caller.Extract(ctx, llm.IntentPrompt(userInput))
	if err != nil {
		log.Printf("engine: intent fallback: %v", err)
		return intent
	}
	if label := llm.ParseIntentLabel(raw, AllIntents); label != "" {
		return Intent(label)
	}
	return intent
}

// ModelHealth reports the configured model name and the state of the
// circuit breaker guarding its calls.
func (c *Controller) ModelHealth() (model, breakerState string) {
	return c.caller.Model(), c.caller.BreakerState()
}

// Statistics reports memory analytics for an owner.
func (c *Controller) Statistics(ctx context.Context, ownerID string) (*types.Statistics, error) {
	return c.store.Statistics(ctx, ownerID)
}

// Memories lists an owner's stored memories across all kinds.
func (c *Controller) Memories(ctx context.Context, ownerID string, limit int) ([]*types.MemoryRecord, error) {
	if limit <= 0 {
		limit = c.params.FetchLimit
	}
	return c.store.Query(ctx, ownerID, nil, limit)
}

// Forget permanently deletes a memory by id. Administrative use only.
func (c *Controller) Forget(ctx context.Context, id string) error {
	return c.store.Delete(ctx, id)
}

func (c *Controller) ownerLock(ownerID string) *sync.Mutex {
	actual, _ := c.ownerLocks.LoadOrStore(ownerID, &sync.Mutex{})
	return actual.(*sync.Mutex)
}
