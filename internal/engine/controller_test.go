package engine

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recallengine/recall/pkg/types"
)

func TestProcessTurnExtractsAndStores(t *testing.T) {
	store := newEngineTestStore(t)
	caller := &fakeCaller{
		extractResponse: `[
			{"type": "fact", "key": "name", "value": "John", "confidence": 0.95},
			{"type": "fact", "key": "location", "value": "New York", "confidence": 0.9}
		]`,
		respondResponse: "Nice to meet you, John!",
	}
	c := NewController(store, caller, DefaultParams())

	result := c.ProcessTurn(context.Background(), "u1", "My name is John and I live in New York", 1)

	assert.Equal(t, "Nice to meet you, John!", result.Response)
	assert.Len(t, result.ExtractedMemories, 2)
	assert.Equal(t, string(IntentPersonalQuery), result.Intent)

	records, err := store.Query(context.Background(), "u1", nil, 10)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestProcessTurnRecallAcrossTurns(t *testing.T) {
	store := newEngineTestStore(t)
	caller := &fakeCaller{
		extractResponse: `[
			{"type": "fact", "key": "name", "value": "John", "confidence": 0.95},
			{"type": "fact", "key": "location", "value": "New York", "confidence": 0.9}
		]`,
		respondResponse: "Got it!",
	}
	c := NewController(store, caller, DefaultParams())
	ctx := context.Background()

	c.ProcessTurn(ctx, "u1", "My name is John and I live in New York", 1)

	// The recall turn is a question, so the gate skips extraction entirely.
	caller.respondResponse = "Your name is John."
	result := c.ProcessTurn(ctx, "u1", "What is my name?", 5)

	assert.Equal(t, string(IntentPersonalQuery), result.Intent)
	assert.Empty(t, result.ExtractedMemories)
	require.Len(t, result.RetrievedMemories, 1)
	assert.Equal(t, "name", result.RetrievedMemories[0].Record.Key)
	assert.Contains(t, caller.lastDirectives, "ACTIVE MEMORY CONTEXT:")
	assert.Contains(t, caller.lastDirectives, "User Context: name is John.")
	assert.Equal(t, "Your name is John.", result.Response)
	assert.Equal(t, 1, caller.extractCalls, "question turns never call the extraction model")
}

func TestProcessTurnPreferenceRecall(t *testing.T) {
	store := newEngineTestStore(t)
	caller := &fakeCaller{
		extractResponse: `[{"type": "preference", "key": "interest", "value": "chess", "confidence": 0.9}]`,
		respondResponse: "Chess is a great game!",
	}
	c := NewController(store, caller, DefaultParams())
	ctx := context.Background()

	first := c.ProcessTurn(ctx, "u1", "I like chess", 2)
	require.Len(t, first.ExtractedMemories, 1)
	assert.Equal(t, types.KindPreference, first.ExtractedMemories[0].Kind)

	caller.respondResponse = "You are into chess."
	result := c.ProcessTurn(ctx, "u1", "Do you remember my interest in chess?", 3)

	assert.Equal(t, string(IntentPersonalQuery), result.Intent)
	require.Len(t, result.RetrievedMemories, 1)
	assert.Contains(t, caller.lastDirectives, "User preference (interest): chess.")
}

func TestProcessTurnChitChatSkipsMemory(t *testing.T) {
	store := newEngineTestStore(t)
	caller := &fakeCaller{extractResponse: `[]`, respondResponse: "Hey there!"}
	c := NewController(store, caller, DefaultParams())

	result := c.ProcessTurn(context.Background(), "u1", "hey", 1)

	assert.Equal(t, string(IntentChitChat), result.Intent)
	assert.Empty(t, result.ExtractedMemories)
	assert.Empty(t, result.RetrievedMemories)
	assert.NotContains(t, caller.lastDirectives, "ACTIVE MEMORY CONTEXT")
	assert.Equal(t, "Hey there!", result.Response)
}

func TestProcessTurnFallbackOnRespondFailure(t *testing.T) {
	store := newEngineTestStore(t)
	caller := &fakeCaller{
		extractResponse: `[{"type": "preference", "key": "food", "value": "sushi", "confidence": 0.9}]`,
		respondErr:      errors.New("model unavailable"),
	}
	c := NewController(store, caller, DefaultParams())

	result := c.ProcessTurn(context.Background(), "u1", "I really enjoy eating sushi for dinner", 1)

	assert.Equal(t, fallbackReply, result.Response)
	// Memory work committed before the failure is kept.
	assert.Len(t, result.ExtractedMemories, 1)
	records, err := store.Query(context.Background(), "u1", nil, 10)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestProcessTurnExtractionFailureDoesNotBlockReply(t *testing.T) {
	store := newEngineTestStore(t)
	caller := &fakeCaller{
		extractErr:      errors.New("timeout"),
		respondResponse: "Sounds good!",
	}
	c := NewController(store, caller, DefaultParams())

	result := c.ProcessTurn(context.Background(), "u1", "I really enjoy eating sushi for dinner", 1)

	assert.Equal(t, "Sounds good!", result.Response)
	assert.Empty(t, result.ExtractedMemories)
}

func TestProcessTurnSerializesPerOwner(t *testing.T) {
	store := newEngineTestStore(t)
	caller := &fakeCaller{
		extractResponse: `[{"type": "fact", "key": "name", "value": "John", "confidence": 0.9}]`,
		respondResponse: "ok",
	}
	c := NewController(store, caller, DefaultParams())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 1; i <= 8; i++ {
		wg.Add(1)
		go func(turn int) {
			defer wg.Done()
			c.ProcessTurn(ctx, "u1", "My name is John and I live here", turn)
		}(i)
	}
	wg.Wait()

	// One (owner, kind, key) slot regardless of concurrent writers.
	records, err := store.Query(ctx, "u1", nil, 10)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestControllerForgetAndStatistics(t *testing.T) {
	store := newEngineTestStore(t)
	caller := &fakeCaller{respondResponse: "ok"}
	c := NewController(store, caller, DefaultParams())
	ctx := context.Background()

	id := seedMemory(t, store, "u1", types.KindFact, "name", "John", 0.9, 1)

	stats, err := c.Statistics(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalMemories)

	require.NoError(t, c.Forget(ctx, id))
	stats, err = c.Statistics(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, stats.TotalMemories)
}
