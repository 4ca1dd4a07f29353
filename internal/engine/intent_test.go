package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/recallengine/recall/pkg/types"
)

func TestClassifyIntent(t *testing.T) {
	cases := []struct {
		input string
		want  Intent
	}{
		// Personal phrases win over general-knowledge phrasings.
		{"What is my name?", IntentPersonalQuery},
		{"What are my hobbies?", IntentPersonalQuery},
		{"Do you know where I live?", IntentPersonalQuery},
		{"Do you remember my interest in chess?", IntentPersonalQuery},

		{"What is the capital of France?", IntentGeneralKnowledge},
		{"Explain how photosynthesis works", IntentGeneralKnowledge},

		{"Can we schedule a call tomorrow afternoon?", IntentScheduling},
		{"Are you free to meet next week sometime?", IntentScheduling},

		{"Please speak to me in formal English", IntentCommunication},
		{"Send that as an email instead please", IntentCommunication},

		{"Always respond with bullet points from now on", IntentCommand},
		{"Never mention that topic again going forward", IntentCommand},

		{"Help me organize a trip to Portugal", IntentPlanning},
		{"Can you arrange the agenda for next quarter", IntentPlanning},

		// Short or question-shaped fallthrough.
		{"hey", IntentChitChat},
		{"nice weather", IntentChitChat},
		{"really?", IntentChitChat},

		// First-person fallback for longer statements.
		{"I moved to Lisbon last month with family", IntentPersonalQuery},

		{"The weather has been pleasant around here lately", IntentChitChat},
	}
	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.want, ClassifyIntent(tc.input))
		})
	}
}

func TestEligibleKinds(t *testing.T) {
	assert.ElementsMatch(t, types.AllKinds, EligibleKinds(IntentPersonalQuery))
	assert.Empty(t, EligibleKinds(IntentGeneralKnowledge))
	assert.Empty(t, EligibleKinds(IntentChitChat))
	assert.ElementsMatch(t,
		[]types.Kind{types.KindInstruction, types.KindConstraint},
		EligibleKinds(IntentCommand))
	assert.ElementsMatch(t,
		[]types.Kind{types.KindPreference, types.KindConstraint, types.KindCommitment, types.KindInstruction},
		EligibleKinds(IntentScheduling))
	assert.ElementsMatch(t,
		[]types.Kind{types.KindPreference, types.KindInstruction, types.KindFact},
		EligibleKinds(IntentCommunication))
	assert.ElementsMatch(t,
		[]types.Kind{types.KindPreference, types.KindConstraint, types.KindCommitment},
		EligibleKinds(IntentPlanning))
}
