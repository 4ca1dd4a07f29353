package engine

import (
	"strings"

	"github.com/recallengine/recall/pkg/types"
)

// Intent is the coarse category of a user utterance. It restricts which
// memory kinds are eligible for retrieval this turn.
type Intent string

const (
	IntentScheduling       Intent = "SCHEDULING"
	IntentCommunication    Intent = "COMMUNICATION"
	IntentPersonalQuery    Intent = "PERSONAL_QUERY"
	IntentGeneralKnowledge Intent = "GENERAL_KNOWLEDGE"
	IntentCommand          Intent = "COMMAND"
	IntentPlanning         Intent = "PLANNING"
	IntentChitChat         Intent = "CHIT_CHAT"
)

// AllIntents lists every intent label, used by the model-assisted fallback
// to validate single-word classifications.
var AllIntents = []string{
	string(IntentScheduling), string(IntentCommunication), string(IntentPersonalQuery),
	string(IntentGeneralKnowledge), string(IntentCommand), string(IntentPlanning),
	string(IntentChitChat),
}

// intentKinds maps each intent to the memory kinds eligible for retrieval.
// GENERAL_KNOWLEDGE and CHIT_CHAT map to nothing: retrieval short-circuits
// to empty rather than broadening, to keep prompts clean.
var intentKinds = map[Intent][]types.Kind{
	IntentScheduling:       {types.KindPreference, types.KindConstraint, types.KindCommitment, types.KindInstruction},
	IntentCommunication:    {types.KindPreference, types.KindInstruction, types.KindFact},
	IntentPersonalQuery:    {types.KindFact, types.KindPreference, types.KindCommitment, types.KindConstraint, types.KindInstruction},
	IntentGeneralKnowledge: {},
	IntentCommand:          {types.KindInstruction, types.KindConstraint},
	IntentPlanning:         {types.KindPreference, types.KindConstraint, types.KindCommitment},
	IntentChitChat:         {},
}

// EligibleKinds returns the memory kinds retrievable under an intent.
func EligibleKinds(intent Intent) []types.Kind {
	return intentKinds[intent]
}

// Keyword sets for the heuristic classifier. Categories overlap in keyword
// space, so evaluation order decides the outcome; see ClassifyIntent.
var (
	personalPhrases = []string{
		"my name", "who am i", "where do i", "do you know", "remember",
		"about me", "my hobbies", "my job", "my preferences",
	}
	knowledgePhrases = []string{
		"what is", "what are", "what's", "capital of", "define", "explain",
		"how does", "how many",
	}
	schedulingKeywords = []string{
		"call", "schedule", "meet", "tomorrow", "time", "busy", "free", "calendar",
	}
	communicationKeywords = []string{
		"language", "speak", "talk", "email", "text", "voice", "english",
	}
	commandKeywords = []string{
		"always", "never", "must", "remember to", "don't", "do not",
	}
	planningKeywords = []string{
		"plan", "help me", "i need to", "organize", "arrange",
	}
	firstPersonMarkers = []string{"i ", "my "}
)

// ClassifyIntent classifies an utterance with first-match-wins rules. The
// evaluation order is deliberate and load-bearing: personal questions must
// win over general-knowledge phrasings ("what is my name"), and explicit
// category keywords must win over the first-person fallback. Changing the
// order changes classifications.
func ClassifyIntent(text string) Intent {
	normalized := strings.ToLower(text)

	if containsAny(normalized, personalPhrases) {
		return IntentPersonalQuery
	}
	if containsAny(normalized, knowledgePhrases) {
		return IntentGeneralKnowledge
	}
	if containsAny(normalized, schedulingKeywords) {
		return IntentScheduling
	}
	if containsAny(normalized, communicationKeywords) {
		return IntentCommunication
	}
	if containsAny(normalized, commandKeywords) {
		return IntentCommand
	}
	if containsAny(normalized, planningKeywords) {
		return IntentPlanning
	}

	if len(strings.Fields(normalized)) < 4 || strings.HasSuffix(strings.TrimSpace(normalized), "?") {
		return IntentChitChat
	}
	if containsAny(normalized, firstPersonMarkers) {
		return IntentPersonalQuery
	}
	return IntentChitChat
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
