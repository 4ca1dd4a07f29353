package llm

import "fmt"

// ExtractionPrompt builds the fixed extraction directive sent to the model.
// The directive asks for high-confidence items only; the engine still applies
// its own looser floor afterwards, since models do not always obey.
func ExtractionPrompt(userInput string, turn int) string {
	return fmt.Sprintf(`You are a Memory Extraction System. Analyze the USER INPUT and extract crucial, long-term information.

RULES:
1. Extract ONLY:
   - User PREFERENCES (likes/dislikes/habits)
   - Strict CONSTRAINTS (limitations/boundaries)
   - Long-term COMMITMENTS (promises/agreements)
   - Explicit INSTRUCTIONS (how to behave going forward)
   - Stable personal FACTS (name/job/location if permanent)
2. IGNORE:
   - Casual chatter and greetings
   - Questions
   - Context-dependent short-term info
   - Ambiguous statements
3. JSON OUTPUT FORMAT (array of objects):
   [
     {
       "type": "preference" | "constraint" | "commitment" | "instruction" | "fact",
       "key": "concise_unique_identifier",
       "value": "clear_extraction_value",
       "confidence": 0.0 to 1.0
     }
   ]
4. CONFIDENCE THRESHOLD: only include items with confidence > 0.85.
5. If nothing relevant is found, return a strict empty array: []

USER INPUT (Turn %d):
"%s"

JSON OUTPUT:`, turn, userInput)
}

// IntentPrompt builds the single-word intent classification prompt used by
// the optional model-assisted fallback when the heuristic classifier comes
// up empty on substantial input.
func IntentPrompt(userInput string) string {
	return fmt.Sprintf(`Classify the USER INTENT into one of these exact categories:
['SCHEDULING', 'COMMUNICATION', 'PERSONAL_QUERY', 'GENERAL_KNOWLEDGE', 'COMMAND', 'PLANNING', 'CHIT_CHAT']
Rules:
- 'PLANNING' if the user asks for help, plans, or hypothetical actions.
- 'SCHEDULING' for times and dates.
- 'COMMUNICATION' for language or tone.
- 'CHIT_CHAT' only if it is purely casual.

USER INPUT: "%s"

CATEGORY OUTPUT (just the word):`, userInput)
}
