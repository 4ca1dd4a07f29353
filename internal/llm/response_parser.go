package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// RawCandidate is one item of the model's extraction output, before the
// engine's validation pass. Field names mirror the model-facing contract.
type RawCandidate struct {
	Type       string  `json:"type"`
	Key        string  `json:"key"`
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
}

// candidateEnvelope matches the wrapped-object shape some models produce
// despite being asked for a bare array.
type candidateEnvelope struct {
	Memories []RawCandidate `json:"memories"`
}

// stripFences removes markdown code block markers that models add despite
// instructions, then trims to the outermost JSON bracket or brace pair.
func stripFences(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	text = strings.TrimSpace(text)

	// Some models prepend prose; cut to the first JSON delimiter and the
	// matching last one.
	arrStart := strings.Index(text, "[")
	objStart := strings.Index(text, "{")

	switch {
	case arrStart != -1 && (objStart == -1 || arrStart < objStart):
		if end := strings.LastIndex(text, "]"); end > arrStart {
			return text[arrStart : end+1]
		}
	case objStart != -1:
		if end := strings.LastIndex(text, "}"); end > objStart {
			return text[objStart : end+1]
		}
	}
	return text
}

// ParseCandidates parses model extraction output into raw candidates. It
// tolerates the shapes models actually produce: a bare JSON array, a single
// object (wrapped as a one-element result), an object with a "memories"
// array field, all optionally inside markdown code fences. Returns an error
// only when no attempt in the chain yields valid JSON; callers treat that as
// "nothing extracted".
func ParseCandidates(raw string) ([]RawCandidate, error) {
	clean := stripFences(raw)
	if clean == "" {
		return nil, fmt.Errorf("empty model output")
	}

	// Attempt 1: bare array.
	var arr []RawCandidate
	if err := json.Unmarshal([]byte(clean), &arr); err == nil {
		return arr, nil
	}

	// Attempt 2: wrapped object with a memories field.
	var envelope candidateEnvelope
	if err := json.Unmarshal([]byte(clean), &envelope); err == nil && envelope.Memories != nil {
		return envelope.Memories, nil
	}

	// Attempt 3: a single candidate object.
	var single RawCandidate
	if err := json.Unmarshal([]byte(clean), &single); err == nil && (single.Key != "" || single.Value != "") {
		return []RawCandidate{single}, nil
	}

	return nil, fmt.Errorf("model output is not a recognizable candidate shape")
}

// ParseIntentLabel normalizes a single-word intent classification reply.
// Returns the matching label or "" when the reply contains none.
func ParseIntentLabel(raw string, valid []string) string {
	upper := strings.ToUpper(strings.TrimSpace(raw))
	for _, v := range valid {
		if strings.Contains(upper, v) {
			return v
		}
	}
	return ""
}
