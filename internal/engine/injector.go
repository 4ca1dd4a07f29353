package engine

import (
	"fmt"
	"strings"

	"github.com/recallengine/recall/pkg/types"
)

// RenderDirective formats a single memory as a behavioral instruction for
// the model. The templates phrase each kind as an obligation on the
// assistant, not as a stored datum: memories steer behavior, they are not
// recited back.
func RenderDirective(rec *types.MemoryRecord) string {
	key := strings.TrimSpace(rec.Key)
	value := strings.TrimSpace(rec.Value)
	if key == "" || value == "" {
		return ""
	}
	switch rec.Kind {
	case types.KindPreference:
		return fmt.Sprintf("User preference (%s): %s.", key, value)
	case types.KindConstraint:
		return fmt.Sprintf("Strict Constraint: %s must occur %s.", key, value)
	case types.KindCommitment:
		return fmt.Sprintf("Active Commitment: %s.", value)
	case types.KindInstruction:
		return fmt.Sprintf("Permanent Instruction: %s.", value)
	case types.KindFact:
		return fmt.Sprintf("User Context: %s is %s.", key, value)
	default:
		return fmt.Sprintf("Note: %s is %s.", key, value)
	}
}

// responsePreamble frames every response call. It is constant so behavior
// differences between turns come only from the injected memory block.
const responsePreamble = "You are a helpful personal assistant with long-term memory. " +
	"Follow every directive below exactly. Directives reflect what you know " +
	"about this user; apply them without mentioning that they come from memory."

// BuildSystemDirectives assembles the system prompt for a response call:
// the fixed preamble, plus an ACTIVE MEMORY CONTEXT block when any scored
// memories survived retrieval. Memories arrive ranked; rendering preserves
// that order.
func BuildSystemDirectives(memories []types.ScoredMemory) string {
	var b strings.Builder
	b.WriteString(responsePreamble)

	lines := make([]string, 0, len(memories))
	for _, sm := range memories {
		if line := RenderDirective(sm.Record); line != "" {
			lines = append(lines, "- "+line)
		}
	}
	if len(lines) > 0 {
		b.WriteString("\n\nACTIVE MEMORY CONTEXT:\n")
		b.WriteString(strings.Join(lines, "\n"))
	}
	return b.String()
}
