package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCandidates_BareArray(t *testing.T) {
	raw := `[{"type":"fact","key":"name","value":"John","confidence":0.95},
	         {"type":"fact","key":"location","value":"New York","confidence":0.9}]`

	candidates, err := ParseCandidates(raw)
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, "name", candidates[0].Key)
	assert.Equal(t, "John", candidates[0].Value)
	assert.Equal(t, 0.95, candidates[0].Confidence)
}

func TestParseCandidates_CodeFences(t *testing.T) {
	raw := "```json\n[{\"type\":\"preference\",\"key\":\"interest\",\"value\":\"chess\",\"confidence\":0.9}]\n```"

	candidates, err := ParseCandidates(raw)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "chess", candidates[0].Value)
}

func TestParseCandidates_LeadingProse(t *testing.T) {
	raw := `Here is what I extracted:
[{"type":"fact","key":"job","value":"engineer","confidence":0.88}]
Let me know if you need more.`

	candidates, err := ParseCandidates(raw)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "job", candidates[0].Key)
}

func TestParseCandidates_SingleObject(t *testing.T) {
	raw := `{"type":"fact","key":"name","value":"John","confidence":0.95}`

	candidates, err := ParseCandidates(raw)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "John", candidates[0].Value)
}

func TestParseCandidates_MemoriesEnvelope(t *testing.T) {
	raw := `{"memories":[{"type":"fact","key":"name","value":"John","confidence":0.95}]}`

	candidates, err := ParseCandidates(raw)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "name", candidates[0].Key)
}

func TestParseCandidates_EmptyArray(t *testing.T) {
	candidates, err := ParseCandidates("[]")
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestParseCandidates_Malformed(t *testing.T) {
	for _, raw := range []string{"", "   ", "not json at all", "{broken", "[1,2,"} {
		_, err := ParseCandidates(raw)
		assert.Error(t, err, "input %q should not parse", raw)
	}
}

func TestParseIntentLabel(t *testing.T) {
	valid := []string{"SCHEDULING", "COMMUNICATION", "PERSONAL_QUERY", "COMMAND", "PLANNING", "CHIT_CHAT"}

	assert.Equal(t, "PLANNING", ParseIntentLabel("planning", valid))
	assert.Equal(t, "SCHEDULING", ParseIntentLabel("The category is: SCHEDULING.", valid))
	assert.Equal(t, "", ParseIntentLabel("no idea", valid))
}
