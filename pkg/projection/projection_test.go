package projection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleStory() map[string]any {
	return map[string]any{
		"id":      17,
		"ref":     42,
		"subject": "As a user I want tests",
		"status":  3,
		"project": 1,
		"version": 6,
		"watchers": []any{5, 9},
		"generated_user_stories": nil,
		"description":            "long text",
	}
}

func TestFilterOne_Minimal(t *testing.T) {
	out := FilterOne(sampleStory(), KindUserStory, Minimal)

	assert.Equal(t, map[string]any{
		"id":      17,
		"ref":     42,
		"subject": "As a user I want tests",
		"status":  3,
		"project": 1,
	}, out)
}

func TestFilterOne_StandardKeepsVersion(t *testing.T) {
	out := FilterOne(sampleStory(), KindUserStory, Standard)

	// Updates need the version for optimistic concurrency.
	assert.Equal(t, 6, out["version"])
	assert.NotContains(t, out, "watchers")
}

func TestFilterOne_FullPassesThrough(t *testing.T) {
	obj := sampleStory()
	assert.Equal(t, obj, FilterOne(obj, KindUserStory, Full))
}

func TestFilterOne_UnknownKindPassesThrough(t *testing.T) {
	obj := map[string]any{"anything": true}
	assert.Equal(t, obj, FilterOne(obj, "webhook", Standard))
}

func TestFilterList(t *testing.T) {
	list := []map[string]any{sampleStory(), sampleStory()}
	out := FilterList(list, KindUserStory, Minimal)

	require.Len(t, out, 2)
	for _, obj := range out {
		assert.Len(t, obj, 5)
	}
}

func TestParseVerbosity(t *testing.T) {
	assert.Equal(t, Minimal, ParseVerbosity("minimal", nil))
	assert.Equal(t, Standard, ParseVerbosity("", nil))
	assert.Equal(t, Full, ParseVerbosity("FULL", nil))
	assert.Equal(t, Standard, ParseVerbosity("chatty", nil))
}

func TestValidateExtra_Strips(t *testing.T) {
	extra := map[string]any{
		"description": "ok",
		"hax":         "nope",
	}
	out, err := ValidateExtra(KindEpic, extra, false, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"description": "ok"}, out)
}

func TestValidateExtra_Strict(t *testing.T) {
	_, err := ValidateExtra(KindEpic, map[string]any{"hax": 1}, true, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hax")
}

func TestValidateExtra_Empty(t *testing.T) {
	out, err := ValidateExtra(KindEpic, nil, true, nil)
	require.NoError(t, err)
	assert.Nil(t, out)
}
