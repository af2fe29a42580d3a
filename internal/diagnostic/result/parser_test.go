package result

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const canonicalDocument = `{
  "1": {
    "name": "Engineer",
    "total_match": {"score": 88.5, "reason": "strong overall fit"},
    "personality_match": {"score": 75, "reason": null},
    "work_match": {"score": null, "reason": "not enough data"}
  },
  "2": {
    "name": "Designer",
    "total_match": {"score": 64, "reason": null},
    "personality_match": {"score": 70.2, "reason": "creative profile"},
    "work_match": {"score": 55, "reason": null}
  }
}`

func TestNormalizeAcceptsSanitizedDocument(t *testing.T) {
	got := Normalize([]byte(canonicalDocument))

	require.Len(t, got.Rankings, 2)
	assert.Empty(t, got.Warnings)
	require.NotNil(t, got.SourceText)

	first := got.Rankings[0]
	assert.Equal(t, 1, first.Rank)
	assert.Equal(t, "Engineer", first.Name)
	require.NotNil(t, first.Scores.TotalMatch)
	assert.Equal(t, 88.5, *first.Scores.TotalMatch)
	assert.Nil(t, first.Scores.WorkMatch)
	require.NotNil(t, first.Reasons.WorkMatch)
	assert.Equal(t, "not enough data", *first.Reasons.WorkMatch)

	assert.Equal(t, "Designer", got.Rankings[1].Name)
}

func TestNormalizeFencedBlockInsideEnvelope(t *testing.T) {
	text := "Here is the ranking:\n```json\n" + canonicalDocument + "\n```\nEnjoy!"
	envelope, err := json.Marshal(map[string]string{"text": text})
	require.NoError(t, err)

	got := Normalize(envelope)
	require.Len(t, got.Rankings, 2)
	assert.Empty(t, got.Warnings)
	assert.Equal(t, "Engineer", got.Rankings[0].Name)
}

func TestNormalizePlainTextWithFence(t *testing.T) {
	raw := "The result is:\n```json\n" + canonicalDocument + "\n```"
	got := Normalize([]byte(raw))
	require.Len(t, got.Rankings, 2)
	assert.Empty(t, got.Warnings)
}

func TestNormalizeDegradedOutcomes(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		warning string
	}{
		{
			name:    "empty payload",
			raw:     "",
			warning: WarnNoResultText,
		},
		{
			name:    "unknown envelope",
			raw:     `{"message": "nothing here"}`,
			warning: WarnNoResultText,
		},
		{
			name:    "text that is not json",
			raw:     `{"text": "sorry, I could not produce a ranking"}`,
			warning: WarnInvalidJSON,
		},
		{
			name:    "json without rank keys",
			raw:     `{"text": "{\"summary\": \"ok\"}"}`,
			warning: WarnNoRankings,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize([]byte(tt.raw))
			assert.Empty(t, got.Rankings)
			require.Len(t, got.Warnings, 1)
			assert.Equal(t, tt.warning, got.Warnings[0])
		})
	}
}

func TestNormalizeRecoversTruncatedDocument(t *testing.T) {
	truncated := `{
  "1": {"name": "Engineer", "total_match": {"score": 80, "reason": "solid"}, "personality_match": {"score": 70, "reason": null}, "work_match": {"score": 60, "reason": null}},
  "2": {"name": "Designer", "total_match": {"score": 75, "reason": null}, "personality_match": {"score": 68, "reason": null}, "work_match": {"score": 52, "reason": null}},
  "3": {"name": "Writer", "total_match": {"score": 41`

	got := Normalize([]byte(truncated))

	require.Len(t, got.Rankings, 2)
	require.Len(t, got.Warnings, 1)
	assert.Equal(t, WarnTruncated, got.Warnings[0])
	assert.Equal(t, "Engineer", got.Rankings[0].Name)
	assert.Equal(t, "Designer", got.Rankings[1].Name)
}

func TestNormalizeScoreHandling(t *testing.T) {
	raw := "```json\n" + `{
  "1": {"name": "A", "total_match": {"score": 120, "reason": null}, "personality_match": {"score": -15, "reason": null}, "work_match": {"score": 75.678, "reason": null}},
  "2": {"name": "B", "total_match": {"score": "88.5", "reason": null}, "personality_match": {"score": true, "reason": null}, "work_match": 42}
}` + "\n```"
	got := Normalize([]byte(raw))
	require.Len(t, got.Rankings, 2)

	first := got.Rankings[0]
	require.NotNil(t, first.Scores.TotalMatch)
	assert.Equal(t, 100.0, *first.Scores.TotalMatch)
	require.NotNil(t, first.Scores.PersonalityMatch)
	assert.Equal(t, 0.0, *first.Scores.PersonalityMatch)
	require.NotNil(t, first.Scores.WorkMatch)
	assert.Equal(t, 75.7, *first.Scores.WorkMatch)

	second := got.Rankings[1]
	require.NotNil(t, second.Scores.TotalMatch)
	assert.Equal(t, 88.5, *second.Scores.TotalMatch)
	assert.Nil(t, second.Scores.PersonalityMatch)
	require.NotNil(t, second.Scores.WorkMatch)
	assert.Equal(t, 42.0, *second.Scores.WorkMatch)
}

func TestNormalizeFallbackNames(t *testing.T) {
	raw := "```json\n" + `{
  "1": {"total_match": {"score": 90, "reason": null}},
  "2": {"name": "   ", "total_match": {"score": 80, "reason": null}}
}` + "\n```"
	got := Normalize([]byte(raw))
	require.Len(t, got.Rankings, 2)
	assert.Equal(t, "候補1", got.Rankings[0].Name)
	assert.Equal(t, "候補2", got.Rankings[1].Name)
}

func TestNormalizeIdempotent(t *testing.T) {
	text := "```json\n" + canonicalDocument + "\n```"
	first := Normalize([]byte(text))
	require.NotEmpty(t, first.Rankings)

	snapshot := SanitizeSnapshot([]byte(text))
	require.NotNil(t, snapshot)
	reencoded, err := json.Marshal(snapshot)
	require.NoError(t, err)

	second := Normalize(reencoded)
	assert.Equal(t, first.Rankings, second.Rankings)
	assert.Empty(t, second.Warnings)
}

func TestExtractJSONSnippet(t *testing.T) {
	assert.Equal(t, `{"a":1}`, ExtractJSONSnippet("before ```json\n{\"a\":1}\n``` after"))
	assert.Equal(t, `{"b":2}`, ExtractJSONSnippet("```\n{\"b\":2}\n```"))
	assert.Equal(t, `{"c":3}`, ExtractJSONSnippet(`{"c":3}`))
	assert.Equal(t, "", ExtractJSONSnippet("   "))
}

func TestFindClosingBraceIndex(t *testing.T) {
	text := `{"a": {"b": "}"}, "c": 1}`
	assert.Equal(t, len(text)-1, findClosingBraceIndex(text, 0))
	assert.Equal(t, -1, findClosingBraceIndex(`{"open": true`, 0))
}
