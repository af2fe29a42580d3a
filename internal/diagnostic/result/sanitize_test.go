package result

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestIsSanitized(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    bool
	}{
		{
			name:    "canonical document",
			payload: canonicalDocument,
			want:    true,
		},
		{
			name:    "missing reason key",
			payload: `{"1": {"name": "A", "total_match": {"score": 80}, "personality_match": {"score": 70, "reason": null}, "work_match": {"score": 60, "reason": null}}}`,
			want:    false,
		},
		{
			name:    "string score",
			payload: `{"1": {"name": "A", "total_match": {"score": "80", "reason": null}, "personality_match": {"score": 70, "reason": null}, "work_match": {"score": 60, "reason": null}}}`,
			want:    false,
		},
		{
			name:    "non digit key",
			payload: `{"first": {"name": "A", "total_match": {"score": 80, "reason": null}, "personality_match": {"score": 70, "reason": null}, "work_match": {"score": 60, "reason": null}}}`,
			want:    false,
		},
		{
			name:    "empty object",
			payload: `{}`,
			want:    false,
		},
		{
			name:    "not an object",
			payload: `"text"`,
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsSanitized(gjson.Parse(tt.payload)))
		})
	}
}

func TestSanitizeSnapshotVerbatim(t *testing.T) {
	snapshot := SanitizeSnapshot([]byte(canonicalDocument))
	require.Len(t, snapshot, 2)

	first, ok := snapshot["1"]
	require.True(t, ok)
	assert.Equal(t, "Engineer", first.Name)
	require.NotNil(t, first.TotalMatch.Score)
	assert.Equal(t, 88.5, *first.TotalMatch.Score)
	assert.Nil(t, first.WorkMatch.Score)
	require.NotNil(t, first.WorkMatch.Reason)
	assert.Equal(t, "not enough data", *first.WorkMatch.Reason)
}

func TestSanitizeSnapshotFromMessyOutput(t *testing.T) {
	raw := "diagnosis:\n```json\n" + `{"2": {"name": "B", "total_match": {"score": 150, "reason": "over"}}, "5": {"name": "E", "total_match": {"score": 33, "reason": null}}}` + "\n```"
	snapshot := SanitizeSnapshot([]byte(raw))
	require.Len(t, snapshot, 2)

	// keys follow the parsed ranks, not positional indexes
	second, ok := snapshot["2"]
	require.True(t, ok)
	assert.Equal(t, "B", second.Name)
	require.NotNil(t, second.TotalMatch.Score)
	assert.Equal(t, 100.0, *second.TotalMatch.Score)

	_, ok = snapshot["5"]
	assert.True(t, ok)
}

func TestSanitizeSnapshotUnusableInput(t *testing.T) {
	assert.Nil(t, SanitizeSnapshot(nil))
	assert.Nil(t, SanitizeSnapshot([]byte("no json here")))
	assert.Nil(t, SanitizeSnapshot([]byte(`{"message": "empty"}`)))
}

func TestNormalizedSnapshot(t *testing.T) {
	raw := []byte("diagnosis:\n```json\n" + `{"2": {"name": "B", "total_match": {"score": 150, "reason": "over"}}, "5": {"name": "E", "total_match": {"score": 33, "reason": null}}}` + "\n```")

	normalized := Normalize(raw)
	snapshot := normalized.Snapshot()
	require.Len(t, snapshot, 2)
	assert.Equal(t, SanitizeSnapshot(raw), snapshot)

	second, ok := snapshot["2"]
	require.True(t, ok)
	require.NotNil(t, second.TotalMatch.Score)
	assert.Equal(t, 100.0, *second.TotalMatch.Score)

	assert.Nil(t, Normalized{}.Snapshot())
}

func TestResanitizeRoundTrips(t *testing.T) {
	snapshot := SanitizeSnapshot([]byte(canonicalDocument))
	require.NotNil(t, snapshot)
	assert.Equal(t, snapshot, Resanitize(snapshot))
	assert.Nil(t, Resanitize(nil))
}
