package result

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"
)

func TestExtractContentText(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    string
		ok      bool
	}{
		{
			name:    "bare string payload",
			payload: `"hello from the model"`,
			want:    "hello from the model",
			ok:      true,
		},
		{
			name:    "flat text field",
			payload: `{"text": "ranking follows"}`,
			want:    "ranking follows",
			ok:      true,
		},
		{
			name:    "content array of text parts",
			payload: `{"content": [{"type": "text", "text": "part one"}, {"type": "text", "text": "part two"}]}`,
			want:    "part one\npart two",
			ok:      true,
		},
		{
			name:    "content array with fragment arrays",
			payload: `{"content": [{"text": ["frag", "ment"]}]}`,
			want:    "fragment",
			ok:      true,
		},
		{
			name:    "content array with nested content",
			payload: `{"content": [{"content": [{"text": "nested"}]}]}`,
			want:    "nested",
			ok:      true,
		},
		{
			name:    "content object with parts",
			payload: `{"content": {"parts": [{"text": "alpha"}, {"text": "beta"}]}}`,
			want:    "alpha\nbeta",
			ok:      true,
		},
		{
			name:    "candidates with string content",
			payload: `{"candidates": [{"content": "direct text"}]}`,
			want:    "direct text",
			ok:      true,
		},
		{
			name:    "candidates with parts",
			payload: `{"candidates": [{"content": {"parts": [{"text": "from parts"}]}}]}`,
			want:    "from parts",
			ok:      true,
		},
		{
			name:    "candidates with inner content array",
			payload: `{"candidates": [{"content": {"content": [{"text": "inner"}]}}]}`,
			want:    "inner",
			ok:      true,
		},
		{
			name:    "output_text string",
			payload: `{"output_text": "final answer"}`,
			want:    "final answer",
			ok:      true,
		},
		{
			name:    "output_text fragment array",
			payload: `{"output_text": ["fin", "al"]}`,
			want:    "final",
			ok:      true,
		},
		{
			name:    "empty candidates skipped",
			payload: `{"candidates": [{"content": {}}, {"content": "later one"}]}`,
			want:    "later one",
			ok:      true,
		},
		{
			name:    "whitespace only string",
			payload: `"   "`,
			ok:      false,
		},
		{
			name:    "unknown shape",
			payload: `{"message": "no known field"}`,
			ok:      false,
		},
		{
			name:    "array payload",
			payload: `[1, 2, 3]`,
			ok:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractContentText(gjson.Parse(tt.payload))
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestExtractContentTextPriority(t *testing.T) {
	// flat text wins over other shapes present in the same payload
	payload := `{"text": "flat", "content": [{"text": "array"}], "output_text": "output"}`
	got, ok := ExtractContentText(gjson.Parse(payload))
	assert.True(t, ok)
	assert.Equal(t, "flat", got)
}
