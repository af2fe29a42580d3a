package session

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shindanlab/shindan/internal/diagnostic/snapshot"
)

// failingMedium simulates a durable medium whose writes fail.
type failingMedium struct {
	*snapshot.MemoryMedium
}

func (f *failingMedium) Set(diagnosticCode string, value []byte) error {
	return errors.New("disk full")
}

func TestStoreRoundTrip(t *testing.T) {
	store := NewStore(snapshot.NewMemoryMedium(), zerolog.Nop())

	record := NewRecord("career-fit")
	record.SessionCode = ptr("sess-1")
	record.Choices["q1"] = []int64{101}
	store.Write(record)

	got, ok := store.Read("career-fit")
	require.True(t, ok)
	assert.Equal(t, "career-fit", got.DiagnosticCode)
	assert.Equal(t, []int64{101}, got.Choices["q1"])
	assert.False(t, store.Degraded())

	store.Clear("career-fit")
	_, ok = store.Read("career-fit")
	assert.False(t, ok)
}

func TestStoreNilMediumIsDegraded(t *testing.T) {
	store := NewStore(nil, zerolog.Nop())
	assert.True(t, store.Degraded())

	record := NewRecord("career-fit")
	store.Write(record)
	_, ok := store.Read("career-fit")
	assert.True(t, ok)
}

func TestStoreAbsorbsDurableWriteFailure(t *testing.T) {
	store := NewStore(&failingMedium{snapshot.NewMemoryMedium()}, zerolog.Nop())
	assert.False(t, store.Degraded())

	store.Write(NewRecord("career-fit"))
	assert.True(t, store.Degraded())

	// the fallback still serves the record
	_, ok := store.Read("career-fit")
	assert.True(t, ok)
}

func TestStoreListCodes(t *testing.T) {
	medium := snapshot.NewMemoryMedium()
	store := NewStore(medium, zerolog.Nop())
	store.Write(NewRecord("a"))
	store.Write(NewRecord("b"))

	codes := store.ListCodes()
	assert.ElementsMatch(t, []string{"a", "b"}, codes)
}

func TestDecodeRecordCoercesLegacyFields(t *testing.T) {
	// is_linked stored as a string, llm_result in a non-canonical shape
	raw := []byte(`{
		"diagnostic_code": "career-fit",
		"status": "completed",
		"is_linked": "true",
		"llm_result": {"1": {"name": "A", "total_match": {"score": 88, "reason": null}, "personality_match": {"score": 70, "reason": null}, "work_match": {"score": null, "reason": null}}}
	}`)

	record, err := decodeRecord(raw)
	require.NoError(t, err)
	assert.True(t, record.IsLinked)
	require.Len(t, record.LLMResult, 1)
	assert.Equal(t, "A", record.LLMResult["1"].Name)
	assert.NotNil(t, record.Choices)
}

func TestDecodeRecordDropsUnusableResult(t *testing.T) {
	raw := []byte(`{
		"diagnostic_code": "career-fit",
		"status": "completed",
		"is_linked": false,
		"llm_result": {"not": "a ranking"}
	}`)

	record, err := decodeRecord(raw)
	require.NoError(t, err)
	assert.Nil(t, record.LLMResult)
}
