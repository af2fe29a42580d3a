package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func issuedSession() IssuedSession {
	return IssuedSession{SessionCode: "sess-1", VersionID: 12}
}

func matchingRecord() Record {
	r := NewRecord("career-fit")
	r.SessionCode = ptr("sess-1")
	r.VersionID = ptr(int64(12))
	r.Choices["q1"] = []int64{101}
	r.Choices["q2"] = []int64{204, 207}
	return r
}

func TestReconcileReusesMatchingRecord(t *testing.T) {
	current := matchingRecord()
	next, reused := Reconcile("career-fit", &current, issuedSession())

	assert.True(t, reused)
	assert.Equal(t, current.Choices, next.Choices)
	require.NotNil(t, next.SessionCode)
	assert.Equal(t, "sess-1", *next.SessionCode)
}

func TestReconcileResetConditions(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Record) *Record
	}{
		{
			name:   "no stored record",
			mutate: func(r *Record) *Record { return nil },
		},
		{
			name: "diagnostic code mismatch",
			mutate: func(r *Record) *Record {
				r.DiagnosticCode = "other-diagnostic"
				return r
			},
		},
		{
			name: "completed session",
			mutate: func(r *Record) *Record {
				r.Status = StatusCompleted
				return r
			},
		},
		{
			name: "expired session",
			mutate: func(r *Record) *Record {
				r.Status = StatusExpired
				return r
			},
		},
		{
			name: "missing session code",
			mutate: func(r *Record) *Record {
				r.SessionCode = nil
				return r
			},
		},
		{
			name: "session code drift",
			mutate: func(r *Record) *Record {
				r.SessionCode = ptr("sess-2")
				return r
			},
		},
		{
			name: "version drift",
			mutate: func(r *Record) *Record {
				r.VersionID = ptr(int64(99))
				return r
			},
		},
		{
			name: "missing version",
			mutate: func(r *Record) *Record {
				r.VersionID = nil
				return r
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := matchingRecord()
			current := tt.mutate(&record)
			next, reused := Reconcile("career-fit", current, issuedSession())

			assert.False(t, reused)
			assert.Empty(t, next.Choices)
			assert.Equal(t, StatusInProgress, next.Status)
			assert.Equal(t, "career-fit", next.DiagnosticCode)
			require.NotNil(t, next.SessionCode)
			assert.Equal(t, "sess-1", *next.SessionCode)
			require.NotNil(t, next.VersionID)
			assert.Equal(t, int64(12), *next.VersionID)
		})
	}
}

func TestReconcileExpiresAtHandling(t *testing.T) {
	// reuse keeps a stored expiry when the issued one is absent
	current := matchingRecord()
	current.ExpiresAt = ptr("2026-09-01T00:00:00Z")
	next, reused := Reconcile("career-fit", &current, issuedSession())
	require.True(t, reused)
	require.NotNil(t, next.ExpiresAt)
	assert.Equal(t, "2026-09-01T00:00:00Z", *next.ExpiresAt)

	// an issued expiry overwrites the stored one
	issued := issuedSession()
	issued.ExpiresAt = ptr("2026-10-01T00:00:00Z")
	next, reused = Reconcile("career-fit", &current, issued)
	require.True(t, reused)
	require.NotNil(t, next.ExpiresAt)
	assert.Equal(t, "2026-10-01T00:00:00Z", *next.ExpiresAt)
}
