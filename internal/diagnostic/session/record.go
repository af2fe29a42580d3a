// Package session owns the diagnostic session record, its state machine, and
// its reconciliation against freshly issued sessions. There is one record per
// diagnostic code; every mutation produces a new record value and is persisted
// through the snapshot store.
package session

import (
	"encoding/json"
	"sort"

	"github.com/shindanlab/shindan/internal/diagnostic/result"
)

// Status is the lifecycle state of a session record.
type Status string

const (
	StatusInProgress  Status = "in_progress"
	StatusAwaitingLLM Status = "awaiting_llm"
	StatusCompleted   Status = "completed"
	// StatusExpired is advisory: it is absorbing and reachable from any
	// state, but the trigger is external. The client never computes expiry
	// from ExpiresAt itself.
	StatusExpired Status = "expired"
)

// Record is the canonical session state for one diagnostic code. Field names
// follow the wire format shared with the backend and older stored snapshots.
type Record struct {
	DiagnosticCode     string             `json:"diagnostic_code"`
	VersionID          *int64             `json:"version_id"`
	SessionCode        *string            `json:"session_code"`
	Status             Status             `json:"status"`
	Choices            map[string][]int64 `json:"choices"`
	LLMResult          result.Snapshot    `json:"llm_result"`
	LLMMessages        json.RawMessage    `json:"llm_messages"`
	CompletedAt        *string            `json:"completed_at"`
	ExpiresAt          *string            `json:"expires_at"`
	VersionOptionsHash *string            `json:"version_options_hash"`
	IsLinked           bool               `json:"is_linked"`
}

// NewRecord returns a fresh empty record for the diagnostic code.
func NewRecord(diagnosticCode string) Record {
	return Record{
		DiagnosticCode: diagnosticCode,
		Status:         StatusInProgress,
		Choices:        map[string][]int64{},
	}
}

// Clone returns a deep copy. Transitions operate on clones so a half-applied
// mutation can never be observed.
func (r Record) Clone() Record {
	cp := r
	cp.Choices = make(map[string][]int64, len(r.Choices))
	for question, ids := range r.Choices {
		cp.Choices[question] = append([]int64(nil), ids...)
	}
	if r.LLMResult != nil {
		cp.LLMResult = make(result.Snapshot, len(r.LLMResult))
		for key, rec := range r.LLMResult {
			cp.LLMResult[key] = rec
		}
	}
	if r.LLMMessages != nil {
		cp.LLMMessages = append(json.RawMessage(nil), r.LLMMessages...)
	}
	return cp
}

// AwaitingOptions controls the transition into awaiting_llm.
type AwaitingOptions struct {
	// VersionOptionsHash, when non-nil, replaces the stored fingerprint of
	// the submitted answer set.
	VersionOptionsHash *string
	// PreserveExistingResult keeps a previously completed generation instead
	// of clearing it. Used for duplicate-submission recovery.
	PreserveExistingResult bool
}

// CompletedExtra carries the optional fields of the completed transition.
type CompletedExtra struct {
	LLMMessages        json.RawMessage
	CompletedAt        *string
	VersionOptionsHash *string
}

// withChoice returns a copy with the question's selection replaced. Option
// ids are de-duplicated and sorted; an empty selection deletes the entry so
// choices never holds an empty set.
func (r Record) withChoice(questionCode string, optionIDs []int64) Record {
	next := r.Clone()
	sanitized := uniqueSorted(optionIDs)
	if len(sanitized) == 0 {
		delete(next.Choices, questionCode)
	} else {
		next.Choices[questionCode] = sanitized
	}
	return next
}

// withoutChoice returns a copy with the question's entry removed.
func (r Record) withoutChoice(questionCode string) Record {
	next := r.Clone()
	delete(next.Choices, questionCode)
	return next
}

// awaitingLLM returns a copy transitioned to awaiting_llm. A resubmission
// invalidates any prior generation unless preservation is requested.
func (r Record) awaitingLLM(opts AwaitingOptions) Record {
	next := r.Clone()
	next.Status = StatusAwaitingLLM
	if !opts.PreserveExistingResult {
		next.LLMResult = nil
		next.LLMMessages = nil
		next.CompletedAt = nil
	}
	if opts.VersionOptionsHash != nil {
		next.VersionOptionsHash = opts.VersionOptionsHash
	}
	return next
}

// completed returns a copy transitioned to completed. The snapshot must
// already be sanitized; nil records a generation that produced no usable
// ranking.
func (r Record) completed(snapshot result.Snapshot, extra CompletedExtra) Record {
	next := r.Clone()
	next.Status = StatusCompleted
	next.LLMResult = snapshot
	if extra.LLMMessages != nil {
		next.LLMMessages = extra.LLMMessages
	}
	if extra.CompletedAt != nil {
		next.CompletedAt = extra.CompletedAt
	}
	if extra.VersionOptionsHash != nil {
		next.VersionOptionsHash = extra.VersionOptionsHash
	}
	return next
}

func uniqueSorted(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
