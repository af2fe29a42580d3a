package session

import (
	"github.com/rs/zerolog"

	"github.com/shindanlab/shindan/internal/common/apperrors"
	"github.com/shindanlab/shindan/internal/diagnostic/result"
	"github.com/shindanlab/shindan/internal/notify"
)

// degradedStorageMessage is surfaced exactly once per manager lifetime when
// durable persistence is unavailable.
const degradedStorageMessage = "ローカルストレージが利用できないため、回答は一時的にのみ保持されます。終了する前に送信してください。"

// Manager owns the canonical in-memory record for one diagnostic code and
// applies state-machine transitions to it. Every mutation is applied
// atomically to a fresh record value and then persisted through the store;
// persistence is advisory-durable and never fails the mutation.
//
// A manager serves one session at a time from a single goroutine; the
// at-most-one in-flight submit/generation rule is the caller's contract.
type Manager struct {
	diagnosticCode string
	store          *Store
	notifier       notify.Notifier
	logger         zerolog.Logger
	record         Record
	warned         bool
}

// NewManager creates a manager for the diagnostic code, seeded from the
// stored snapshot when one exists.
func NewManager(diagnosticCode string, store *Store, notifier notify.Notifier, logger zerolog.Logger) *Manager {
	m := &Manager{
		diagnosticCode: diagnosticCode,
		store:          store,
		notifier:       notifier,
		logger:         logger.With().Str("diagnostic_code", diagnosticCode).Logger(),
	}
	if persisted, ok := store.Read(diagnosticCode); ok {
		m.record = persisted
	} else {
		m.record = NewRecord(diagnosticCode)
	}
	m.warnIfDegraded()
	return m
}

// DiagnosticCode returns the code this manager is bound to.
func (m *Manager) DiagnosticCode() string {
	return m.diagnosticCode
}

// Record returns a copy of the current record.
func (m *Manager) Record() Record {
	return m.record.Clone()
}

// SetRecord replaces the current record wholesale. The record must belong to
// this manager's diagnostic code; its llm_result is re-sanitized on the way
// in.
func (m *Manager) SetRecord(record Record) apperrors.Error {
	if record.DiagnosticCode != m.diagnosticCode {
		return ErrDiagnosticCodeMismatch
	}
	next := record.Clone()
	next.LLMResult = result.Resanitize(next.LLMResult)
	m.commit(next)
	return nil
}

// ReconcileWith reconciles the current record against a freshly issued
// session and reports whether locally held choices were reused.
func (m *Manager) ReconcileWith(issued IssuedSession) bool {
	current := m.record
	next, reused := Reconcile(m.diagnosticCode, &current, issued)
	m.commit(next)
	return reused
}

// UpsertChoice replaces the selection for a question. An empty selection
// deletes the entry instead of storing an empty set.
func (m *Manager) UpsertChoice(questionCode string, optionIDs []int64) {
	m.commit(m.record.withChoice(questionCode, optionIDs))
}

// RemoveChoice deletes the question's entry unconditionally.
func (m *Manager) RemoveChoice(questionCode string) {
	m.commit(m.record.withoutChoice(questionCode))
}

// MarkAwaitingLLM transitions the session to awaiting_llm.
func (m *Manager) MarkAwaitingLLM(opts AwaitingOptions) {
	m.commit(m.record.awaitingLLM(opts))
}

// MarkCompleted transitions the session to completed with the sanitized
// ranking (or nil when nothing usable was generated).
func (m *Manager) MarkCompleted(snapshot result.Snapshot, extra CompletedExtra) {
	m.commit(m.record.completed(snapshot, extra))
}

// Reset returns the session to a fresh empty record and clears persisted
// storage for the diagnostic code.
func (m *Manager) Reset() {
	m.record = NewRecord(m.diagnosticCode)
	m.store.Clear(m.diagnosticCode)
}

// commit installs the new record and persists it. The write never fails; a
// degraded store is reported to the user once.
func (m *Manager) commit(next Record) {
	m.record = next
	m.store.Write(next)
	m.warnIfDegraded()
}

func (m *Manager) warnIfDegraded() {
	if m.warned || !m.store.Degraded() {
		return
	}
	m.warned = true
	m.logger.Warn().Msg("durable storage unavailable, holding session in memory only")
	m.notifier.Warning(degradedStorageMessage, notify.Options{Persist: true})
}
