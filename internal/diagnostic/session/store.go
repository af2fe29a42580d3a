package session

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/shindanlab/shindan/internal/diagnostic/result"
	"github.com/shindanlab/shindan/internal/diagnostic/snapshot"
)

// Store persists one session record per diagnostic code. Writes go to an
// always-available in-process map and, when a durable medium is attached and
// healthy, to that medium as well; a caller never observes a hard failure
// from a write. Reads prefer the durable medium.
//
// Each Store owns its backing maps outright; construct one per test case for
// isolation.
type Store struct {
	mu       sync.RWMutex
	durable  snapshot.Medium // may be nil
	fallback map[string]Record
	degraded bool
	logger   zerolog.Logger
}

// NewStore creates a store over the given durable medium. Pass nil to run
// memory-only; the store then reports itself degraded.
func NewStore(durable snapshot.Medium, logger zerolog.Logger) *Store {
	return &Store{
		durable:  durable,
		fallback: map[string]Record{},
		degraded: durable == nil,
		logger:   logger,
	}
}

// Degraded reports whether durable persistence is unavailable, so the caller
// can warn the user that answers are held in memory only.
func (s *Store) Degraded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.degraded
}

// Read returns the stored record for the diagnostic code, re-prepared so
// stale or foreign-shaped snapshots written by an earlier format version are
// safe to use.
func (s *Store) Read(diagnosticCode string) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.durable != nil {
		raw, ok, err := s.durable.Get(diagnosticCode)
		if err != nil {
			s.degraded = true
			s.logger.Warn().Err(err).Str("diagnostic_code", diagnosticCode).Msg("durable snapshot read failed")
		} else if ok {
			if record, err := decodeRecord(raw); err == nil {
				return prepareRecord(record), true
			} else {
				s.logger.Warn().Err(err).Str("diagnostic_code", diagnosticCode).Msg("stored snapshot is not decodable")
			}
		}
	}

	record, ok := s.fallback[diagnosticCode]
	if !ok {
		return Record{}, false
	}
	return prepareRecord(record), true
}

// Write persists the record under its diagnostic code. Durable failures are
// absorbed; the in-process fallback always succeeds.
func (s *Store) Write(record Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prepared := prepareRecord(record)
	s.fallback[record.DiagnosticCode] = prepared

	if s.durable == nil {
		return
	}
	raw, err := json.Marshal(prepared)
	if err != nil {
		s.logger.Error().Err(err).Str("diagnostic_code", record.DiagnosticCode).Msg("snapshot marshal failed")
		return
	}
	if err := s.durable.Set(record.DiagnosticCode, raw); err != nil {
		s.degraded = true
		s.logger.Warn().Err(err).Str("diagnostic_code", record.DiagnosticCode).Msg("durable snapshot write failed")
	}
}

// Clear removes the stored record from both backing stores.
func (s *Store) Clear(diagnosticCode string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.fallback, diagnosticCode)
	if s.durable == nil {
		return
	}
	if err := s.durable.Delete(diagnosticCode); err != nil {
		s.degraded = true
		s.logger.Warn().Err(err).Str("diagnostic_code", diagnosticCode).Msg("durable snapshot delete failed")
	}
}

// ListCodes enumerates the diagnostic codes present in either backing store,
// de-duplicated.
func (s *Store) ListCodes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := map[string]struct{}{}
	var codes []string
	for code := range s.fallback {
		seen[code] = struct{}{}
		codes = append(codes, code)
	}
	if s.durable != nil {
		durableCodes, err := s.durable.Keys()
		if err != nil {
			s.logger.Warn().Err(err).Msg("durable snapshot enumeration failed")
		}
		for _, code := range durableCodes {
			if _, ok := seen[code]; ok {
				continue
			}
			seen[code] = struct{}{}
			codes = append(codes, code)
		}
	}
	return codes
}

// decodeRecord unmarshals stored bytes, first coercing fields an older format
// version may have written loosely: a missing or non-boolean is_linked
// becomes a boolean, and a non-canonical llm_result is dropped to null so the
// sanitizer below re-derives it.
func decodeRecord(raw []byte) (Record, error) {
	coerced := raw

	isLinked := gjson.GetBytes(raw, "is_linked")
	if isLinked.Type != gjson.True && isLinked.Type != gjson.False {
		var err error
		coerced, err = sjson.SetBytes(coerced, "is_linked", isLinked.Bool())
		if err != nil {
			return Record{}, err
		}
	}

	llmResult := gjson.GetBytes(coerced, "llm_result")
	if llmResult.Exists() && llmResult.Type != gjson.Null {
		var err error
		if sanitized := result.SanitizeSnapshot([]byte(llmResult.Raw)); sanitized != nil {
			coerced, err = sjson.SetBytes(coerced, "llm_result", sanitized)
		} else {
			coerced, err = sjson.SetBytes(coerced, "llm_result", nil)
		}
		if err != nil {
			return Record{}, err
		}
	}

	var record Record
	if err := json.Unmarshal(coerced, &record); err != nil {
		return Record{}, err
	}
	if record.Choices == nil {
		record.Choices = map[string][]int64{}
	}
	return record, nil
}

// prepareRecord re-sanitizes the llm_result so only the canonical form is
// ever persisted or handed to callers.
func prepareRecord(record Record) Record {
	prepared := record.Clone()
	prepared.LLMResult = result.Resanitize(prepared.LLMResult)
	return prepared
}
