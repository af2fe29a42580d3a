// Package submit implements the idempotent answer-submission protocol: a
// finished answer set is sent once, fingerprinted, and mapped onto the
// session state machine. Submitting the same answer set twice never regresses
// session state.
package submit

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/shindanlab/shindan/internal/common/apperrors"
	"github.com/shindanlab/shindan/internal/diagnostic/backend"
	"github.com/shindanlab/shindan/internal/diagnostic/session"
	"github.com/shindanlab/shindan/internal/notify"
)

const (
	successMessage      = "回答を送信しました"
	unknownErrorMessage = "回答の送信に失敗しました。時間をおいて再度お試しください。"
)

// Status tags the outcome of a submission.
type Status string

const (
	StatusSuccess            Status = "success"
	StatusInvalidPayload     Status = "invalid_payload"
	StatusOptionOutOfVersion Status = "option_out_of_version"
	StatusSessionNotFound    Status = "session_not_found"
	StatusDuplicateAnswer    Status = "duplicate_answer"
	StatusUnknownError       Status = "unknown_error"
)

// Params is a completed answer set for one session.
type Params struct {
	SessionCode string
	VersionID   int64
	OptionIDs   []int64
	AnsweredAt  *time.Time
}

// Result is the tagged outcome of a submission. VersionOptionsHash and
// SubmittedAt are set only on success.
type Result struct {
	Status             Status
	VersionOptionsHash string
	SubmittedAt        string
	Err                apperrors.Error
}

// Backend is the slice of the backend client the submitter needs.
type Backend interface {
	SubmitAnswers(ctx context.Context, sessionCode string, req backend.SubmitAnswersRequest) apperrors.Error
}

// Submitter sends finished answer sets and drives the resulting state
// transitions. Every Submit emits exactly one user-facing notification, so
// callers must not notify again on the same outcome.
type Submitter struct {
	manager  *session.Manager
	client   Backend
	notifier notify.Notifier
	logger   zerolog.Logger
	now      func() time.Time
}

// NewSubmitter creates a submitter bound to a session manager.
func NewSubmitter(manager *session.Manager, client Backend, notifier notify.Notifier, logger zerolog.Logger) *Submitter {
	return &Submitter{
		manager:  manager,
		client:   client,
		notifier: notifier,
		logger:   logger.With().Str("component", "submit").Logger(),
		now:      time.Now,
	}
}

// WithClock overrides the submission timestamp source. Used in tests.
func (s *Submitter) WithClock(now func() time.Time) *Submitter {
	s.now = now
	return s
}

// Submit sends the answer set and maps the backend outcome onto the state
// machine:
//
//   - success: fingerprint the answer set and transition to awaiting_llm
//   - duplicate answer: non-fatal; transition to awaiting_llm while
//     preserving any previously completed generation
//   - option out of version / session not found / invalid payload /
//     unknown: tagged result, no state mutation
func (s *Submitter) Submit(ctx context.Context, params Params) Result {
	var answeredAt *string
	if params.AnsweredAt != nil {
		iso := params.AnsweredAt.UTC().Format(time.RFC3339)
		answeredAt = &iso
	}

	err := s.client.SubmitAnswers(ctx, params.SessionCode, backend.SubmitAnswersRequest{
		VersionOptionIDs: params.OptionIDs,
		AnsweredAt:       answeredAt,
	})
	if err == nil {
		hash := session.ComputeVersionOptionsHash(params.VersionID, params.OptionIDs)
		submittedAt := s.now().UTC().Format(time.RFC3339)
		if answeredAt != nil {
			submittedAt = *answeredAt
		}
		s.manager.MarkAwaitingLLM(session.AwaitingOptions{VersionOptionsHash: &hash})
		s.notifier.Success(successMessage)
		return Result{Status: StatusSuccess, VersionOptionsHash: hash, SubmittedAt: submittedAt}
	}

	switch {
	case errors.Is(err, backend.ErrInvalidPayload):
		s.notifier.Error(backend.UIMessageFor(err, unknownErrorMessage))
		return Result{Status: StatusInvalidPayload, Err: err}

	case errors.Is(err, backend.ErrOptionOutOfVersion):
		s.notifier.Warning(backend.UIMessageFor(err, unknownErrorMessage))
		return Result{Status: StatusOptionOutOfVersion, Err: err}

	case errors.Is(err, backend.ErrSessionNotFound):
		s.notifier.Error(backend.UIMessageFor(err, unknownErrorMessage))
		return Result{Status: StatusSessionNotFound, Err: err}

	case errors.Is(err, backend.ErrDuplicateAnswer):
		s.notifier.Info(backend.UIMessageFor(err, unknownErrorMessage))
		hash := session.ComputeVersionOptionsHash(params.VersionID, params.OptionIDs)
		s.manager.MarkAwaitingLLM(session.AwaitingOptions{
			VersionOptionsHash:     &hash,
			PreserveExistingResult: true,
		})
		return Result{Status: StatusDuplicateAnswer, VersionOptionsHash: hash, Err: err}

	default:
		s.logger.Error().Err(err).Str("session_code", params.SessionCode).Msg("answer submission failed")
		s.notifier.Error(unknownErrorMessage)
		return Result{Status: StatusUnknownError, Err: err}
	}
}
