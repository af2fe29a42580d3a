// Package llmexec drives the generation pass for a session: a single
// invocation of the scoring service, classification of its outcome, and the
// bounded polling loop that retries transient failures without masking a
// stuck job.
package llmexec

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/shindanlab/shindan/internal/common/apperrors"
	"github.com/shindanlab/shindan/internal/diagnostic/backend"
	"github.com/shindanlab/shindan/internal/diagnostic/result"
	"github.com/shindanlab/shindan/internal/diagnostic/session"
	"github.com/shindanlab/shindan/internal/notify"
)

const (
	generatedMessage    = "診断結果を生成しました"
	unknownErrorMessage = "診断結果の生成に失敗しました。時間をおいて再度お試しください。"
)

// Status tags the outcome of one generation invocation.
type Status string

const (
	StatusSuccess            Status = "success"
	StatusRetryable          Status = "retryable_error"
	StatusNoAnswers          Status = "no_answers"
	StatusSessionNotFound    Status = "session_not_found"
	StatusConfigurationError Status = "configuration_error"
	StatusLLMFailed          Status = "llm_failed"
	StatusUnknownError       Status = "unknown_error"
	StatusTimedOut           Status = "timed_out"
)

// Terminal reports whether s ends the polling loop.
func (s Status) Terminal() bool {
	return s != StatusRetryable
}

// Params identifies the session to score plus optional generation knobs.
type Params struct {
	SessionCode string
	Options     backend.GenerationOptions
}

// Result is the tagged outcome of a generation invocation. Snapshot and
// GeneratedAt are set only on success.
type Result struct {
	Status      Status
	Snapshot    result.Snapshot
	Warnings    []string
	GeneratedAt string
	Err         apperrors.Error
}

// Backend is the slice of the backend client the executor needs.
type Backend interface {
	ExecuteGeneration(ctx context.Context, sessionCode string, opts backend.GenerationOptions) (backend.GenerationResponse, apperrors.Error)
}

// Executor invokes the scoring service once per Execute call and maps the
// outcome onto the session state machine. Retryable outcomes emit no
// notification; the poller owns that decision.
type Executor struct {
	manager  *session.Manager
	client   Backend
	notifier notify.Notifier
	logger   zerolog.Logger
}

// NewExecutor creates an executor bound to a session manager.
func NewExecutor(manager *session.Manager, client Backend, notifier notify.Notifier, logger zerolog.Logger) *Executor {
	return &Executor{
		manager:  manager,
		client:   client,
		notifier: notifier,
		logger:   logger.With().Str("component", "llmexec").Logger(),
	}
}

// Execute runs one generation invocation. On success the raw payload is
// sanitized through the recovery parser and the session transitions to
// completed with the transcript and generation timestamp attached. Parse
// warnings are surfaced in the result but never fail the invocation.
func (e *Executor) Execute(ctx context.Context, params Params) Result {
	resp, err := e.client.ExecuteGeneration(ctx, params.SessionCode, params.Options)
	if err != nil {
		return e.classify(params.SessionCode, err)
	}

	normalized := result.Normalize(resp.LLMResult.Raw)
	snapshot := normalized.Snapshot()
	generatedAt := resp.LLMResult.GeneratedAt

	e.manager.MarkCompleted(snapshot, session.CompletedExtra{
		LLMMessages: resp.Messages,
		CompletedAt: &generatedAt,
	})
	e.notifier.Success(generatedMessage)

	return Result{
		Status:      StatusSuccess,
		Snapshot:    snapshot,
		Warnings:    normalized.Warnings,
		GeneratedAt: generatedAt,
	}
}

func (e *Executor) classify(sessionCode string, err apperrors.Error) Result {
	switch {
	case backend.IsRetryable(err):
		// No notification here: the poller decides whether to retry or
		// report a timeout.
		return Result{Status: StatusRetryable, Err: err}

	case errors.Is(err, backend.ErrNoAnswers):
		e.notifier.Warning(backend.UIMessageFor(err, unknownErrorMessage))
		return Result{Status: StatusNoAnswers, Err: err}

	case errors.Is(err, backend.ErrSessionNotFound):
		e.notifier.Error(backend.UIMessageFor(err, unknownErrorMessage))
		return Result{Status: StatusSessionNotFound, Err: err}

	case errors.Is(err, backend.ErrSystemPromptMissing),
		errors.Is(err, backend.ErrGenerationIncomplete),
		errors.Is(err, backend.ErrVersionFrozen):
		e.notifier.Error(backend.UIMessageFor(err, unknownErrorMessage))
		return Result{Status: StatusConfigurationError, Err: err}

	case errors.Is(err, backend.ErrGenerationFailed):
		e.notifier.Error(backend.UIMessageFor(err, unknownErrorMessage))
		return Result{Status: StatusLLMFailed, Err: err}

	default:
		e.logger.Error().Err(err).Str("session_code", sessionCode).Msg("generation failed")
		e.notifier.Error(unknownErrorMessage)
		return Result{Status: StatusUnknownError, Err: err}
	}
}
