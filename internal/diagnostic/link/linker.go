// Package link attaches locally stored anonymous sessions to an
// authenticated identity. It only ever flips the is_linked flag, so it is
// safe to run alongside session editing.
package link

import (
	"context"
	"errors"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/shindanlab/shindan/internal/common/apperrors"
	"github.com/shindanlab/shindan/internal/diagnostic/backend"
	"github.com/shindanlab/shindan/internal/diagnostic/session"
	"github.com/shindanlab/shindan/internal/notify"
)

const (
	linkedMessage       = "診断結果を保存しました。"
	unknownErrorMessage = "診断結果の保存に失敗しました。時間をおいて再度お試しください。"

	linkAttempts   = 3
	linkRetryDelay = 500 * time.Millisecond
)

// Status tags the outcome of a link pass.
type Status string

const (
	// StatusSkipped means the caller is not authenticated; nothing was sent.
	StatusSkipped Status = "skipped"
	// StatusNoop means no stored session was eligible for linking.
	StatusNoop Status = "noop"
	StatusLinked Status = "linked"
	StatusError  Status = "error"
)

// Result reports which stored sessions were attached to the identity.
type Result struct {
	Status        Status
	Linked        []string
	AlreadyLinked []string
	Err           apperrors.Error
}

// TokenSource supplies the caller's access token. An empty token means
// unauthenticated.
type TokenSource interface {
	GetToken() string
}

// Backend is the slice of the backend client the linker needs.
type Backend interface {
	LinkSessions(ctx context.Context, sessionCodes []string) (backend.LinkSessionsResponse, apperrors.Error)
}

// Linker reconciles stored anonymous sessions with an authenticated
// identity after login.
type Linker struct {
	store    *session.Store
	client   Backend
	tokens   TokenSource
	notifier notify.Notifier
	logger   zerolog.Logger
}

// NewLinker creates a linker over the given snapshot store.
func NewLinker(store *session.Store, client Backend, tokens TokenSource, notifier notify.Notifier, logger zerolog.Logger) *Linker {
	return &Linker{
		store:    store,
		client:   client,
		tokens:   tokens,
		notifier: notifier,
		logger:   logger.With().Str("component", "link").Logger(),
	}
}

// LinkPending sends every stored, not-yet-linked session code to the backend
// in one batched request and flips is_linked on the codes the backend
// acknowledges. When sessionCodes is non-empty it acts as an allow-list.
// Permanently invalid sessions cause the local snapshots to be cleared
// wholesale so they are not retried forever.
func (l *Linker) LinkPending(ctx context.Context, sessionCodes ...string) Result {
	if !l.authenticated() {
		return Result{Status: StatusSkipped}
	}

	allow := map[string]bool{}
	for _, code := range sessionCodes {
		allow[code] = true
	}

	// diagnostic code by session code, for the is_linked flip afterwards
	pending := map[string]session.Record{}
	var batch []string
	for _, diagnosticCode := range l.store.ListCodes() {
		record, ok := l.store.Read(diagnosticCode)
		if !ok || record.SessionCode == nil || record.IsLinked {
			continue
		}
		sc := *record.SessionCode
		if len(allow) > 0 && !allow[sc] {
			continue
		}
		if _, dup := pending[sc]; dup {
			continue
		}
		pending[sc] = record
		batch = append(batch, sc)
	}
	if len(batch) == 0 {
		return Result{Status: StatusNoop}
	}

	resp, err := l.linkWithRetry(ctx, batch)
	if err != nil {
		l.notifier.Error(backend.UIMessageFor(err, unknownErrorMessage))
		if errors.Is(err, backend.ErrSessionNotFound) || errors.Is(err, backend.ErrLinkTargetInvalid) {
			l.logger.Warn().Err(err).Msg("stored sessions permanently invalid, clearing snapshots")
			for _, record := range pending {
				l.store.Clear(record.DiagnosticCode)
			}
			return Result{Status: StatusError, Err: err}
		}
		l.logger.Error().Err(err).Msg("session linking failed")
		return Result{Status: StatusError, Err: err}
	}

	for _, sc := range append(append([]string{}, resp.Linked...), resp.AlreadyLinked...) {
		record, ok := pending[sc]
		if !ok {
			continue
		}
		record.IsLinked = true
		l.store.Write(record)
	}

	if len(resp.Linked) > 0 {
		l.notifier.Success(linkedMessage)
	}
	return Result{Status: StatusLinked, Linked: resp.Linked, AlreadyLinked: resp.AlreadyLinked}
}

func (l *Linker) linkWithRetry(ctx context.Context, batch []string) (backend.LinkSessionsResponse, apperrors.Error) {
	var resp backend.LinkSessionsResponse
	err := retry.Do(
		func() error {
			var apperr apperrors.Error
			resp, apperr = l.client.LinkSessions(ctx, batch)
			if apperr != nil {
				return apperr
			}
			return nil
		},
		retry.Attempts(linkAttempts),
		retry.Delay(linkRetryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.Context(ctx),
		retry.RetryIf(backend.IsRetryable),
		retry.LastErrorOnly(true),
	)
	if err == nil {
		return resp, nil
	}
	var apperr apperrors.Error
	if errors.As(err, &apperr) {
		return resp, apperr
	}
	return resp, backend.ErrUnknown.Err(err)
}

// authenticated reports whether a usable token is present. The signature is
// not verified here; only the exp claim is checked so an expired token is
// treated the same as no token.
func (l *Linker) authenticated() bool {
	token := l.tokens.GetToken()
	if token == "" {
		return false
	}
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return false
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return true
	}
	return exp.After(time.Now())
}
