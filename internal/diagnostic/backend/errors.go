package backend

import (
	"errors"
	"net/http"

	"github.com/shindanlab/shindan/internal/common/apperrors"
)

var (
	// ErrBackend is the base error for all backend interaction failures.
	ErrBackend apperrors.Error = apperrors.New("backend request failed").SetStatusCode(http.StatusInternalServerError)

	// ErrTransient marks failures worth retrying: gateway-class statuses
	// (502/503/504) and bare network-layer failures, including request
	// timeouts.
	ErrTransient apperrors.Error = ErrBackend.New("backend temporarily unavailable").SetStatusCode(http.StatusBadGateway)

	// ErrCanceled is returned when the caller's context was canceled
	// mid-request. Never retried.
	ErrCanceled apperrors.Error = ErrBackend.New("request canceled")

	// ErrUnknown is the degraded mapping for unrecognized backend errors.
	ErrUnknown apperrors.Error = ErrBackend.New("unknown backend error")

	// ErrVersionFrozen is returned when the content version was frozen
	// mid-flight and no longer accepts operations. (E020)
	ErrVersionFrozen apperrors.Error = ErrBackend.New("diagnostic version is frozen").SetStatusCode(http.StatusConflict)

	// ErrInvalidPayload is returned when the backend rejects the request
	// body. (E021)
	ErrInvalidPayload apperrors.Error = ErrBackend.New("invalid request payload").SetStatusCode(http.StatusBadRequest)

	// ErrOptionOutOfVersion is returned when submitted option identifiers do
	// not belong to the server's current version. (E022)
	ErrOptionOutOfVersion apperrors.Error = ErrBackend.New("option does not belong to version").SetStatusCode(http.StatusBadRequest)

	// ErrSessionNotFound is returned when the session code is unknown to the
	// backend. (E040)
	ErrSessionNotFound apperrors.Error = ErrBackend.New("session not found").SetStatusCode(http.StatusNotFound)

	// ErrDuplicateAnswer is returned when the answer set for this session
	// was already recorded. Explicitly non-fatal. (E041)
	ErrDuplicateAnswer apperrors.Error = ErrBackend.New("answers already submitted").SetStatusCode(http.StatusConflict)

	// ErrSystemPromptMissing is returned when the version has no system
	// prompt configured for generation. (E043)
	ErrSystemPromptMissing apperrors.Error = ErrBackend.New("system prompt is not configured").SetStatusCode(http.StatusConflict)

	// ErrGenerationIncomplete is returned when generation prerequisites are
	// not yet in place on the backend. (E044)
	ErrGenerationIncomplete apperrors.Error = ErrBackend.New("generation prerequisites incomplete").SetStatusCode(http.StatusConflict)

	// ErrNoAnswers is returned when generation is requested before any
	// answers were recorded. (E045)
	ErrNoAnswers apperrors.Error = ErrBackend.New("no answers recorded for session").SetStatusCode(http.StatusConflict)

	// ErrGenerationFailed is returned when the scoring pass itself failed.
	// (E050)
	ErrGenerationFailed apperrors.Error = ErrBackend.New("result generation failed").SetStatusCode(http.StatusInternalServerError)

	// ErrLinkTargetInvalid is returned when a session to link is permanently
	// invalid. (E062)
	ErrLinkTargetInvalid apperrors.Error = ErrBackend.New("session can no longer be linked").SetStatusCode(http.StatusGone)
)

// Definition ties a backend error code to its mapped error and the message
// shown to the user.
type Definition struct {
	Code      string
	UIMessage string
	Err       apperrors.Error
}

// Backend error codes are opaque strings; this table maps the ones this core
// understands. Unmapped codes degrade to ErrUnknown.
var definitions = []Definition{
	{Code: "E020", UIMessage: "この診断は更新作業中です。時間をおいて再度お試しください。", Err: ErrVersionFrozen},
	{Code: "E021", UIMessage: "回答の形式が正しくありません。", Err: ErrInvalidPayload},
	{Code: "E022", UIMessage: "設問が更新されています。最新の設問で再度回答してください。", Err: ErrOptionOutOfVersion},
	{Code: "E040", UIMessage: "セッションが見つかりません。もう一度最初からお試しください。", Err: ErrSessionNotFound},
	{Code: "E041", UIMessage: "この回答はすでに送信されています。", Err: ErrDuplicateAnswer},
	{Code: "E043", UIMessage: "診断の設定が完了していません。管理者にお問い合わせください。", Err: ErrSystemPromptMissing},
	{Code: "E044", UIMessage: "診断結果の生成準備が完了していません。", Err: ErrGenerationIncomplete},
	{Code: "E045", UIMessage: "回答が記録されていません。先に回答を送信してください。", Err: ErrNoAnswers},
	{Code: "E050", UIMessage: "診断結果の生成に失敗しました。", Err: ErrGenerationFailed},
	{Code: "E062", UIMessage: "セッションを保存できませんでした。", Err: ErrLinkTargetInvalid},
}

// Lookup returns the definition for a backend error code.
func Lookup(code string) (Definition, bool) {
	for _, def := range definitions {
		if def.Code == code {
			return def, true
		}
	}
	return Definition{}, false
}

// DefinitionFor returns the definition matching a mapped error.
func DefinitionFor(err error) (Definition, bool) {
	if err == nil {
		return Definition{}, false
	}
	for _, def := range definitions {
		if errors.Is(err, def.Err) {
			return def, true
		}
	}
	return Definition{}, false
}

// UIMessageFor returns the user-facing message for a mapped error, falling
// back to the given message for errors with no definition.
func UIMessageFor(err error, fallback string) string {
	if def, ok := DefinitionFor(err); ok && def.UIMessage != "" {
		return def.UIMessage
	}
	return fallback
}

// IsRetryable reports whether a failure is transient per the polling policy.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransient)
}
