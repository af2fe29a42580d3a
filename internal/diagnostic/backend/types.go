package backend

import (
	"encoding/json"
)

// StartSessionResponse is the identity issued when a diagnostic session is
// started.
type StartSessionResponse struct {
	SessionCode  string  `json:"session_code"`
	DiagnosticID int64   `json:"diagnostic_id"`
	VersionID    int64   `json:"version_id"`
	StartedAt    string  `json:"started_at"`
	ExpiresAt    *string `json:"expires_at,omitempty"`
}

// SubmitAnswersRequest is the finished answer set for a session.
type SubmitAnswersRequest struct {
	VersionOptionIDs []int64 `json:"version_option_ids"`
	AnsweredAt       *string `json:"answered_at,omitempty"`
}

// GenerationOptions are the optional knobs of a generation invocation.
// Unset fields are omitted from the request body.
type GenerationOptions struct {
	Model           *string  `json:"model,omitempty"`
	Temperature     *float64 `json:"temperature,omitempty"`
	TopP            *float64 `json:"top_p,omitempty"`
	ForceRegenerate *bool    `json:"force_regenerate,omitempty"`
}

// GenerationResult is the raw model payload and its generation timestamp.
// Raw is passed through unmodified; sanitization happens in the result
// package.
type GenerationResult struct {
	Raw         json.RawMessage `json:"raw"`
	GeneratedAt string          `json:"generated_at"`
}

// GenerationResponse is a successful generation invocation. Messages is the
// diagnostic transcript of the exchange with the scoring service, passed
// through opaquely.
type GenerationResponse struct {
	SessionCode string           `json:"session_code"`
	VersionID   int64            `json:"version_id"`
	Model       string           `json:"model"`
	Messages    json.RawMessage  `json:"messages"`
	LLMResult   GenerationResult `json:"llm_result"`
}

// SessionOutcome is one stored outcome row of a session.
type SessionOutcome struct {
	OutcomeID int64           `json:"outcome_id"`
	SortOrder int64           `json:"sort_order"`
	Meta      json.RawMessage `json:"meta"`
}

// StoredResult is the possibly-absent generation result of a stored session.
type StoredResult struct {
	Raw         json.RawMessage `json:"raw"`
	GeneratedAt *string         `json:"generated_at,omitempty"`
}

// SessionResponse is a stored session fetched by code.
type SessionResponse struct {
	VersionID int64            `json:"version_id"`
	Outcomes  []SessionOutcome `json:"outcomes"`
	LLMResult *StoredResult    `json:"llm_result"`
}

// LinkSessionsResponse reports which session codes were attached to the
// authenticated identity.
type LinkSessionsResponse struct {
	Linked        []string `json:"linked"`
	AlreadyLinked []string `json:"already_linked"`
}

// FormStatus tags the outcome of a conditional form fetch.
type FormStatus string

const (
	FormOK          FormStatus = "ok"
	FormNotModified FormStatus = "not_modified"
)

// FormResult is the outcome of fetching a version's form. Data is opaque to
// this core; it is handed to the caller for rendering.
type FormResult struct {
	Status FormStatus
	Data   json.RawMessage
	ETag   string
}
