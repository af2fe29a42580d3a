package session

import (
	"net/http"

	"github.com/shindanlab/shindan/internal/common/apperrors"
)

var (
	// ErrSessionError is the base error for all session state errors.
	ErrSessionError apperrors.Error = apperrors.New("error in session state").SetStatusCode(http.StatusInternalServerError)

	// ErrDiagnosticCodeMismatch is returned when a record for a different
	// diagnostic code is pushed into a manager.
	ErrDiagnosticCodeMismatch apperrors.Error = ErrSessionError.New("session record diagnostic code mismatch").SetStatusCode(http.StatusBadRequest)
)
