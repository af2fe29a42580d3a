package session

// IssuedSession is the server-issued identity a stored record is reconciled
// against when a diagnostic is (re)opened.
type IssuedSession struct {
	SessionCode string
	VersionID   int64
	ExpiresAt   *string
}

// shouldReset decides whether locally held answers are still meaningful.
// Answers are only valid against one fixed version's question and option
// identifiers, so any drift discards them.
func shouldReset(diagnosticCode string, current *Record, issued IssuedSession) bool {
	if current == nil {
		return true
	}
	if current.DiagnosticCode != diagnosticCode {
		return true
	}
	if current.Status == StatusCompleted || current.Status == StatusExpired {
		return true
	}
	if current.SessionCode == nil {
		return true
	}
	if *current.SessionCode != issued.SessionCode {
		return true
	}
	if current.VersionID == nil || *current.VersionID != issued.VersionID {
		return true
	}
	return false
}

// Reconcile decides whether to reset or reuse a stored record when the server
// issues a session. On reuse the choices, status, and any completed result are
// kept verbatim; only the session identity fields are refreshed (ExpiresAt is
// filled only if previously unset). The second return reports whether choices
// were reused.
func Reconcile(diagnosticCode string, current *Record, issued IssuedSession) (Record, bool) {
	if shouldReset(diagnosticCode, current, issued) {
		next := NewRecord(diagnosticCode)
		next.SessionCode = ptr(issued.SessionCode)
		next.VersionID = ptr(issued.VersionID)
		next.ExpiresAt = issued.ExpiresAt
		return next, false
	}

	next := current.Clone()
	next.SessionCode = ptr(issued.SessionCode)
	next.VersionID = ptr(issued.VersionID)
	if issued.ExpiresAt != nil {
		next.ExpiresAt = issued.ExpiresAt
	}
	return next, true
}

func ptr[T any](v T) *T {
	return &v
}
