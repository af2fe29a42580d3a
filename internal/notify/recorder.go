package notify

// Recorded is a single captured notification.
type Recorded struct {
	Kind    string // success, info, warning, error
	Message string
	Persist bool
}

// Recorder captures notifications for assertions in tests.
type Recorder struct {
	Events []Recorded
}

func (r *Recorder) record(kind, message string, opts []Options) {
	persist := false
	for _, o := range opts {
		persist = persist || o.Persist
	}
	r.Events = append(r.Events, Recorded{Kind: kind, Message: message, Persist: persist})
}

func (r *Recorder) Success(message string, opts ...Options) { r.record("success", message, opts) }
func (r *Recorder) Info(message string, opts ...Options)    { r.record("info", message, opts) }
func (r *Recorder) Warning(message string, opts ...Options) { r.record("warning", message, opts) }
func (r *Recorder) Error(message string, opts ...Options)   { r.record("error", message, opts) }

// ByKind returns the messages recorded with the given kind.
func (r *Recorder) ByKind(kind string) []string {
	var out []string
	for _, e := range r.Events {
		if e.Kind == kind {
			out = append(out, e.Message)
		}
	}
	return out
}
