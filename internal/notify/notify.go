// Package notify defines the user-facing notification contract for the
// diagnostic core. Components that promise "exactly one notification per
// outcome" emit through a Notifier; the binding to an actual surface (CLI
// output, log stream) is the caller's choice.
package notify

import (
	"github.com/rs/zerolog"
)

// Options controls notification delivery.
type Options struct {
	// Persist marks the notification as one the surface should keep visible
	// until the user dismisses it.
	Persist bool
}

// Notifier delivers user-facing notifications. Implementations must be safe
// for use from a single goroutine at a time.
type Notifier interface {
	Success(message string, opts ...Options)
	Info(message string, opts ...Options)
	Warning(message string, opts ...Options)
	Error(message string, opts ...Options)
}

// LogNotifier writes notifications to a zerolog logger. It is the default
// Notifier for non-interactive use.
type LogNotifier struct {
	logger zerolog.Logger
}

// NewLogNotifier creates a LogNotifier emitting through the given logger.
func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) emit(event *zerolog.Event, message string, opts []Options) {
	persist := false
	for _, o := range opts {
		persist = persist || o.Persist
	}
	event.Bool("persist", persist).Msg(message)
}

func (n *LogNotifier) Success(message string, opts ...Options) {
	n.emit(n.logger.Info().Str("kind", "success"), message, opts)
}

func (n *LogNotifier) Info(message string, opts ...Options) {
	n.emit(n.logger.Info().Str("kind", "info"), message, opts)
}

func (n *LogNotifier) Warning(message string, opts ...Options) {
	n.emit(n.logger.Warn().Str("kind", "warning"), message, opts)
}

func (n *LogNotifier) Error(message string, opts ...Options) {
	n.emit(n.logger.Error().Str("kind", "error"), message, opts)
}
