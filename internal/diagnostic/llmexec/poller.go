package llmexec

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/shindanlab/shindan/internal/diagnostic/backend"
	"github.com/shindanlab/shindan/internal/notify"
)

const (
	// DefaultPollInterval is the fixed wait between retryable invocations.
	DefaultPollInterval = 10 * time.Second
	// DefaultMaxWait bounds the total time spent polling, measured from the
	// first invocation.
	DefaultMaxWait = 180 * time.Second

	timeoutMessage = "診断結果の生成に時間がかかっています。時間をおいて再度お試しください。"
)

// Poller re-invokes the executor on retryable outcomes at a fixed interval
// until a terminal outcome or the maximum total wait is reached. Unbounded
// retrying would mask a truly stuck job, so the timeout is terminal.
type Poller struct {
	executor *Executor
	notifier notify.Notifier
	clock    Clock
	interval time.Duration
	maxWait  time.Duration
	logger   zerolog.Logger
}

// NewPoller creates a poller with the default interval and bound.
func NewPoller(executor *Executor, notifier notify.Notifier, logger zerolog.Logger) *Poller {
	return &Poller{
		executor: executor,
		notifier: notifier,
		clock:    RealClock(),
		interval: DefaultPollInterval,
		maxWait:  DefaultMaxWait,
		logger:   logger.With().Str("component", "llmpoll").Logger(),
	}
}

// WithClock overrides the poller's time source. Used in tests.
func (p *Poller) WithClock(clock Clock) *Poller {
	p.clock = clock
	return p
}

// WithPolicy overrides the poll interval and maximum total wait.
// Non-positive values keep the defaults.
func (p *Poller) WithPolicy(interval, maxWait time.Duration) *Poller {
	if interval > 0 {
		p.interval = interval
	}
	if maxWait > 0 {
		p.maxWait = maxWait
	}
	return p
}

// Run drives generation for one session to a terminal outcome. The elapsed
// bound is checked before every sleep so the loop never waits past the
// deadline just to time out afterwards.
func (p *Poller) Run(ctx context.Context, params Params) Result {
	start := p.clock.Now()
	attempt := 0
	for {
		attempt++
		res := p.executor.Execute(ctx, params)
		if res.Status.Terminal() {
			return res
		}

		elapsed := p.clock.Now().Sub(start)
		if elapsed >= p.maxWait {
			p.logger.Warn().
				Str("session_code", params.SessionCode).
				Int("attempts", attempt).
				Dur("elapsed", elapsed).
				Msg("generation polling timed out")
			p.notifier.Error(timeoutMessage)
			return Result{Status: StatusTimedOut, Err: res.Err}
		}

		p.logger.Debug().
			Str("session_code", params.SessionCode).
			Int("attempt", attempt).
			Msg("generation not ready, retrying")
		if err := p.clock.Sleep(ctx, p.interval); err != nil {
			return Result{Status: StatusUnknownError, Err: backend.ErrCanceled.Err(err)}
		}
	}
}
