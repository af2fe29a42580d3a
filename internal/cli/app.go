package cli

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/shindanlab/shindan/internal/common/httpclient"
	"github.com/shindanlab/shindan/internal/config"
	"github.com/shindanlab/shindan/internal/diagnostic/backend"
	"github.com/shindanlab/shindan/internal/diagnostic/link"
	"github.com/shindanlab/shindan/internal/diagnostic/session"
	"github.com/shindanlab/shindan/internal/diagnostic/snapshot"
	"github.com/shindanlab/shindan/internal/notify"
)

// app bundles the wired-up collaborators every command works against.
type app struct {
	cfg      *config.Config
	client   *backend.Client
	store    *session.Store
	notifier notify.Notifier
	logger   zerolog.Logger

	medium snapshot.Medium
}

func loadAppConfig(file string) error {
	return config.LoadConfig(file)
}

// newApp wires config, HTTP client, snapshot store, and notifier together.
// A failed durable-medium open is not fatal; the store runs degraded with
// in-memory persistence only.
func newApp() (*app, error) {
	cfg := config.GetConfig()
	if cfg == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}

	logger := newLogger()

	var medium snapshot.Medium
	if cfg.Storage.InMemory {
		medium = snapshot.NewMemoryMedium()
	} else {
		badgerMedium, err := snapshot.OpenBadger(cfg.Storage.Dir, logger)
		if err != nil {
			logger.Warn().Err(err).Str("dir", cfg.Storage.Dir).Msg("durable storage unavailable")
			medium = nil
		} else {
			medium = badgerMedium
		}
	}

	notifier := notify.NewLogNotifier(logger)
	store := session.NewStore(medium, logger)
	client := backend.NewClient(cfg, logger)

	return &app{
		cfg:      cfg,
		client:   client,
		store:    store,
		notifier: notifier,
		logger:   logger,
		medium:   medium,
	}, nil
}

func (a *app) Close() {
	if a.medium != nil {
		if err := a.medium.Close(); err != nil {
			a.logger.Warn().Err(err).Msg("failed to close snapshot storage")
		}
	}
}

func (a *app) newLinker() *link.Linker {
	return link.NewLinker(a.store, a.client, a.cfg, a.notifier, a.logger)
}

func newLogger() zerolog.Logger {
	writer := zerolog.ConsoleWriter{Out: os.Stderr}
	level := zerolog.InfoLevel
	if os.Getenv("SHINDAN_DEBUG") != "" {
		level = zerolog.DebugLevel
	}
	return zerolog.New(writer).Level(level).With().Timestamp().Logger()
}

var _ httpclient.Configurator = (*config.Config)(nil)
