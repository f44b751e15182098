package app

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ossa-ma/recovrr/internal/common"
	"github.com/ossa-ma/recovrr/internal/interfaces"
	"github.com/ossa-ma/recovrr/internal/matcher"
	"github.com/ossa-ma/recovrr/internal/models"
	"github.com/ossa-ma/recovrr/internal/monitor"
	"github.com/ossa-ma/recovrr/internal/notify"
	"github.com/ossa-ma/recovrr/internal/scrapers"
	badgerstorage "github.com/ossa-ma/recovrr/internal/storage/badger"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	ctx       context.Context
	cancelCtx context.CancelFunc

	StorageManager interfaces.StorageManager
	Registry       interfaces.ScraperRegistry
	Scorer         interfaces.MatchScorer
	Dispatcher     interfaces.Dispatcher
	Orchestrator   *monitor.Orchestrator
	Scheduler      interfaces.MonitorScheduler
}

// New creates and wires all application components. Initialization order:
// storage, profile seeds, scrapers, scorer, notifier, orchestrator,
// scheduler. A scorer that cannot initialize is fatal; notification
// channels degrade to whichever are configured.
func New(config *common.Config, logger arbor.ILogger) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())

	app := &App{
		Config:    config,
		Logger:    logger,
		ctx:       ctx,
		cancelCtx: cancel,
	}

	storageManager, err := badgerstorage.NewManager(logger, &config.Storage.Badger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	app.StorageManager = storageManager

	if config.Profiles.Dir != "" {
		if err := storageManager.LoadProfilesFromFiles(ctx, config.Profiles.Dir); err != nil {
			logger.Warn().Err(err).Str("dir", config.Profiles.Dir).Msg("Failed to load profile seed files")
		}
	}

	app.Registry = scrapers.NewDefaultRegistry(&config.Scrapers, logger)

	scorer, err := matcher.NewScorer(ctx, config, logger)
	if err != nil {
		storageManager.Close()
		cancel()
		return nil, fmt.Errorf("failed to initialize match scorer: %w", err)
	}
	app.Scorer = scorer

	app.Dispatcher = notify.NewMatchDispatcher(config, storageManager.AnalysisStorage(), logger)

	app.Orchestrator = monitor.NewOrchestrator(
		storageManager,
		app.Registry,
		app.Scorer,
		app.Dispatcher,
		&config.Monitor,
		logger,
	)

	app.Scheduler = monitor.NewScheduler(app.Orchestrator, config.ScrapeInterval(), logger)

	logger.Info().
		Strs("marketplaces", app.Registry.Marketplaces()).
		Str("llm_provider", string(config.LLM.DefaultProvider)).
		Dur("scrape_interval", config.ScrapeInterval()).
		Msg("Application initialized")

	return app, nil
}

// Start begins periodic monitoring
func (a *App) Start() error {
	return a.Scheduler.Start(a.ctx)
}

// RunOnce executes a single monitoring cycle and returns its summary
func (a *App) RunOnce(ctx context.Context) (*models.CycleSummary, error) {
	return a.Scheduler.RunOnce(ctx)
}

// Close shuts components down in reverse initialization order
func (a *App) Close() {
	a.Scheduler.Stop()
	a.cancelCtx()

	if err := a.StorageManager.Close(); err != nil {
		a.Logger.Error().Err(err).Msg("Failed to close storage")
	}

	a.Logger.Info().Msg("Application shut down")
}
