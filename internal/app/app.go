package app

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"MCNews/internal/config"
	"MCNews/internal/delivery"
	"MCNews/internal/infrastructure/fetch"
	"MCNews/internal/infrastructure/mojang"
	"MCNews/internal/infrastructure/parser"
	"MCNews/internal/infrastructure/scheduler"
	"MCNews/internal/infrastructure/secrets"
	"MCNews/internal/infrastructure/storage"
	"MCNews/internal/infrastructure/telegram"
	"MCNews/internal/infrastructure/webhook"
	"MCNews/internal/logging"
	"MCNews/internal/notifier"
	"MCNews/internal/usecase"
)

const shutdownTimeout = 15 * time.Second

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	config *config.Manager
	log    zerolog.Logger

	client    *fetch.Client
	store     *storage.Store
	bot       *telegram.Bot
	monitor   *usecase.Monitor
	commands  *usecase.Commands
	scheduler *usecase.Scheduler

	closeOnce sync.Once
}

// New builds the application from a loaded configuration manager.
func New(ctx context.Context, manager *config.Manager, baseLogger zerolog.Logger) (*Application, error) {
	cfg := manager.Get()

	store, err := storage.Open(ctx, storage.Config{Driver: cfg.Storage.Driver, Path: cfg.Storage.Path},
		logging.Component(baseLogger, "storage"))
	if err != nil {
		return nil, fmt.Errorf("open state: %w", err)
	}

	src := newSources(cfg, baseLogger)
	client, manifest, articles, prober := src.client, src.manifest, src.articles, src.prober

	registry := delivery.NewRegistry()
	registry.Register(webhook.NewClient(cfg.Notifier.WebhookTimeout.Duration()))

	bot, err := newBot(cfg, baseLogger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	if bot != nil {
		registry.Register(telegram.NewChannel(bot))
	}

	router := delivery.NewRouter(registry, logging.Component(baseLogger, "delivery"))
	dispatcher := notifier.NewDispatcher(router, cfg.Notifier.RatePerSec, logging.Component(baseLogger, "notifier"))

	monitor := usecase.NewMonitor(usecase.MonitorDeps{
		Versions:   manifest,
		Articles:   articles,
		Prober:     prober,
		Store:      store,
		Dispatcher: dispatcher,
		Whitelist:  manager,
		Settings:   func() usecase.Settings { return settingsFrom(manager.Get()) },
		Log:        logging.Component(baseLogger, "monitor"),
	})
	commands := usecase.NewCommands(manifest, prober, manager, nil, logging.Component(baseLogger, "commands"))

	sched := usecase.NewScheduler(
		scheduler.NewCronScheduler(logging.Component(baseLogger, "scheduler")),
		monitor,
		usecase.Schedule{
			VersionEvery: cfg.VersionInterval(),
			ServiceEvery: cfg.ServiceInterval(),
			StartupDelay: cfg.StartupDelay.Duration(),
		},
		logging.Component(baseLogger, "scheduler"),
	)

	if bot != nil && cfg.Telegram.Commands {
		bot.RegisterCommands(commands)
	}

	return &Application{
		config:    manager,
		log:       baseLogger,
		client:    client,
		store:     store,
		bot:       bot,
		monitor:   monitor,
		commands:  commands,
		scheduler: sched,
	}, nil
}

// sources are the network adapters shared by the daemon and one-shot queries.
type sources struct {
	client   *fetch.Client
	manifest *mojang.ManifestSource
	articles *parser.ArticleSource
	prober   *mojang.Prober
}

func newSources(cfg config.Config, baseLogger zerolog.Logger) sources {
	headers := maps.Clone(fetch.DefaultHeaders)
	if cfg.Sources.UserAgent != "" {
		headers["User-Agent"] = cfg.Sources.UserAgent
	}
	client := fetch.NewClient(headers)

	return sources{
		client: client,
		manifest: mojang.NewManifestSource(client, cfg.Sources.ManifestURL, cfg.Sources.RequestTimeout.Duration(),
			logging.Component(baseLogger, "manifest")),
		articles: parser.NewArticleSource(client, cfg.Sources.RequestTimeout.Duration(),
			logging.Component(baseLogger, "article")),
		prober: mojang.NewProber(client, cfg.Sources.Services, cfg.Sources.ProbeTimeout.Duration(),
			cfg.Sources.ProbeConcurrency, logging.Component(baseLogger, "prober")),
	}
}

// NewQueries builds the read-only command set: manifest and health lookups
// plus whitelist edits. It opens no state and does not contact Telegram.
func NewQueries(manager *config.Manager, baseLogger zerolog.Logger) *usecase.Commands {
	src := newSources(manager.Get(), baseLogger)
	return usecase.NewCommands(src.manifest, src.prober, manager, nil, logging.Component(baseLogger, "commands"))
}

// newBot returns nil when no token is configured in the file, the
// environment or the keyring.
func newBot(cfg config.Config, baseLogger zerolog.Logger) (*telegram.Bot, error) {
	token := cfg.Telegram.Token
	if token == "" {
		stored, err := secrets.TelegramToken()
		if err != nil {
			baseLogger.Debug().Err(err).Msg("keyring unavailable")
		}
		token = stored
	}
	if token == "" {
		baseLogger.Info().Msg("no telegram token, telegram delivery disabled")
		return nil, nil
	}

	bot, err := telegram.New(telegram.Config{
		Token:       token,
		PollTimeout: cfg.Telegram.PollTimeout.Duration(),
	}, logging.Component(baseLogger, "telegram"))
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	return bot, nil
}

func settingsFrom(cfg config.Config) usecase.Settings {
	return usecase.Settings{
		NotifyVersions:             cfg.NotifyVersions,
		NotifySnapshot:             cfg.NotifySnapshot,
		NotifyServiceStatus:        cfg.NotifyServiceStatus,
		ServiceNotifyPause:         cfg.ServiceNotifyPause.Duration(),
		AdvanceCursorAfterDispatch: cfg.AdvanceCursorAfterDispatch,
		ArticleBaseURL:             cfg.Sources.ArticleBaseURL,
	}
}

// Commands exposes the manual query surface.
func (a *Application) Commands() *usecase.Commands { return a.commands }

// Monitor exposes the cycle bodies for one-shot runs.
func (a *Application) Monitor() *usecase.Monitor { return a.monitor }

// Run starts the recurring cycles, the config watcher and the bot, calls
// ready once everything is up, and blocks until ctx is done.
func (a *Application) Run(ctx context.Context, ready func()) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := a.config.Watch(runCtx); err != nil {
			a.log.Warn().Err(err).Msg("config watcher exited")
		}
	}()

	if err := a.scheduler.Start(runCtx); err != nil {
		cancel()
		wg.Wait()
		return err
	}
	if a.bot != nil {
		a.bot.Start()
	}

	a.log.Info().Str("config", a.config.Path()).Msg("mcnews running")
	if ready != nil {
		ready()
	}

	<-ctx.Done()
	a.log.Info().Msg("shutting down")

	stopCtx, stopCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stopCancel()

	var errs []error
	if err := a.scheduler.Stop(stopCtx); err != nil {
		errs = append(errs, fmt.Errorf("stop scheduler: %w", err))
	}
	if a.bot != nil {
		a.bot.Stop()
	}
	cancel()
	wg.Wait()

	if err := a.store.Flush(stopCtx); err != nil {
		errs = append(errs, fmt.Errorf("flush state: %w", err))
	}
	return errors.Join(errs...)
}

// Close releases the state backend and idle connections.
func (a *Application) Close() error {
	var err error
	a.closeOnce.Do(func() {
		a.client.Close()
		err = a.store.Close()
	})
	return err
}
