package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"MCNews/internal/domain"
	"MCNews/internal/format"
	"MCNews/internal/ports"
)

// Settings are the monitor options read at the start of every cycle, so
// reloaded configuration applies from the next run.
type Settings struct {
	NotifyVersions             bool
	NotifySnapshot             bool
	NotifyServiceStatus        bool
	ServiceNotifyPause         time.Duration
	AdvanceCursorAfterDispatch bool
	ArticleBaseURL             string
}

// MonitorDeps wires the driven adapters into the monitor.
type MonitorDeps struct {
	Versions   ports.VersionSource
	Articles   ports.ArticleSource
	Prober     ports.HealthProber
	Store      ports.StateStore
	Dispatcher ports.Dispatcher
	Whitelist  ports.Whitelist
	Settings   func() Settings
	Sleep      func(ctx context.Context, d time.Duration)
	Now        func() time.Time
	Log        zerolog.Logger
}

// Monitor owns the version-check and service-check cycle bodies.
type Monitor struct {
	versions   ports.VersionSource
	articles   ports.ArticleSource
	prober     ports.HealthProber
	store      ports.StateStore
	dispatcher ports.Dispatcher
	whitelist  ports.Whitelist
	settings   func() Settings
	sleep      func(ctx context.Context, d time.Duration)
	now        func() time.Time
	log        zerolog.Logger

	versionMu sync.Mutex
	serviceMu sync.Mutex
	// health is the last observed online flag per service, guarded by serviceMu.
	health map[string]bool
}

// NewMonitor constructs the monitor.
func NewMonitor(deps MonitorDeps) *Monitor {
	m := &Monitor{
		versions:   deps.Versions,
		articles:   deps.Articles,
		prober:     deps.Prober,
		store:      deps.Store,
		dispatcher: deps.Dispatcher,
		whitelist:  deps.Whitelist,
		settings:   deps.Settings,
		sleep:      deps.Sleep,
		now:        deps.Now,
		log:        deps.Log,
		health:     map[string]bool{},
	}
	if m.settings == nil {
		m.settings = func() Settings {
			return Settings{NotifyVersions: true, NotifySnapshot: true, NotifyServiceStatus: true, ServiceNotifyPause: time.Second}
		}
	}
	if m.sleep == nil {
		m.sleep = sleepContext
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m
}

// CheckVersions runs one version-check cycle. A cycle already in progress
// makes this call a no-op.
func (m *Monitor) CheckVersions(ctx context.Context) {
	if !m.versionMu.TryLock() {
		m.log.Info().Str("cycle", "version-check").Msg("previous cycle still running, skipping")
		return
	}
	defer m.versionMu.Unlock()

	log := m.cycleLogger("version-check")
	defer recoverCycle(log)
	m.checkVersions(ctx, log)
}

func (m *Monitor) checkVersions(ctx context.Context, log zerolog.Logger) {
	settings := m.settings()
	if !settings.NotifyVersions {
		return
	}

	manifest, ok := m.versions.FetchManifest(ctx)
	if !ok || len(manifest.Versions) == 0 {
		log.Debug().Msg("manifest unavailable")
		return
	}

	candidate := manifest.Versions[0]
	if candidate.ID == m.store.LastVersionID() {
		return
	}
	log = log.With().Str("version", candidate.ID).Logger()

	if candidate.IsSnapshot() && !settings.NotifySnapshot {
		m.store.SetLastVersionID(candidate.ID)
		m.flush(ctx, log)
		log.Info().Msg("snapshot suppressed, cursor advanced")
		return
	}

	if !settings.AdvanceCursorAfterDispatch {
		m.store.SetLastVersionID(candidate.ID)
		m.flush(ctx, log)
	}

	articleURL := candidate.ArticleURLWithBase(settings.ArticleBaseURL)
	content := m.articles.FetchArticle(ctx, articleURL)
	candidate.Content = &content
	candidate.ArticleLink = articleURL

	report := m.dispatcher.Dispatch(ctx, m.whitelist.Destinations(), format.VersionPush(candidate))

	if settings.AdvanceCursorAfterDispatch {
		m.store.SetLastVersionID(candidate.ID)
	}
	m.store.AddVersionHistory(candidate.ID)
	m.store.AddArticleHistory(articleURL)
	m.flush(ctx, log)

	log.Info().
		Int("delivered", len(report.Delivered)).
		Int("failed", len(report.Failed)).
		Bool("content", !content.Empty()).
		Msg("version pushed")
}

// CheckServices runs one service-check cycle.
func (m *Monitor) CheckServices(ctx context.Context) {
	if !m.serviceMu.TryLock() {
		m.log.Info().Str("cycle", "service-check").Msg("previous cycle still running, skipping")
		return
	}
	defer m.serviceMu.Unlock()

	log := m.cycleLogger("service-check")
	defer recoverCycle(log)
	m.checkServices(ctx, log)
}

func (m *Monitor) checkServices(ctx context.Context, log zerolog.Logger) {
	settings := m.settings()
	if !settings.NotifyServiceStatus {
		return
	}

	statuses := m.prober.ProbeAll(ctx)
	if len(statuses) == 0 {
		return
	}

	for _, st := range statuses {
		prev, seen := m.health[st.Name]
		m.health[st.Name] = st.Online
		if !seen {
			log.Debug().Str("service", st.Name).Bool("online", st.Online).Msg("service seeded")
			continue
		}
		if prev == st.Online {
			continue
		}

		text := format.ServiceTransition(st.Name, st.Online, st.LatencyMs, st.ErrorMessage, m.now())
		report := m.dispatcher.Dispatch(ctx, m.whitelist.Destinations(), text)
		log.Info().
			Str("service", st.Name).
			Str("status", st.StatusLabel()).
			Int("delivered", len(report.Delivered)).
			Int("failed", len(report.Failed)).
			Msg("service status changed")

		m.sleep(ctx, settings.ServiceNotifyPause)
	}

	m.recordStatuses(ctx, log, statuses)
}

// SeedHealth probes every service once and fills the cache without notifying.
func (m *Monitor) SeedHealth(ctx context.Context) {
	m.serviceMu.Lock()
	defer m.serviceMu.Unlock()

	log := m.cycleLogger("health-seed")
	defer recoverCycle(log)

	statuses := m.prober.ProbeAll(ctx)
	for _, st := range statuses {
		m.health[st.Name] = st.Online
	}
	if len(statuses) > 0 {
		m.recordStatuses(ctx, log, statuses)
	}
	log.Info().Int("services", len(statuses)).Msg("health cache seeded")
}

// HealthCache returns a copy of the cached online flags.
func (m *Monitor) HealthCache() map[string]bool {
	m.serviceMu.Lock()
	defer m.serviceMu.Unlock()
	out := make(map[string]bool, len(m.health))
	for k, v := range m.health {
		out[k] = v
	}
	return out
}

func (m *Monitor) recordStatuses(ctx context.Context, log zerolog.Logger, statuses []domain.HealthStatus) {
	snapshot := make(map[string]string, len(statuses))
	for _, st := range statuses {
		snapshot[st.Name] = st.StatusLabel()
	}
	m.store.SetServicesStatus(snapshot)
	m.flush(ctx, log)
}

func (m *Monitor) flush(ctx context.Context, log zerolog.Logger) {
	if err := m.store.Flush(ctx); err != nil {
		log.Error().Err(err).Msg("persist state")
	}
}

func (m *Monitor) cycleLogger(cycle string) zerolog.Logger {
	return m.log.With().Str("cycle", cycle).Str("run_id", uuid.NewString()).Logger()
}

func recoverCycle(log zerolog.Logger) {
	if r := recover(); r != nil {
		log.Error().Interface("panic", r).Msg("cycle aborted")
	}
}

func sleepContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
