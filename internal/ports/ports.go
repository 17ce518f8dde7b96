package ports

import (
	"context"
	"time"

	"MCNews/internal/domain"
)

// VersionSource pulls the release manifest. ok is false on any failure.
type VersionSource interface {
	FetchManifest(ctx context.Context) (domain.Manifest, bool)
}

// ArticleSource extracts changelog sections from an article page.
// Failures yield empty content.
type ArticleSource interface {
	FetchArticle(ctx context.Context, url string) domain.VersionContent
}

// HealthProber checks the configured endpoints.
type HealthProber interface {
	Probe(ctx context.Context, endpoint domain.Endpoint) domain.HealthStatus
	ProbeAll(ctx context.Context) []domain.HealthStatus
}

// StateStore owns the persisted monitor document.
type StateStore interface {
	LastVersionID() string
	SetLastVersionID(id string)
	NotifiedVersions() []string
	AddVersionHistory(id string)
	NotifiedArticles() []string
	AddArticleHistory(url string)
	ServicesStatus() map[string]string
	SetServicesStatus(status map[string]string)
	Snapshot() domain.Document
	Flush(ctx context.Context) error
	Close() error
}

// Deliverer sends one text message to one destination.
type Deliverer interface {
	Deliver(ctx context.Context, destination, text string) error
}

// Dispatcher fans a message out to every destination.
type Dispatcher interface {
	Dispatch(ctx context.Context, destinations []string, text string) domain.DispatchReport
}

// Whitelist is the set of registered destinations.
type Whitelist interface {
	Destinations() []string
	AddDestination(id string) (bool, error)
	RemoveDestination(id string) (bool, error)
}

// Scheduler runs named recurring tasks.
type Scheduler interface {
	Every(name string, interval time.Duration, task func(ctx context.Context)) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}
