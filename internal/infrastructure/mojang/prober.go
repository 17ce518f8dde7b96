package mojang

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"MCNews/internal/domain"
	"MCNews/internal/infrastructure/fetch"
	"MCNews/internal/ports"
)

const defaultProbeConcurrency = 4

// Prober checks health endpoints with a bounded worker pool.
type Prober struct {
	client      *fetch.Client
	endpoints   []domain.Endpoint
	timeout     time.Duration
	concurrency int
	log         zerolog.Logger
}

var _ ports.HealthProber = (*Prober)(nil)

// NewProber probes endpoints, falling back to domain.DefaultEndpoints when empty.
func NewProber(client *fetch.Client, endpoints []domain.Endpoint, timeout time.Duration, concurrency int, log zerolog.Logger) *Prober {
	if len(endpoints) == 0 {
		endpoints = domain.DefaultEndpoints()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if concurrency <= 0 {
		concurrency = defaultProbeConcurrency
	}
	return &Prober{
		client:      client,
		endpoints:   endpoints,
		timeout:     timeout,
		concurrency: concurrency,
		log:         log,
	}
}

// Endpoints returns the configured probe set.
func (p *Prober) Endpoints() []domain.Endpoint {
	return append([]domain.Endpoint(nil), p.endpoints...)
}

// Probe issues one timed GET. Online iff the status is 200.
func (p *Prober) Probe(ctx context.Context, ep domain.Endpoint) domain.HealthStatus {
	status := domain.HealthStatus{
		Name:        ep.Name,
		URL:         ep.URL,
		Description: ep.Description,
	}

	resp := p.client.Get(ctx, ep.URL, p.timeout)
	switch {
	case resp.TimedOut():
		status.ErrorMessage = "Timeout"
	case resp.Error != nil:
		status.ErrorMessage = domain.TruncateError(resp.Error.Error())
	case resp.StatusCode != 200:
		status.LatencyMs = resp.Latency.Milliseconds()
		status.ErrorMessage = fmt.Sprintf("HTTP %d", resp.StatusCode)
	default:
		status.Online = true
		status.LatencyMs = resp.Latency.Milliseconds()
	}

	p.log.Debug().
		Str("service", ep.Name).
		Bool("online", status.Online).
		Int64("latency_ms", status.LatencyMs).
		Str("error", status.ErrorMessage).
		Msg("probe finished")
	return status
}

// ProbeAll probes every endpoint concurrently and returns results in endpoint order.
func (p *Prober) ProbeAll(ctx context.Context) []domain.HealthStatus {
	if len(p.endpoints) == 0 {
		return nil
	}

	type job struct {
		index    int
		endpoint domain.Endpoint
	}

	results := make([]domain.HealthStatus, len(p.endpoints))
	jobs := make(chan job, len(p.endpoints))

	workers := p.concurrency
	if workers > len(p.endpoints) {
		workers = len(p.endpoints)
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				results[j.index] = p.Probe(ctx, j.endpoint)
			}
		}()
	}

	for i, ep := range p.endpoints {
		jobs <- job{index: i, endpoint: ep}
	}
	close(jobs)
	wg.Wait()

	return results
}
