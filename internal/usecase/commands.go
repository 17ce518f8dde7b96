package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"MCNews/internal/format"
	"MCNews/internal/ports"
)

// Commands answers manual queries with rendered text. It backs both the CLI
// and the Telegram command bot.
type Commands struct {
	versions  ports.VersionSource
	prober    ports.HealthProber
	whitelist ports.Whitelist
	now       func() time.Time
	log       zerolog.Logger
}

// NewCommands constructs the query surface. now defaults to time.Now.
func NewCommands(versions ports.VersionSource, prober ports.HealthProber, whitelist ports.Whitelist, now func() time.Time, log zerolog.Logger) *Commands {
	if now == nil {
		now = time.Now
	}
	return &Commands{versions: versions, prober: prober, whitelist: whitelist, now: now, log: log}
}

// Status probes every service and renders the digest.
func (c *Commands) Status(ctx context.Context) string {
	statuses := c.prober.ProbeAll(ctx)
	if len(statuses) == 0 {
		return format.ServicesUnavailable()
	}
	return format.ServicesDigest(statuses, c.now())
}

// Service probes the set and renders the detail of one service, matched
// case-insensitively by name.
func (c *Commands) Service(ctx context.Context, name string) string {
	statuses := c.prober.ProbeAll(ctx)
	if len(statuses) == 0 {
		return format.ServicesUnavailable()
	}
	for _, st := range statuses {
		if strings.EqualFold(st.Name, strings.TrimSpace(name)) {
			return format.ServiceDetail(st)
		}
	}
	return format.UnknownService(name)
}

// Latest renders the newest release and snapshot from the manifest.
func (c *Commands) Latest(ctx context.Context) string {
	manifest, ok := c.versions.FetchManifest(ctx)
	if !ok || manifest.Empty() {
		return format.ManifestUnavailable()
	}
	return format.LatestVersions(manifest)
}

// AddWhitelist registers id as a destination.
func (c *Commands) AddWhitelist(id string) string {
	added, err := c.whitelist.AddDestination(id)
	if err != nil {
		c.log.Warn().Err(err).Str("destination", id).Msg("whitelist add failed")
		return format.WhitelistFailed(err)
	}
	if !added {
		return format.WhitelistAlreadyPresent()
	}
	c.log.Info().Str("destination", id).Msg("whitelist entry added")
	return format.WhitelistAdded(id)
}

// RemoveWhitelist drops id from the destinations.
func (c *Commands) RemoveWhitelist(id string) string {
	removed, err := c.whitelist.RemoveDestination(id)
	if err != nil {
		c.log.Warn().Err(err).Str("destination", id).Msg("whitelist remove failed")
		return format.WhitelistFailed(err)
	}
	if !removed {
		return format.WhitelistNotPresent()
	}
	c.log.Info().Str("destination", id).Msg("whitelist entry removed")
	return format.WhitelistRemoved()
}

// ListWhitelist renders the destinations in order.
func (c *Commands) ListWhitelist() string {
	return format.Whitelist(c.whitelist.Destinations())
}

// Help renders the static command reference.
func (c *Commands) Help() string {
	return format.Help()
}
