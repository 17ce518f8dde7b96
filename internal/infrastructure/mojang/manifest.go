package mojang

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"MCNews/internal/domain"
	"MCNews/internal/infrastructure/fetch"
	"MCNews/internal/ports"
)

// DefaultManifestURL is the piston-meta release manifest.
const DefaultManifestURL = "https://piston-meta.mojang.com/mc/game/version_manifest_v2.json"

// ManifestSource reads the release manifest.
type ManifestSource struct {
	client  *fetch.Client
	url     string
	timeout time.Duration
	log     zerolog.Logger
}

var _ ports.VersionSource = (*ManifestSource)(nil)

// NewManifestSource uses url (or DefaultManifestURL when empty).
func NewManifestSource(client *fetch.Client, url string, timeout time.Duration, log zerolog.Logger) *ManifestSource {
	if url == "" {
		url = DefaultManifestURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ManifestSource{client: client, url: url, timeout: timeout, log: log}
}

// FetchManifest returns ok=false on transport errors, non-200 or undecodable bodies.
func (s *ManifestSource) FetchManifest(ctx context.Context) (domain.Manifest, bool) {
	resp := s.client.Get(ctx, s.url, s.timeout)
	if resp.Error != nil {
		s.log.Warn().Err(resp.Error).Str("url", s.url).Msg("manifest request failed")
		return domain.Manifest{}, false
	}
	if !resp.OK() {
		s.log.Warn().Int("status", resp.StatusCode).Str("url", s.url).Msg("manifest returned non-200")
		return domain.Manifest{}, false
	}

	var manifest domain.Manifest
	if err := json.Unmarshal(resp.Body, &manifest); err != nil {
		s.log.Warn().Err(err).Msg("manifest decode failed")
		return domain.Manifest{}, false
	}
	return manifest, true
}
