package parser

import (
	"bytes"
	"context"
	"time"

	"github.com/rs/zerolog"

	"MCNews/internal/domain"
	"MCNews/internal/infrastructure/fetch"
	"MCNews/internal/ports"
)

// ArticleSource downloads changelog pages and extracts their sections.
type ArticleSource struct {
	client  *fetch.Client
	timeout time.Duration
	log     zerolog.Logger
}

var _ ports.ArticleSource = (*ArticleSource)(nil)

// NewArticleSource wires the shared fetch client; timeout defaults to 30s.
func NewArticleSource(client *fetch.Client, timeout time.Duration, log zerolog.Logger) *ArticleSource {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ArticleSource{client: client, timeout: timeout, log: log}
}

// FetchArticle returns empty content when the page cannot be fetched or parsed.
func (a *ArticleSource) FetchArticle(ctx context.Context, url string) domain.VersionContent {
	resp := a.client.Get(ctx, url, a.timeout)
	if resp.Error != nil {
		a.log.Warn().Err(resp.Error).Str("url", url).Msg("article request failed")
		return domain.VersionContent{}
	}
	if !resp.OK() {
		a.log.Info().Int("status", resp.StatusCode).Str("url", url).Msg("article not available")
		return domain.VersionContent{}
	}

	sections, err := ParseSections(bytes.NewReader(resp.Body))
	if err != nil {
		a.log.Warn().Err(err).Str("url", url).Msg("article parse failed")
		return domain.VersionContent{}
	}

	a.log.Debug().
		Str("url", url).
		Stringer("new_features", sections.NewFeatures.State).
		Stringer("changes", sections.Changes.State).
		Stringer("bug_fixes", sections.BugFixes.State).
		Stringer("technical_changes", sections.TechnicalChanges.State).
		Msg("article sections extracted")

	return sections.Content()
}
