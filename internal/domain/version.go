package domain

import (
	"regexp"
	"strings"
)

// DefaultArticleBaseURL is the minecraft.net article root used for changelog links.
const DefaultArticleBaseURL = "https://www.minecraft.net/zh-hans/article/"

// VersionType is the release channel reported by the manifest.
type VersionType string

const (
	TypeRelease  VersionType = "release"
	TypeSnapshot VersionType = "snapshot"
	TypeOldBeta  VersionType = "old_beta"
	TypeOldAlpha VersionType = "old_alpha"
)

var (
	snapshotIDExpr   = regexp.MustCompile(`^\d+w\d+[a-z]$`)
	preReleaseIDExpr = regexp.MustCompile(`^(.+)-pre(\d+)`)
	candidateIDExpr  = regexp.MustCompile(`^(.+)-rc(\d+)`)
)

// VersionRecord is one entry of the upstream manifest, optionally enriched
// with changelog content when a push is being prepared.
type VersionRecord struct {
	ID          string      `json:"id"`
	Type        VersionType `json:"type"`
	URL         string      `json:"url"`
	Time        string      `json:"time"`
	ReleaseTime string      `json:"releaseTime"`

	// Content and ArticleLink are attached when a push is prepared.
	Content     *VersionContent `json:"-"`
	ArticleLink string          `json:"-"`
}

// IsSnapshot reports whether the record belongs to the suppressible snapshot channel.
func (v VersionRecord) IsSnapshot() bool {
	return v.Type == TypeSnapshot
}

// ReleaseDate returns the calendar date part of ReleaseTime.
func (v VersionRecord) ReleaseDate() string {
	return datePart(v.ReleaseTime)
}

// ArticleURL derives the changelog page under the default article root.
func (v VersionRecord) ArticleURL() string {
	return v.ArticleURLWithBase(DefaultArticleBaseURL)
}

// ArticleURLWithBase derives the changelog page for the version id under base.
func (v VersionRecord) ArticleURLWithBase(base string) string {
	if base == "" {
		base = DefaultArticleBaseURL
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + articleSlug(v.ID)
}

// DisplayType is the human label shown in pushes.
func (v VersionRecord) DisplayType() string {
	switch {
	case strings.Contains(v.ID, "-pre"):
		return "Pre-Release"
	case strings.Contains(v.ID, "-rc"):
		return "Release Candidate"
	case snapshotIDExpr.MatchString(v.ID):
		return "Snapshot"
	default:
		return "Release"
	}
}

func articleSlug(id string) string {
	dashed := func(s string) string { return strings.ReplaceAll(s, ".", "-") }

	if snapshotIDExpr.MatchString(id) {
		return "minecraft-snapshot-" + id
	}
	if strings.Contains(id, "-pre") {
		if m := preReleaseIDExpr.FindStringSubmatch(id); m != nil {
			return "minecraft-" + dashed(m[1]) + "-pre-release-" + m[2]
		}
		return "minecraft-" + dashed(id)
	}
	if strings.Contains(id, "-rc") {
		if m := candidateIDExpr.FindStringSubmatch(id); m != nil {
			return "minecraft-" + dashed(m[1]) + "-release-candidate-" + m[2]
		}
		return "minecraft-" + dashed(id)
	}
	return "minecraft-java-edition-" + dashed(id)
}

func datePart(ts string) string {
	if len(ts) > 10 {
		return ts[:10]
	}
	return ts
}

// VersionContent holds the changelog sections extracted from an article page.
type VersionContent struct {
	NewFeatures      []string
	Changes          []string
	BugFixes         []string
	TechnicalChanges []string
}

// Empty reports whether no section produced any item.
func (c *VersionContent) Empty() bool {
	if c == nil {
		return true
	}
	return len(c.NewFeatures) == 0 && len(c.Changes) == 0 && len(c.BugFixes) == 0 && len(c.TechnicalChanges) == 0
}

// LatestIDs mirrors the manifest "latest" object.
type LatestIDs struct {
	Release  string `json:"release"`
	Snapshot string `json:"snapshot"`
}

// Manifest is the decoded release manifest. Versions are newest first.
type Manifest struct {
	Latest   LatestIDs       `json:"latest"`
	Versions []VersionRecord `json:"versions"`
}

// Empty reports whether the manifest carries no versions.
func (m Manifest) Empty() bool {
	return len(m.Versions) == 0
}

// Find returns the first version with the given id.
func (m Manifest) Find(id string) (VersionRecord, bool) {
	if id == "" {
		return VersionRecord{}, false
	}
	for _, v := range m.Versions {
		if v.ID == id {
			return v, true
		}
	}
	return VersionRecord{}, false
}
