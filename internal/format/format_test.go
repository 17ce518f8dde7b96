package format

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"MCNews/internal/domain"
)

var fixedNow = time.Date(2024, time.March, 6, 14, 5, 9, 0, time.UTC)

func TestVersionPush(t *testing.T) {
	t.Parallel()

	rec := domain.VersionRecord{
		ID:          "24w10a",
		Type:        domain.TypeSnapshot,
		ReleaseTime: "2024-03-06T13:54:21+00:00",
		Content: &domain.VersionContent{
			Changes:          []string{"c1", "c2", "c3", "c4", "c5", "c6"},
			BugFixes:         []string{"MC-1: broken"},
			TechnicalChanges: []string{"t1", "t2", "t3", "t4"},
		},
	}

	want := strings.Join([]string{
		"[Minecraft Update] 24w10a",
		"Type: Snapshot",
		"Released: 2024-03-06",
		"",
		"[Changes]",
		"- c1", "- c2", "- c3", "- c4", "- c5",
		"",
		"[Bug Fixes]",
		"- MC-1: broken",
		"",
		"[Technical Changes]",
		"- t1", "- t2", "- t3",
		"",
		"Details: https://www.minecraft.net/zh-hans/article/minecraft-snapshot-24w10a",
	}, "\n")
	assert.Equal(t, want, VersionPush(rec))
}

func TestVersionPushWithoutContentUsesLink(t *testing.T) {
	t.Parallel()

	rec := domain.VersionRecord{ID: "1.21", ReleaseTime: "2024-06-13T08:24:03+00:00", ArticleLink: "https://example.test/1.21"}
	want := "[Minecraft Update] 1.21\nType: Release\nReleased: 2024-06-13\n\nDetails: https://example.test/1.21"
	assert.Equal(t, want, VersionPush(rec))
}

func TestLatestVersions(t *testing.T) {
	t.Parallel()

	m := domain.Manifest{
		Latest: domain.LatestIDs{Release: "1.20.4", Snapshot: "24w10a"},
		Versions: []domain.VersionRecord{
			{ID: "24w10a", ReleaseTime: "2024-03-06T13:54:21+00:00"},
			{ID: "1.20.4", ReleaseTime: "2023-12-07T12:56:20+00:00"},
		},
	}
	want := "[Minecraft Latest Versions]\n\nRelease: 1.20.4\n  Released: 2023-12-07\n\nSnapshot: 24w10a\n  Released: 2024-03-06"
	assert.Equal(t, want, LatestVersions(m))
}

func TestServicesDigest(t *testing.T) {
	t.Parallel()

	statuses := []domain.HealthStatus{
		{Name: "Mojang API", Online: true, LatencyMs: 120},
		{Name: "Mojang Session Server", ErrorMessage: "Timeout"},
		{Name: "Minecraft Services API"},
	}
	want := "[Mojang Service Status]\n\n[OK] Mojang API (120ms)\n[X] Mojang Session Server: Offline - Timeout\n[X] Minecraft Services API: Offline\n\nUpdated: 2024-03-06 14:05:09"
	assert.Equal(t, want, ServicesDigest(statuses, fixedNow))
}

func TestServiceDetail(t *testing.T) {
	t.Parallel()

	up := ServiceDetail(domain.HealthStatus{Name: "Mojang API", Description: "Player lookup service", Online: true, LatencyMs: 88})
	assert.Equal(t, "[Mojang API]\nDescription: Player lookup service\nStatus: Online\nLatency: 88ms", up)

	down := ServiceDetail(domain.HealthStatus{Name: "Mojang API", Description: "Player lookup service", ErrorMessage: "HTTP 503"})
	assert.Equal(t, "[Mojang API]\nDescription: Player lookup service\nStatus: Offline\nError: HTTP 503", down)
}

func TestServiceTransition(t *testing.T) {
	t.Parallel()

	recovered := ServiceTransition("Mojang API", true, 231, "", fixedNow)
	assert.Equal(t, "[Mojang Service Recovered]\n\nService: Mojang API\nStatus: Back online\nLatency: 231ms\n\nDetected: 2024-03-06 14:05:09", recovered)

	down := ServiceTransition("Mojang API", false, 0, "HTTP 502", fixedNow)
	assert.Equal(t, "[Mojang Service Down]\n\nService: Mojang API\nStatus: Unreachable\nError: HTTP 502\n\nDetected: 2024-03-06 14:05:09", down)
}

func TestWhitelist(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Whitelist is empty.\nUse /mcnews add to add current session.", Whitelist(nil))
	assert.Equal(t, "[MCNews Whitelist]\n\n1. 100\n2. telegram:-200:7", Whitelist([]string{"100", "telegram:-200:7"}))
}

func TestHelpListsCommands(t *testing.T) {
	t.Parallel()

	help := Help()
	for _, cmd := range []string{"status", "latest", "add", "remove", "list"} {
		assert.Contains(t, help, "/mcnews "+cmd)
	}
}
