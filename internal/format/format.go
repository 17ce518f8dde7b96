// Package format renders every outbound text message. All functions are pure;
// callers pass the clock value when a timestamp is printed.
package format

import (
	"fmt"
	"strings"
	"time"

	"MCNews/internal/domain"
)

const timestampLayout = "2006-01-02 15:04:05"

// Per-section item limits in a version push.
const (
	pushChanges   = 5
	pushBugFixes  = 5
	pushTechnical = 3
)

// VersionPush renders the new-version announcement.
func VersionPush(rec domain.VersionRecord) string {
	lines := []string{
		"[Minecraft Update] " + rec.ID,
		"Type: " + rec.DisplayType(),
		"Released: " + rec.ReleaseDate(),
	}

	if c := rec.Content; c != nil {
		lines = appendSection(lines, "[Changes]", c.Changes, pushChanges)
		lines = appendSection(lines, "[Bug Fixes]", c.BugFixes, pushBugFixes)
		lines = appendSection(lines, "[Technical Changes]", c.TechnicalChanges, pushTechnical)
	}

	link := rec.ArticleLink
	if link == "" {
		link = rec.ArticleURL()
	}
	lines = append(lines, "", "Details: "+link)
	return strings.Join(lines, "\n")
}

func appendSection(lines []string, title string, items []string, limit int) []string {
	if len(items) == 0 {
		return lines
	}
	lines = append(lines, "", title)
	for i, item := range items {
		if i == limit {
			break
		}
		lines = append(lines, "- "+item)
	}
	return lines
}

// LatestVersions summarizes the newest release and snapshot.
func LatestVersions(m domain.Manifest) string {
	lines := []string{"[Minecraft Latest Versions]", ""}

	if rel, ok := m.Find(m.Latest.Release); ok {
		lines = append(lines,
			"Release: "+rel.ID,
			"  Released: "+releasedOrUnknown(rel),
		)
	}
	if snap, ok := m.Find(m.Latest.Snapshot); ok {
		lines = append(lines,
			"",
			"Snapshot: "+snap.ID,
			"  Released: "+releasedOrUnknown(snap),
		)
	}
	return strings.Join(lines, "\n")
}

func releasedOrUnknown(v domain.VersionRecord) string {
	if d := v.ReleaseDate(); d != "" {
		return d
	}
	return "Unknown"
}

// ServicesDigest renders the status of every probed service.
func ServicesDigest(statuses []domain.HealthStatus, now time.Time) string {
	lines := []string{"[Mojang Service Status]", ""}
	for _, s := range statuses {
		if s.Online {
			lines = append(lines, fmt.Sprintf("[OK] %s (%dms)", s.Name, s.LatencyMs))
			continue
		}
		line := fmt.Sprintf("[X] %s: Offline", s.Name)
		if s.ErrorMessage != "" {
			line += " - " + s.ErrorMessage
		}
		lines = append(lines, line)
	}
	lines = append(lines, "", "Updated: "+now.Format(timestampLayout))
	return strings.Join(lines, "\n")
}

// ServiceDetail renders a single service with its description.
func ServiceDetail(s domain.HealthStatus) string {
	lines := []string{
		"[" + s.Name + "]",
		"Description: " + s.Description,
	}
	if s.Online {
		lines = append(lines, "Status: Online", fmt.Sprintf("Latency: %dms", s.LatencyMs))
		return strings.Join(lines, "\n")
	}
	lines = append(lines, "Status: Offline")
	if s.ErrorMessage != "" {
		lines = append(lines, "Error: "+s.ErrorMessage)
	}
	return strings.Join(lines, "\n")
}

// ServiceTransition renders an online/offline change for one service.
func ServiceTransition(name string, online bool, latencyMs int64, errMsg string, now time.Time) string {
	var lines []string
	if online {
		lines = []string{
			"[Mojang Service Recovered]",
			"",
			"Service: " + name,
			"Status: Back online",
			fmt.Sprintf("Latency: %dms", latencyMs),
		}
	} else {
		lines = []string{
			"[Mojang Service Down]",
			"",
			"Service: " + name,
			"Status: Unreachable",
		}
		if errMsg != "" {
			lines = append(lines, "Error: "+errMsg)
		}
	}
	lines = append(lines, "", "Detected: "+now.Format(timestampLayout))
	return strings.Join(lines, "\n")
}

// Whitelist lists the registered destinations.
func Whitelist(ids []string) string {
	if len(ids) == 0 {
		return "Whitelist is empty.\nUse /mcnews add to add current session."
	}
	lines := []string{"[MCNews Whitelist]", ""}
	for i, id := range ids {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, id))
	}
	return strings.Join(lines, "\n")
}

func WhitelistAdded(id string) string { return "Added to whitelist.\nSession: " + id }

func WhitelistAlreadyPresent() string { return "Already in whitelist." }

func WhitelistRemoved() string { return "Removed from whitelist." }

func WhitelistNotPresent() string { return "Not in whitelist." }

// Help is the static command reference.
func Help() string {
	return `[MCNews Help]

Commands:
  /mcnews status - View Mojang services status
  /mcnews latest - View latest MC versions
  /mcnews add - Add current session to whitelist
  /mcnews remove - Remove current session from whitelist
  /mcnews list - View whitelist

Auto-push:
  - Java version updates (release/snapshot/pre-release)
  - Mojang service status changes`
}

// ManifestUnavailable is returned by the latest query when the manifest cannot be read.
func ManifestUnavailable() string {
	return "Failed to fetch version manifest. Try again later."
}

// ServicesUnavailable is returned by the status query when no probe result exists.
func ServicesUnavailable() string {
	return "Failed to check Mojang services. Try again later."
}

// WhitelistFailed reports a whitelist edit that could not be saved.
func WhitelistFailed(err error) string {
	return "Failed to update whitelist: " + err.Error()
}

// UnknownService is returned when a named service is not in the probe set.
func UnknownService(name string) string {
	return fmt.Sprintf("Unknown service %q.", name)
}
