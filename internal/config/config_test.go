package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MCNews/internal/domain"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	def := Default()
	assert.Equal(t, def.VersionCheckInterval, cfg.VersionCheckInterval)
	assert.Equal(t, 15*time.Minute, cfg.VersionInterval())
	assert.Equal(t, 5*time.Minute, cfg.ServiceInterval())
	assert.True(t, cfg.NotifyVersions)
	assert.True(t, cfg.NotifySnapshot)
	assert.True(t, cfg.NotifyServiceStatus)
	assert.Empty(t, cfg.Whitelist)
	assert.Len(t, cfg.Sources.Services, 3)
	assert.Equal(t, 10*time.Second, cfg.StartupDelay.Duration())
}

func TestParseYAMLOverridesOnlyGivenKeys(t *testing.T) {
	t.Parallel()

	raw := `
version_check_interval: 30
notify_snapshot: false
whitelist:
  - "telegram:-100"
startup_delay: 2s
sources:
  probe_timeout: 3s
storage:
  driver: sqlite
  path: state.db
`
	cfg, err := Parse("mcnews.yaml", []byte(raw))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 30, cfg.VersionCheckInterval)
	assert.Equal(t, 5, cfg.ServiceCheckInterval)
	assert.False(t, cfg.NotifySnapshot)
	assert.True(t, cfg.NotifyVersions)
	assert.Equal(t, []string{"telegram:-100"}, cfg.Whitelist)
	assert.Equal(t, 2*time.Second, cfg.StartupDelay.Duration())
	assert.Equal(t, 3*time.Second, cfg.Sources.ProbeTimeout.Duration())
	assert.Equal(t, 30*time.Second, cfg.Sources.RequestTimeout.Duration())
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Len(t, cfg.Sources.Services, 3)
}

func TestParseTOML(t *testing.T) {
	t.Parallel()

	raw := `
service_check_interval = 2
whitelist = ["telegram:1", "https://hooks.example/x"]

[notifier]
rate_per_sec = 5.0

[[sources.services]]
name = "api"
url = "https://api.example/health"
description = "API"
`
	cfg, err := Parse("mcnews.toml", []byte(raw))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 2, cfg.ServiceCheckInterval)
	assert.Equal(t, []string{"telegram:1", "https://hooks.example/x"}, cfg.Whitelist)
	assert.InDelta(t, 5.0, cfg.Notifier.RatePerSec, 0.001)
	require.Len(t, cfg.Sources.Services, 1)
	assert.Equal(t, domain.Endpoint{Name: "api", URL: "https://api.example/health", Description: "API"}, cfg.Sources.Services[0])
}

func TestParseRejectsBadDuration(t *testing.T) {
	t.Parallel()

	_, err := Parse("mcnews.yaml", []byte("startup_delay: soon\n"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.VersionCheckInterval = 0
	cfg.Storage.Driver = "redis"
	cfg.Whitelist = []string{" "}
	cfg.Sources.Services = append(cfg.Sources.Services, cfg.Sources.Services[0])

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "version_check_interval")
	assert.Contains(t, err.Error(), "storage.driver")
	assert.Contains(t, err.Error(), "whitelist[0]")
	assert.Contains(t, err.Error(), "duplicate name")
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	t.Setenv(telegramTokenEnv, "secret")
	t.Setenv(logLevelEnv, "debug")

	path := writeFile(t, t.TempDir(), "mcnews.yaml", "logging:\n  level: warn\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "secret", cfg.Telegram.Token)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestManagerWhitelistPersistsOnlyWhitelistYAML(t *testing.T) {
	t.Setenv(telegramTokenEnv, "from-env")

	dir := t.TempDir()
	path := writeFile(t, dir, "mcnews.yaml", "# monitor settings\nversion_check_interval: 20\nwhitelist: []\n")

	m, err := NewManager(path, zerolog.Nop())
	require.NoError(t, err)

	added, err := m.AddDestination("telegram:-100")
	require.NoError(t, err)
	assert.True(t, added)

	added, err = m.AddDestination("telegram:-100")
	require.NoError(t, err)
	assert.False(t, added)

	_, err = m.AddDestination("telegram:7")
	require.NoError(t, err)
	assert.Equal(t, []string{"telegram:-100", "telegram:7"}, m.Destinations())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "# monitor settings")
	assert.NotContains(t, string(raw), "from-env")

	reloaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 20, reloaded.VersionCheckInterval)
	assert.Equal(t, []string{"telegram:-100", "telegram:7"}, reloaded.Whitelist)

	removed, err := m.RemoveDestination("telegram:-100")
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = m.RemoveDestination("telegram:-100")
	require.NoError(t, err)
	assert.False(t, removed)

	reloaded, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"telegram:7"}, reloaded.Whitelist)
}

func TestManagerWhitelistTOMLAndMissingFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "mcnews.toml")
	m, err := NewManager(path, zerolog.Nop())
	require.NoError(t, err)

	_, err = m.AddDestination("telegram:42")
	require.NoError(t, err)

	reloaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"telegram:42"}, reloaded.Whitelist)
}

func TestManagerRejectsEmptyDestination(t *testing.T) {
	t.Parallel()

	m := NewManagerWith("", Default(), zerolog.Nop())
	_, err := m.AddDestination("  ")
	assert.ErrorIs(t, err, domain.ErrEmptyDestination)

	added, err := m.AddDestination("telegram:1")
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, []string{"telegram:1"}, m.Get().Whitelist)
}

func TestManagerReloadPublishesChanges(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeFile(t, dir, "mcnews.yaml", "notify_versions: true\n")
	m, err := NewManager(path, zerolog.Nop())
	require.NoError(t, err)

	updates := m.Subscribe(1)
	defer m.Unsubscribe(updates)

	changed, err := m.Reload()
	require.NoError(t, err)
	assert.False(t, changed)

	writeFile(t, dir, "mcnews.yaml", "notify_versions: false\n")
	changed, err = m.Reload()
	require.NoError(t, err)
	assert.True(t, changed)

	select {
	case cfg := <-updates:
		assert.False(t, cfg.NotifyVersions)
	case <-time.After(time.Second):
		t.Fatal("no update published")
	}
	assert.False(t, m.Get().NotifyVersions)

	writeFile(t, dir, "mcnews.yaml", "version_check_interval: 0\n")
	_, err = m.Reload()
	require.Error(t, err)
	assert.False(t, m.Get().NotifyVersions)
}

func TestManagerWatchPicksUpEdits(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeFile(t, dir, "mcnews.yaml", "notify_service_status: true\n")
	m, err := NewManager(path, zerolog.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = m.Watch(ctx)
	}()
	defer func() {
		cancel()
		<-done
	}()

	require.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte("notify_service_status: false\n"), 0o644)
		return !m.Get().NotifyServiceStatus
	}, 5*time.Second, 300*time.Millisecond)
}

func TestManagerWhitelistKeepsCommentsOnlyFile(t *testing.T) {
	t.Parallel()

	for name, body := range map[string]string{
		"comments only":    "# mcnews settings\n# edit intervals below\n",
		"with blank lines": "\n# mcnews settings\n\n# whitelist goes here\n\n",
	} {
		name, body := name, body
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			path := writeFile(t, t.TempDir(), "mcnews.yaml", body)
			m, err := NewManager(path, zerolog.Nop())
			require.NoError(t, err)

			added, err := m.AddDestination("telegram:-100")
			require.NoError(t, err)
			assert.True(t, added)

			raw, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Contains(t, string(raw), "# mcnews settings")

			reloaded, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, []string{"telegram:-100"}, reloaded.Whitelist)
		})
	}
}
