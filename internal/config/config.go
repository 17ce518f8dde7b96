package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"MCNews/internal/domain"
)

const (
	telegramTokenEnv = "MCNEWS_TELEGRAM_TOKEN"
	storagePathEnv   = "MCNEWS_STORAGE_PATH"
	logLevelEnv      = "MCNEWS_LOG_LEVEL"
)

// Config holds every setting of the monitor.
type Config struct {
	VersionCheckInterval       int      `yaml:"version_check_interval" toml:"version_check_interval"`
	ServiceCheckInterval       int      `yaml:"service_check_interval" toml:"service_check_interval"`
	NotifyVersions             bool     `yaml:"notify_versions" toml:"notify_versions"`
	NotifySnapshot             bool     `yaml:"notify_snapshot" toml:"notify_snapshot"`
	NotifyServiceStatus        bool     `yaml:"notify_service_status" toml:"notify_service_status"`
	Whitelist                  []string `yaml:"whitelist" toml:"whitelist"`
	StartupDelay               Duration `yaml:"startup_delay" toml:"startup_delay"`
	ServiceNotifyPause         Duration `yaml:"service_notify_pause" toml:"service_notify_pause"`
	AdvanceCursorAfterDispatch bool     `yaml:"advance_cursor_after_dispatch" toml:"advance_cursor_after_dispatch"`

	Sources  SourcesConfig  `yaml:"sources" toml:"sources"`
	Storage  StorageConfig  `yaml:"storage" toml:"storage"`
	Telegram TelegramConfig `yaml:"telegram" toml:"telegram"`
	Notifier NotifierConfig `yaml:"notifier" toml:"notifier"`
	Logging  LoggingConfig  `yaml:"logging" toml:"logging"`
}

// SourcesConfig points at the upstream data.
type SourcesConfig struct {
	ManifestURL      string            `yaml:"manifest_url" toml:"manifest_url"`
	ArticleBaseURL   string            `yaml:"article_base_url" toml:"article_base_url"`
	UserAgent        string            `yaml:"user_agent" toml:"user_agent"`
	RequestTimeout   Duration          `yaml:"request_timeout" toml:"request_timeout"`
	ProbeTimeout     Duration          `yaml:"probe_timeout" toml:"probe_timeout"`
	ProbeConcurrency int               `yaml:"probe_concurrency" toml:"probe_concurrency"`
	Services         []domain.Endpoint `yaml:"services" toml:"services"`
}

// StorageConfig selects the state backend.
type StorageConfig struct {
	Driver string `yaml:"driver" toml:"driver"`
	Path   string `yaml:"path" toml:"path"`
}

// TelegramConfig enables the bot transport and command surface.
type TelegramConfig struct {
	Token       string   `yaml:"token" toml:"token"`
	PollTimeout Duration `yaml:"poll_timeout" toml:"poll_timeout"`
	Commands    bool     `yaml:"commands" toml:"commands"`
}

// NotifierConfig paces outbound deliveries.
type NotifierConfig struct {
	RatePerSec     float64  `yaml:"rate_per_sec" toml:"rate_per_sec"`
	WebhookTimeout Duration `yaml:"webhook_timeout" toml:"webhook_timeout"`
}

// LoggingConfig selects level and output format ("console" or "json").
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// VersionInterval is the version-check period.
func (c Config) VersionInterval() time.Duration {
	return time.Duration(c.VersionCheckInterval) * time.Minute
}

// ServiceInterval is the service-check period.
func (c Config) ServiceInterval() time.Duration {
	return time.Duration(c.ServiceCheckInterval) * time.Minute
}

// Clone deep-copies slice fields.
func (c Config) Clone() Config {
	out := c
	out.Whitelist = append([]string(nil), c.Whitelist...)
	out.Sources.Services = append([]domain.Endpoint(nil), c.Sources.Services...)
	return out
}

// Default returns the configuration used for omitted keys.
func Default() Config {
	return Config{
		VersionCheckInterval: 15,
		ServiceCheckInterval: 5,
		NotifyVersions:       true,
		NotifySnapshot:       true,
		NotifyServiceStatus:  true,
		Whitelist:            []string{},
		StartupDelay:         Duration(10 * time.Second),
		ServiceNotifyPause:   Duration(time.Second),
		Sources: SourcesConfig{
			ManifestURL:      "https://piston-meta.mojang.com/mc/game/version_manifest_v2.json",
			ArticleBaseURL:   domain.DefaultArticleBaseURL,
			UserAgent:        "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
			RequestTimeout:   Duration(30 * time.Second),
			ProbeTimeout:     Duration(10 * time.Second),
			ProbeConcurrency: 4,
			Services:         domain.DefaultEndpoints(),
		},
		Storage: StorageConfig{Driver: "file", Path: "data/mcnews_data.json"},
		Telegram: TelegramConfig{
			PollTimeout: Duration(10 * time.Second),
			Commands:    true,
		},
		Notifier: NotifierConfig{
			RatePerSec:     20,
			WebhookTimeout: Duration(10 * time.Second),
		},
		Logging: LoggingConfig{Level: "info", Format: "console"},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg, err := loadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func loadFile(path string) (Config, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(path, raw)
}

// Parse decodes raw onto the defaults, choosing TOML for .toml files and YAML otherwise.
func Parse(path string, raw []byte) (Config, error) {
	cfg := Default()
	if len(bytes.TrimSpace(raw)) == 0 {
		return cfg, nil
	}

	// decoded slices replace the defaults wholesale
	cfg.Whitelist = nil
	cfg.Sources.Services = nil

	switch formatOf(path) {
	case formatTOML:
		if err := toml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse toml %s: %w", path, err)
		}
	default:
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse yaml %s: %w", path, err)
		}
	}

	if cfg.Whitelist == nil {
		cfg.Whitelist = []string{}
	}
	if len(cfg.Sources.Services) == 0 {
		cfg.Sources.Services = domain.DefaultEndpoints()
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Telegram.Token = v
	}
	if v := os.Getenv(storagePathEnv); v != "" {
		c.Storage.Path = v
	}
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
}

// Validate rejects settings the monitor cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.VersionCheckInterval < 1 {
		errs = append(errs, fmt.Errorf("version_check_interval must be at least 1 minute, got %d", c.VersionCheckInterval))
	}
	if c.ServiceCheckInterval < 1 {
		errs = append(errs, fmt.Errorf("service_check_interval must be at least 1 minute, got %d", c.ServiceCheckInterval))
	}
	if c.StartupDelay < 0 || c.ServiceNotifyPause < 0 {
		errs = append(errs, errors.New("startup_delay and service_notify_pause must not be negative"))
	}
	for i, id := range c.Whitelist {
		if strings.TrimSpace(id) == "" {
			errs = append(errs, fmt.Errorf("whitelist[%d] is empty", i))
		}
	}

	if c.Sources.ProbeConcurrency < 1 {
		errs = append(errs, fmt.Errorf("sources.probe_concurrency must be positive, got %d", c.Sources.ProbeConcurrency))
	}
	if c.Sources.RequestTimeout <= 0 || c.Sources.ProbeTimeout <= 0 {
		errs = append(errs, errors.New("sources.request_timeout and sources.probe_timeout must be positive"))
	}
	names := map[string]bool{}
	for i, svc := range c.Sources.Services {
		if svc.Name == "" || svc.URL == "" {
			errs = append(errs, fmt.Errorf("sources.services[%d]: name and url are required", i))
			continue
		}
		if names[svc.Name] {
			errs = append(errs, fmt.Errorf("sources.services[%d]: duplicate name %q", i, svc.Name))
		}
		names[svc.Name] = true
	}

	switch strings.ToLower(c.Storage.Driver) {
	case "", "file", "json", "sqlite", "sqlite3":
	default:
		errs = append(errs, fmt.Errorf("storage.driver %q is not supported", c.Storage.Driver))
	}

	if c.Notifier.RatePerSec <= 0 {
		errs = append(errs, fmt.Errorf("notifier.rate_per_sec must be positive, got %v", c.Notifier.RatePerSec))
	}

	switch strings.ToLower(c.Logging.Format) {
	case "", "console", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format %q is not supported", c.Logging.Format))
	}

	return errors.Join(errs...)
}

type fileFormat int

const (
	formatYAML fileFormat = iota
	formatTOML
)

func formatOf(path string) fileFormat {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return formatTOML
	}
	return formatYAML
}
