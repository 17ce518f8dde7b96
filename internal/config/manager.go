package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"MCNews/internal/domain"
	"MCNews/pkg/fileutil"
)

const (
	reloadDebounce = 250 * time.Millisecond
	watchBackoff   = time.Second
	whitelistKey   = "whitelist"
	configFileMode = 0o644
)

// Manager holds the live configuration, reloads it when the file changes
// and persists whitelist edits back to the file.
type Manager struct {
	path string
	log  zerolog.Logger

	mu  sync.RWMutex
	cfg Config

	// writeMu serialises whitelist edits with their file write.
	writeMu sync.Mutex

	subsMu sync.Mutex
	subs   []chan Config

	validator func(Config) error
}

// NewManager loads path and returns a manager around it. An empty path
// keeps the configuration in memory only.
func NewManager(path string, log zerolog.Logger) (*Manager, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	return NewManagerWith(path, cfg, log), nil
}

// NewManagerWith wraps an already loaded configuration.
func NewManagerWith(path string, cfg Config, log zerolog.Logger) *Manager {
	return &Manager{path: path, cfg: cfg.Clone(), log: log}
}

// Path is the backing file, empty for in-memory configurations.
func (m *Manager) Path() string { return m.path }

// Get returns a copy of the current configuration.
func (m *Manager) Get() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg.Clone()
}

// SetValidator installs an extra check applied to reloaded files before they
// are committed.
func (m *Manager) SetValidator(fn func(Config) error) {
	m.validator = fn
}

// Subscribe returns a channel receiving every committed reload.
func (m *Manager) Subscribe(buffer int) chan Config {
	ch := make(chan Config, buffer)
	m.subsMu.Lock()
	m.subs = append(m.subs, ch)
	m.subsMu.Unlock()
	return ch
}

// Unsubscribe removes and closes ch.
func (m *Manager) Unsubscribe(ch chan Config) {
	m.subsMu.Lock()
	defer m.subsMu.Unlock()
	for i, s := range m.subs {
		if s == ch {
			m.subs = slices.Delete(m.subs, i, i+1)
			close(ch)
			return
		}
	}
}

func (m *Manager) publish(cfg Config) {
	m.subsMu.Lock()
	defer m.subsMu.Unlock()
	for _, ch := range m.subs {
		select {
		case ch <- cfg.Clone():
		default:
			// slow subscriber: drop the stale item, keep the newest
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- cfg.Clone():
			default:
				m.log.Debug().Msg("config update dropped for slow subscriber")
			}
		}
	}
}

// Commit replaces the live configuration and notifies subscribers. The file
// is not touched.
func (m *Manager) Commit(cfg Config) {
	m.mu.Lock()
	m.cfg = cfg.Clone()
	m.mu.Unlock()
	m.publish(cfg)
}

// Reload re-reads the file and commits it when it differs from the current
// configuration. It reports whether anything changed.
func (m *Manager) Reload() (bool, error) {
	if m.path == "" {
		return false, nil
	}
	cfg, err := Load(m.path)
	if err != nil {
		return false, err
	}
	if m.validator != nil {
		if err := m.validator(cfg); err != nil {
			return false, fmt.Errorf("config rejected: %w", err)
		}
	}

	m.mu.RLock()
	unchanged := reflect.DeepEqual(m.cfg, cfg)
	m.mu.RUnlock()
	if unchanged {
		return false, nil
	}
	m.Commit(cfg)
	return true, nil
}

// Watch reloads the configuration on file changes until ctx is done.
func (m *Manager) Watch(ctx context.Context) error {
	if m.path == "" {
		<-ctx.Done()
		return nil
	}
	dir := filepath.Dir(m.path)
	file := filepath.Base(m.path)

	var (
		timerMu sync.Mutex
		timer   *time.Timer
	)
	debounce := func() {
		timerMu.Lock()
		defer timerMu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(reloadDebounce, func() {
			changed, err := m.Reload()
			if err != nil {
				m.log.Warn().Err(err).Str("path", m.path).Msg("config reload failed, keeping previous")
				return
			}
			if changed {
				m.log.Info().Str("path", m.path).Msg("config reloaded")
			}
		})
	}
	defer func() {
		timerMu.Lock()
		if timer != nil {
			timer.Stop()
		}
		timerMu.Unlock()
	}()

	for {
		if ctx.Err() != nil {
			return nil
		}
		w, err := fsnotify.NewWatcher()
		if err == nil {
			err = w.Add(dir)
			if err != nil {
				_ = w.Close()
			}
		}
		if err != nil {
			m.log.Warn().Err(err).Str("dir", dir).Msg("config watch init failed")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(watchBackoff):
				continue
			}
		}

		m.log.Debug().Str("dir", dir).Str("file", file).Msg("config watcher started")
		broken := false
		for !broken {
			select {
			case <-ctx.Done():
				_ = w.Close()
				return nil
			case ev, ok := <-w.Events:
				if !ok {
					broken = true
					break
				}
				if strings.EqualFold(filepath.Base(ev.Name), file) &&
					ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
					debounce()
				}
			case err, ok := <-w.Errors:
				if !ok {
					broken = true
					break
				}
				m.log.Warn().Err(err).Str("dir", dir).Msg("config watch error")
			}
		}
		_ = w.Close()
	}
}

// Destinations returns the current whitelist.
func (m *Manager) Destinations() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.cfg.Whitelist)
}

// AddDestination appends id to the whitelist and persists it. It returns
// false when id was already present.
func (m *Manager) AddDestination(id string) (bool, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return false, domain.ErrEmptyDestination
	}
	return m.editWhitelist(func(list []string) ([]string, bool) {
		if slices.Contains(list, id) {
			return list, false
		}
		return append(list, id), true
	})
}

// RemoveDestination drops id from the whitelist and persists it. It returns
// false when id was not present.
func (m *Manager) RemoveDestination(id string) (bool, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return false, domain.ErrEmptyDestination
	}
	return m.editWhitelist(func(list []string) ([]string, bool) {
		i := slices.Index(list, id)
		if i < 0 {
			return list, false
		}
		return slices.Delete(list, i, i+1), true
	})
}

func (m *Manager) editWhitelist(edit func([]string) ([]string, bool)) (bool, error) {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	next, changed := edit(m.Destinations())
	if !changed {
		return false, nil
	}
	if next == nil {
		next = []string{}
	}
	if err := m.persistWhitelist(next); err != nil {
		return false, err
	}

	m.mu.Lock()
	m.cfg.Whitelist = slices.Clone(next)
	cfg := m.cfg.Clone()
	m.mu.Unlock()

	m.publish(cfg)
	return true, nil
}

// persistWhitelist rewrites only the whitelist key so environment overrides
// and secrets never reach the file.
func (m *Manager) persistWhitelist(list []string) error {
	if m.path == "" {
		return nil
	}
	raw, err := os.ReadFile(m.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("read config %s: %w", m.path, err)
	}

	var out []byte
	switch formatOf(m.path) {
	case formatTOML:
		out, err = setTOMLWhitelist(raw, list)
	default:
		out, err = setYAMLWhitelist(raw, list)
	}
	if err != nil {
		return fmt.Errorf("update whitelist in %s: %w", m.path, err)
	}
	return fileutil.WriteAtomic(m.path, out, configFileMode)
}

func setYAMLWhitelist(raw []byte, list []string) ([]byte, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	// a file holding only comments decodes to no document; the comments are
	// carried over verbatim ahead of the new mapping
	var preamble []byte
	if doc.Kind == 0 {
		doc = yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}}}
		preamble = bytes.TrimRight(raw, " \t\r\n")
		if len(preamble) > 0 {
			preamble = append(preamble, '\n')
		}
	}
	root := doc.Content[0]
	if root.Kind == yaml.ScalarNode && root.ShortTag() == "!!null" {
		doc.Content[0] = &yaml.Node{
			Kind:        yaml.MappingNode,
			Tag:         "!!map",
			HeadComment: root.HeadComment,
			LineComment: root.LineComment,
			FootComment: root.FootComment,
		}
		root = doc.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return nil, errors.New("top level is not a mapping")
	}

	seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for _, id := range list {
		seq.Content = append(seq.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: id, Style: yaml.DoubleQuotedStyle})
	}
	if len(list) == 0 {
		seq.Style = yaml.FlowStyle
	}

	replaced := false
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value == whitelistKey {
			root.Content[i+1] = seq
			replaced = true
			break
		}
	}
	if !replaced {
		root.Content = append(root.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: whitelistKey}, seq)
	}
	out, err := yaml.Marshal(&doc)
	if err != nil {
		return nil, err
	}
	return append(preamble, out...), nil
}

func setTOMLWhitelist(raw []byte, list []string) ([]byte, error) {
	doc := map[string]any{}
	if err := toml.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	doc[whitelistKey] = list
	return toml.Marshal(doc)
}
