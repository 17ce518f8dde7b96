package storage

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"MCNews/internal/domain"
	"MCNews/internal/ports"
)

// Config selects the backend and its location.
type Config struct {
	Driver string
	Path   string
}

// Backend persists a whole document. Load reports found=false when nothing was stored yet.
type Backend interface {
	Load(ctx context.Context) (doc domain.Document, found bool, err error)
	Save(ctx context.Context, doc domain.Document) error
	Close() error
}

// Store keeps the document in memory and flushes it through a Backend.
type Store struct {
	mu      sync.Mutex
	doc     domain.Document
	backend Backend
	log     zerolog.Logger
}

var _ ports.StateStore = (*Store)(nil)

// Open initializes the configured backend and loads the document. A missing
// document is created and written immediately; a malformed one is an error.
func Open(ctx context.Context, cfg Config, log zerolog.Logger) (*Store, error) {
	var (
		backend Backend
		err     error
	)

	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	switch driver {
	case "", "file", "json":
		backend, err = newFileBackend(cfg.Path)
	case "sqlite", "sqlite3":
		backend, err = openSQLite(ctx, cfg.Path)
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownDriver, driver)
	}
	if err != nil {
		return nil, err
	}

	store, err := NewStore(ctx, backend, log)
	if err != nil {
		_ = backend.Close()
		return nil, err
	}
	return store, nil
}

// NewStore loads from backend, writing the default document when none exists.
func NewStore(ctx context.Context, backend Backend, log zerolog.Logger) (*Store, error) {
	doc, found, err := backend.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}

	s := &Store{backend: backend, log: log}
	if !found {
		s.doc = domain.NewDocument()
		if err := backend.Save(ctx, s.doc); err != nil {
			return nil, fmt.Errorf("write default state: %w", err)
		}
		log.Info().Msg("created default state document")
		return s, nil
	}

	doc.Normalize()
	s.doc = doc
	log.Debug().
		Str("last_version_id", doc.LastVersionID).
		Int("notified_versions", len(doc.NotifiedVersions)).
		Msg("state loaded")
	return s, nil
}

func (s *Store) LastVersionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.LastVersionID
}

func (s *Store) SetLastVersionID(id string) {
	s.mu.Lock()
	s.doc.LastVersionID = id
	s.mu.Unlock()
}

func (s *Store) NotifiedVersions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.doc.NotifiedVersions...)
}

// AddVersionHistory records id once and keeps the latest domain.HistoryLimit entries.
func (s *Store) AddVersionHistory(id string) {
	s.mu.Lock()
	s.doc.NotifiedVersions = domain.AppendHistory(s.doc.NotifiedVersions, id, domain.HistoryLimit)
	s.mu.Unlock()
}

func (s *Store) NotifiedArticles() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.doc.NotifiedArticles...)
}

// AddArticleHistory records url once and keeps the latest domain.HistoryLimit entries.
func (s *Store) AddArticleHistory(url string) {
	s.mu.Lock()
	s.doc.NotifiedArticles = domain.AppendHistory(s.doc.NotifiedArticles, url, domain.HistoryLimit)
	s.mu.Unlock()
}

func (s *Store) ServicesStatus() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.doc.LastServicesStatus))
	for k, v := range s.doc.LastServicesStatus {
		out[k] = v
	}
	return out
}

func (s *Store) SetServicesStatus(status map[string]string) {
	next := make(map[string]string, len(status))
	for k, v := range status {
		next[k] = v
	}
	s.mu.Lock()
	s.doc.LastServicesStatus = next
	s.mu.Unlock()
}

// Snapshot returns a deep copy of the in-memory document.
func (s *Store) Snapshot() domain.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Clone()
}

// Flush overwrites the persisted document with the in-memory one.
func (s *Store) Flush(ctx context.Context) error {
	doc := s.Snapshot()
	if err := s.backend.Save(ctx, doc); err != nil {
		return fmt.Errorf("flush state: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	if s == nil || s.backend == nil {
		return nil
	}
	return s.backend.Close()
}
