package usecase

import (
	"context"
	"slices"
	"sync"
	"time"

	"MCNews/internal/domain"
)

type fakeVersions struct {
	mu       sync.Mutex
	manifest domain.Manifest
	ok       bool
	calls    int
	panicMsg string
}

func (f *fakeVersions) FetchManifest(context.Context) (domain.Manifest, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	return f.manifest, f.ok
}

func (f *fakeVersions) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeArticles struct {
	mu      sync.Mutex
	content domain.VersionContent
	urls    []string
	onFetch func(url string)
}

func (f *fakeArticles) FetchArticle(_ context.Context, url string) domain.VersionContent {
	f.mu.Lock()
	f.urls = append(f.urls, url)
	hook := f.onFetch
	f.mu.Unlock()
	if hook != nil {
		hook(url)
	}
	return f.content
}

// fakeProber returns its rounds in sequence and repeats the last one.
type fakeProber struct {
	mu     sync.Mutex
	rounds [][]domain.HealthStatus
	calls  int
}

func (f *fakeProber) Probe(_ context.Context, ep domain.Endpoint) domain.HealthStatus {
	return domain.HealthStatus{Name: ep.Name, URL: ep.URL, Online: true}
}

func (f *fakeProber) ProbeAll(context.Context) []domain.HealthStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if len(f.rounds) == 0 {
		return nil
	}
	i := min(f.calls-1, len(f.rounds)-1)
	return slices.Clone(f.rounds[i])
}

func (f *fakeProber) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeStore keeps the document in memory and remembers the cursor at every flush.
type fakeStore struct {
	mu       sync.Mutex
	doc      domain.Document
	flushed  []string
	flushErr error
}

func newFakeStore(cursor string) *fakeStore {
	doc := domain.NewDocument()
	doc.LastVersionID = cursor
	return &fakeStore{doc: doc}
}

func (s *fakeStore) LastVersionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.LastVersionID
}

func (s *fakeStore) SetLastVersionID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.LastVersionID = id
}

func (s *fakeStore) NotifiedVersions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.doc.NotifiedVersions)
}

func (s *fakeStore) AddVersionHistory(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.NotifiedVersions = domain.AppendHistory(s.doc.NotifiedVersions, id, domain.HistoryLimit)
}

func (s *fakeStore) NotifiedArticles() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.doc.NotifiedArticles)
}

func (s *fakeStore) AddArticleHistory(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.NotifiedArticles = domain.AppendHistory(s.doc.NotifiedArticles, url, domain.HistoryLimit)
}

func (s *fakeStore) ServicesStatus() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Clone().LastServicesStatus
}

func (s *fakeStore) SetServicesStatus(status map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.LastServicesStatus = status
}

func (s *fakeStore) Snapshot() domain.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Clone()
}

func (s *fakeStore) Flush(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flushed = append(s.flushed, s.doc.LastVersionID)
	return s.flushErr
}

func (s *fakeStore) Close() error { return nil }

func (s *fakeStore) LastFlushedCursor() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.flushed) == 0 {
		return ""
	}
	return s.flushed[len(s.flushed)-1]
}

func (s *fakeStore) Flushes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.flushed)
}

type sentMessage struct {
	destinations []string
	text         string
}

type fakeDispatcher struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (d *fakeDispatcher) Dispatch(_ context.Context, destinations []string, text string) domain.DispatchReport {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, sentMessage{destinations: slices.Clone(destinations), text: text})
	return domain.DispatchReport{Delivered: slices.Clone(destinations)}
}

func (d *fakeDispatcher) Sent() []sentMessage {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.sent)
}

type fakeWhitelist struct {
	mu   sync.Mutex
	ids  []string
	fail error
}

func (w *fakeWhitelist) Destinations() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.ids)
}

func (w *fakeWhitelist) AddDestination(id string) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fail != nil {
		return false, w.fail
	}
	if slices.Contains(w.ids, id) {
		return false, nil
	}
	w.ids = append(w.ids, id)
	return true, nil
}

func (w *fakeWhitelist) RemoveDestination(id string) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fail != nil {
		return false, w.fail
	}
	i := slices.Index(w.ids, id)
	if i < 0 {
		return false, nil
	}
	w.ids = slices.Delete(w.ids, i, i+1)
	return true, nil
}

type sleepRecorder struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (s *sleepRecorder) Sleep(_ context.Context, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.waits = append(s.waits, d)
}

func (s *sleepRecorder) Waits() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.waits)
}
