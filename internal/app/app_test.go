package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"MCNews/internal/config"
	"MCNews/internal/domain"
	"MCNews/internal/infrastructure/webhook"
)

const upstreamManifest = `{
  "latest": {"release": "1.21.4", "snapshot": "1.21.4"},
  "versions": [
    {"id": "1.21.4", "type": "release", "url": "u", "time": "t", "releaseTime": "2024-12-03T10:12:57+00:00"}
  ]
}`

const upstreamArticle = `<html><body>
<h2>Changes</h2><ul><li>Pale garden biome added</li></ul>
<h2>Fixed bugs in 1.21.4</h2><ul><li>MC-1 - Crash on join</li></ul>
</body></html>`

type hookRecorder struct {
	mu    sync.Mutex
	texts []string
}

func (h *hookRecorder) handler(w http.ResponseWriter, r *http.Request) {
	var p webhook.Payload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.mu.Lock()
	h.texts = append(h.texts, p.Text)
	h.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (h *hookRecorder) Texts() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.texts...)
}

func TestApplicationEndToEnd(t *testing.T) {
	keyring.MockInit()

	hooks := &hookRecorder{}
	mux := http.NewServeMux()
	mux.HandleFunc("/manifest.json", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(upstreamManifest))
	})
	mux.HandleFunc("/article/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(upstreamArticle))
	})
	mux.HandleFunc("/health/up", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/health/down", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	mux.HandleFunc("/hook", hooks.handler)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	dir := t.TempDir()
	statePath := filepath.Join(dir, "state.json")
	cfgPath := filepath.Join(dir, "mcnews.yaml")
	cfgBody := fmt.Sprintf(`
whitelist:
  - %q
startup_delay: 0s
service_notify_pause: 0s
sources:
  manifest_url: %q
  article_base_url: %q
  services:
    - name: Up
      url: %q
      description: always up
    - name: Down
      url: %q
      description: always down
storage:
  path: %q
`, srv.URL+"/hook", srv.URL+"/manifest.json", srv.URL+"/article", srv.URL+"/health/up", srv.URL+"/health/down", statePath)
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfgBody), 0o644))

	manager, err := config.NewManager(cfgPath, zerolog.Nop())
	require.NoError(t, err)

	ctx := context.Background()
	application, err := New(ctx, manager, zerolog.Nop())
	require.NoError(t, err)
	defer application.Close()

	cmds := application.Commands()
	status := cmds.Status(ctx)
	assert.Contains(t, status, "[OK] Up")
	assert.Contains(t, status, "[X] Down: Offline - HTTP 503")
	assert.Contains(t, cmds.Latest(ctx), "Release: 1.21.4")

	application.Monitor().CheckVersions(ctx)
	texts := hooks.Texts()
	require.Len(t, texts, 1)
	assert.Contains(t, texts[0], "[Minecraft Update] 1.21.4")
	assert.Contains(t, texts[0], "- Pale garden biome added")
	assert.Contains(t, texts[0], "- MC-1: Crash on join")

	application.Monitor().CheckVersions(ctx)
	assert.Len(t, hooks.Texts(), 1)

	raw, err := os.ReadFile(statePath)
	require.NoError(t, err)
	var doc domain.Document
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, "1.21.4", doc.LastVersionID)
	assert.Equal(t, []string{"1.21.4"}, doc.NotifiedVersions)
	assert.Equal(t, []string{srv.URL + "/article/minecraft-java-edition-1-21-4"}, doc.NotifiedArticles)
}

func TestQueriesLeaveStateAndTelegramAlone(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/manifest.json", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(upstreamManifest))
	})
	mux.HandleFunc("/health/up", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	dir := t.TempDir()
	statePath := filepath.Join(dir, "state.db")
	cfgPath := filepath.Join(dir, "mcnews.yaml")
	// the token is never valid; building the bot would fail
	cfgBody := fmt.Sprintf(`
telegram:
  token: "0:invalid"
sources:
  manifest_url: %q
  services:
    - name: Up
      url: %q
      description: always up
storage:
  driver: sqlite
  path: %q
`, srv.URL+"/manifest.json", srv.URL+"/health/up", statePath)
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfgBody), 0o644))

	manager, err := config.NewManager(cfgPath, zerolog.Nop())
	require.NoError(t, err)

	ctx := context.Background()
	queries := NewQueries(manager, zerolog.Nop())
	assert.Contains(t, queries.Status(ctx), "[OK] Up")
	assert.Contains(t, queries.Service(ctx, "up"), "Status: Online")
	assert.Contains(t, queries.Latest(ctx), "Release: 1.21.4")

	_, err = os.Stat(statePath)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
