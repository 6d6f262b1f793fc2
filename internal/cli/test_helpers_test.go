package cli

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/runnerr0/quix/internal/api"
	"github.com/runnerr0/quix/internal/config"
	"github.com/runnerr0/quix/internal/logging"
	"github.com/runnerr0/quix/internal/storage"
)

// captureOutput captures stdout during fn execution and returns it as a string.
func captureOutput(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	var buf bytes.Buffer
	done := make(chan struct{})
	go func() {
		_, _ = io.Copy(&buf, r)
		close(done)
	}()

	fn()

	w.Close()
	os.Stdout = old
	<-done
	return buf.String()
}

const (
	newsJSON = `[{"id":1,"title":"Border clash reported","content":"Units exchanged fire near the fence.",
		"platform":"rss","source":"Reuters","url":"https://example.com/a",
		"timestamp":"2024-03-02T10:00:00Z","threat_score":75,"entities":["IDF"]}]`
	chatterJSON = `[{"id":"tg-9","title":"Channel rumour","content":"Unverified claims",
		"platform":"telegram","source":"@chan","timestamp":"2024-03-02T11:00:00Z",
		"threat_score":20,"entities":[]}]`
	dashboardJSON = `{"current_threat_level":72.5,
		"threat_trend":[{"date":"2024-03-02","threat_score":60},{"date":"2024-03-01","threat_score":40}],
		"top_entities":[{"name":"Hamas","count":5},{"name":"IDF","count":2}]}`
	summaryJSON = `{"event_count":2,"avg_threat_score":47.5,"key_entities":["IDF"],
		"summary":"**THREAT LEVEL: HIGH**\n\n**EXECUTIVE ASSESSMENT:**\nTense border.\n\n**OUTLOOK:**\nExpect escalation."}`
	actualJSON = `[{"date_occurred":"2024-03-02","actual_score":80,"casualties":3,"title":"Strike"}]`
)

// backend is a fake quix API.
type backend struct {
	*httptest.Server

	mu       sync.Mutex
	failing  map[string]bool
	collects atomic.Int32
}

func newBackend(t *testing.T) *backend {
	t.Helper()
	b := &backend{failing: map[string]bool{}}
	bodies := map[string]string{
		"/dashboard":      dashboardJSON,
		"/events/news":    newsJSON,
		"/events/chatter": chatterJSON,
		"/summary":        summaryJSON,
		"/actual-events":  actualJSON,
	}
	b.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		fail := b.failing[r.URL.Path]
		b.mu.Unlock()
		if fail {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		if r.URL.Path == "/collect" && r.Method == http.MethodPost {
			b.collects.Add(1)
			fmt.Fprint(w, `{"status":"started"}`)
			return
		}
		body, ok := bodies[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(b.Close)
	return b
}

func (b *backend) fail(path string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failing[path] = true
}

// writeConfig writes a config file that keeps tests off the user's home
// directory and fast.
func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := fmt.Sprintf(`refresh:
  collect_delay: 20ms
archive:
  enabled: false
  path: %s
logging:
  level: error
`, dir)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// run executes the CLI against b with a throwaway config and captures stdout.
func run(t *testing.T, b *backend, args ...string) (string, error) {
	t.Helper()
	full := append([]string{"--config", writeConfig(t), "--api-url", b.URL}, args...)
	var err error
	out := captureOutput(t, func() {
		err = RunWithArgs("test", full)
	})
	return out, err
}

// testEnv builds an env pointed at url without touching any config file.
func testEnv(url string) *env {
	cfg := config.DefaultConfig()
	cfg.API.BaseURL = url
	cfg.Refresh.CollectDelay = config.Duration(20 * time.Millisecond)
	return &env{
		cfg:    cfg,
		logger: logging.Discard(),
		client: api.NewClient(url),
	}
}

// openTestStore opens a migrated in-memory archive.
func openTestStore(t *testing.T) *storage.SQLiteStore {
	t.Helper()
	store, db, err := storage.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		store.Close()
		db.Close()
	})
	return store
}
