package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/runnerr0/quix/internal/api"
	"github.com/runnerr0/quix/internal/config"
	"github.com/runnerr0/quix/internal/dashboard"
	"github.com/runnerr0/quix/internal/logging"
	"github.com/runnerr0/quix/internal/metrics"
	"github.com/runnerr0/quix/internal/storage"
	"github.com/runnerr0/quix/internal/view"
)

// env bundles what every network command needs once flags and config are
// resolved.
type env struct {
	cfg    *config.Config
	logger *slog.Logger
	client *api.Client
}

// loadConfig resolves the config file, the environment and --api-url, in
// increasing order of precedence. When the default config location cannot
// be resolved or created, defaults are used and the cause is returned as
// fallback for the caller to log. A config file that exists but is invalid
// is an error.
func loadConfig(g *GlobalFlags) (cfg *config.Config, fallback error, err error) {
	if g != nil && g.Config != "" {
		cfg, err = config.Load(g.Config)
		if err != nil {
			return nil, nil, err
		}
	} else {
		cfg, err = config.LoadOrCreate()
		switch {
		case errors.Is(err, config.ErrConfigLocation):
			cfg, fallback = config.DefaultConfig(), err
		case err != nil:
			return nil, nil, err
		}
	}

	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, nil, err
	}
	if g != nil && strings.TrimSpace(g.APIURL) != "" {
		cfg.API.BaseURL = strings.TrimSpace(g.APIURL)
	}
	return cfg, fallback, nil
}

func newEnv(g *GlobalFlags) (*env, error) {
	return newEnvLogTo(g, os.Stderr)
}

// newEnvLogTo is newEnv with logs written to w.
func newEnvLogTo(g *GlobalFlags, w io.Writer) (*env, error) {
	cfg, fallback, err := loadConfig(g)
	if err != nil {
		return nil, err
	}
	verbose := g != nil && g.Verbose
	logger := logging.NewWithWriter(w, cfg.Logging, verbose)
	client := api.NewClient(cfg.API.BaseURL,
		api.WithUserAgent(cfg.API.UserAgent),
		api.WithTimeout(cfg.API.Timeout.Std()),
	)
	if fallback != nil {
		logger.Warn("using default config", "err", fallback)
	}
	logger.Debug("config resolved", "api", client.BaseURL(), "event_limit", cfg.API.EventLimit)
	if _, bad := view.Clocks(time.Now(), cfg.Display.TimeZones); len(bad) > 0 {
		logger.Warn("unknown time zones shown in UTC", "zones", bad)
	}
	return &env{cfg: cfg, logger: logger, client: client}, nil
}

// controller builds a dashboard controller for the configured backend.
func (e *env) controller() *dashboard.Controller {
	return dashboard.NewController(e.client,
		dashboard.WithLogger(e.logger),
		dashboard.WithEventLimit(e.cfg.API.EventLimit),
		dashboard.WithCollectDelay(e.cfg.Refresh.CollectDelay.Std()),
	)
}

// attachArchive records refresh cycles when the archive is enabled. The
// returned close function is never nil.
func (e *env) attachArchive(ctrl *dashboard.Controller) (func(), error) {
	if !e.cfg.Archive.Enabled {
		return func() {}, nil
	}
	store, err := openArchive(e.cfg)
	if err != nil {
		return nil, err
	}
	storage.Attach(ctrl, store, e.logger)
	return func() { store.closeAll() }, nil
}

// attachMetrics returns a recorder fed by ctrl.
func (e *env) attachMetrics(ctrl *dashboard.Controller) *metrics.Recorder {
	rec := metrics.NewRecorder()
	rec.Attach(ctrl)
	return rec
}

func (e *env) viewOptions() view.Options {
	return view.Options{
		Zones:    e.cfg.Display.TimeZones,
		Policy:   view.SameDayPolicy(e.cfg.Display.SameDayPolicy),
		Location: time.Local,
	}
}

// tab resolves a --tab flag, falling back to the configured default.
func (e *env) tab(flag string) (view.Tab, error) {
	if flag == "" {
		flag = e.cfg.Display.DefaultTab
	}
	return view.ParseTab(flag)
}

// archive pairs a store with the database it was prepared on.
type archive struct {
	*storage.SQLiteStore
	db interface{ Close() error }
}

func (a *archive) closeAll() {
	a.SQLiteStore.Close()
	a.db.Close()
}

// openArchive opens the configured archive database, running migrations.
func openArchive(cfg *config.Config) (*archive, error) {
	path, err := cfg.ArchivePath()
	if err != nil {
		return nil, err
	}
	store, db, err := storage.Open(path)
	if err != nil {
		return nil, err
	}
	return &archive{SQLiteStore: store, db: db}, nil
}

// openArchiveFor returns injected when set, otherwise the configured archive.
// The returned close function is never nil.
func openArchiveFor(g *GlobalFlags, injected *storage.SQLiteStore) (*storage.SQLiteStore, func(), error) {
	if injected != nil {
		return injected, func() {}, nil
	}
	cfg, _, err := loadConfig(g)
	if err != nil {
		return nil, nil, err
	}
	a, err := openArchive(cfg)
	if err != nil {
		return nil, nil, err
	}
	return a.SQLiteStore, a.closeAll, nil
}

func wantJSON(g *GlobalFlags) bool {
	return g != nil && g.JSON
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// parseDuration parses a human-friendly duration string like "30d", "7d", "24h", "2w".
func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, fmt.Errorf("invalid duration: empty string")
	}

	if len(s) < 2 {
		return 0, fmt.Errorf("invalid duration: %q", s)
	}

	suffix := s[len(s)-1]
	numStr := s[:len(s)-1]

	n, err := strconv.Atoi(numStr)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid duration: %q", s)
	}

	switch suffix {
	case 'd':
		return time.Duration(n) * 24 * time.Hour, nil
	case 'h':
		return time.Duration(n) * time.Hour, nil
	case 'w':
		return time.Duration(n) * 7 * 24 * time.Hour, nil
	case 'm':
		return time.Duration(n) * time.Minute, nil
	default:
		return 0, fmt.Errorf("invalid duration: %q (use d, h, w, or m suffix)", s)
	}
}

// formatDurationHuman formats a duration into a human-readable string like "30 days".
func formatDurationHuman(d time.Duration) string {
	days := int(d.Hours() / 24)
	if days > 0 {
		if days == 1 {
			return "1 day"
		}
		return fmt.Sprintf("%d days", days)
	}
	hours := int(d.Hours())
	if hours > 0 {
		if hours == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", hours)
	}
	return d.String()
}

// formatNumber formats an integer with comma separators.
func formatNumber(n int64) string {
	if n < 0 {
		return "-" + formatNumber(-n)
	}
	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	pre := len(s) % 3
	if pre > 0 {
		b.WriteString(s[:pre])
	}
	for i := pre; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// formatBytes formats a byte count into a human-readable string.
func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}
