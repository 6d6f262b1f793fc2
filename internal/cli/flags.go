package cli

import (
	"io"

	"github.com/runnerr0/quix/internal/storage"
)

// GlobalFlags holds flags available to all subcommands.
type GlobalFlags struct {
	Config  string `long:"config" description:"Path to config file" default:""`
	JSON    bool   `long:"json" description:"Output in JSON format"`
	Verbose bool   `long:"verbose" description:"Enable debug logging"`
	Version bool   `long:"version" description:"Show version and exit"`
	APIURL  string `long:"api-url" description:"Backend base URL (overrides QUIX_API_URL and the config file)"`
}

// StatusCommand runs one refresh cycle and prints the dashboard.
type StatusCommand struct {
	Tab string `long:"tab" description:"Feed whose event count is highlighted: news | chatter"`

	globals *GlobalFlags
	version string
}

// EventsCommand lists the merged news and chatter feed for one tab.
type EventsCommand struct {
	Tab      string  `long:"tab" description:"news | chatter (default from config)"`
	Query    string  `long:"query" short:"q" description:"Only events whose title, content, source or entities contain this text"`
	Limit    int     `long:"limit" description:"Events fetched per feed (default from config)"`
	MinScore float64 `long:"min-score" description:"Only events with at least this threat score"`

	globals *GlobalFlags
	version string
}

// OpenCommand prints one event of the current feed.
type OpenCommand struct {
	ID     string `long:"id" description:"Event ID (required)"`
	Format string `long:"format" description:"Output format: full | md | json | raw | url" default:"full"`
	Limit  int    `long:"limit" description:"Events fetched per feed while looking for the ID (default from config)"`

	globals *GlobalFlags
	version string
}

// SummaryCommand prints the parsed intelligence summary.
type SummaryCommand struct {
	Expanded bool `long:"expanded" short:"e" description:"Show every section of the report"`

	globals *GlobalFlags
	version string
}

// TrendCommand prints the threat trend annotated with ground-truth events.
type TrendCommand struct {
	Policy string `long:"policy" description:"Same-day casualty events: last | aggregate (default from config)"`

	globals *GlobalFlags
	version string
}

// CollectCommand asks the backend to gather new data.
type CollectCommand struct {
	NoRefresh bool `long:"no-refresh" description:"Return right after triggering, without the follow-up refresh"`

	globals *GlobalFlags
	version string
}

// WatchCommand runs the live terminal dashboard.
type WatchCommand struct {
	Tab     string `long:"tab" description:"Initial feed: news | chatter"`
	LogFile string `long:"log-file" description:"Write logs to this file while the dashboard owns the terminal"`

	globals *GlobalFlags
	version string
}

// ServeCommand runs the local web dashboard.
type ServeCommand struct {
	Addr string `long:"addr" description:"Listen address (default from config)"`

	globals *GlobalFlags
	version string
}

// HistoryCommand lists archived refresh cycles.
type HistoryCommand struct {
	Since  string `long:"since" description:"Only cycles newer than duration (e.g., 24h, 7d, 2w)"`
	Failed bool   `long:"failed" description:"Only cycles where at least one fetch failed"`
	Limit  int    `long:"limit" description:"Maximum results" default:"20"`
	Offset int    `long:"offset" description:"Skip first N results" default:"0"`

	globals *GlobalFlags
	version string
	store   *storage.SQLiteStore // injectable for testing; nil means open the configured archive
}

// PruneCommand deletes archived cycles older than a retention period.
type PruneCommand struct {
	OlderThan string `long:"older-than" description:"Retention period (e.g., 30d, 12h, 2w)" default:"30d"`
	DryRun    bool   `long:"dry-run" description:"Show what would be pruned without deleting"`

	globals *GlobalFlags
	version string
	store   *storage.SQLiteStore
}

// PurgeCommand deletes the whole archive with safety confirmation.
type PurgeCommand struct {
	All   bool `long:"all" description:"Required flag to confirm purge intent"`
	Force bool `long:"force" description:"Skip safety confirmation prompt"`

	globals *GlobalFlags
	version string
	store   *storage.SQLiteStore
	in      io.Reader // confirmation input; nil means os.Stdin
}
