package cli

import (
	"fmt"
	"os"

	goflags "github.com/jessevdk/go-flags"
)

// commands holds references to all subcommand structs for inspection/testing.
type commands struct {
	Status  *StatusCommand
	Events  *EventsCommand
	Open    *OpenCommand
	Summary *SummaryCommand
	Trend   *TrendCommand
	Collect *CollectCommand
	Watch   *WatchCommand
	Serve   *ServeCommand
	History *HistoryCommand
	Prune   *PruneCommand
	Purge   *PurgeCommand
}

// buildParser constructs the go-flags parser with all subcommands registered.
func buildParser(version string) (*goflags.Parser, *GlobalFlags, *commands) {
	var globals GlobalFlags

	parser := goflags.NewParser(&globals, goflags.Default)
	parser.Name = "quix"
	parser.LongDescription = "Threat-level dashboard for the quix intelligence backend."

	cmds := &commands{
		Status:  &StatusCommand{globals: &globals, version: version},
		Events:  &EventsCommand{globals: &globals, version: version},
		Open:    &OpenCommand{globals: &globals, version: version},
		Summary: &SummaryCommand{globals: &globals, version: version},
		Trend:   &TrendCommand{globals: &globals, version: version},
		Collect: &CollectCommand{globals: &globals, version: version},
		Watch:   &WatchCommand{globals: &globals, version: version},
		Serve:   &ServeCommand{globals: &globals, version: version},
		History: &HistoryCommand{globals: &globals, version: version},
		Prune:   &PruneCommand{globals: &globals, version: version},
		Purge:   &PurgeCommand{globals: &globals, version: version},
	}

	parser.AddCommand("status", "Show the current dashboard", "Fetch all four slots once and print the threat level, summary, charts and feed counts.", cmds.Status)
	parser.AddCommand("events", "List news or chatter events", "List the merged news and chatter feed for one tab, newest first.", cmds.Events)
	parser.AddCommand("open", "Print one event", "Print a single event of the current feed by ID.", cmds.Open)
	parser.AddCommand("summary", "Print the intelligence summary", "Print the daily intelligence summary, collapsed or in full.", cmds.Summary)
	parser.AddCommand("trend", "Print the threat trend", "Print the threat trend merged with ground-truth casualty events.", cmds.Trend)
	parser.AddCommand("collect", "Trigger data collection", "Ask the backend to collect new data, then refresh once the collect delay has passed.", cmds.Collect)
	parser.AddCommand("watch", "Live terminal dashboard", "Run the live terminal dashboard with periodic refresh and regional clocks.", cmds.Watch)
	parser.AddCommand("serve", "Local web dashboard", "Serve the dashboard as a local web page with JSON and Prometheus endpoints.", cmds.Serve)
	parser.AddCommand("history", "List archived refresh cycles", "List refresh cycles recorded in the local archive.", cmds.History)
	parser.AddCommand("prune", "Prune the archive", "Delete archived refresh cycles older than a retention period.", cmds.Prune)
	parser.AddCommand("purge", "Delete the whole archive", "Delete ALL archived refresh cycles. Destructive operation with safety prompt.", cmds.Purge)

	return parser, &globals, cmds
}

// Run is the main entry point for the quix CLI using os.Args.
func Run(version string) error {
	return RunWithArgs(version, nil)
}

// RunWithArgs parses the given args (or os.Args if nil) and executes the matched subcommand.
func RunWithArgs(version string, args []string) error {
	// go-flags requires a subcommand, but --version is valid without one.
	checkArgs := args
	if checkArgs == nil {
		checkArgs = os.Args[1:]
	}
	for _, arg := range checkArgs {
		if arg == "--version" {
			fmt.Printf("quix %s\n", version)
			return nil
		}
		if arg == "--" {
			break
		}
	}

	parser, _, _ := buildParser(version)

	var err error
	if args != nil {
		_, err = parser.ParseArgs(args)
	} else {
		_, err = parser.Parse()
	}

	if err != nil {
		if flagsErr, ok := err.(*goflags.Error); ok {
			if flagsErr.Type == goflags.ErrHelp {
				return nil
			}
		}
		return err
	}

	return nil
}
