// Command ledgerctl is the engine's demonstration CLI: submit a manifest
// file against a file-backed ledger, watch a directory for manifests to
// auto-submit, or run a canned end-to-end demo. Grounded on
// opal-lang-opal/runtime/cli/harness.go's CLIHarness shape (a root cobra
// command, persistent flags threaded into every subcommand, one RunE per
// subcommand) and its own package/module split (one file per subcommand),
// adapted from a generated shell-command CLI to a ledger-transaction one.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ledgervm/engine/internal/enginelog"
)

// harness holds the persistent flags every subcommand reads, mirroring
// CLIHarness's dryRun/noColor fields.
type harness struct {
	storePath string
	logLevel  string
	jsonLogs  bool
}

func newRootCmd() *cobra.Command {
	h := &harness{}

	root := &cobra.Command{
		Use:     "ledgerctl",
		Short:   "Submit and inspect transactions against the ledger engine",
		Version: "0.1.0",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := parseLevel(h.logLevel)
			if err != nil {
				return err
			}
			enginelog.SetGlobalLevel(level)
			if h.jsonLogs {
				enginelog.SetJSON()
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&h.storePath, "store", "ledger.db.json", "path to the file-backed ledger store")
	root.PersistentFlags().StringVar(&h.logLevel, "log-level", "info", "log level: trace|debug|info|warn|error")
	root.PersistentFlags().BoolVar(&h.jsonLogs, "json-logs", false, "emit logs as JSON instead of text")

	root.AddCommand(newSubmitCmd(h))
	root.AddCommand(newWatchCmd(h))
	root.AddCommand(newDemoCmd(h))

	return root
}

func parseLevel(s string) (enginelog.Level, error) {
	switch s {
	case "trace":
		return enginelog.LevelTrace, nil
	case "debug":
		return enginelog.LevelDebug, nil
	case "info":
		return enginelog.LevelInfo, nil
	case "warn":
		return enginelog.LevelWarn, nil
	case "error":
		return enginelog.LevelError, nil
	default:
		return 0, fmt.Errorf("ledgerctl: unknown log level %q", s)
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
