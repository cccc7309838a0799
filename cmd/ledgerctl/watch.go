package main

import (
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

func newWatchCmd(h *harness) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <dir>",
		Short: "Watch a directory and submit each .json manifest as it is written",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(h, args[0])
		},
	}
}

// runWatch submits every *.json manifest that appears or changes in dir,
// one transaction per file event, until the process is interrupted. Each
// submission reloads and re-saves the file-backed store so effects from
// one manifest are visible to the next.
func runWatch(h *harness, dir string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("ledgerctl: create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("ledgerctl: watch %s: %w", dir, err)
	}

	cliLog.Infof("watching %s for manifest files", dir)

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Ext(event.Name) != ".json" {
				continue
			}
			if !(event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Create == fsnotify.Create) {
				continue
			}
			cliLog.Infof("submitting %s", event.Name)
			if err := runSubmit(h, event.Name); err != nil {
				cliLog.ErrorWithErr("manifest submission failed, watch continues", err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			cliLog.ErrorWithErr("watcher error", err)
		}
	}
}
