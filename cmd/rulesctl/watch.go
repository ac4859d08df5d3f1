package main

import (
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/weftengine/rules/internal/obslog"
)

var watchCmd = &cobra.Command{
	Use:   "watch <rules.yaml> <facts.yaml>",
	Short: "recompile and re-run whenever the rule file changes on disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		rulesPath, factsPath := args[0], args[1]

		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("create watcher: %w", err)
		}
		defer watcher.Close()

		dir := filepath.Dir(rulesPath)
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}

		runAndPrint := func() {
			result, err := runOnce(cmd.Context(), rulesPath, factsPath)
			if err != nil {
				log.Error("run failed", obslog.Error(err))
				fmt.Println("error:", err)
				return
			}
			printBatch(result)
		}

		fmt.Printf("watching %s (ctrl-c to stop)\n", rulesPath)
		runAndPrint()

		target := filepath.Base(rulesPath)
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if filepath.Base(event.Name) != target {
					continue
				}
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
					fmt.Println("--- rule file changed, recompiling ---")
					runAndPrint()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				log.Error("watcher error", obslog.Error(err))
			case <-cmd.Context().Done():
				return nil
			}
		}
	},
}
