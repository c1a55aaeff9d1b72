package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/community-in-go/pkg/seed"
)

// seedWatchCmd represents the seed watch command
var seedWatchCmd = &cobra.Command{
	Use:   "watch <file>",
	Short: "Watch a seed file and re-apply it when it changes",
	Long: `Apply a seed file, then watch it and apply it again whenever it is
written or replaced.

Example:
  communityctl seed watch seed/acme.yml`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		loader, err := newSeedLoader(false)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to watch seed: %v\n", err)
			os.Exit(1)
		}

		if err := watchSeed(loader, args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to watch seed: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	seedCmd.AddCommand(seedWatchCmd)
}

func watchSeed(loader *seed.Loader, filename string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reload := func() {
		result, err := applySeed(ctx, loader, filename)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error applying seed: %v\n", err)
			return
		}
		printSeedResult(result)
	}
	reload()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	// Watch the directory so replacing the file is noticed too.
	if err := watcher.Add(filepath.Dir(filename)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filename, err)
	}

	fmt.Printf("Watching %s for changes\n", filename)

	target := filepath.Clean(filename)
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			fmt.Printf("[%s] File modified, applying seed...\n", time.Now().Format(time.RFC3339))
			reload()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "Watcher error: %v\n", err)
		case <-ctx.Done():
			fmt.Println("\nShutting down...")
			return nil
		}
	}
}
