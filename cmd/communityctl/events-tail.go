package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/community-in-go/pkg/config"
	"github.com/doodlesbykumbi/community-in-go/pkg/events"
	"github.com/doodlesbykumbi/community-in-go/pkg/logging"
)

// eventsCmd represents the events command
var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect change events",
	Long:  `Inspect the change events the server publishes to Kafka.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("error: Command 'events' requires a subcommand (tail)")
		fmt.Println()
		_ = cmd.Help()
		os.Exit(1)
	},
}

var eventsTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Print change events as they are published",
	Long: `Print change events as they are published.

Reads the configured event topic (event_brokers, event_topic) and writes one
log line per change until interrupted. Use --company to only show one
company's changes.

Example:
  communityctl events tail
  communityctl events tail --company acme --group debug-tail`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
			os.Exit(1)
		}
		if !cfg.EventsEnabled() {
			fmt.Fprintln(os.Stderr, "event_brokers is not configured")
			os.Exit(1)
		}
		company, _ := cmd.Flags().GetString("company")
		group, _ := cmd.Flags().GetString("group")
		log := logging.New(cfg.LogLevel, os.Stderr, true)

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		sub := events.NewSubscriber(events.NewKafkaReader(cfg.EventBrokers, cfg.EventTopic, group), log)
		defer func() { _ = sub.Close() }()

		if err := sub.Run(ctx, printChange(log, company)); err != nil {
			log.Fatal().Err(err).Msg("subscriber stopped")
		}
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(eventsTailCmd)
	eventsTailCmd.Flags().StringP("company", "c", "", "Only show changes for this company slug")
	eventsTailCmd.Flags().StringP("group", "g", "communityctl-tail", "Kafka consumer group")
}

func printChange(log zerolog.Logger, company string) events.Handler {
	return func(_ context.Context, c events.Change) error {
		if company != "" && c.Slug != company {
			return nil
		}
		log.Info().
			Str("company", c.Slug).
			Str("table", c.Table).
			Str("op", string(c.Op)).
			Strs("ids", c.IDs).
			Time("at", c.At).
			Msg("change")
		return nil
	}
}
