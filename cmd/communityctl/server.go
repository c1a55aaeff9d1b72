package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/community-in-go/pkg/audit"
	"github.com/doodlesbykumbi/community-in-go/pkg/authenticator"
	"github.com/doodlesbykumbi/community-in-go/pkg/authenticator/authn"
	"github.com/doodlesbykumbi/community-in-go/pkg/config"
	"github.com/doodlesbykumbi/community-in-go/pkg/db"
	"github.com/doodlesbykumbi/community-in-go/pkg/events"
	"github.com/doodlesbykumbi/community-in-go/pkg/logging"
	"github.com/doodlesbykumbi/community-in-go/pkg/objectstore"
	"github.com/doodlesbykumbi/community-in-go/pkg/rpc"
	"github.com/doodlesbykumbi/community-in-go/pkg/server"
	"github.com/doodlesbykumbi/community-in-go/pkg/server/endpoints"
	storegorm "github.com/doodlesbykumbi/community-in-go/pkg/server/store/gorm"
	"github.com/doodlesbykumbi/community-in-go/pkg/token"
)

const shutdownTimeout = 15 * time.Second

func defaultBindAddress() string {
	if addr := os.Getenv("BIND_ADDRESS"); addr != "" {
		return addr
	}
	return "0.0.0.0"
}

func defaultPort() string {
	if port := os.Getenv("PORT"); port != "" {
		return port
	}
	return "8000"
}

func defaultPortInt() int {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			return p
		}
	}
	return 8000
}

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the community application server",
	Long: `Run the community application server

To run the server requires the environment variables COMMUNITY_SIGNING_KEY and
DATABASE_URL.

By default, database migrations are run on startup. Use --no-migrate to skip.
Changes to community.yml made while running update the enabled
authenticators and the audit switch.`,
	Run: func(cmd *cobra.Command, args []string) {
		// Validate required environment variables first (fail fast)
		signingKey, err := token.KeyFromEnv()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		if db.URL() == "" {
			fmt.Fprintln(os.Stderr, "DATABASE_URL environment variable is required")
			os.Exit(1)
		}

		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
			os.Exit(1)
		}
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
			os.Exit(1)
		}

		pretty, _ := cmd.Flags().GetBool("pretty")
		log := logging.New(cfg.LogLevel, os.Stderr, pretty)

		// Run migrations unless --no-migrate is set
		noMigrate, _ := cmd.Flags().GetBool("no-migrate")
		if !noMigrate {
			log.Info().Msg("running database migrations")
			if err := runMigrations(); err != nil {
				log.Fatal().Err(err).Msg("migration failed")
			}
		}

		host, _ := cmd.Flags().GetString("bind-address")
		port, _ := cmd.Flags().GetString("port")
		if err := runServer(cfg, log, signingKey, host, port); err != nil {
			log.Fatal().Err(err).Msg("server stopped")
		}
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)

	serverCmd.Flags().StringP("port", "p", defaultPort(), "server listen port")
	serverCmd.Flags().StringP("bind-address", "b", defaultBindAddress(), "server bind address")
	serverCmd.Flags().Bool("no-migrate", false, "skip running database migrations on start")
	serverCmd.Flags().Bool("pretty", false, "human-readable log output instead of JSON")
}

func runServer(cfg *config.CommunityConfig, log zerolog.Logger, signingKey []byte, host, port string) error {
	database, err := db.Connect(db.Config{LogLevel: cfg.LogLevel})
	if err != nil {
		return err
	}

	tokens, err := token.NewIssuer(signingKey, cfg.TokenTTL())
	if err != nil {
		return fmt.Errorf("unable to create token issuer: %w", err)
	}

	auditStore, err := audit.NewStore()
	if err != nil {
		return fmt.Errorf("unable to open audit database: %w", err)
	}
	auditor := audit.New(audit.NewLogger(), auditStore, log)
	auditor.SetEnabled(cfg.AuditEnabled)

	s := server.NewServer(database, server.Options{
		Host:   host,
		Port:   port,
		Config: cfg,
		Log:    log,
		Tokens: tokens,
		Events: newPublisher(cfg, log),
		Audit:  auditor,
	})
	s.TablesStore = storegorm.NewTablesStore(database)
	s.CompaniesStore = storegorm.NewCompaniesStore(database)
	s.AuthenticateStore = storegorm.NewAuthenticateStore(database)
	s.ObjectsStore = storegorm.NewObjectsStore(database)
	s.HealthStore = storegorm.NewHealthStore(database)
	s.RPC = rpc.NewExecutor(database, rpc.Builtins())
	s.Objects = objectstore.NewFS(cfg.StorageRoot, cfg.StorageMaxUploadBytes, cfg.StorageBuckets)

	s.Authenticators.Register(authn.New(s.AuthenticateStore, s.HealthStore))
	enableAuthenticators(s.Authenticators, cfg.Authenticators, log)

	endpoints.RegisterAll(s)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go watchConfig(ctx, cfg.ConfigFilePath(), log, func(next *config.CommunityConfig) {
		enableAuthenticators(s.Authenticators, next.Authenticators, log)
		auditor.SetEnabled(next.AuditEnabled)
	})

	errCh := make(chan error, 1)
	go func() { errCh <- s.Start() }()

	select {
	case err := <-errCh:
		// Start failed, but the publisher and audit store are open.
		if cerr := s.Shutdown(context.Background()); cerr != nil {
			log.Warn().Err(cerr).Msg("cleanup after failed start")
		}
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}

// newPublisher sends changes to Kafka when brokers are configured and to the
// log otherwise.
func newPublisher(cfg *config.CommunityConfig, log zerolog.Logger) events.Publisher {
	if !cfg.EventsEnabled() {
		return events.LogPublisher{Logger: log}
	}
	log.Info().Strs("brokers", cfg.EventBrokers).Str("topic", cfg.EventTopic).Msg("publishing change events")
	return events.NewKafkaPublisher(events.NewKafkaWriter(cfg.EventBrokers, cfg.EventTopic))
}

// enableAuthenticators makes the registry's enabled set equal names.
func enableAuthenticators(registry *authenticator.Registry, names []string, log zerolog.Logger) {
	want := make(map[string]bool, len(names))
	for _, name := range names {
		want[name] = true
		if err := registry.Enable(name); err != nil {
			log.Warn().Err(err).Str("authenticator", name).Msg("unable to enable authenticator")
		}
	}
	for _, name := range registry.Enabled() {
		if !want[name] {
			registry.Disable(name)
		}
	}
}

// watchConfig reloads the configuration whenever the config file changes and
// hands the new value to apply. The directory is watched rather than the file
// so editors that replace the file are still noticed.
func watchConfig(ctx context.Context, path string, log zerolog.Logger, apply func(*config.CommunityConfig)) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Warn().Err(err).Msg("config reload disabled")
		return
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		log.Debug().Err(err).Str("path", path).Msg("config reload disabled")
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(path) || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := config.Reload(); err != nil {
				log.Error().Err(err).Msg("config reload failed, keeping previous configuration")
				continue
			}
			next := config.Get()
			apply(next)
			log.Info().Strs("authenticators", next.Authenticators).Bool("audit", next.AuditEnabled).Msg("configuration reloaded")
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Warn().Err(err).Msg("config watcher error")
		}
	}
}
