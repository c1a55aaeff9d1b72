package integration

import (
	"context"
	"fmt"
	"io/fs"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"

	"github.com/doodlesbykumbi/community-in-go/db"
	"github.com/doodlesbykumbi/community-in-go/pkg/audit"
	"github.com/doodlesbykumbi/community-in-go/pkg/authenticator/authn"
	"github.com/doodlesbykumbi/community-in-go/pkg/config"
	pkgdb "github.com/doodlesbykumbi/community-in-go/pkg/db"
	"github.com/doodlesbykumbi/community-in-go/pkg/events"
	"github.com/doodlesbykumbi/community-in-go/pkg/objectstore"
	"github.com/doodlesbykumbi/community-in-go/pkg/rpc"
	"github.com/doodlesbykumbi/community-in-go/pkg/server"
	"github.com/doodlesbykumbi/community-in-go/pkg/server/endpoints"
	storegorm "github.com/doodlesbykumbi/community-in-go/pkg/server/store/gorm"
	"github.com/doodlesbykumbi/community-in-go/pkg/token"
)

// TestContext holds a migrated database and a server running against it.
type TestContext struct {
	DB          *gorm.DB
	DatabaseURL string
	ServerURL   string
	Companies   *storegorm.CompaniesStore
}

// NewTestContext starts postgres in a container, migrates it and serves the
// API from an httptest server. Everything is torn down with t.
func NewTestContext(ctx context.Context, t *testing.T) *TestContext {
	t.Helper()

	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("community_test"),
		tcpostgres.WithUsername("community"),
		tcpostgres.WithPassword("community"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "starting postgres container")
	t.Cleanup(func() { _ = pgContainer.Terminate(context.Background()) })

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	require.NoError(t, runMigrations(connStr))

	database, err := pkgdb.Connect(pkgdb.Config{URL: connStr})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := database.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	cfg, err := config.Load()
	require.NoError(t, err)
	cfg.StorageRoot = t.TempDir()

	key, err := token.GenerateKey()
	require.NoError(t, err)
	raw, err := token.DecodeKey(key)
	require.NoError(t, err)
	tokens, err := token.NewIssuer(raw, cfg.TokenTTL())
	require.NoError(t, err)

	log := zerolog.Nop()
	s := server.NewServer(database, server.Options{
		Config: cfg,
		Log:    log,
		Tokens: tokens,
		Events: events.Nop{},
		Audit:  audit.New(audit.NewLogger(), nil, log),
	})
	s.TablesStore = storegorm.NewTablesStore(database)
	s.CompaniesStore = storegorm.NewCompaniesStore(database)
	s.AuthenticateStore = storegorm.NewAuthenticateStore(database)
	s.ObjectsStore = storegorm.NewObjectsStore(database)
	s.HealthStore = storegorm.NewHealthStore(database)
	s.RPC = rpc.NewExecutor(database, rpc.Builtins())
	s.Objects = objectstore.NewFS(cfg.StorageRoot, cfg.StorageMaxUploadBytes, cfg.StorageBuckets)
	s.Authenticators.Register(authn.New(s.AuthenticateStore, s.HealthStore))
	require.NoError(t, s.Authenticators.Enable("authn"))
	endpoints.RegisterAll(s)

	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)

	return &TestContext{
		DB:          database,
		DatabaseURL: connStr,
		ServerURL:   srv.URL,
		Companies:   storegorm.NewCompaniesStore(database),
	}
}

// runMigrations applies the embedded migrations the way communityctl does
// when built with embed_migrations.
func runMigrations(dbURL string) error {
	sub, err := fs.Sub(db.Migrations, "migrations")
	if err != nil {
		return err
	}
	src, err := iofs.New(sub, ".")
	if err != nil {
		return err
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, dbURL+"&x-migrations-table=community_schema_migrations")
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer func() { _, _ = m.Close() }()
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}
