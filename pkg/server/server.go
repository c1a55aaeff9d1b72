package server

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/doodlesbykumbi/community-in-go/pkg/audit"
	"github.com/doodlesbykumbi/community-in-go/pkg/authenticator"
	"github.com/doodlesbykumbi/community-in-go/pkg/config"
	"github.com/doodlesbykumbi/community-in-go/pkg/events"
	"github.com/doodlesbykumbi/community-in-go/pkg/logging"
	"github.com/doodlesbykumbi/community-in-go/pkg/objectstore"
	"github.com/doodlesbykumbi/community-in-go/pkg/rpc"
	"github.com/doodlesbykumbi/community-in-go/pkg/server/middleware"
	"github.com/doodlesbykumbi/community-in-go/pkg/server/store"
	"github.com/doodlesbykumbi/community-in-go/pkg/token"
)

// Server holds everything the endpoints need.
type Server struct {
	Router *mux.Router
	DB     *gorm.DB
	Config *config.CommunityConfig
	Log    zerolog.Logger

	TablesStore       store.TablesStore
	CompaniesStore    store.CompaniesStore
	AuthenticateStore store.AuthenticateStore
	ObjectsStore      store.ObjectsStore
	HealthStore       store.HealthStore

	Authenticators *authenticator.Registry
	Tokens         *token.Issuer
	RPC            *rpc.Executor
	Objects        *objectstore.FS
	Events         events.Publisher
	Audit          *audit.Auditor
	JWTMiddleware  *middleware.JWTAuthenticator

	srv *http.Server
}

// Options configures NewServer. Zero values fall back to safe defaults.
type Options struct {
	Host   string
	Port   string
	Config *config.CommunityConfig
	Log    zerolog.Logger
	Tokens *token.Issuer
	Events events.Publisher
	Audit  *audit.Auditor
}

// NewServer creates a server with an empty router. Stores and services are
// filled in by the caller before endpoints are registered.
func NewServer(db *gorm.DB, opts Options) *Server {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Get()
	}
	publisher := opts.Events
	if publisher == nil {
		publisher = events.Nop{}
	}

	router := mux.NewRouter().UseEncodedPath()

	var handler http.Handler = router
	handler = logging.Middleware(opts.Log)(handler)
	if len(cfg.CORSAllowedOrigins) > 0 {
		handler = handlers.CORS(
			handlers.AllowedOrigins(cfg.CORSAllowedOrigins),
			handlers.AllowedMethods([]string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}),
			handlers.AllowedHeaders([]string{"Authorization", "Content-Type", "Prefer", "Range"}),
			handlers.ExposedHeaders([]string{"Content-Range", "X-Request-Id"}),
		)(handler)
	}
	handler = handlers.RecoveryHandler(handlers.PrintRecoveryStack(logging.IsDebug(cfg.LogLevel)))(handler)
	handler = handlers.LoggingHandler(os.Stdout, handler)

	srv := &http.Server{
		Handler: handler,
		Addr:    opts.Host + ":" + opts.Port,
		// Good practice: enforce timeouts for servers you create!
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
	}

	s := &Server{
		Router:         router,
		DB:             db,
		Config:         cfg,
		Log:            opts.Log,
		Authenticators: authenticator.NewRegistry(),
		Tokens:         opts.Tokens,
		Events:         publisher,
		Audit:          opts.Audit,
		srv:            srv,
	}
	s.JWTMiddleware = middleware.NewJWTAuthenticator(opts.Tokens, cfg.IsTrustedProxy)
	return s
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Start listens until the server is shut down.
func (s *Server) Start() error {
	s.Log.Info().Str("addr", s.srv.Addr).Msg("server listening")
	err := s.srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops accepting requests, waits for in-flight ones and closes the
// event publisher and audit store.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.srv.Shutdown(ctx)
	if cerr := s.Events.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if cerr := s.Audit.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}
