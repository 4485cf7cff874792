// Package server wires configuration, stores, and services into a running
// HTTP server.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	_ "github.com/lib/pq"

	"github.com/trash2cash/station-platform/pkg/api"
	"github.com/trash2cash/station-platform/pkg/auth"
	"github.com/trash2cash/station-platform/pkg/database/migrate"
	"github.com/trash2cash/station-platform/pkg/health"
	"github.com/trash2cash/station-platform/pkg/ledger"
	ledgerpg "github.com/trash2cash/station-platform/pkg/ledger/postgres"
	"github.com/trash2cash/station-platform/pkg/platform"
	"github.com/trash2cash/station-platform/pkg/reward"
	"github.com/trash2cash/station-platform/pkg/sensor"
	"github.com/trash2cash/station-platform/pkg/session"
	sessionpg "github.com/trash2cash/station-platform/pkg/session/postgres"
	"github.com/trash2cash/station-platform/pkg/submission"
	submissionpg "github.com/trash2cash/station-platform/pkg/submission/postgres"
	"github.com/trash2cash/station-platform/pkg/user"
	userpg "github.com/trash2cash/station-platform/pkg/user/postgres"
)

// Build information, set at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

const shutdownTimeout = 10 * time.Second

// Server is the assembled station platform.
type Server struct {
	cfg       *platform.Config
	db        *sql.DB
	sessStore session.Store
	checker   *health.Checker
	handler   http.Handler
}

// New builds a server from the configuration. An empty database DSN selects
// in-memory stores; otherwise migrations run against PostgreSQL before any
// request is served.
func New(cfg *platform.Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Server{cfg: cfg, checker: health.NewChecker()}

	var (
		sessStore session.Store
		led       ledger.Ledger
		committer submission.Committer
		subStore  submission.Store
		userStore user.Store
	)

	if cfg.Database.DSN != "" {
		db, err := sql.Open("postgres", cfg.Database.DSN)
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		db.SetMaxOpenConns(cfg.Database.MaxOpenConns)

		if err := db.Ping(); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("connecting to database: %w", err)
		}
		if err := migrate.Run(db); err != nil {
			_ = db.Close()
			return nil, err
		}
		s.db = db
		s.checker.AddProbe("database", db.PingContext)

		pgSessions := sessionpg.New(db)
		pgSessions.StartCleanupRoutine(cfg.Session.CleanupInterval, cfg.Session.Grace)
		pgSubmissions := submissionpg.New(db)

		sessStore = pgSessions
		led = ledgerpg.New(db)
		committer = pgSubmissions
		subStore = pgSubmissions
		userStore = userpg.New(db)

		slog.Info("using postgres stores", "max_open_conns", cfg.Database.MaxOpenConns)
	} else {
		memSessions := session.NewMemoryStore()
		memSessions.StartCleanupRoutine(cfg.Session.CleanupInterval, cfg.Session.Grace)
		memLedger := ledger.NewMemoryLedger()
		memSubmissions := submission.NewMemoryStore(memLedger)

		sessStore = memSessions
		led = memSubmissions
		committer = memSubmissions
		subStore = memSubmissions
		userStore = user.NewMemoryStore()

		slog.Info("using in-memory stores")
	}
	s.sessStore = sessStore

	tokens, err := auth.NewService(auth.Config{
		Issuer:     cfg.Auth.Issuer,
		SigningKey: []byte(cfg.Auth.SigningKey),
		TokenTTL:   cfg.Auth.TokenTTL,
	})
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("creating token service: %w", err)
	}

	engine := session.NewEngine(sessStore, session.Config{
		TTL:               cfg.Session.TTL,
		RequestsPerMinute: cfg.Session.RequestsPerMinute,
		RequestBurst:      cfg.Session.RequestBurst,
	})

	calc := reward.NewCalculator(cfg.Rates())
	pipeline := submission.NewPipeline(calc, committer, subStore)
	users := user.NewService(userStore)

	s.handler = api.NewHandler(api.Deps{
		Sessions:   engine,
		Users:      users,
		Tokens:     tokens,
		Pipeline:   pipeline,
		Ledger:     led,
		Sensor:     sensor.NewSimulator(cfg.Sensor.Seed),
		Health:     s.checker,
		EnableDocs: true,
	})
	s.checker.SetReady()

	return s, nil
}

// Handler returns the root HTTP handler, primarily for tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves HTTP until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Address,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening",
			"address", s.cfg.Server.Address, "tls", s.cfg.Server.TLS.Enabled, "version", Version)

		var err error
		if s.cfg.Server.TLS.Enabled {
			err = srv.ListenAndServeTLS(s.cfg.Server.TLS.CertFile, s.cfg.Server.TLS.KeyFile)
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serving: %w", err)
	case <-ctx.Done():
	}

	s.checker.SetDraining()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

// Close releases stores and the database connection.
func (s *Server) Close() error {
	var errs []error
	if s.sessStore != nil {
		errs = append(errs, s.sessStore.Close())
	}
	if s.db != nil {
		errs = append(errs, s.db.Close())
	}
	return errors.Join(errs...)
}
