package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/dentaldesk/clinic/internal/config"
	"github.com/dentaldesk/clinic/internal/domain/account"
	"github.com/dentaldesk/clinic/internal/domain/catalog"
	"github.com/dentaldesk/clinic/internal/domain/examination"
	"github.com/dentaldesk/clinic/internal/domain/expense"
	"github.com/dentaldesk/clinic/internal/domain/patient"
	"github.com/dentaldesk/clinic/internal/domain/report"
	"github.com/dentaldesk/clinic/internal/platform/auth"
	"github.com/dentaldesk/clinic/internal/platform/db"
	"github.com/dentaldesk/clinic/internal/platform/format"
	"github.com/dentaldesk/clinic/internal/platform/kvstore"
	"github.com/dentaldesk/clinic/internal/platform/middleware"
	"github.com/dentaldesk/clinic/internal/session"
	"github.com/dentaldesk/clinic/migrations"
)

const version = "1.0.0"

const (
	requestTimeout    = 30 * time.Second
	draftSweepEvery   = 10 * time.Minute
	draftMaxIdle      = 12 * time.Hour
	tokenCleanupEvery = 5 * time.Minute
)

// passwordCost is the bcrypt cost used for the built-in accounts.
var passwordCost = bcrypt.DefaultCost

func main() {
	rootCmd := &cobra.Command{
		Use:   "clinic-server",
		Short: "Dental clinic API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the clinic API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			pool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			count, err := db.NewMigrator(pool, migrations.FS).Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			pool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			statuses, err := db.NewMigrator(pool, migrations.FS).Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	})

	return cmd
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the predefined catalogs and sample records into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			pool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			now := time.Now()
			for _, it := range catalog.Seed() {
				if err := catalog.Upsert(ctx, pool, it); err != nil {
					return fmt.Errorf("seed %s %s: %w", it.Kind, it.ID, err)
				}
			}
			for _, p := range patient.Seed(now) {
				if err := patient.Upsert(ctx, pool, p); err != nil {
					return fmt.Errorf("seed patient %s: %w", p.ID, err)
				}
			}
			for _, e := range expense.Seed(now) {
				if err := expense.Upsert(ctx, pool, e); err != nil {
					return fmt.Errorf("seed expense %s: %w", e.ID, err)
				}
			}
			fmt.Println("Seed data loaded.")
			return nil
		},
	}
}

// connect loads config and opens the Postgres pool for CLI subcommands.
func connect(ctx context.Context) (*pgxpool.Pool, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if !cfg.UsesPostgres() {
		return nil, errors.New("DATABASE_URL is required")
	}
	return db.NewPool(ctx, poolOptions(cfg))
}

func poolOptions(cfg *config.Config) db.PoolOptions {
	return db.PoolOptions{
		URL:             cfg.DatabaseURL,
		AppName:         "clinic-server",
		MaxConns:        cfg.DBMaxConns,
		MinConns:        cfg.DBMinConns,
		MaxConnLifetime: cfg.DBMaxConnLifetime,
		MaxConnIdleTime: cfg.DBMaxConnIdleTime,
	}
}

func newLogger(env string) zerolog.Logger {
	if env == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func runServer() error {
	logger := newLogger(os.Getenv("ENV"))

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	var pool *pgxpool.Pool
	if cfg.UsesPostgres() {
		pool, err = db.NewPool(ctx, poolOptions(cfg))
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()
		logger.Info().Msg("connected to database")
	} else {
		logger.Warn().Msg("DATABASE_URL not set, using in-memory repositories")
	}

	a, err := newApp(ctx, cfg, logger, pool)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build server")
	}
	defer a.close()

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := a.echo.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.echo.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}

// app holds the wired server and the resources it must release.
type app struct {
	echo   *echo.Echo
	gate   *session.Gate
	drafts *examination.DraftService

	closers []func() error
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
}

// sessionStore opens the backend named by cfg.SessionStore. The returned
// checks are probed by /health.
func sessionStore(cfg *config.Config, pool *pgxpool.Pool) (session.Store, []db.Check, func() error, error) {
	noop := func() error { return nil }
	switch cfg.SessionStore {
	case "sqlite":
		s, err := kvstore.OpenSQLite(cfg.SessionDBPath)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open session store: %w", err)
		}
		return s, []db.Check{{Name: "session_store", Ping: s.Ping}}, s.Close, nil
	case "postgres":
		if pool == nil {
			return nil, nil, nil, errors.New("postgres session store needs DATABASE_URL")
		}
		return kvstore.NewPostgres(pool), nil, noop, nil
	case "memory":
		return kvstore.NewMemory(), nil, noop, nil
	default:
		return nil, nil, nil, fmt.Errorf("unknown session store %q", cfg.SessionStore)
	}
}

type repositories struct {
	catalog  catalog.Repository
	patients patient.Repository
	exams    examination.Repository
	expenses expense.Repository
}

// newRepositories picks Postgres when a pool is available and seeded
// in-memory repositories otherwise.
func newRepositories(pool *pgxpool.Pool, now time.Time) repositories {
	if pool != nil {
		return repositories{
			catalog:  catalog.NewCatalogRepoPG(pool),
			patients: patient.NewPatientRepoPG(pool),
			exams:    examination.NewExamRepoPG(pool),
			expenses: expense.NewExpenseRepoPG(pool),
		}
	}
	return repositories{
		catalog:  catalog.NewCatalogRepoMemory(catalog.Seed()...),
		patients: patient.NewPatientRepoMemory(patient.Seed(now)...),
		exams:    examination.NewExamRepoMemory(examination.Seed(now)...),
		expenses: expense.NewExpenseRepoMemory(expense.Seed(now)...),
	}
}

// newApp wires every handler and middleware. Background work (session
// restore, draft janitor) runs until ctx is cancelled.
func newApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger, pool *pgxpool.Pool) (*app, error) {
	a := &app{}

	store, checks, closeStore, err := sessionStore(cfg, pool)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, closeStore)

	creds, err := session.NewStaticCredentials(passwordCost, session.DefaultAccounts()...)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("hash built-in accounts: %w", err)
	}
	a.gate = session.NewGate(store, creds, logger)
	go a.gate.Initialize(ctx)

	registry := auth.NewTokenRegistry(tokenCleanupEvery)
	a.closers = append(a.closers, func() error { registry.Close(); return nil })
	if err := registry.Restore(ctx, store, time.Now()); err != nil {
		logger.Warn().Err(err).Msg("failed to restore revoked tokens, starting with none")
	}
	issuer := auth.NewIssuer([]byte(cfg.SessionSigningKey), cfg.SessionTokenTTL, registry)

	repos := newRepositories(pool, time.Now())
	catalogSvc := catalog.NewService(repos.catalog)
	patientSvc := patient.NewService(repos.patients)
	examSvc := examination.NewService(repos.exams)
	expenseSvc := expense.NewService(repos.expenses)
	reportSvc := report.NewService(examSvc, expenseSvc, patientSvc, logger)

	a.drafts = examination.NewDraftService(catalogSvc, patientSvc, repos.exams, logger)
	go a.drafts.RunJanitor(ctx, draftSweepEvery, draftMaxIdle)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))
	e.Use(middleware.RequestTimeout(requestTimeout))
	e.Use(auth.RequireSession(a.gate, issuer))
	e.Use(middleware.Audit(logger))

	if pool != nil {
		checks = append(checks, db.PoolCheck(pool))
	}
	e.GET("/health", db.HealthHandler(version, checks...))

	apiV1 := e.Group("/api/v1")
	account.NewHandler(a.gate, issuer, logger).RegisterRoutes(apiV1, middleware.RateLimit(middleware.LoginRateLimitConfig()))
	catalog.NewHandler(catalogSvc).RegisterRoutes(apiV1)
	patient.NewHandler(patientSvc).RegisterRoutes(apiV1)
	examination.NewHandler(examSvc, a.drafts).RegisterRoutes(apiV1)
	expense.NewHandler(expenseSvc).RegisterRoutes(apiV1)
	report.NewHandler(reportSvc, format.New(cfg.DefaultLocale)).RegisterRoutes(apiV1)

	a.echo = e
	return a, nil
}
