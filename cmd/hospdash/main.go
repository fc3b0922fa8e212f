package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hospdash/hospdash/internal/config"
	"github.com/hospdash/hospdash/internal/console"
	"github.com/hospdash/hospdash/internal/dashboard"
	"github.com/hospdash/hospdash/internal/domain/consultation"
	"github.com/hospdash/hospdash/internal/domain/patient"
	"github.com/hospdash/hospdash/internal/domain/pharmacy"
	"github.com/hospdash/hospdash/internal/gateway"
	"github.com/hospdash/hospdash/internal/platform/auth"
	"github.com/hospdash/hospdash/internal/platform/db"
	"github.com/hospdash/hospdash/internal/platform/middleware"
	"github.com/hospdash/hospdash/internal/platform/notification"
	"github.com/hospdash/hospdash/internal/platform/websocket"
	"github.com/hospdash/hospdash/migrations"
)

const (
	version        = "0.1.0"
	requestTimeout = 30 * time.Second
	toastHistory   = 20
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "hospdash",
		Short:         "Hospital dashboard API server and terminal client",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(tokenCmd())
	rootCmd.AddCommand(dashboardCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newLogger(w io.Writer, env string) zerolog.Logger {
	if env == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: w}).With().Timestamp().Logger()
	}
	return zerolog.New(w).With().Timestamp().Logger()
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.ValidateServer(); err != nil {
				return err
			}
			return runServer(cfg, newLogger(os.Stdout, cfg.Env))
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	open := func(cmd *cobra.Command) (*db.Migrator, func(), error) {
		schema, _ := cmd.Flags().GetString("schema")
		cfg, err := config.Load()
		if err != nil {
			return nil, nil, err
		}
		if err := cfg.ValidateServer(); err != nil {
			return nil, nil, err
		}
		pool, err := db.NewPool(cmd.Context(), cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			return nil, nil, err
		}
		return db.NewMigrator(pool, migrations.FS, schema, newLogger(os.Stderr, cfg.Env)), pool.Close, nil
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			migrator, closeFn, err := open(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			count, err := migrator.Up(cmd.Context())
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			migrator, closeFn, err := open(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			statuses, err := migrator.Status(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}
			printStatus(cmd.OutOrStdout(), statuses)
			return nil
		},
	}

	for _, c := range []*cobra.Command{upCmd, statusCmd} {
		c.Flags().String("schema", "public", "Target schema for migrations")
		cmd.AddCommand(c)
	}
	return cmd
}

func printStatus(w io.Writer, statuses []db.MigrationStatus) {
	fmt.Fprintf(w, "%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
	fmt.Fprintln(w, "---------- ---------------------------------------- ---------- --------------------")
	for _, s := range statuses {
		status := "pending"
		appliedAt := ""
		if s.Applied {
			status = "applied"
			if s.AppliedAt != nil {
				appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
			}
		}
		fmt.Fprintf(w, "%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
	}
}

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a signed session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			username, _ := cmd.Flags().GetString("username")
			role, _ := cmd.Flags().GetString("role")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			token, err := issueToken(cfg, username, role)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().String("username", "", "Username placed in the token subject")
	cmd.Flags().String("role", "", "Role: ADMIN, PHYSICIAN or PHARMACIST")
	return cmd
}

func issueToken(cfg *config.Config, username, role string) (string, error) {
	username = strings.TrimSpace(username)
	role = strings.ToUpper(strings.TrimSpace(role))
	if username == "" {
		return "", fmt.Errorf("--username is required")
	}
	if !auth.ValidRole(role) {
		return "", fmt.Errorf("unknown role %q", role)
	}
	if cfg.JWTSecret == "" {
		return "", fmt.Errorf("JWT_SECRET is required to sign tokens")
	}
	return auth.IssueToken([]byte(cfg.JWTSecret), cfg.AuthIssuer, username, role, cfg.TokenTTL())
}

func dashboardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Open the interactive terminal dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			watch, _ := cmd.Flags().GetStringSlice("watch")
			verbose, _ := cmd.Flags().GetBool("verbose")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.ValidateClient(); err != nil {
				return err
			}

			logger := newLogger(os.Stderr, "development").Level(zerolog.ErrorLevel)
			if verbose {
				logger = logger.Level(zerolog.DebugLevel)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runDashboard(ctx, cfg, logger, watch, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringSlice("watch", nil, "Usernames of patients to receive live events for")
	cmd.Flags().BoolP("verbose", "v", false, "Log requests to stderr")
	return cmd
}

func runDashboard(ctx context.Context, cfg *config.Config, logger zerolog.Logger, watch []string, in io.Reader, out io.Writer) error {
	client := gateway.New(cfg.APIBaseURL, cfg.APIToken, logger, gateway.WithTimeout(cfg.APITimeout()))

	session, err := client.Session(ctx)
	if err != nil {
		return fmt.Errorf("load session: %s", dashboard.MessageFor(err))
	}

	// The console and the live-event watcher share one terminal.
	term := console.NewSyncWriter(out)
	history := notification.NewMemorySink(toastHistory)
	sink := notification.MultiSink{
		notification.NewWriterSink(term),
		notification.NewLogSink(logger),
		history,
	}

	if len(watch) > 0 {
		go func() {
			if err := client.Watch(ctx, watch, sink); err != nil {
				sink.Notify(ctx, "live updates stopped: "+dashboard.MessageFor(err), notification.LevelError)
			}
		}()
	}

	board := dashboard.NewBoard(session, client, sink)
	done := make(chan error, 1)
	con := console.New(board, in, term)
	con.SetHistory(history)
	go func() { done <- con.Run(ctx) }()

	// A blocked read on stdin must not keep an interrupted session alive.
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return nil
	}
}

// services are the domain services mounted by newServer.
type services struct {
	patients      *patient.Service
	pharmacy      *pharmacy.Service
	consultations *consultation.Service
	hub           *websocket.Hub
	pinger        db.Pinger
}

func runServer(cfg *config.Config, logger zerolog.Logger) error {
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	hub := websocket.NewHub(logger)

	patientSvc := patient.NewService(patient.NewRepoPG(pool))

	pharmacySvc := pharmacy.NewService(
		db.PoolTx{DB: pool},
		pharmacy.NewMedicineRepoPG(pool),
		pharmacy.NewDispenseRepoPG(pool),
		patientSvc,
	)
	pharmacySvc.SetEventPublisher(hub)

	consultSvc := consultation.NewService(consultation.NewRepoPG(pool), patientSvc)
	consultSvc.SetEventPublisher(hub)

	e := newServer(cfg, logger, services{
		patients:      patientSvc,
		pharmacy:      pharmacySvc,
		consultations: consultSvc,
		hub:           hub,
		pinger:        pool,
	})

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}

func newServer(cfg *config.Config, logger zerolog.Logger, svc services) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.Sanitize())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
	}))
	e.Use(echomw.BodyLimit("1M"))
	e.Use(middleware.RequestTimeout(requestTimeout, "/ws"))

	// Auth middleware
	if cfg.IsDev() {
		e.Use(auth.DevAuthMiddleware([]byte(cfg.JWTSecret)))
	} else {
		e.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:     cfg.AuthIssuer,
			SigningKey: []byte(cfg.JWTSecret),
			Skipper:    auth.AuthSkipper,
		}))
	}

	// Health checks
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	if svc.pinger != nil {
		e.GET("/health/db", db.HealthHandler(svc.pinger))
	}

	api := e.Group("")
	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	api.Use(middleware.RateLimit(rateLimitCfg))

	auth.NewSessionHandler().RegisterRoutes(api)
	patient.NewHandler(svc.patients).RegisterRoutes(api)
	pharmacy.NewHandler(svc.pharmacy).RegisterRoutes(api)
	consultation.NewHandler(svc.consultations).RegisterRoutes(api)

	if svc.hub != nil {
		wsUser := func(c echo.Context) string { return auth.UserIDFromContext(c.Request().Context()) }
		websocket.NewHandler(svc.hub, wsUser, cfg.CORSOrigins).RegisterRoutes(api)
	}
	return e
}
