package main

import (
	"context"
	crypto_rand "crypto/rand"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/clinithetics/emr/internal/config"
	"github.com/clinithetics/emr/internal/dashboard"
	"github.com/clinithetics/emr/internal/domain/billing"
	"github.com/clinithetics/emr/internal/domain/clinical"
	"github.com/clinithetics/emr/internal/domain/identity"
	"github.com/clinithetics/emr/internal/domain/scheduling"
	"github.com/clinithetics/emr/internal/platform/auth"
	"github.com/clinithetics/emr/internal/platform/db"
	"github.com/clinithetics/emr/internal/platform/middleware"
	"github.com/clinithetics/emr/internal/platform/validation"
)

const version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "emr-server",
		Short: "Clinithetics practice management API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(userCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

// connect loads the configuration and opens the database pool.
func connect(ctx context.Context) (*config.Config, *pgxpool.Pool, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, nil, err
	}
	return cfg, pool, nil
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	// migrate up
	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			cfg, pool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			dir := migrationsDir(cmd, cfg)
			count, err := db.NewMigrator(pool, os.DirFS(dir)).Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) from %s.\n", count, dir)
			return nil
		},
	}
	upCmd.Flags().String("dir", "", "Path to migrations directory (default MIGRATIONS_DIR)")
	cmd.AddCommand(upCmd)

	// migrate status
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			cfg, pool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			statuses, err := db.NewMigrator(pool, os.DirFS(migrationsDir(cmd, cfg))).Status(ctx)
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
	}
	statusCmd.Flags().String("dir", "", "Path to migrations directory (default MIGRATIONS_DIR)")
	cmd.AddCommand(statusCmd)

	return cmd
}

func migrationsDir(cmd *cobra.Command, cfg *config.Config) string {
	if dir, _ := cmd.Flags().GetString("dir"); dir != "" {
		return dir
	}
	return cfg.MigrationsDir
}

func userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}

	// Super admins cannot sign up; this is how they come to exist.
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user with any role",
		RunE: func(cmd *cobra.Command, args []string) error {
			req, role, err := userFromFlags(cmd)
			if err != nil {
				return err
			}

			ctx := context.Background()
			_, pool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			svc := identity.NewService(identity.NewAccountRepoPG(pool), identity.NewProfileRepoPG(pool), identity.NewRoleRepoPG(pool))
			id, err := svc.CreateUser(ctx, req, role)
			if err != nil {
				return fmt.Errorf("%s", identity.AuthMessage(err))
			}
			fmt.Printf("Created %s %s (%s)\n", role, id.Email, id.ID)
			return nil
		},
	}
	createCmd.Flags().String("email", "", "Email address")
	createCmd.Flags().String("password", "", "Initial password")
	createCmd.Flags().String("first-name", "", "First name")
	createCmd.Flags().String("last-name", "", "Last name")
	createCmd.Flags().String("role", identity.RoleSuperAdmin.String(), "Role: super_admin, doctor or patient")

	cmd.AddCommand(createCmd)
	return cmd
}

func userFromFlags(cmd *cobra.Command) (identity.SignUpRequest, identity.Role, error) {
	email, _ := cmd.Flags().GetString("email")
	password, _ := cmd.Flags().GetString("password")
	first, _ := cmd.Flags().GetString("first-name")
	last, _ := cmd.Flags().GetString("last-name")
	rawRole, _ := cmd.Flags().GetString("role")

	var missing []string
	for _, f := range []struct{ flag, value string }{
		{"--email", email}, {"--first-name", first}, {"--last-name", last},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.flag)
		}
	}
	if len(missing) > 0 {
		return identity.SignUpRequest{}, 0, fmt.Errorf("required: %s", strings.Join(missing, ", "))
	}
	role, err := identity.ParseRole(rawRole)
	if err != nil {
		return identity.SignUpRequest{}, 0, err
	}
	return identity.SignUpRequest{
		Email:     email,
		Password:  password,
		FirstName: first,
		LastName:  last,
		Role:      role.String(),
	}, role, nil
}

func newLogger(cfg *config.Config) zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	return logger.Level(level)
}

// resolveSigningKey returns JWT_SECRET as the HMAC key, or a random 32-byte
// key when it is unset. The second return value is true when a random key
// was generated.
func resolveSigningKey(secret string) ([]byte, bool, error) {
	if secret != "" {
		return []byte(secret), false, nil
	}
	key := make([]byte, 32)
	if _, err := crypto_rand.Read(key); err != nil {
		return nil, false, fmt.Errorf("failed to generate random signing key: %w", err)
	}
	return key, true, nil
}

// newRevocationStore uses Redis when REDIS_URL is set so that sign-outs are
// shared between replicas. The returned func releases the store; the check
// is nil for the in-memory store.
func newRevocationStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (auth.RevocationStore, *db.Check, func(), error) {
	if cfg.RedisURL == "" {
		store := auth.NewMemoryRevocationStore(time.Minute)
		logger.Warn().Msg("REDIS_URL not set; session revocations are kept in memory")
		return store, nil, store.Close, nil
	}
	client, err := auth.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info().Msg("connected to redis")
	check := &db.Check{Name: "redis", Ping: func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}}
	return auth.NewRedisRevocationStore(client), check, func() { _ = client.Close() }, nil
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger := newLogger(cfg)

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.SentryDSN, Environment: cfg.Env, Release: version}); err != nil {
			logger.Error().Err(err).Msg("sentry init failed")
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	revoked, redisCheck, closeStore, err := newRevocationStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open session store")
	}
	defer closeStore()

	signingKey, random, err := resolveSigningKey(cfg.JWTSecret)
	if err != nil {
		return err
	}
	if random {
		logger.Warn().Msg("JWT_SECRET not set; using an ephemeral signing key")
	}

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	httpMetrics := middleware.NewHTTPMetrics(reg)

	// Services
	identitySvc := identity.NewService(identity.NewAccountRepoPG(pool), identity.NewProfileRepoPG(pool), identity.NewRoleRepoPG(pool))
	schedulingSvc := scheduling.NewService(scheduling.NewAppointmentRepoPG(pool), identitySvc)
	clinicalSvc := clinical.NewService(clinical.NewRecordRepoPG(pool), clinical.NewPrescriptionRepoPG(pool), identitySvc)
	billingSvc := billing.NewService(billing.NewInvoiceRepoPG(pool), billing.NewClaimRepoPG(pool),
		billing.NewPaymentRepoPG(pool), billing.NewSubscriptionRepoPG(pool))

	env := dashboard.Env{
		Log:     logger.With().Str("component", "dashboard").Logger(),
		Metrics: dashboard.NewMetrics(reg),
		Now:     time.Now,
	}
	catalog := dashboard.NewCatalog(dashboard.Services{
		Profiles:     identitySvc,
		Appointments: schedulingSvc,
		Clinical:     clinicalSvc,
		Billing:      billingSvc,
		Users:        identitySvc,
	}, env)
	registry := dashboard.NewRegistry(catalog, identitySvc, env)
	registry.StartSweeper(time.Minute)
	defer registry.Stop()

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validation.New()

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(httpMetrics.Middleware())
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))
	e.Use(middleware.BodyLimit(cfg.BodyLimit))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout))
	e.Use(auth.JWTMiddleware(auth.JWTConfig{
		Issuer:     cfg.JWTIssuer,
		SigningKey: signingKey,
		Revoked:    revoked,
		Skipper:    auth.AuthSkipper,
	}))

	// Infrastructure
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	checks := []db.Check{{Name: "postgres", Ping: pool.Ping}}
	if redisCheck != nil {
		checks = append(checks, *redisCheck)
	}
	e.GET("/health/db", db.HealthHandler(checks, db.PoolStatsFunc(pool)))
	e.GET("/metrics", middleware.MetricsHandler(reg))

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}

	dashHandler := dashboard.NewHandler(registry, env.Log)
	authGroup := e.Group("/auth", middleware.RateLimit(rateLimitCfg))
	apiV1 := e.Group("/api/v1", middleware.RateLimit(rateLimitCfg), dashHandler.Middleware())

	// Auth: sign-up, sign-in, sign-out, session
	identity.NewHandler(identitySvc).RegisterRoutes(authGroup, apiV1)
	dashboard.NewSessionHandler(identitySvc, auth.NewTokenIssuer(cfg.JWTIssuer, signingKey, cfg.SessionTTL),
		revoked, registry, logger).RegisterRoutes(authGroup)

	// Domain writes refresh the caller's dashboard modules
	billing.NewHandler(billingSvc).RegisterRoutes(apiV1)
	scheduling.NewHandler(schedulingSvc, registry.Refresh).RegisterRoutes(apiV1)
	clinical.NewHandler(clinicalSvc, registry.Refresh).RegisterRoutes(apiV1)
	dashHandler.RegisterRoutes(apiV1)

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
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
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
