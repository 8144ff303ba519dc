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

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/vedran77/projectdesk/internal/auth"
	"github.com/vedran77/projectdesk/internal/config"
	"github.com/vedran77/projectdesk/internal/database"
	"github.com/vedran77/projectdesk/internal/logging"
	"github.com/vedran77/projectdesk/internal/metrics"
	postgresrepo "github.com/vedran77/projectdesk/internal/repository/postgres"
	"github.com/vedran77/projectdesk/internal/service"
	"github.com/vedran77/projectdesk/internal/transport/http/handlers"
	"github.com/vedran77/projectdesk/internal/transport/http/middleware"
	"github.com/vedran77/projectdesk/internal/transport/ws"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log, err := logging.New(cfg.IsProduction())
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database
	pool, err := database.Connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()
	log.Info("connected to database", zap.String("host", cfg.DBHost), zap.String("db", cfg.DBName))

	db := database.OpenDB(pool)
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		return err
	}

	// Repositories
	userRepo := postgresrepo.NewUserRepo(db)
	projectRepo := postgresrepo.NewProjectRepo(db)

	// Services
	issuer := auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL)
	authService := service.NewAuthService(userRepo, issuer, cfg.BcryptCost)
	userService := service.NewUserService(userRepo, cfg.BcryptCost)
	projectService := service.NewProjectService(projectRepo, userRepo)

	// WebSocket hub
	hub := ws.NewHub(log)
	go hub.Run(ctx)
	projectService.SetNotifier(ws.NewHubNotifier(hub))

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	// Registration rate limiting
	var limiter *middleware.RateLimiter
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("parsing REDIS_URL: %w", err)
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			// the limiter fails open until redis comes back
			log.Warn("redis unreachable at startup", zap.Error(err))
		}
		limiter = middleware.NewRateLimiter(rdb, "projectdesk:register", cfg.RegisterRateLimit, cfg.RegisterRateWindow).
			TrustProxyHeaders(cfg.TrustProxyHeaders)
	} else {
		log.Info("REDIS_URL not set, registration rate limiting disabled")
	}

	router := handlers.NewRouter(handlers.RouterDeps{
		Auth:        handlers.NewAuthHandler(authService, log, m),
		Users:       handlers.NewUserHandler(userService, log),
		Projects:    handlers.NewProjectHandler(projectService, log),
		Issuer:      issuer,
		Log:         log,
		CORSOrigins: cfg.CORSOrigins,
		Metrics:     m,
		Registry:    registry,
		RateLimiter: limiter,
		Hub:         hub,
		HealthCheck: pool.Ping,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
	case <-ctx.Done():
		log.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
