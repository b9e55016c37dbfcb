package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func main() {
	migrateCmd := flag.Bool("migrate", false, "Run database migrations and exit")
	seedDemoCmd := flag.Bool("seed-demo", false, "Seed demo expenses for the demo user (idempotent)")
	workerCmd := flag.Bool("worker", false, "Run the periodic report reconciliation worker instead of the API")
	flag.Parse()

	cfg, err := loadConfig()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := setupLogging(cfg.LogLevel, cfg.LogFormat, os.Stderr)

	if err := cfg.Validate(); err != nil {
		logger.Error("configuration validation failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *migrateCmd {
		if err := setupDatabase(ctx, cfg, logger); err != nil {
			logger.Error("migration failed", "error", err)
			os.Exit(1)
		}
		logger.Info("migration completed successfully")
		return
	}

	db, err := initDB(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if *seedDemoCmd {
		n, err := seedDemoData(ctx, db)
		if err != nil {
			logger.Error("seeding demo data failed", "error", err)
			os.Exit(1)
		}
		logger.Info("demo data seeded", "user_id", demoUserID, "rows", n)
		return
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = initRedis(cfg.RedisURL)
		if err != nil {
			logger.Warn("failed to initialize Redis, continuing without cache", "error", err)
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	store := newPGStore(db)
	cache := newResponseCache(redisClient, logger)
	reconciler := NewReconciler(store, newRemoteClient(cfg.NodeAPIBase, cfg.RemoteTimeout), cache, logger.With("component", "reconciler"))

	if *workerCmd {
		if err := runWorker(ctx, cfg, store, reconciler, logger.With("component", "worker")); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("worker failed", "error", err)
			os.Exit(1)
		}
		logger.Info("worker stopped")
		return
	}

	suggester, err := loadSuggester(cfg.SuggestionsFile)
	if err != nil {
		logger.Error("failed to load suggestions", "error", err)
		os.Exit(1)
	}

	srv := &server{
		store:      store,
		suggester:  suggester,
		reports:    newReportService(store, cache, logger),
		dashboard:  newDashboardService(store, cache, logger),
		reconciler: reconciler,
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(cfg, srv, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", "error", err)
		}
	}()

	logger.Info("server starting", "port", cfg.Port)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("failed to start server", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

// newRouter builds the gin engine with middleware and routes.
func newRouter(cfg Config, srv *server, logger *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger))

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins(),
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", requestIDHeader},
		ExposeHeaders:    []string{"Content-Length", requestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	srv.routes(r)
	return r
}

// runWorker runs the periodic sweep and, when AMQP is configured, the queue consumer.
func runWorker(ctx context.Context, cfg Config, store reportStore, reconciler userReconciler, logger *slog.Logger) error {
	w := &reconcileWorker{
		store:       store,
		reconciler:  reconciler,
		interval:    cfg.ReconcileInterval,
		concurrency: cfg.ReconcileConcurrency,
		logger:      logger,
	}

	if cfg.AMQPURL == "" {
		logger.Info("AMQP disabled, reconciling in-process", "interval", cfg.ReconcileInterval)
		return w.run(ctx)
	}

	queue, err := newReconcileQueue(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		return err
	}
	defer queue.Close()
	w.publisher = queue

	errCh := make(chan error, 1)
	go func() {
		errCh <- queue.Consume(ctx, w.handleRequest)
	}()

	go func() {
		_ = w.run(ctx)
	}()

	return <-errCh
}
