package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"catalog_service/config"
	"catalog_service/internal/cache"
	"catalog_service/internal/collections"
	"catalog_service/internal/delivery"
	grpcHandler "catalog_service/internal/delivery/grpc"
	"catalog_service/internal/observability"
	"catalog_service/internal/repository"
	"catalog_service/internal/tagging"
	"catalog_service/internal/usecase"
	"catalog_service/pkg/db"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

func main() {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfg := config.LoadConfig(logger)
	logLevel, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.Warnf("Invalid log level '%s' in config, using default 'info'. Error: %v", cfg.LogLevel, err)
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)
	logger.Info("Starting Catalog Service...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Database ---
	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Errorf("Error closing database connection: %v", err)
		}
	}()
	if err := repository.EnsureSchema(ctx, database); err != nil {
		logger.Fatalf("Failed to apply database schema: %v", err)
	}
	logger.Info("Database connection established.")

	// --- Cache ---
	var responseCache cache.Cache = cache.Noop{}
	if cfg.RedisURL != "" {
		rc, err := cache.Connect(ctx, cfg.RedisURL, cfg.CacheTTL)
		if err != nil {
			logger.Warnf("Redis unavailable, serving without response cache: %v", err)
		} else {
			defer rc.Close()
			responseCache = rc
			logger.Info("Redis response cache connected.")
		}
	}

	// --- Rules and collections ---
	rules, err := tagging.LoadRules(cfg.TagRulesPath)
	if err != nil {
		logger.Fatalf("Failed to load tag rules: %v", err)
	}
	registry, err := collections.Load(cfg.CollectionsPath)
	if err != nil {
		logger.Fatalf("Failed to load collections: %v", err)
	}
	tagger := tagging.NewTagger(rules)
	logger.Infof("Loaded %d keyword rules and %d collections", len(rules.Keywords), len(registry.List()))

	var metrics *observability.Metrics
	if cfg.MetricsEnabled {
		metrics = observability.NewMetrics()
	}

	// --- Dependency Injection ---
	categoryRepo := repository.NewPostgresCategoryRepository(database, logger)
	productRepo := repository.NewPostgresProductRepository(database, logger)

	catalogUseCase := usecase.NewCatalogUseCase(productRepo, categoryRepo, registry, tagger, responseCache, metrics, cfg.SnapshotTTL, logger)
	categoryUseCase := usecase.NewCategoryUseCase(categoryRepo, catalogUseCase, logger)
	productUseCase := usecase.NewProductUseCase(productRepo, categoryRepo, tagger, catalogUseCase, metrics, logger)

	if logLevel < logrus.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}
	router := delivery.NewRouter(
		delivery.RouterConfig{AdminTokenHash: cfg.AdminTokenHash, Metrics: metrics, Log: logger},
		delivery.NewCatalogHandler(catalogUseCase, categoryUseCase, logger),
		delivery.NewCategoryHandler(categoryUseCase, logger),
		delivery.NewProductHandler(productUseCase, logger),
	)
	httpServer := &http.Server{
		Addr:              cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	grpcServer, healthServer := grpcHandler.NewServer(grpcHandler.NewCatalogHandler(catalogUseCase, logger), logger)
	lis, err := net.Listen("tcp", cfg.GrpcPort)
	if err != nil {
		logger.Fatalf("Failed to listen on port %s: %v", cfg.GrpcPort, err)
	}

	// --- Start Servers ---
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Infof("gRPC server listening on %s", cfg.GrpcPort)
		return grpcServer.Serve(lis)
	})
	g.Go(func() error {
		logger.Infof("HTTP server listening on %s", cfg.HTTPPort)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Warn("Shutdown signal received...")
		healthServer.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := httpServer.Shutdown(shutdownCtx)
		grpcServer.GracefulStop()
		return err
	})

	if err := g.Wait(); err != nil {
		logger.Errorf("Catalog Service stopped with error: %v", err)
		return
	}
	logger.Info("Catalog Service shut down gracefully.")
}
