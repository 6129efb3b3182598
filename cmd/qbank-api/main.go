// @title Question Bank Service API
// @version 1.0
// @description Role-scoped question banks: one global OUP bank and one bank per school.
// @BasePath /api/v1

package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SAP-F-2025/question-bank-service/internal/auth"
	"github.com/SAP-F-2025/question-bank-service/internal/cache"
	"github.com/SAP-F-2025/question-bank-service/internal/config"
	"github.com/SAP-F-2025/question-bank-service/internal/handlers"
	"github.com/SAP-F-2025/question-bank-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/question-bank-service/internal/services"
	"github.com/SAP-F-2025/question-bank-service/internal/utils"
	"github.com/SAP-F-2025/question-bank-service/internal/validator"
	"github.com/SAP-F-2025/question-bank-service/pkg"
	"github.com/SAP-F-2025/question-bank-service/pkg/monitoring"
	"github.com/SAP-F-2025/question-bank-service/pkg/objectstore"
	"github.com/SAP-F-2025/question-bank-service/pkg/security"
	"github.com/SAP-F-2025/question-bank-service/pkg/tracing"
	"github.com/gin-gonic/gin"
)

func main() {
	migrateOnly := flag.Bool("migrate-only", false, "run database migrations and exit")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := utils.NewLogger(cfg.Environment, cfg.LogFile)
	slogger := utils.ToSlogLogger(logger)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		logger.LogError(err, "Failed to initialize database")
		os.Exit(1)
	}
	if cfg.AutoMigrate || *migrateOnly {
		if err := postgres.Migrate(db); err != nil {
			logger.LogError(err, "Failed to migrate database")
			os.Exit(1)
		}
		logger.Info("Database migrated")
	}
	if *migrateOnly {
		return
	}
	repo := postgres.NewRepository(db)

	locker := cache.NewNoopScopeLocker()
	if cfg.Lock.Enabled {
		rdb, err := pkg.NewRedisClient(ctx, cfg)
		if err != nil {
			logger.LogError(err, "Failed to connect to redis")
			os.Exit(1)
		}
		defer rdb.Close()
		locker = cache.NewRedisScopeLocker(rdb, cache.LockConfig{TTL: cfg.Lock.TTL, Wait: cfg.Lock.Wait}, slogger)
	}

	publisher, err := cfg.Events.NewPublisher(slogger)
	if err != nil {
		logger.LogError(err, "Failed to create event publisher")
		os.Exit(1)
	}
	defer publisher.Close()

	var archiver objectstore.Archiver
	if cfg.Storage.Enabled {
		archiver, err = objectstore.NewMinioArchiver(objectstore.Config{
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			Bucket:    cfg.Storage.Bucket,
			UseSSL:    cfg.Storage.UseSSL,
		})
		if err != nil {
			logger.LogError(err, "Failed to create object storage client")
			os.Exit(1)
		}
	}

	var verifier auth.TokenVerifier
	if cfg.Casdoor.Enabled {
		verifier = auth.NewCasdoorVerifier(cfg.Casdoor)
		logger.Info("Bearer tokens verified through Casdoor", "endpoint", cfg.Casdoor.Endpoint)
	}

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(cfg.Tracing.ServiceName, cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.LogError(err, "Failed to initialize tracing")
			os.Exit(1)
		}
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				logger.LogError(err, "Failed to shutdown tracer provider")
			}
		}()
	}

	serviceManager := services.NewServiceManager(services.Dependencies{
		Repo:              repo,
		Locker:            locker,
		Publisher:         publisher,
		Archiver:          archiver,
		Validator:         validator.New(),
		Logger:            slogger,
		RecomputeOnUpdate: cfg.Stats.RecomputeOnUpdate,
	})

	monitoring.Init()
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(security.RequestID())
	router.Use(utils.LoggerMiddleware(logger))
	router.Use(security.Secure())
	router.Use(security.CORS(cfg.CORSAllowedOrigins))
	if cfg.RateLimit.Enabled {
		router.Use(security.RateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}
	router.Use(monitoring.MetricsMiddleware())
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}
	router.Use(auth.Middleware(verifier, logger))

	handlers.NewHandlerManager(serviceManager, repo, logger).SetupRoutes(router)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server starting", "port", cfg.Port, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.LogError(err, "Server failed")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.LogError(err, "Server forced to shutdown")
	}
	logger.Info("Server exited")
}
