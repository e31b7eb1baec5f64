package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/atiaa9916/stp-backend/internal/config"
	"github.com/atiaa9916/stp-backend/internal/handlers"
	"github.com/atiaa9916/stp-backend/internal/middleware"
	"github.com/atiaa9916/stp-backend/internal/repositories/mongodb"
	"github.com/atiaa9916/stp-backend/internal/services"
	"github.com/atiaa9916/stp-backend/pkg/cache"
	"github.com/atiaa9916/stp-backend/pkg/database"
	"github.com/atiaa9916/stp-backend/pkg/logger"
	"github.com/atiaa9916/stp-backend/routes"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// .env values never override the real environment.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger, err := logger.NewLogger(&logger.Config{
		Level:  logger.LogLevel(cfg.App.LogLevel),
		Format: cfg.App.LogFormat,
		Output: "stdout",
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	db, err := database.NewMongoDB(&database.DatabaseConfig{
		URI:            cfg.Database.URI,
		Database:       cfg.Database.Database,
		MaxPoolSize:    cfg.Database.MaxPoolSize,
		MinPoolSize:    cfg.Database.MinPoolSize,
		ConnectTimeout: cfg.Database.ConnectTimeout,
		SocketTimeout:  cfg.Database.SocketTimeout,
	})
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to connect to MongoDB")
	}
	defer db.Close()

	if err := database.NewMigrator(db.Database).Up(); err != nil {
		appLogger.WithError(err).Fatal("Failed to run migrations")
	}

	var redisCache *cache.RedisCache
	if cfg.Redis.Enabled {
		redisCache, err = cache.NewRedisCache(&cache.RedisConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			appLogger.WithError(err).Warn("Redis unavailable, continuing without cache")
			redisCache = nil
		} else {
			defer redisCache.Close()
		}
	}

	// Repositories.
	walletRepo := mongodb.NewWalletRepository(db.Database)
	transactionRepo := mongodb.NewTransactionRepository(db.Database)
	tripRepo := mongodb.NewTripRepository(db.Database)
	acceptanceRepo := mongodb.NewTripAcceptanceLogRepository(db.Database)
	settingsRepo := mongodb.NewCommissionSettingsRepository(db.Database)
	settingRepo := mongodb.NewSettingRepository(db.Database)
	codeRepo := mongodb.NewRechargeCodeRepository(db.Database)
	requestRepo := mongodb.NewPaymentRequestRepository(db.Database)
	userRepo := mongodb.NewUserRepository(db.Database)
	auditRepo := mongodb.NewAuditLogRepository(db.Database)

	// Services. The nil-interface dance keeps the cache optional.
	var cacheService services.CacheService
	if redisCache != nil {
		cacheService = redisCache
	}

	commissionService := services.NewCommissionService(settingsRepo, settingRepo, db, cacheService, cfg.Commission, appLogger)
	walletService := services.NewWalletService(walletRepo, transactionRepo, userRepo, db, cfg.Wallet, cfg.App.Currency, appLogger)
	tripService := services.NewTripService(tripRepo, acceptanceRepo, walletService, commissionService, db, cfg.Wallet, appLogger)
	rechargeService := services.NewRechargeService(codeRepo, userRepo, auditRepo, walletService, db, appLogger)
	paymentService := services.NewPaymentService(requestRepo, walletService, db, cfg.Wallet.MinTopUpAmount, appLogger)
	sweeperService := services.NewSweeperService(tripRepo, walletService, commissionService, db, cfg.Sweeper, appLogger)

	// Handlers.
	tripHandler := handlers.NewTripHandler(tripService)
	walletHandler := handlers.NewWalletHandler(walletService)
	rechargeHandler := handlers.NewRechargeHandler(rechargeService)
	commissionHandler := handlers.NewCommissionHandler(commissionService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	adminHandler := handlers.NewAdminHandler(rechargeService, paymentService, tripService, walletService, sweeperService)

	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware(cfg.Security.CORSAllowedOrigins))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware(appLogger))
	router.Use(middleware.RateLimitMiddleware(redisCache, cfg.Security.RateLimitPerMinute))

	v1 := router.Group("/api/v1")
	{
		routes.SetupTripRoutes(v1, tripHandler, cfg.Security.JWTSecret)
		routes.SetupWalletRoutes(v1, walletHandler, cfg.Security.JWTSecret)
		routes.SetupRechargeRoutes(v1, rechargeHandler, cfg.Security.JWTSecret)
		routes.SetupCommissionRoutes(v1, commissionHandler, cfg.Security.JWTSecret)
		routes.SetupPaymentRoutes(v1, paymentHandler, cfg.Security.JWTSecret)
		routes.SetupAdminRoutes(v1, adminHandler, cfg.Security.JWTSecret)
	}

	router.GET("/health", func(c *gin.Context) {
		status := http.StatusOK
		dbStatus := "up"
		if err := db.Ping(); err != nil {
			status = http.StatusServiceUnavailable
			dbStatus = "down"
		}
		c.JSON(status, gin.H{
			"status":   "ok",
			"version":  cfg.App.Version,
			"database": dbStatus,
		})
	})

	// Sweeper runs until shutdown.
	sweeperCtx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()
	if cfg.Sweeper.Enabled {
		go sweeperService.Start(sweeperCtx)
	}

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.App.Host, cfg.App.Port),
		Handler: router,
	}

	go func() {
		appLogger.WithField("addr", server.Addr).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.WithError(err).Fatal("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down")
	stopSweeper()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Error("Forced shutdown")
	}
}
