package main

import (
	"fmt"
	"log"
	"net/http"

	"vxness/internal/config"
	handlers "vxness/internal/handlers/shared"
	"vxness/internal/middleware"
	"vxness/internal/repositories/mongodb"
	"vxness/internal/services"
	"vxness/pkg/cache"
	"vxness/pkg/database"
	"vxness/pkg/logger"
	"vxness/routes"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger, err := logger.NewLogger(&logger.Config{
		Level:  logger.LogLevel(cfg.App.LogLevel),
		Format: "json",
		Output: "stdout",
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	// Mongo
	db, err := database.NewMongoDB(&database.DatabaseConfig{
		URI:            cfg.Database.URI,
		Database:       cfg.Database.Database,
		MaxPoolSize:    cfg.Database.MaxPoolSize,
		MinPoolSize:    cfg.Database.MinPoolSize,
		ConnectTimeout: cfg.Database.ConnectTimeout,
		SocketTimeout:  cfg.Database.SocketTimeout,
	})
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer db.Close()

	// Index bootstrap backs the uniqueness invariants (one referral edge per
	// user, one ledger entry per trade and level).
	if err := database.NewMigrator(db.Database).Up(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Redis
	redisCache, err := cache.NewRedisCache(&cache.RedisConfig{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	// Services shared by the repositories
	cacheService := services.NewCacheService(redisCache, appLogger)
	notifier := services.NewNotificationService(appLogger)

	// Repositories
	referralRepo := mongodb.NewReferralRepository(db.Database)
	partnerRepo := mongodb.NewPartnerRepository(db.Database, cacheService)
	planRepo := mongodb.NewPlanRepository(db.Database, cacheService)
	commissionRepo := mongodb.NewCommissionRepository(db.Database)
	walletRepo := mongodb.NewWalletRepository(db.Database)
	transactionRepo := mongodb.NewTransactionRepository(db.Database)
	bonusRepo := mongodb.NewBonusRepository(db.Database)

	// Core services
	partnerService := services.NewPartnerService(partnerRepo, appLogger)
	referralService := services.NewReferralService(referralRepo, partnerRepo, appLogger)
	planService := services.NewPlanService(planRepo, cfg.Commission, appLogger)
	bonusService := services.NewBonusService(bonusRepo, notifier, appLogger)
	commissionService := services.NewCommissionService(
		commissionRepo, partnerRepo, referralRepo,
		referralService, planService, bonusService,
		db, cacheService, notifier, cfg.Commission, appLogger,
	)
	walletService := services.NewWalletService(
		walletRepo, transactionRepo, bonusService,
		db, cacheService, notifier, cfg.Commission, appLogger,
	)
	withdrawalService := services.NewWithdrawalService(
		partnerRepo, commissionRepo,
		db, cacheService, notifier, cfg.Commission, appLogger,
	)

	// Handlers
	tradeHandler := handlers.NewTradeHandler(commissionService)
	walletHandler := handlers.NewWalletHandler(walletService)
	partnerHandler := handlers.NewPartnerHandler(partnerService, referralService, commissionService, withdrawalService)
	planHandler := handlers.NewPlanHandler(planService)

	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.RequestLoggingMiddleware(appLogger))

	v1 := router.Group("/api/v1")
	{
		routes.SetupWalletRoutes(v1, walletHandler, tradeHandler)
		routes.SetupPartnerRoutes(v1, partnerHandler, planHandler)
	}

	router.GET("/health", func(c *gin.Context) {
		status := http.StatusOK
		health := gin.H{
			"status":  "healthy",
			"version": cfg.App.Version,
		}
		if err := db.Ping(); err != nil {
			status = http.StatusServiceUnavailable
			health["status"] = "degraded"
			health["mongodb"] = err.Error()
		}
		if err := cacheService.Ping(c.Request.Context()); err != nil {
			status = http.StatusServiceUnavailable
			health["status"] = "degraded"
			health["redis"] = err.Error()
		}
		c.JSON(status, health)
	})

	addr := fmt.Sprintf(":%d", cfg.App.Port)
	appLogger.WithField("addr", addr).Info("Starting server")
	if err := router.Run(addr); err != nil {
		log.Fatalf("Server exited: %v", err)
	}
}
