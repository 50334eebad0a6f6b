package main

import (
	"context"
	"fmt"
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"

	"github.com/peihutong/backend/internal/config"
	"github.com/peihutong/backend/internal/database"
	"github.com/peihutong/backend/internal/database/migrations"
	"github.com/peihutong/backend/internal/handlers"
	"github.com/peihutong/backend/internal/jobs"
	"github.com/peihutong/backend/internal/middleware"
	"github.com/peihutong/backend/internal/queue"
	"github.com/peihutong/backend/internal/routes"
	"github.com/peihutong/backend/internal/services/audit"
	"github.com/peihutong/backend/internal/services/notify"
	"github.com/peihutong/backend/internal/services/wallet"
	"github.com/peihutong/backend/internal/services/withdrawal"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	cfg := config.LoadConfig()

	// Setup database connection
	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := migrations.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Redis-backed notification queue
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("Failed to connect to redis: %v", err)
	}

	notifyQueue := queue.NewQueue(redisClient)
	notifySvc := notify.NewService(notifyQueue)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go notifySvc.RunWorker(ctx)

	// Services
	walletSvc := wallet.NewService(db)
	auditSvc := audit.NewService(db)
	withdrawalSvc := withdrawal.NewService(db, walletSvc, auditSvc,
		withdrawal.NewAdminPermissionChecker(db), notifySvc,
		withdrawal.Config{
			ConfirmText: cfg.Withdraw.ConfirmText,
			FeeRate:     cfg.Withdraw.FeeRate,
		})

	// Reservation reconciliation sweep
	reconcileJob := jobs.NewReconcileJob(db)
	reconcileJob.Start(cfg.Withdraw.ReconcileIntervalMinutes)
	defer reconcileJob.Stop()

	// Initialize router
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.FrontendURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	rateLimiter := middleware.NewRateLimiter(5, 10)
	defer rateLimiter.Stop()

	routes.RegisterRoutes(router,
		handlers.NewAuthHandler(db, cfg.JWT),
		handlers.NewWalletHandler(walletSvc),
		handlers.NewWithdrawalHandler(withdrawalSvc),
		rateLimiter,
		cfg.JWT.Secret,
	)

	fmt.Printf("Payout API server running on port %s\n", cfg.Server.Port)
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
