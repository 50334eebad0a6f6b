package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/peihutong/backend/internal/handlers"
	"github.com/peihutong/backend/internal/middleware"
)

// RegisterRoutes wires all API routes onto the router
func RegisterRoutes(
	router *gin.Engine,
	authHandler *handlers.AuthHandler,
	walletHandler *handlers.WalletHandler,
	withdrawalHandler *handlers.WithdrawalHandler,
	rateLimiter *middleware.RateLimiter,
	jwtSecret string,
) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authGroup := router.Group("/api/auth")
	authGroup.Use(rateLimiter.Middleware())
	{
		authGroup.POST("/login", authHandler.Login)
	}

	// Provider-facing routes
	providerGroup := router.Group("/api")
	providerGroup.Use(middleware.AuthMiddleware(jwtSecret))
	{
		providerGroup.GET("/me", authHandler.Me)
		providerGroup.GET("/wallet", walletHandler.GetMyWallet)
		providerGroup.POST("/withdrawals", withdrawalHandler.RequestWithdrawal)
	}

	// Back-office review routes
	adminGroup := router.Group("/api/admin")
	adminGroup.Use(rateLimiter.Middleware(), middleware.AuthMiddleware(jwtSecret), middleware.ReviewerMiddleware())
	{
		adminGroup.GET("/wallets/:id", walletHandler.GetWallet)
		adminGroup.GET("/withdrawals", withdrawalHandler.ListWithdrawals)
		adminGroup.GET("/withdrawals/:id", withdrawalHandler.GetWithdrawal)
		adminGroup.POST("/withdrawals/:id/review", withdrawalHandler.ReviewWithdrawal)
		adminGroup.POST("/withdrawals/:id/begin-transfer", withdrawalHandler.BeginTransfer)
		adminGroup.POST("/withdrawals/:id/confirm-transfer", withdrawalHandler.ConfirmTransfer)
		adminGroup.POST("/withdrawals/:id/mark-failed", withdrawalHandler.MarkFailed)
	}
}
