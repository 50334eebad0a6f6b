package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/peihutong/backend/internal/utils"
)

// AuthMiddleware verifies JWT tokens and adds operator info to context
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)

		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization token required"})
			c.Abort()
			return
		}

		claims, err := utils.ValidateToken(jwtSecret, tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		c.Set("operator_id", claims.OperatorID)
		c.Set("username", claims.Username)
		c.Set("is_admin", claims.IsAdmin)
		c.Set("can_review_withdrawals", claims.CanReviewWithdrawals)

		c.Next()
	}
}

// ReviewerMiddleware ensures the operator holds the withdrawal review
// permission. The withdrawal service re-checks against the store; this
// gate just fails fast at the edge.
func ReviewerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		canReview, exists := c.Get("can_review_withdrawals")
		if !exists || !canReview.(bool) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Withdrawal review permission required"})
			c.Abort()
			return
		}

		c.Next()
	}
}

// extractToken gets the token from the Authorization header
func extractToken(c *gin.Context) string {
	bearerToken := c.GetHeader("Authorization")
	if len(strings.Split(bearerToken, " ")) == 2 {
		return strings.Split(bearerToken, " ")[1]
	}
	return ""
}
