package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/peihutong/backend/internal/config"
	"github.com/peihutong/backend/internal/models"
	"github.com/peihutong/backend/internal/utils"
)

// AuthHandler handles back-office authentication
type AuthHandler struct {
	db  *gorm.DB
	jwt config.JWTConfig
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(db *gorm.DB, jwtConfig config.JWTConfig) *AuthHandler {
	return &AuthHandler{db: db, jwt: jwtConfig}
}

// Login authenticates an operator and issues a JWT
func (h *AuthHandler) Login(c *gin.Context) {
	var input struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var operator models.AdminUser
	if err := h.db.Where("username = ?", input.Username).First(&operator).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	if !utils.CheckPasswordHash(input.Password, operator.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, err := utils.GenerateToken(h.jwt.Secret, operator.ID, operator.Username,
		operator.IsAdmin, operator.CanReviewWithdrawals,
		time.Duration(h.jwt.Expiration)*time.Hour)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"operator": gin.H{
			"id":                     operator.ID,
			"username":               operator.Username,
			"is_admin":               operator.IsAdmin,
			"can_review_withdrawals": operator.CanReviewWithdrawals,
		},
	})
}

// Me returns the authenticated operator's profile
func (h *AuthHandler) Me(c *gin.Context) {
	operatorID, ok := actorFromContext(c)
	if !ok {
		return
	}

	var operator models.AdminUser
	if err := h.db.First(&operator, "id = ?", operatorID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "operator not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"operator": operator})
}
