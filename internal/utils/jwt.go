package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
)

// Claims represents the JWT claims for a back-office operator
type Claims struct {
	OperatorID           uuid.UUID `json:"operator_id"`
	Username             string    `json:"username"`
	IsAdmin              bool      `json:"is_admin"`
	CanReviewWithdrawals bool      `json:"can_review_withdrawals"`
	jwt.StandardClaims
}

// GenerateToken creates a signed JWT for an operator session
func GenerateToken(secret string, operatorID uuid.UUID, username string, isAdmin, canReview bool, expiration time.Duration) (string, error) {
	claims := Claims{
		OperatorID:           operatorID,
		Username:             username,
		IsAdmin:              isAdmin,
		CanReviewWithdrawals: canReview,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Add(expiration).Unix(),
			IssuedAt:  time.Now().Unix(),
			Subject:   operatorID.String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and validates a JWT and returns its claims
func ValidateToken(secret, tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
