package utils

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	operatorID := uuid.New()

	token, err := GenerateToken("unit-secret", operatorID, "reviewer", false, true, time.Hour)
	require.NoError(t, err)

	claims, err := ValidateToken("unit-secret", token)
	require.NoError(t, err)
	assert.Equal(t, operatorID, claims.OperatorID)
	assert.Equal(t, "reviewer", claims.Username)
	assert.False(t, claims.IsAdmin)
	assert.True(t, claims.CanReviewWithdrawals)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	token, err := GenerateToken("secret-a", uuid.New(), "reviewer", false, true, time.Hour)
	require.NoError(t, err)

	_, err = ValidateToken("secret-b", token)
	assert.Error(t, err)
}

func TestValidateTokenExpired(t *testing.T) {
	token, err := GenerateToken("unit-secret", uuid.New(), "reviewer", false, true, -time.Minute)
	require.NoError(t, err)

	_, err = ValidateToken("unit-secret", token)
	assert.Error(t, err)
}
