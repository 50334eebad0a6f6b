package withdrawal

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/peihutong/backend/internal/models"
)

// PermissionChecker answers whether an operator may review withdrawals.
// The admin identity layer owns operators; the withdrawal core only
// consumes this boolean.
type PermissionChecker interface {
	CanReviewWithdrawals(operatorID uuid.UUID) (bool, error)
}

// AdminPermissionChecker checks the review permission against the admin
// users table.
type AdminPermissionChecker struct {
	db *gorm.DB
}

// NewAdminPermissionChecker creates a permission checker backed by the
// admin users table
func NewAdminPermissionChecker(db *gorm.DB) *AdminPermissionChecker {
	return &AdminPermissionChecker{db: db}
}

// CanReviewWithdrawals reports whether the operator exists and holds the
// withdrawal review permission
func (c *AdminPermissionChecker) CanReviewWithdrawals(operatorID uuid.UUID) (bool, error) {
	var admin models.AdminUser
	if err := c.db.First(&admin, "id = ?", operatorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("error finding admin user: %w", err)
	}
	return admin.CanReviewWithdrawals, nil
}
