package models

// AdminUser represents a back-office operator. Authentication itself lives
// in the session layer; the withdrawal core only consumes the operator id
// and the review permission flag.
type AdminUser struct {
	Base
	Username             string `gorm:"uniqueIndex;not null" json:"username"`
	Password             string `gorm:"not null" json:"-"`
	IsAdmin              bool   `gorm:"default:false" json:"is_admin"`
	CanReviewWithdrawals bool   `gorm:"default:false" json:"can_review_withdrawals"`
}
