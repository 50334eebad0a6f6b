package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WithdrawalStatus is the state of a withdrawal request in the review and
// payout flow. rejected, completed and failed are terminal.
type WithdrawalStatus string

const (
	WithdrawalStatusPending    WithdrawalStatus = "pending"
	WithdrawalStatusApproved   WithdrawalStatus = "approved"
	WithdrawalStatusRejected   WithdrawalStatus = "rejected"
	WithdrawalStatusProcessing WithdrawalStatus = "processing"
	WithdrawalStatusCompleted  WithdrawalStatus = "completed"
	WithdrawalStatusFailed     WithdrawalStatus = "failed"
)

// Terminal reports whether no further transition is allowed from s
func (s WithdrawalStatus) Terminal() bool {
	return s == WithdrawalStatusRejected || s == WithdrawalStatusCompleted || s == WithdrawalStatusFailed
}

// WithdrawalMethod identifies the payout channel
type WithdrawalMethod string

const (
	WithdrawalMethodBankTransfer WithdrawalMethod = "bank_transfer"
	WithdrawalMethodAlipay       WithdrawalMethod = "alipay"
	WithdrawalMethodWechatPay    WithdrawalMethod = "wechat_pay"
)

// Valid reports whether m is a known payout channel
func (m WithdrawalMethod) Valid() bool {
	switch m {
	case WithdrawalMethodBankTransfer, WithdrawalMethodAlipay, WithdrawalMethodWechatPay:
		return true
	}
	return false
}

// Withdrawal represents one payout attempt against a provider's wallet.
// The row is the single source of truth for the request's state; it is
// mutated only by the withdrawal service and never physically deleted.
// Account holds the raw destination account and must never be serialized
// or logged; callers expose MaskedAccount() instead.
type Withdrawal struct {
	Base
	WalletID     uuid.UUID        `gorm:"type:uuid;index;not null" json:"wallet_id"`
	Amount       decimal.Decimal  `gorm:"type:decimal(20,2);not null" json:"amount"`
	Fee          decimal.Decimal  `gorm:"type:decimal(20,2);not null" json:"fee"`
	ActualAmount decimal.Decimal  `gorm:"type:decimal(20,2);not null" json:"actual_amount"`
	Method       WithdrawalMethod `gorm:"type:varchar(32);not null" json:"method"`
	Account      string           `gorm:"type:varchar(128);not null" json:"-"`
	Status       WithdrawalStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	ReviewNote   string           `gorm:"type:text" json:"review_note,omitempty"`
	FailReason   string           `gorm:"type:text" json:"fail_reason,omitempty"`
	TransferNo   *string          `gorm:"type:varchar(100);uniqueIndex" json:"transfer_no,omitempty"`
	ReviewedBy   *uuid.UUID       `gorm:"type:uuid" json:"reviewed_by,omitempty"`
	ReviewedAt   *time.Time       `json:"reviewed_at,omitempty"`
	CompletedAt  *time.Time       `json:"completed_at,omitempty"`
}

// MaskedAccount returns the destination account safe for display and logs
func (w *Withdrawal) MaskedAccount() MaskedAccount {
	return MaskAccount(w.Account)
}

// ActiveWithdrawalStatuses are the states whose amounts are held against
// the wallet's reserved bucket.
var ActiveWithdrawalStatuses = []WithdrawalStatus{
	WithdrawalStatusPending,
	WithdrawalStatusApproved,
	WithdrawalStatusProcessing,
}
