package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Currency represents supported settlement currencies
type Currency string

const (
	CurrencyCNY Currency = "CNY"
	CurrencyUSD Currency = "USD"
)

// Wallet represents a service provider's earned balance, split into the
// amount they can still request against (available) and the amount held
// for withdrawals in flight (reserved). The two buckets are only ever
// moved by the reservation guard in services/wallet.
type Wallet struct {
	Base
	ProviderID uuid.UUID       `gorm:"type:uuid;uniqueIndex;not null" json:"provider_id"`
	Currency   Currency        `gorm:"type:varchar(3);not null;default:CNY" json:"currency"`
	Available  decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"available"`
	Reserved   decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"reserved"`
}
