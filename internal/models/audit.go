package models

import (
	"github.com/google/uuid"
)

// ActorType identifies who performed an audited action
type ActorType string

const (
	ActorTypeOperator ActorType = "operator"
	ActorTypeProvider ActorType = "provider"
)

// AuditLog is an append-only record of every mutating call on the
// withdrawal subsystem. Rows are written in the same transaction as the
// state change they describe and are never updated or deleted. Sensitive
// fields in Detail are masked before the row is built.
type AuditLog struct {
	Base
	ActorID      uuid.UUID  `gorm:"type:uuid;index;not null" json:"actor_id"`
	ActorType    ActorType  `gorm:"type:varchar(20);not null" json:"actor_type"`
	Action       string     `gorm:"type:varchar(50);not null" json:"action"`
	WithdrawalID *uuid.UUID `gorm:"type:uuid;index" json:"withdrawal_id,omitempty"`
	BeforeStatus string     `gorm:"type:varchar(20)" json:"before_status,omitempty"`
	AfterStatus  string     `gorm:"type:varchar(20)" json:"after_status,omitempty"`
	Detail       JSON       `gorm:"type:jsonb" json:"detail,omitempty"`
}

// OperationLog is an append-only record of each status change, one row per
// transition, keyed by the operator who caused it.
type OperationLog struct {
	Base
	OperatorID   uuid.UUID        `gorm:"type:uuid;index;not null" json:"operator_id"`
	Action       string           `gorm:"type:varchar(50);not null" json:"action"`
	WithdrawalID uuid.UUID        `gorm:"type:uuid;index;not null" json:"withdrawal_id"`
	FromStatus   WithdrawalStatus `gorm:"type:varchar(20);not null" json:"from_status"`
	ToStatus     WithdrawalStatus `gorm:"type:varchar(20);not null" json:"to_status"`
	Note         string           `gorm:"type:text" json:"note,omitempty"`
}
