package audit

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/peihutong/backend/internal/models"
)

// Service appends immutable audit and operation log rows. Appends always
// run inside the caller's transaction so a transition that is not logged
// cannot become visible, and a logged transition that did not commit
// cannot exist.
type Service struct {
	db *gorm.DB
}

// NewService creates a new audit log writer
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// AppendWithTx writes a single audit entry inside the caller's transaction.
// Detail must already be masked; this writer never sees raw account data.
func (s *Service) AppendWithTx(tx *gorm.DB, entry *models.AuditLog) error {
	if err := tx.Create(entry).Error; err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	return nil
}

// AppendTransitionWithTx writes the audit entry and the operation log entry
// for a status change, both inside the caller's transaction.
func (s *Service) AppendTransitionWithTx(tx *gorm.DB, operatorID uuid.UUID, action string, w *models.Withdrawal, from models.WithdrawalStatus, note string) error {
	detail := models.JSON{
		"amount":  w.Amount.String(),
		"fee":     w.Fee.String(),
		"method":  string(w.Method),
		"account": w.MaskedAccount().String(),
	}
	if w.TransferNo != nil {
		detail["transfer_no"] = *w.TransferNo
	}
	if note != "" {
		detail["note"] = note
	}

	withdrawalID := w.ID
	entry := &models.AuditLog{
		ActorID:      operatorID,
		ActorType:    models.ActorTypeOperator,
		Action:       action,
		WithdrawalID: &withdrawalID,
		BeforeStatus: string(from),
		AfterStatus:  string(w.Status),
		Detail:       detail,
	}
	if err := s.AppendWithTx(tx, entry); err != nil {
		return err
	}

	opLog := &models.OperationLog{
		OperatorID:   operatorID,
		Action:       action,
		WithdrawalID: w.ID,
		FromStatus:   from,
		ToStatus:     w.Status,
		Note:         note,
	}
	if err := tx.Create(opLog).Error; err != nil {
		return fmt.Errorf("failed to create operation log: %w", err)
	}
	return nil
}

// AppendRequestWithTx writes the audit entry for a provider-side request
// creation inside the caller's transaction.
func (s *Service) AppendRequestWithTx(tx *gorm.DB, providerID uuid.UUID, w *models.Withdrawal) error {
	withdrawalID := w.ID
	entry := &models.AuditLog{
		ActorID:      providerID,
		ActorType:    models.ActorTypeProvider,
		Action:       "request_withdrawal",
		WithdrawalID: &withdrawalID,
		AfterStatus:  string(w.Status),
		Detail: models.JSON{
			"amount":  w.Amount.String(),
			"fee":     w.Fee.String(),
			"method":  string(w.Method),
			"account": w.MaskedAccount().String(),
		},
	}
	return s.AppendWithTx(tx, entry)
}
