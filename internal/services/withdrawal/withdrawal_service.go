package withdrawal

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/peihutong/backend/internal/models"
	"github.com/peihutong/backend/internal/services/audit"
	"github.com/peihutong/backend/internal/services/wallet"
)

// DefaultConfirmText is the literal an operator must type before a
// settlement is finalized
const DefaultConfirmText = "CONFIRM"

// Notifier publishes a fire-and-forget event when a withdrawal reaches a
// terminal status. Delivery failures never roll back the transition.
type Notifier interface {
	WithdrawalStatusChanged(w *models.Withdrawal) error
}

// Config holds the tunables of the review and payout flow
type Config struct {
	// ConfirmText is the exact string an operator must supply to
	// ConfirmTransfer before a settlement is finalized.
	ConfirmText string

	// FeeRate is the flat channel fee rate applied once at request time
	FeeRate decimal.Decimal
}

// Service orchestrates the withdrawal review and payout state machine.
// Every public operation is one atomic unit of work: read the current
// status, validate the transition, mutate the record and the wallet
// buckets, append the audit and operation logs, commit. No partial result
// is ever visible to other callers.
type Service struct {
	db       *gorm.DB
	wallets  *wallet.Service
	audit    *audit.Service
	perms    PermissionChecker
	notifier Notifier
	cfg      Config
}

// NewService creates a new withdrawal service
func NewService(db *gorm.DB, wallets *wallet.Service, auditSvc *audit.Service, perms PermissionChecker, notifier Notifier, cfg Config) *Service {
	if cfg.ConfirmText == "" {
		cfg.ConfirmText = DefaultConfirmText
	}
	return &Service{
		db:       db,
		wallets:  wallets,
		audit:    auditSvc,
		perms:    perms,
		notifier: notifier,
		cfg:      cfg,
	}
}

// RequestWithdrawal is the provider-facing entry point: it computes the
// channel fee, reserves the gross amount against the wallet and creates
// the pending record, all in one transaction. This is the single reserve
// that a later commit or release must balance.
func (s *Service) RequestWithdrawal(providerID, walletID uuid.UUID, amount decimal.Decimal, method models.WithdrawalMethod, account string) (*models.Withdrawal, error) {
	account = strings.TrimSpace(account)
	switch {
	case !amount.IsPositive():
		return nil, fmt.Errorf("%w: amount must be positive", ErrValidation)
	case !method.Valid():
		return nil, fmt.Errorf("%w: unknown payout method %q", ErrValidation, method)
	case account == "":
		return nil, fmt.Errorf("%w: destination account is required", ErrValidation)
	}

	fee := amount.Mul(s.cfg.FeeRate).Round(2)
	actual := amount.Sub(fee)
	if actual.IsNegative() {
		return nil, fmt.Errorf("%w: fee %s exceeds amount %s", ErrValidation, fee, amount)
	}

	var w models.Withdrawal
	err := s.db.Transaction(func(tx *gorm.DB) error {
		owned, err := s.wallets.GetWalletWithTx(tx, walletID)
		if err != nil {
			return err
		}
		if owned.ProviderID != providerID {
			return ErrForbidden
		}

		if err := s.wallets.ReserveWithTx(tx, walletID, amount); err != nil {
			return err
		}

		w = models.Withdrawal{
			WalletID:     walletID,
			Amount:       amount,
			Fee:          fee,
			ActualAmount: actual,
			Method:       method,
			Account:      account,
			Status:       models.WithdrawalStatusPending,
		}
		if err := tx.Create(&w).Error; err != nil {
			return fmt.Errorf("error creating withdrawal: %w", err)
		}
		return s.audit.AppendRequestWithTx(tx, providerID, &w)
	})
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// Review applies an operator's approve or reject decision to a pending
// request. Rejecting requires a non-empty note and releases the
// reservation back to the available bucket.
func (s *Service) Review(id, operatorID uuid.UUID, action Action, note string) (*models.Withdrawal, error) {
	if action != ActionApprove && action != ActionReject {
		return nil, fmt.Errorf("%w: review action must be %s or %s", ErrValidation, ActionApprove, ActionReject)
	}
	note = strings.TrimSpace(note)
	if action == ActionReject && note == "" {
		return nil, fmt.Errorf("%w: a review note is required to reject", ErrValidation)
	}

	return s.execute(id, operatorID, mutation{
		action: action,
		note:   note,
		apply: func(tx *gorm.DB, w *models.Withdrawal, next models.WithdrawalStatus) error {
			from := w.Status
			now := time.Now()
			updates := map[string]interface{}{
				"status":      next,
				"review_note": note,
				"reviewed_at": now,
				"reviewed_by": operatorID,
			}
			if err := applyStatus(tx, w, from, updates); err != nil {
				return err
			}
			if next == models.WithdrawalStatusRejected {
				return s.wallets.ReleaseWithTx(tx, w.WalletID, w.Amount)
			}
			return nil
		},
	})
}

// BeginTransfer marks an approved request as being paid out through the
// external channel
func (s *Service) BeginTransfer(id, operatorID uuid.UUID) (*models.Withdrawal, error) {
	return s.execute(id, operatorID, mutation{
		action: ActionBeginTransfer,
		apply: func(tx *gorm.DB, w *models.Withdrawal, next models.WithdrawalStatus) error {
			return applyStatus(tx, w, w.Status, map[string]interface{}{"status": next})
		},
	})
}

// ConfirmTransfer records the payout channel's transaction reference and
// finalizes the request: the reservation is committed and the funds leave
// the wallet permanently. The operator must retype the confirmation text
// first. Confirming again with the same reference is a no-op success;
// a reference already bound to a different request is a conflict.
func (s *Service) ConfirmTransfer(id, operatorID uuid.UUID, transferNo, confirmText string) (*models.Withdrawal, error) {
	if confirmText != s.cfg.ConfirmText {
		return nil, fmt.Errorf("%w: confirmation text does not match", ErrValidation)
	}
	transferNo = strings.TrimSpace(transferNo)
	if transferNo == "" {
		return nil, fmt.Errorf("%w: transfer reference is required", ErrValidation)
	}

	return s.execute(id, operatorID, mutation{
		action:         ActionConfirmTransfer,
		sameTransferNo: transferNo,
		apply: func(tx *gorm.DB, w *models.Withdrawal, next models.WithdrawalStatus) error {
			var count int64
			if err := tx.Model(&models.Withdrawal{}).
				Where("transfer_no = ? AND id <> ?", transferNo, w.ID).
				Count(&count).Error; err != nil {
				return fmt.Errorf("error checking transfer reference: %w", err)
			}
			if count > 0 {
				return fmt.Errorf("%w: transfer reference %s is already used by another request", ErrConflict, transferNo)
			}

			from := w.Status
			now := time.Now()
			updates := map[string]interface{}{
				"status":       next,
				"transfer_no":  transferNo,
				"completed_at": now,
			}
			if err := applyStatus(tx, w, from, updates); err != nil {
				return err
			}
			return s.wallets.CommitWithTx(tx, w.WalletID, w.Amount)
		},
	})
}

// MarkFailed records that the external payout did not go through and
// returns the reservation to the available bucket
func (s *Service) MarkFailed(id, operatorID uuid.UUID, failReason string) (*models.Withdrawal, error) {
	failReason = strings.TrimSpace(failReason)
	if failReason == "" {
		return nil, fmt.Errorf("%w: a failure reason is required", ErrValidation)
	}

	return s.execute(id, operatorID, mutation{
		action: ActionMarkFailed,
		note:   failReason,
		apply: func(tx *gorm.DB, w *models.Withdrawal, next models.WithdrawalStatus) error {
			from := w.Status
			updates := map[string]interface{}{
				"status":      next,
				"fail_reason": failReason,
			}
			if err := applyStatus(tx, w, from, updates); err != nil {
				return err
			}
			return s.wallets.ReleaseWithTx(tx, w.WalletID, w.Amount)
		},
	})
}

// Get loads a withdrawal by id
func (s *Service) Get(id uuid.UUID) (*models.Withdrawal, error) {
	var w models.Withdrawal
	if err := s.db.First(&w, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error finding withdrawal: %w", err)
	}
	return &w, nil
}

// maxPageSize caps a single listing page
const maxPageSize = 100

// List returns withdrawals for the back office, optionally filtered by
// status, newest first. Page numbers start at 1; out-of-range paging
// values are clamped rather than rejected.
func (s *Service) List(status models.WithdrawalStatus, page, pageSize int) ([]models.Withdrawal, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	} else if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	query := s.db.Model(&models.Withdrawal{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("error counting withdrawals: %w", err)
	}

	var withdrawals []models.Withdrawal
	offset := (page - 1) * pageSize
	if err := query.Order("created_at DESC").Offset(offset).Limit(pageSize).Find(&withdrawals).Error; err != nil {
		return nil, 0, fmt.Errorf("error finding withdrawals: %w", err)
	}
	return withdrawals, total, nil
}

// mutation describes one status change for execute. sameTransferNo, when
// set, makes a row already completed with that reference a no-op success
// instead of a conflict, which is what makes ConfirmTransfer safe to retry.
type mutation struct {
	action         Action
	note           string
	sameTransferNo string
	apply          func(tx *gorm.DB, w *models.Withdrawal, next models.WithdrawalStatus) error
}

// execute is the single unit of work every status mutation goes through:
// permission check first, then one transaction that loads the current row,
// validates the transition, runs the mutation and appends the audit and
// operation log entries. Validation happens strictly before any mutation,
// so an error can never leave a partial trace.
func (s *Service) execute(id, operatorID uuid.UUID, m mutation) (*models.Withdrawal, error) {
	allowed, err := s.perms.CanReviewWithdrawals(operatorID)
	if err != nil {
		return nil, fmt.Errorf("permission check failed: %w", err)
	}
	if !allowed {
		return nil, ErrForbidden
	}

	var w models.Withdrawal
	alreadyApplied := false
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&w, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("error finding withdrawal: %w", err)
		}

		if m.sameTransferNo != "" && w.Status == models.WithdrawalStatusCompleted &&
			w.TransferNo != nil && *w.TransferNo == m.sameTransferNo {
			alreadyApplied = true
			return nil
		}

		from := w.Status
		next, err := NextStatus(from, m.action)
		if err != nil {
			return err
		}
		if err := m.apply(tx, &w, next); err != nil {
			return err
		}
		return s.audit.AppendTransitionWithTx(tx, operatorID, string(m.action), &w, from, m.note)
	})
	if err != nil {
		return nil, err
	}

	if !alreadyApplied && w.Status.Terminal() {
		s.notifyStatusChange(&w)
	}
	return &w, nil
}

// applyStatus flips the row from the status that was just read with a
// conditional update. Zero rows affected means another operator got there
// first; the loser receives a conflict and must re-fetch, never a silent
// overwrite. The row is re-read so the caller returns current data.
func applyStatus(tx *gorm.DB, w *models.Withdrawal, from models.WithdrawalStatus, updates map[string]interface{}) error {
	result := tx.Model(&models.Withdrawal{}).
		Where("id = ? AND status = ?", w.ID, from).
		Updates(updates)
	if result.Error != nil {
		// Two in-flight confirms with the same reference on different rows
		// both pass the pre-read; the unique index catches the loser here.
		if isUniqueViolation(result.Error) {
			return fmt.Errorf("%w: transfer reference is already used by another request", ErrConflict)
		}
		return fmt.Errorf("error updating withdrawal: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: withdrawal was already transitioned by another operator", ErrConflict)
	}
	if err := tx.First(w, "id = ?", w.ID).Error; err != nil {
		return fmt.Errorf("error reloading withdrawal: %w", err)
	}
	return nil
}

func (s *Service) notifyStatusChange(w *models.Withdrawal) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.WithdrawalStatusChanged(w); err != nil {
		log.Printf("Failed to publish withdrawal %s status notification: %v", w.ID, err)
	}
}
