package wallet

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/peihutong/backend/internal/models"
)

var (
	// ErrWalletNotFound is returned when the wallet row does not exist
	ErrWalletNotFound = errors.New("wallet not found")

	// ErrInsufficientBalance is returned when a reservation exceeds the
	// available bucket
	ErrInsufficientBalance = errors.New("insufficient available balance")

	// ErrReservationMismatch is returned when a release or commit exceeds
	// the reserved bucket. Every reservation is balanced by exactly one
	// release or commit, so hitting this means the accounting is broken
	// and the caller must abort its transaction.
	ErrReservationMismatch = errors.New("reserved bucket cannot cover the movement")
)

// Service is the balance reservation guard: the only component allowed to
// move funds between a wallet's available and reserved buckets. Every
// mutation is a single guarded UPDATE using in-database arithmetic, so
// concurrent movements on the same wallet serialize on the row instead of
// aborting each other. It must run inside the same transaction as the
// withdrawal row it balances.
type Service struct {
	db *gorm.DB
}

// NewService creates a new wallet service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// GetOrCreateWallet gets a provider's wallet or creates an empty one
func (s *Service) GetOrCreateWallet(providerID uuid.UUID, currency models.Currency) (*models.Wallet, error) {
	var wallet models.Wallet

	err := s.db.Where("provider_id = ?", providerID).First(&wallet).Error
	if err == nil {
		return &wallet, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("error finding wallet: %w", err)
	}

	wallet = models.Wallet{
		ProviderID: providerID,
		Currency:   currency,
		Available:  decimal.Zero,
		Reserved:   decimal.Zero,
	}
	if err := s.db.Create(&wallet).Error; err != nil {
		return nil, fmt.Errorf("error creating wallet: %w", err)
	}
	return &wallet, nil
}

// GetWallet gets a specific wallet by ID
func (s *Service) GetWallet(walletID uuid.UUID) (*models.Wallet, error) {
	return s.GetWalletWithTx(s.db, walletID)
}

// GetWalletWithTx reads a wallet inside the caller's transaction so the
// read shares the transaction's snapshot
func (s *Service) GetWalletWithTx(tx *gorm.DB, walletID uuid.UUID) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := tx.First(&wallet, "id = ?", walletID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("error finding wallet: %w", err)
	}
	return &wallet, nil
}

// GetAvailableBalance returns the provider-spendable bucket of a wallet
func (s *Service) GetAvailableBalance(walletID uuid.UUID) (decimal.Decimal, error) {
	wallet, err := s.GetWallet(walletID)
	if err != nil {
		return decimal.Zero, err
	}
	return wallet.Available, nil
}

// ReserveWithTx moves amount from available to reserved inside the caller's
// transaction. Fails with ErrInsufficientBalance when the available bucket
// cannot cover the amount.
func (s *Service) ReserveWithTx(tx *gorm.DB, walletID uuid.UUID, amount decimal.Decimal) error {
	return s.move(tx, walletID,
		"available >= ?",
		gorm.Expr("available - ?", amount),
		gorm.Expr("reserved + ?", amount),
		amount, ErrInsufficientBalance)
}

// ReleaseWithTx returns amount from reserved to available inside the
// caller's transaction. Used when a request ends without a payout.
func (s *Service) ReleaseWithTx(tx *gorm.DB, walletID uuid.UUID, amount decimal.Decimal) error {
	return s.move(tx, walletID,
		"reserved >= ?",
		gorm.Expr("available + ?", amount),
		gorm.Expr("reserved - ?", amount),
		amount, ErrReservationMismatch)
}

// CommitWithTx permanently removes amount from the reserved bucket inside
// the caller's transaction. Funds leave the wallet; there is no way back
// through this service.
func (s *Service) CommitWithTx(tx *gorm.DB, walletID uuid.UUID, amount decimal.Decimal) error {
	return s.move(tx, walletID,
		"reserved >= ?",
		gorm.Expr("available"),
		gorm.Expr("reserved - ?", amount),
		amount, ErrReservationMismatch)
}

// move applies one guarded bucket movement as a single UPDATE. The
// arithmetic runs in the database, so two transactions moving funds on the
// same wallet queue on the row write lock and both apply; only a guard that
// genuinely cannot be satisfied fails. Zero rows affected means the guard
// failed or the wallet does not exist; a follow-up read tells them apart.
func (s *Service) move(tx *gorm.DB, walletID uuid.UUID, guard string, available, reserved interface{}, amount decimal.Decimal, guardErr error) error {
	result := tx.Model(&models.Wallet{}).
		Where("id = ? AND "+guard, walletID, amount).
		Updates(map[string]interface{}{
			"available": available,
			"reserved":  reserved,
		})
	if result.Error != nil {
		return fmt.Errorf("error updating wallet balance: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := tx.Model(&models.Wallet{}).Where("id = ?", walletID).Count(&count).Error; err != nil {
			return fmt.Errorf("error checking wallet: %w", err)
		}
		if count == 0 {
			return ErrWalletNotFound
		}
		return fmt.Errorf("cannot move %s: %w", amount, guardErr)
	}
	return nil
}
