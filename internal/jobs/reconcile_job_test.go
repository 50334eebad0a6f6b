package jobs

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/peihutong/backend/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.Wallet{}, &models.Withdrawal{}))
	return db
}

func createWallet(t *testing.T, db *gorm.DB, reserved string) *models.Wallet {
	w := &models.Wallet{
		ProviderID: uuid.New(),
		Currency:   models.CurrencyCNY,
		Available:  decimal.RequireFromString("1000"),
		Reserved:   decimal.RequireFromString(reserved),
	}
	require.NoError(t, db.Create(w).Error)
	return w
}

func createWithdrawal(t *testing.T, db *gorm.DB, walletID uuid.UUID, amount string, status models.WithdrawalStatus) {
	w := &models.Withdrawal{
		WalletID:     walletID,
		Amount:       decimal.RequireFromString(amount),
		Fee:          decimal.Zero,
		ActualAmount: decimal.RequireFromString(amount),
		Method:       models.WithdrawalMethodBankTransfer,
		Account:      "6222021234567890123",
		Status:       status,
	}
	require.NoError(t, db.Create(w).Error)
}

func TestReconcileRunCleanLedger(t *testing.T) {
	db := setupTestDB(t)
	job := NewReconcileJob(db)

	w := createWallet(t, db, "300")
	createWithdrawal(t, db, w.ID, "200", models.WithdrawalStatusPending)
	createWithdrawal(t, db, w.ID, "100", models.WithdrawalStatusProcessing)
	// terminal rows do not count against the reservation
	createWithdrawal(t, db, w.ID, "50", models.WithdrawalStatusRejected)
	createWithdrawal(t, db, w.ID, "75", models.WithdrawalStatusCompleted)

	mismatches, err := job.Run()
	require.NoError(t, err)
	assert.Equal(t, 0, mismatches)
}

func TestReconcileRunDetectsLeakedReservation(t *testing.T) {
	db := setupTestDB(t)
	job := NewReconcileJob(db)

	leaked := createWallet(t, db, "500")
	createWithdrawal(t, db, leaked.ID, "200", models.WithdrawalStatusApproved)

	clean := createWallet(t, db, "0")
	createWithdrawal(t, db, clean.ID, "120", models.WithdrawalStatusFailed)

	mismatches, err := job.Run()
	require.NoError(t, err)
	assert.Equal(t, 1, mismatches)
}
