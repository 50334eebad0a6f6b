package jobs

import (
	"log"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/peihutong/backend/internal/models"
)

// ReconcileJob periodically checks that each wallet's reserved balance
// equals the sum of its in-flight withdrawal amounts. A mismatch means a
// reservation was leaked or double-applied and needs manual attention.
type ReconcileJob struct {
	db        *gorm.DB
	scheduler *gocron.Scheduler
}

// NewReconcileJob creates a new reconciliation job
func NewReconcileJob(db *gorm.DB) *ReconcileJob {
	return &ReconcileJob{
		db:        db,
		scheduler: gocron.NewScheduler(time.UTC),
	}
}

// Start schedules the reconciliation sweep at the given interval
func (j *ReconcileJob) Start(intervalMinutes int) {
	if intervalMinutes <= 0 {
		intervalMinutes = 30
	}
	j.scheduler.Every(intervalMinutes).Minutes().Do(func() {
		if mismatches, err := j.Run(); err != nil {
			log.Printf("reconciliation sweep failed: %v", err)
		} else if mismatches > 0 {
			log.Printf("reconciliation sweep found %d wallet(s) with mismatched reservations", mismatches)
		}
	})
	j.scheduler.StartAsync()
}

// Stop stops the scheduler
func (j *ReconcileJob) Stop() {
	j.scheduler.Stop()
}

// Run performs a single sweep and returns the number of mismatched wallets
func (j *ReconcileJob) Run() (int, error) {
	var wallets []models.Wallet
	if err := j.db.Find(&wallets).Error; err != nil {
		return 0, err
	}

	mismatches := 0
	for i := range wallets {
		w := &wallets[i]

		var withdrawals []models.Withdrawal
		err := j.db.
			Where("wallet_id = ? AND status IN ?", w.ID, models.ActiveWithdrawalStatuses).
			Find(&withdrawals).Error
		if err != nil {
			return mismatches, err
		}

		inFlight := decimal.Zero
		for _, wd := range withdrawals {
			inFlight = inFlight.Add(wd.Amount)
		}

		if !w.Reserved.Equal(inFlight) {
			mismatches++
			log.Printf("wallet %s reserved %s does not match in-flight withdrawals %s",
				w.ID, w.Reserved, inFlight)
		}
	}
	return mismatches, nil
}
