package notify

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/peihutong/backend/internal/models"
	"github.com/peihutong/backend/internal/queue"
)

// StatusChangedEvent is the payload delivered to the provider-facing
// messaging channel when a withdrawal reaches a terminal status. Account
// data is masked before it leaves the service.
type StatusChangedEvent struct {
	WithdrawalID uuid.UUID               `json:"withdrawal_id"`
	WalletID     uuid.UUID               `json:"wallet_id"`
	Status       models.WithdrawalStatus `json:"status"`
	Amount       string                  `json:"amount"`
	ActualAmount string                  `json:"actual_amount"`
	Account      models.MaskedAccount    `json:"account"`
	Reason       string                  `json:"reason,omitempty"`
	OccurredAt   time.Time               `json:"occurred_at"`
}

// Service publishes withdrawal status events onto the notification queue.
// Delivery is fire-and-forget: the caller logs failures and moves on.
type Service struct {
	queue *queue.Queue
}

// NewService creates a new notification service
func NewService(q *queue.Queue) *Service {
	return &Service{queue: q}
}

// WithdrawalStatusChanged enqueues a terminal-status event for the provider
func (s *Service) WithdrawalStatusChanged(w *models.Withdrawal) error {
	reason := w.ReviewNote
	if w.Status == models.WithdrawalStatusFailed {
		reason = w.FailReason
	}

	event := StatusChangedEvent{
		WithdrawalID: w.ID,
		WalletID:     w.WalletID,
		Status:       w.Status,
		Amount:       w.Amount.String(),
		ActualAmount: w.ActualAmount.String(),
		Account:      w.MaskedAccount(),
		Reason:       reason,
		OccurredAt:   time.Now(),
	}

	_, err := s.queue.Enqueue(context.Background(), queue.QueueWithdrawalNotify, event)
	if err != nil {
		return fmt.Errorf("failed to enqueue withdrawal notification: %w", err)
	}
	return nil
}

// RunWorker drains the notification queue until ctx is cancelled. The real
// delivery channel (SMS, app push) hangs off this worker; here it logs the
// outbound event.
func (s *Service) RunWorker(ctx context.Context) {
	s.queue.Process(ctx, queue.QueueWithdrawalNotify, func(ctx context.Context, job *queue.Job) error {
		log.Printf("Delivering withdrawal notification %s: %s", job.ID, string(job.Payload))
		return nil
	})
}
