package withdrawal

import (
	"fmt"

	"github.com/peihutong/backend/internal/models"
)

// Action is an operator-requested transition on a withdrawal request.
// The set is closed: adding a state or action means extending the
// transition table below, and the exhaustive tests force every pair to be
// accounted for.
type Action string

const (
	ActionApprove         Action = "approve"
	ActionReject          Action = "reject"
	ActionBeginTransfer   Action = "begin_transfer"
	ActionConfirmTransfer Action = "confirm_transfer"
	ActionMarkFailed      Action = "mark_failed"
)

// Actions lists every action the state machine knows about
var Actions = []Action{
	ActionApprove,
	ActionReject,
	ActionBeginTransfer,
	ActionConfirmTransfer,
	ActionMarkFailed,
}

// transitions is the full state machine: from-status -> action -> to-status.
// Absence means the pair is rejected.
var transitions = map[models.WithdrawalStatus]map[Action]models.WithdrawalStatus{
	models.WithdrawalStatusPending: {
		ActionApprove: models.WithdrawalStatusApproved,
		ActionReject:  models.WithdrawalStatusRejected,
	},
	models.WithdrawalStatusApproved: {
		ActionBeginTransfer:   models.WithdrawalStatusProcessing,
		ActionConfirmTransfer: models.WithdrawalStatusCompleted,
		ActionMarkFailed:      models.WithdrawalStatusFailed,
	},
	models.WithdrawalStatusProcessing: {
		ActionConfirmTransfer: models.WithdrawalStatusCompleted,
		ActionMarkFailed:      models.WithdrawalStatusFailed,
	},
}

// NextStatus validates a requested action against the current status and
// returns the resulting status. It is pure: no storage is consulted. An
// unlisted pair returns ErrConflict, never a silent no-op, because the
// record may have been transitioned by a concurrent operator and the
// caller must re-fetch before deciding.
func NextStatus(current models.WithdrawalStatus, action Action) (models.WithdrawalStatus, error) {
	next, ok := transitions[current][action]
	if !ok {
		return "", fmt.Errorf("%w: cannot %s a %s withdrawal", ErrConflict, action, current)
	}
	return next, nil
}
