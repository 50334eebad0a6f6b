package withdrawal

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when the withdrawal id is unknown
	ErrNotFound = errors.New("withdrawal not found")

	// ErrForbidden is returned when the operator lacks the withdrawal
	// review permission; no mutation has happened
	ErrForbidden = errors.New("operator not permitted to review withdrawals")

	// ErrValidation is returned for invalid human input: a missing note or
	// reason, a confirmation text mismatch, a malformed request. The caller
	// should correct the input; nothing was mutated.
	ErrValidation = errors.New("validation failed")

	// ErrConflict is returned when the requested transition is illegal for
	// the record's current status, or when a transfer reference is already
	// bound to another request. The caller must re-fetch the record and
	// decide; the service never retries a conflicting financial action.
	ErrConflict = errors.New("conflicting withdrawal state")
)

// uniqueViolation is the postgres SQLSTATE for a unique index violation
const uniqueViolation = "23505"

// isUniqueViolation reports whether err is a unique index violation. The
// gorm translation covers drivers that opt in; the pgconn and message
// checks cover raw driver errors.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint")
}
