// Package billing holds user accounts and the transaction-ID based
// subscription scheme: a payment reference unlocks access for a period
// derived from the amount paid.
package billing

import (
	"errors"
	"time"
)

var (
	ErrInsufficientAmount = errors.New("billing: insufficient amount paid")
	ErrTxnNotFound        = errors.New("billing: transaction not found")
	ErrTxnUsed            = errors.New("billing: transaction already used by another number")
	ErrUserNotFound       = errors.New("billing: user not found")
	ErrAccessExpired      = errors.New("billing: access expired")
	ErrAccountDisabled    = errors.New("billing: account disabled")
)

// PlanDuration maps a payment amount to a subscription period.
func PlanDuration(amount float64) (time.Duration, error) {
	const day = 24 * time.Hour
	switch {
	case amount >= 100:
		return 90 * day, nil
	case amount >= 50:
		return 30 * day, nil
	case amount < 20:
		return 0, ErrInsufficientAmount
	default:
		return 7 * day, nil
	}
}
