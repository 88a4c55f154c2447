/*
errors.go - Centralized error types for the loyalty engine

PURPOSE:
  All engine error types in one place for consistency and discoverability.
  Callers classify with errors.Is; structured variants carry detail.

ERROR CATEGORIES:
  1. Validation errors - Malformed input, rejected before any store access
  2. Business rejections - Reward/balance preconditions, no state change
  3. Transient errors - Concurrent commit conflicts, safe to retry
  4. Persistence errors - Store unreachable or write failed

PROPAGATION POLICY:
  Earning failures are logged and swallowed by the fulfillment hook: a
  broken points pipeline must never block an order from being delivered.
  Redemption failures always propagate: the cashier must know a redemption
  did not happen.

SEE ALSO:
  - engine.go: Produces these errors
  - api/handlers.go: Maps them to HTTP statuses
*/
package loyalty

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidIdentifier is returned for a malformed customer ID. It is
	// rejected before any store access; the caller should re-prompt.
	ErrInvalidIdentifier = errors.New("invalid customer identifier")

	// ErrRewardNotFound is returned when a redemption names an unknown reward.
	ErrRewardNotFound = errors.New("reward not found")

	// ErrRewardInactive is returned when the reward exists but is disabled.
	ErrRewardInactive = errors.New("reward inactive")

	// ErrInsufficientPoints is returned when a redemption would drive the
	// balance negative. State is left untouched.
	ErrInsufficientPoints = errors.New("insufficient points")

	// ErrConflict is returned when a concurrent update collided during an
	// atomic commit. The operation was not applied and may be retried.
	ErrConflict = errors.New("transaction conflict")

	// ErrAlreadyCredited is returned when an order's one-shot earn guard is
	// already set. This is expected behavior for replays.
	ErrAlreadyCredited = errors.New("order already credited")

	// ErrOrderNotFound is returned when the earn guard references an order
	// the store does not know.
	ErrOrderNotFound = errors.New("order not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InsufficientPointsError reports how short a redemption fell.
type InsufficientPointsError struct {
	CustomerID CustomerID
	Available  Points
	Requested  Points
}

func (e *InsufficientPointsError) Error() string {
	return fmt.Sprintf("insufficient points: available %d, requested %d", e.Available, e.Requested)
}

func (e *InsufficientPointsError) Unwrap() error {
	return ErrInsufficientPoints
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsRetryable returns true if the error might succeed on retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsClientError returns true if the error is due to invalid caller input
// or a business-rule rejection, as opposed to a store failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidIdentifier) ||
		errors.Is(err, ErrRewardNotFound) ||
		errors.Is(err, ErrRewardInactive) ||
		errors.Is(err, ErrInsufficientPoints)
}
