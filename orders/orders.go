/*
Package orders owns the order lifecycle for the ordering platform.

PURPOSE:
  Orders move pending -> processing -> {delivered, cancelled}. The one
  interesting seam is fulfillment: when an order reaches delivered, the
  hook fires the loyalty engine exactly once to credit points.

FAILURE CONTAINMENT:
  Point crediting must never block fulfillment. The hook logs engine
  failures and lets the status transition stand; the order's unset earn
  guard means a later replay can safely retry the credit.

SEE ALSO:
  - loyalty/engine.go: CreditForOrder and its idempotency guard
  - store/sqlite/sqlite.go: Order persistence
*/
package orders

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// STATUS MACHINE
// =============================================================================

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// CanTransitionTo reports whether next is a legal transition. Delivered
// and cancelled are terminal.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusProcessing || next == StatusCancelled
	case StatusProcessing:
		return next == StatusDelivered || next == StatusCancelled
	default:
		return false
	}
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// =============================================================================
// ORDER
// =============================================================================

// Item is one line of an order.
type Item struct {
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// Order is a customer order. CustomerID is the optional guest national
// ID; empty means a walk-in with no loyalty earning. PointsEarned is the
// one-shot guard: once true, the order never earns again.
type Order struct {
	ID           string
	CustomerID   string
	Items        []Item
	TotalAmount  decimal.Decimal
	Status       Status
	PointsEarned bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// New creates a pending order with a fresh ID and a server-computed total.
func New(customerID string, items []Item) Order {
	now := time.Now().UTC()
	return Order{
		ID:          uuid.NewString(),
		CustomerID:  customerID,
		Items:       items,
		TotalAmount: Total(items),
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Total sums the line items. The total is computed server-side; client
// supplied totals are ignored.
func Total(items []Item) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}

// =============================================================================
// ERRORS
// =============================================================================

var (
	ErrNotFound = errors.New("order not found")
)

// InvalidTransitionError reports an illegal status change.
type InvalidTransitionError struct {
	From, To Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid order transition: %s -> %s", e.From, e.To)
}
