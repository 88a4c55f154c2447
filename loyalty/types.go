/*
Package loyalty provides the core points engine for the ordering platform.

PURPOSE:
  This package contains the domain types and algorithms for the loyalty
  program: computing points earned from order totals, maintaining per-customer
  balances, and recording an auditable history of every earn and redeem.

KEY CONCEPTS IN THIS FILE (types.go):
  - CustomerID: The national-ID string that keys every account
  - Points: An integer point quantity (never fractional)
  - Account: A customer's current balance
  - LedgerEntry: An immutable record of one earn or redeem
  - EarnRule: How order totals convert into points

DESIGN PRINCIPLES:
  1. Immutability: Ledger entries are never modified or deleted
  2. Precision: Order totals use decimal.Decimal, never float64
  3. Signed magnitude: Entries store positive points plus a kind, never
     a negative number
  4. Auditability: Every balance mutation has exactly one ledger entry

SEE ALSO:
  - engine.go: Earn/redeem orchestration
  - store.go: Persistence interfaces
  - identity.go: Customer identifier validation
*/
package loyalty

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS AND QUANTITIES
// =============================================================================

// CustomerID is a national identity number, 7-8 ASCII digits with no
// leading zero. See ValidateCustomerID.
type CustomerID string

// Points is a whole point quantity. Balances are always >= 0; ledger
// entries always carry a positive magnitude.
type Points int64

// EntryKind distinguishes credits from debits in the history log.
type EntryKind string

const (
	KindEarn   EntryKind = "earn"
	KindRedeem EntryKind = "redeem"
)

// =============================================================================
// ACCOUNT - Current balance per customer
// =============================================================================

// Account is the durable balance record for one customer. It is created
// lazily on first earn and never deleted.
//
// INVARIANT: Balance >= 0 at all times. Any operation that would break
// this fails with ErrInsufficientPoints and leaves the account untouched.
type Account struct {
	CustomerID CustomerID
	Balance    Points
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// =============================================================================
// LEDGER ENTRY - Immutable audit record of one balance mutation
// =============================================================================

// LedgerEntry records a single earn or redeem. Entries are append-only:
// every entry corresponds 1:1 to a committed balance mutation, written in
// the same atomic unit as the mutation itself.
type LedgerEntry struct {
	ID         string
	CustomerID CustomerID
	Kind       EntryKind
	Points     Points // positive magnitude; sign implied by Kind
	Reference  string // order ID for earns, reward ID for redeems
	CreatedAt  time.Time
}

// Delta returns the signed effect of the entry on a balance.
func (e LedgerEntry) Delta() Points {
	if e.Kind == KindRedeem {
		return -e.Points
	}
	return e.Points
}

// =============================================================================
// EXTERNAL COLLABORATOR VIEWS
// =============================================================================

// Reward is the engine's read-only view of a catalog reward. The engine
// only consumes the point cost and the active flag.
type Reward struct {
	ID         string
	Name       string
	CostPoints Points
	Active     bool
}

// OrderRef is the engine's view of a fulfilled order. The fulfillment hook
// supplies it; the engine reads the total, the guest identifier, and the
// one-shot guard flag.
type OrderRef struct {
	ID           string
	CustomerID   string // optional; empty means a walk-in guest, no earning
	TotalAmount  decimal.Decimal
	PointsEarned bool
}

// =============================================================================
// EARN RULE - Order total to points conversion
// =============================================================================

// EarnRule converts an order total into points: PointsPerThreshold points
// for every full AmountThreshold of currency spent. Fractions of a
// threshold are discarded, not rounded.
type EarnRule struct {
	AmountThreshold    decimal.Decimal
	PointsPerThreshold Points
}

// DefaultEarnRule is 50 points per full 1000 units of currency.
func DefaultEarnRule() EarnRule {
	return EarnRule{
		AmountThreshold:    decimal.NewFromInt(1000),
		PointsPerThreshold: 50,
	}
}

// PointsFor computes the points earned for an order total. Totals below
// one threshold (including zero and negative totals) earn nothing.
func (r EarnRule) PointsFor(total decimal.Decimal) Points {
	if r.AmountThreshold.Sign() <= 0 || total.Sign() <= 0 {
		return 0
	}
	steps := total.Div(r.AmountThreshold).Floor()
	return Points(steps.IntPart()) * r.PointsPerThreshold
}
