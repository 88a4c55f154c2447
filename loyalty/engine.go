/*
engine.go - Earn and redeem orchestration

PURPOSE:
  The Engine is the single writer of loyalty state. It computes points
  from order totals, credits accounts when orders are fulfilled, and
  debits them when rewards are redeemed - each as one atomic unit of
  balance mutation + history entry (+ order guard flag for earns).

EARNING:
  CreditForOrder is invoked by the order fulfillment hook, once per
  order. It is idempotent at the order level: the one-shot guard makes
  replays a guaranteed no-op. Failures are reported to the caller but
  the caller (the hook) logs and swallows them - a broken points
  pipeline never blocks fulfillment.

REDEMPTION:
  Redeem checks preconditions in a fixed order (identifier format,
  reward exists, reward active, sufficient balance - first failure
  wins), then debits and appends the history entry atomically. The
  sufficiency check is re-enforced by the store's conditional debit
  inside the transaction, so concurrent redeems cannot both pass.

CONFLICTS:
  A commit that collides with a concurrent writer fails with
  ErrConflict. The engine retries a bounded number of times, then
  surfaces the conflict as a try-again condition.

SEE ALSO:
  - store.go: Persistence contract
  - orders/: The fulfillment hook that drives earning
*/
package loyalty

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/crave/loyalty-engine/metrics"
)

// maxAttempts bounds the internal retry loop on ErrConflict.
const maxAttempts = 3

// Engine orchestrates all loyalty balance mutations.
type Engine struct {
	store TxStore
	rule  EarnRule
	log   *zap.Logger
	now   func() time.Time
}

// NewEngine creates an engine over the given transactional store.
func NewEngine(store TxStore, rule EarnRule, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{store: store, rule: rule, log: log, now: time.Now}
}

// Rule returns the active earn rule.
func (e *Engine) Rule() EarnRule { return e.rule }

// =============================================================================
// EARNING
// =============================================================================

// CreditResult reports the outcome of CreditForOrder.
type CreditResult struct {
	Credited bool   // false means the order was skipped
	Points   Points // points credited when Credited
	Reason   string // why the order was skipped, for logs
}

// CreditForOrder credits points for a fulfilled order.
//
// The order is skipped (no-op, no error) when its guard flag is already
// set, it has no guest identifier, or the total earns less than one
// point. A non-empty identifier that fails format validation is an
// ErrInvalidIdentifier: it indicates corrupt order data, not a guest.
//
// On success the account upsert, the history entry, and the order guard
// flag commit as one transaction. Replaying the call after a successful
// commit is a guaranteed no-op.
func (e *Engine) CreditForOrder(ctx context.Context, ord OrderRef) (CreditResult, error) {
	if ord.PointsEarned {
		return CreditResult{Reason: "already credited"}, nil
	}
	if ord.CustomerID == "" {
		return CreditResult{Reason: "no guest identifier"}, nil
	}
	if !ValidateCustomerID(ord.CustomerID) {
		return CreditResult{}, ErrInvalidIdentifier
	}

	points := e.rule.PointsFor(ord.TotalAmount)
	if points < 1 {
		return CreditResult{Reason: "total below earn threshold"}, nil
	}

	customer := CustomerID(ord.CustomerID)
	entry := LedgerEntry{
		ID:         uuid.NewString(),
		CustomerID: customer,
		Kind:       KindEarn,
		Points:     points,
		Reference:  ord.ID,
		CreatedAt:  e.now().UTC(),
	}

	err := e.withRetry(ctx, func(s Store) error {
		// Guard first: a replay that lost the race turns into a clean skip
		// before any balance work happens.
		if err := s.MarkOrderCredited(ctx, ord.ID); err != nil {
			return err
		}
		if err := s.CreditAccount(ctx, customer, points); err != nil {
			return err
		}
		return s.AppendEntry(ctx, entry)
	})

	if errors.Is(err, ErrAlreadyCredited) {
		return CreditResult{Reason: "already credited"}, nil
	}
	if err != nil {
		metrics.EarnFailures.Inc()
		return CreditResult{}, err
	}

	metrics.PointsEarned.Add(float64(points))
	e.log.Info("points credited",
		zap.String("customer_id", ord.CustomerID),
		zap.String("order_id", ord.ID),
		zap.Int64("points", int64(points)))
	return CreditResult{Credited: true, Points: points}, nil
}

// =============================================================================
// REDEMPTION
// =============================================================================

// RedemptionResult is returned to the cashier on a successful redeem.
type RedemptionResult struct {
	RemainingBalance Points
	RewardName       string
	PointsUsed       Points
}

// Redeem exchanges points for a reward. Preconditions are checked in
// order, first failure wins: identifier format, reward exists, reward
// active, sufficient balance. The debit and its history entry commit
// together or not at all, and the post-redemption balance is returned.
func (e *Engine) Redeem(ctx context.Context, customerID, rewardID string) (RedemptionResult, error) {
	if !ValidateCustomerID(customerID) {
		return RedemptionResult{}, ErrInvalidIdentifier
	}

	reward, err := e.store.Reward(ctx, rewardID)
	if err != nil {
		return RedemptionResult{}, err
	}
	if reward == nil {
		return RedemptionResult{}, ErrRewardNotFound
	}
	if !reward.Active {
		return RedemptionResult{}, ErrRewardInactive
	}

	customer := CustomerID(customerID)
	var remaining Points

	err = e.withRetry(ctx, func(s Store) error {
		acct, err := s.Account(ctx, customer)
		if err != nil {
			return err
		}
		if acct == nil || acct.Balance < reward.CostPoints {
			available := Points(0)
			if acct != nil {
				available = acct.Balance
			}
			return &InsufficientPointsError{
				CustomerID: customer,
				Available:  available,
				Requested:  reward.CostPoints,
			}
		}

		if err := s.DebitAccount(ctx, customer, reward.CostPoints); err != nil {
			return err
		}
		if err := s.AppendEntry(ctx, LedgerEntry{
			ID:         uuid.NewString(),
			CustomerID: customer,
			Kind:       KindRedeem,
			Points:     reward.CostPoints,
			Reference:  rewardID,
			CreatedAt:  e.now().UTC(),
		}); err != nil {
			return err
		}

		remaining = acct.Balance - reward.CostPoints
		return nil
	})
	if err != nil {
		return RedemptionResult{}, err
	}

	metrics.Redemptions.Inc()
	e.log.Info("reward redeemed",
		zap.String("customer_id", customerID),
		zap.String("reward_id", rewardID),
		zap.Int64("points_used", int64(reward.CostPoints)),
		zap.Int64("remaining", int64(remaining)))
	return RedemptionResult{
		RemainingBalance: remaining,
		RewardName:       reward.Name,
		PointsUsed:       reward.CostPoints,
	}, nil
}

// =============================================================================
// QUERIES
// =============================================================================

// Balance returns the customer's point balance. A never-seen customer
// has zero points; absence is not a fault.
func (e *Engine) Balance(ctx context.Context, customerID string) (Points, error) {
	if !ValidateCustomerID(customerID) {
		return 0, ErrInvalidIdentifier
	}
	acct, err := e.store.Account(ctx, CustomerID(customerID))
	if err != nil {
		return 0, err
	}
	if acct == nil {
		return 0, nil
	}
	return acct.Balance, nil
}

// AccountView is the balance plus chronological history for a customer.
type AccountView struct {
	Exists  bool
	Balance Points
	History []LedgerEntry
}

// AccountWithHistory returns the account state and its full history.
// Exists is false when the customer has neither an account nor entries.
func (e *Engine) AccountWithHistory(ctx context.Context, customerID string) (AccountView, error) {
	if !ValidateCustomerID(customerID) {
		return AccountView{}, ErrInvalidIdentifier
	}

	id := CustomerID(customerID)
	acct, err := e.store.Account(ctx, id)
	if err != nil {
		return AccountView{}, err
	}
	entries, err := e.store.Entries(ctx, id)
	if err != nil {
		return AccountView{}, err
	}

	view := AccountView{Exists: acct != nil || len(entries) > 0, History: entries}
	if acct != nil {
		view.Balance = acct.Balance
	}
	return view, nil
}

// =============================================================================
// RETRY
// =============================================================================

// withRetry runs fn in a transaction, retrying bounded times on
// ErrConflict. Anything else aborts immediately.
func (e *Engine) withRetry(ctx context.Context, fn func(Store) error) error {
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = e.store.WithTx(ctx, fn)
		if !errors.Is(err, ErrConflict) {
			return err
		}
		metrics.Conflicts.Inc()
		e.log.Warn("transaction conflict, retrying", zap.Int("attempt", attempt))
	}
	return err
}
