/*
store.go - Persistence interfaces for the loyalty engine

PURPOSE:
  Defines the interface between the points engine and the database.
  Different implementations can use SQLite, PostgreSQL, or in-memory
  storage.

KEY INTERFACES:
  Store:   Account balance, history log, reward/order lookups
  TxStore: Store plus atomic multi-write transactions

APPEND-ONLY CONTRACT:
  The history log is append-only: AppendEntry is the only write on it.
  There is no update or delete on ledger entries, ever.

ATOMICITY:
  The engine runs every balance mutation inside WithTx. An earn is
  (guard flag + credit + entry) and a redeem is (conditional debit +
  entry); each commits as one unit or not at all. No caller may observe
  a balance change without its history entry, or vice versa.

CONDITIONAL MUTATIONS:
  DebitAccount must refuse (ErrInsufficientPoints) rather than let a
  balance go negative, and MarkOrderCredited must refuse
  (ErrAlreadyCredited) a second flip of the one-shot guard. Both checks
  belong to the store so they hold under concurrent writers, not just
  under the engine's own pre-reads.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: Production SQLite
  - loyalty/store/memory.go: In-memory for testing

SEE ALSO:
  - engine.go: The only consumer of these interfaces
*/
package loyalty

import "context"

// Store handles persistence for accounts, history, and the engine's
// read-only views of rewards and orders.
type Store interface {
	// Account returns the balance record, or nil if the customer has
	// never earned. Absence is not an error.
	Account(ctx context.Context, id CustomerID) (*Account, error)

	// CreditAccount upserts the account: created with balance=points if
	// absent, incremented otherwise. points must be positive.
	CreditAccount(ctx context.Context, id CustomerID, points Points) error

	// DebitAccount decrements the balance. Returns ErrInsufficientPoints
	// if the account is missing or the balance would go negative.
	DebitAccount(ctx context.Context, id CustomerID, points Points) error

	// AppendEntry appends one history record. This is the only write
	// operation on the history log.
	AppendEntry(ctx context.Context, entry LedgerEntry) error

	// Entries returns the customer's history in chronological order.
	Entries(ctx context.Context, id CustomerID) ([]LedgerEntry, error)

	// Reward returns the catalog view of a reward, or nil if unknown.
	Reward(ctx context.Context, rewardID string) (*Reward, error)

	// MarkOrderCredited flips the order's one-shot earn guard. Returns
	// ErrAlreadyCredited if it was already set, ErrOrderNotFound if the
	// order is unknown.
	MarkOrderCredited(ctx context.Context, orderID string) error
}

// TxStore wraps Store with transaction support.
type TxStore interface {
	Store

	// WithTx executes fn against a transaction-scoped Store. If fn
	// returns an error the transaction is rolled back with no partial
	// writes; otherwise it is committed. A commit that loses a race with
	// a concurrent writer fails with ErrConflict.
	WithTx(ctx context.Context, fn func(Store) error) error
}
