/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements loyalty.TxStore and orders.Store, plus the reward catalog
  records, using SQLite. In production, the same patterns apply to
  PostgreSQL - only minor SQL dialect differences.

INVARIANT ENFORCEMENT:
  The balance invariant is enforced at the store level so it holds under
  concurrent writers:
  - accounts.balance carries a CHECK (balance >= 0) constraint
  - DebitAccount is a conditional UPDATE ... WHERE balance >= cost;
    zero rows affected maps to ErrInsufficientPoints
  - orders.points_earned flips via UPDATE ... WHERE points_earned = FALSE;
    zero rows affected maps to ErrAlreadyCredited
  The ledger_entries table is append-only: no UPDATE or DELETE path
  exists on it.

KEY TABLES:
  accounts:       One balance row per customer
  ledger_entries: Immutable history of every earn and redeem
  rewards:        Redeemable catalog (cost + active flag)
  orders:         Order lifecycle rows with the one-shot earn guard

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery
  A busy/locked commit is surfaced as loyalty.ErrConflict so the engine
  can retry.

USAGE:
  store, err := sqlite.New("./data/loyalty.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  engine := loyalty.NewEngine(store, loyalty.DefaultEarnRule(), logger)

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - loyalty/store.go: Interface definitions
  - loyalty/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/crave/loyalty-engine/loyalty"
	"github.com/crave/loyalty-engine/orders"
)

// Store implements loyalty.TxStore and orders.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection keeps ":memory:" databases coherent and sidesteps
	// SQLITE_BUSY between pooled writers. Writes are serialized by the
	// store mutex anyway.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Accounts (one balance row per customer)
	CREATE TABLE IF NOT EXISTS accounts (
		customer_id TEXT PRIMARY KEY,
		balance INTEGER NOT NULL DEFAULT 0 CHECK (balance >= 0),
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Ledger entries (append-only history of earns and redeems)
	CREATE TABLE IF NOT EXISTS ledger_entries (
		id TEXT PRIMARY KEY,
		customer_id TEXT NOT NULL,
		kind TEXT NOT NULL CHECK (kind IN ('earn', 'redeem')),
		points INTEGER NOT NULL CHECK (points > 0),
		reference TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_entries_customer_created
		ON ledger_entries(customer_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_entries_reference
		ON ledger_entries(reference) WHERE reference IS NOT NULL;

	-- Rewards catalog
	CREATE TABLE IF NOT EXISTS rewards (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT,
		cost_points INTEGER NOT NULL CHECK (cost_points > 0),
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Orders (lifecycle + one-shot earn guard)
	CREATE TABLE IF NOT EXISTS orders (
		id TEXT PRIMARY KEY,
		customer_id TEXT,
		items_json TEXT NOT NULL,
		total_amount TEXT NOT NULL,
		status TEXT NOT NULL,
		points_earned BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status);
	CREATE INDEX IF NOT EXISTS idx_orders_customer ON orders(customer_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// dbtx is satisfied by both *sql.DB and *sql.Tx so the same query
// helpers serve plain calls and transaction-scoped calls.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// =============================================================================
// LOYALTY STORE (loyalty.Store interface)
// =============================================================================

// Account returns the balance row, or nil if the customer has never earned.
func (s *Store) Account(ctx context.Context, id loyalty.CustomerID) (*loyalty.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.account(ctx, s.db, id)
}

func (s *Store) account(ctx context.Context, db dbtx, id loyalty.CustomerID) (*loyalty.Account, error) {
	var acct loyalty.Account
	var createdAt, updatedAt string

	err := db.QueryRowContext(ctx,
		"SELECT customer_id, balance, created_at, updated_at FROM accounts WHERE customer_id = ?",
		string(id),
	).Scan(&acct.CustomerID, &acct.Balance, &createdAt, &updatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, mapSQLiteErr(err)
	}

	acct.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	acct.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return &acct, nil
}

// CreditAccount upserts the account: create with the credited balance if
// absent, increment otherwise.
func (s *Store) CreditAccount(ctx context.Context, id loyalty.CustomerID, points loyalty.Points) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creditAccount(ctx, s.db, id, points)
}

func (s *Store) creditAccount(ctx context.Context, db dbtx, id loyalty.CustomerID, points loyalty.Points) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := db.ExecContext(ctx, `
		INSERT INTO accounts (customer_id, balance, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(customer_id) DO UPDATE SET
			balance = accounts.balance + excluded.balance,
			updated_at = excluded.updated_at`,
		string(id), int64(points), now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to credit account: %w", mapSQLiteErr(err))
	}
	return nil
}

// DebitAccount decrements conditionally: the WHERE clause refuses any
// debit that would drive the balance negative.
func (s *Store) DebitAccount(ctx context.Context, id loyalty.CustomerID, points loyalty.Points) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.debitAccount(ctx, s.db, id, points)
}

func (s *Store) debitAccount(ctx context.Context, db dbtx, id loyalty.CustomerID, points loyalty.Points) error {
	res, err := db.ExecContext(ctx, `
		UPDATE accounts SET balance = balance - ?, updated_at = ?
		WHERE customer_id = ? AND balance >= ?`,
		int64(points), time.Now().UTC().Format(time.RFC3339Nano), string(id), int64(points),
	)
	if err != nil {
		return fmt.Errorf("failed to debit account: %w", mapSQLiteErr(err))
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return loyalty.ErrInsufficientPoints
	}
	return nil
}

// AppendEntry appends one history record. There is no update or delete.
func (s *Store) AppendEntry(ctx context.Context, entry loyalty.LedgerEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendEntry(ctx, s.db, entry)
}

func (s *Store) appendEntry(ctx context.Context, db dbtx, entry loyalty.LedgerEntry) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO ledger_entries (id, customer_id, kind, points, reference, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID,
		string(entry.CustomerID),
		string(entry.Kind),
		int64(entry.Points),
		nullString(entry.Reference),
		entry.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to append ledger entry: %w", mapSQLiteErr(err))
	}
	return nil
}

// Entries returns the customer's history, chronologically.
func (s *Store) Entries(ctx context.Context, id loyalty.CustomerID) ([]loyalty.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries(ctx, s.db, id)
}

func (s *Store) entries(ctx context.Context, db dbtx, id loyalty.CustomerID) ([]loyalty.LedgerEntry, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, customer_id, kind, points, reference, created_at
		FROM ledger_entries
		WHERE customer_id = ?
		ORDER BY created_at ASC, id ASC`,
		string(id),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger entries: %w", mapSQLiteErr(err))
	}
	defer rows.Close()

	var entries []loyalty.LedgerEntry
	for rows.Next() {
		var e loyalty.LedgerEntry
		var reference sql.NullString
		var createdAt string
		if err := rows.Scan(&e.ID, &e.CustomerID, &e.Kind, &e.Points, &reference, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		e.Reference = reference.String
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Reward returns the engine's view of a reward, or nil if unknown.
func (s *Store) Reward(ctx context.Context, rewardID string) (*loyalty.Reward, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reward(ctx, s.db, rewardID)
}

func (s *Store) reward(ctx context.Context, db dbtx, rewardID string) (*loyalty.Reward, error) {
	var r loyalty.Reward
	err := db.QueryRowContext(ctx,
		"SELECT id, name, cost_points, active FROM rewards WHERE id = ?",
		rewardID,
	).Scan(&r.ID, &r.Name, &r.CostPoints, &r.Active)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, mapSQLiteErr(err)
	}
	return &r, nil
}

// MarkOrderCredited flips the one-shot earn guard. The conditional
// UPDATE makes the guard race-safe: only one caller ever wins.
func (s *Store) MarkOrderCredited(ctx context.Context, orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.markOrderCredited(ctx, s.db, orderID)
}

func (s *Store) markOrderCredited(ctx context.Context, db dbtx, orderID string) error {
	res, err := db.ExecContext(ctx, `
		UPDATE orders SET points_earned = TRUE, updated_at = ?
		WHERE id = ? AND points_earned = FALSE`,
		time.Now().UTC().Format(time.RFC3339Nano), orderID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark order credited: %w", mapSQLiteErr(err))
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		var count int
		if err := db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM orders WHERE id = ?", orderID,
		).Scan(&count); err != nil {
			return mapSQLiteErr(err)
		}
		if count == 0 {
			return loyalty.ErrOrderNotFound
		}
		return loyalty.ErrAlreadyCredited
	}
	return nil
}

// =============================================================================
// TRANSACTIONAL STORE (loyalty.TxStore interface)
// =============================================================================

// WithTx executes a function within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(store loyalty.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", mapSQLiteErr(err))
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{tx: sqlTx, parent: s}); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", mapSQLiteErr(err))
	}
	return nil
}

// txStore runs every Store operation against the open transaction, so
// reads inside WithTx observe the transaction's own writes.
type txStore struct {
	tx     *sql.Tx
	parent *Store
}

func (ts *txStore) Account(ctx context.Context, id loyalty.CustomerID) (*loyalty.Account, error) {
	return ts.parent.account(ctx, ts.tx, id)
}

func (ts *txStore) CreditAccount(ctx context.Context, id loyalty.CustomerID, points loyalty.Points) error {
	return ts.parent.creditAccount(ctx, ts.tx, id, points)
}

func (ts *txStore) DebitAccount(ctx context.Context, id loyalty.CustomerID, points loyalty.Points) error {
	return ts.parent.debitAccount(ctx, ts.tx, id, points)
}

func (ts *txStore) AppendEntry(ctx context.Context, entry loyalty.LedgerEntry) error {
	return ts.parent.appendEntry(ctx, ts.tx, entry)
}

func (ts *txStore) Entries(ctx context.Context, id loyalty.CustomerID) ([]loyalty.LedgerEntry, error) {
	return ts.parent.entries(ctx, ts.tx, id)
}

func (ts *txStore) Reward(ctx context.Context, rewardID string) (*loyalty.Reward, error) {
	return ts.parent.reward(ctx, ts.tx, rewardID)
}

func (ts *txStore) MarkOrderCredited(ctx context.Context, orderID string) error {
	return ts.parent.markOrderCredited(ctx, ts.tx, orderID)
}

// =============================================================================
// REWARD CATALOG RECORDS
// =============================================================================

// RewardRecord is a stored catalog reward with its admin-facing fields.
type RewardRecord struct {
	ID          string
	Name        string
	Description string
	CostPoints  int64
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SaveReward inserts or updates a reward.
func (s *Store) SaveReward(ctx context.Context, r RewardRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO rewards (id, name, description, cost_points, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			cost_points = excluded.cost_points,
			active = excluded.active,
			updated_at = excluded.updated_at`,
		r.ID, r.Name, nullString(r.Description), r.CostPoints, r.Active, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to save reward: %w", mapSQLiteErr(err))
	}
	return nil
}

// GetReward retrieves a full reward record by ID, or nil.
func (s *Store) GetReward(ctx context.Context, id string) (*RewardRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var r RewardRecord
	var description sql.NullString
	var createdAt, updatedAt string

	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, description, cost_points, active, created_at, updated_at FROM rewards WHERE id = ?",
		id,
	).Scan(&r.ID, &r.Name, &description, &r.CostPoints, &r.Active, &createdAt, &updatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, mapSQLiteErr(err)
	}

	r.Description = description.String
	r.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	r.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return &r, nil
}

// ListRewards returns all rewards ordered by name; activeOnly filters
// out disabled ones.
func (s *Store) ListRewards(ctx context.Context, activeOnly bool) ([]RewardRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, name, description, cost_points, active, created_at, updated_at
		FROM rewards ORDER BY name`
	if activeOnly {
		query = `SELECT id, name, description, cost_points, active, created_at, updated_at
			FROM rewards WHERE active = TRUE ORDER BY name`
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query rewards: %w", mapSQLiteErr(err))
	}
	defer rows.Close()

	var rewards []RewardRecord
	for rows.Next() {
		var r RewardRecord
		var description sql.NullString
		var createdAt, updatedAt string
		if err := rows.Scan(&r.ID, &r.Name, &description, &r.CostPoints, &r.Active, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan reward: %w", err)
		}
		r.Description = description.String
		r.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		r.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
		rewards = append(rewards, r)
	}
	return rewards, rows.Err()
}

// =============================================================================
// ORDER STORE (orders.Store interface)
// =============================================================================

// SaveOrder inserts a new order row.
func (s *Store) SaveOrder(ctx context.Context, ord orders.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	itemsJSON, err := json.Marshal(ord.Items)
	if err != nil {
		return fmt.Errorf("failed to encode order items: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO orders (id, customer_id, items_json, total_amount, status, points_earned, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ord.ID,
		nullString(ord.CustomerID),
		string(itemsJSON),
		ord.TotalAmount.String(),
		string(ord.Status),
		ord.PointsEarned,
		ord.CreatedAt.UTC().Format(time.RFC3339Nano),
		ord.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to save order: %w", mapSQLiteErr(err))
	}
	return nil
}

// GetOrder retrieves an order by ID, or nil if unknown.
func (s *Store) GetOrder(ctx context.Context, id string) (*orders.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, customer_id, items_json, total_amount, status, points_earned, created_at, updated_at
		FROM orders WHERE id = ?`, id)
	if err != nil {
		return nil, mapSQLiteErr(err)
	}
	defer rows.Close()

	ords, err := scanOrders(rows)
	if err != nil {
		return nil, err
	}
	if len(ords) == 0 {
		return nil, nil
	}
	return &ords[0], nil
}

// SetOrderStatus updates the status column, conditional on the prior
// status. A write that lost the race to another writer returns
// loyalty.ErrConflict rather than clobbering the winner.
func (s *Store) SetOrderStatus(ctx context.Context, id string, from, to orders.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"UPDATE orders SET status = ?, updated_at = ? WHERE id = ? AND status = ?",
		string(to), time.Now().UTC().Format(time.RFC3339Nano), id, string(from),
	)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", mapSQLiteErr(err))
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		var count int
		if err := s.db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM orders WHERE id = ?", id,
		).Scan(&count); err != nil {
			return err
		}
		if count == 0 {
			return orders.ErrNotFound
		}
		return loyalty.ErrConflict
	}
	return nil
}

// ListOrders returns orders, newest first, optionally filtered by status.
func (s *Store) ListOrders(ctx context.Context, status orders.Status, limit int) ([]orders.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}

	var rows *sql.Rows
	var err error
	if status != "" {
		rows, err = s.db.QueryContext(ctx, `
			SELECT id, customer_id, items_json, total_amount, status, points_earned, created_at, updated_at
			FROM orders WHERE status = ? ORDER BY created_at DESC LIMIT ?`, string(status), limit)
	} else {
		rows, err = s.db.QueryContext(ctx, `
			SELECT id, customer_id, items_json, total_amount, status, points_earned, created_at, updated_at
			FROM orders ORDER BY created_at DESC LIMIT ?`, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", mapSQLiteErr(err))
	}
	defer rows.Close()

	return scanOrders(rows)
}

func scanOrders(rows *sql.Rows) ([]orders.Order, error) {
	var out []orders.Order
	for rows.Next() {
		var ord orders.Order
		var customerID sql.NullString
		var itemsJSON, totalAmount, createdAt, updatedAt string

		if err := rows.Scan(&ord.ID, &customerID, &itemsJSON, &totalAmount,
			&ord.Status, &ord.PointsEarned, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}

		ord.CustomerID = customerID.String
		if err := json.Unmarshal([]byte(itemsJSON), &ord.Items); err != nil {
			return nil, fmt.Errorf("failed to decode order items: %w", err)
		}
		ord.TotalAmount, _ = decimal.NewFromString(totalAmount)
		ord.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		ord.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
		out = append(out, ord)
	}
	return out, rows.Err()
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"ledger_entries", "accounts", "rewards", "orders"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// mapSQLiteErr translates driver failures into the engine's error
// taxonomy. A busy/locked database means a concurrent writer; a CHECK
// violation on accounts.balance means a debit raced past the conditional
// update. Both are safe to retry or reject upstream.
func mapSQLiteErr(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY") {
		return loyalty.ErrConflict
	}
	if strings.Contains(msg, "CHECK constraint failed") && strings.Contains(msg, "balance") {
		return loyalty.ErrInsufficientPoints
	}
	return err
}
