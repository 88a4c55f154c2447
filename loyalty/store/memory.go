// Package store provides an in-memory loyalty.TxStore for testing and
// development. WithTx snapshots state and restores it when the function
// fails, giving the same all-or-nothing semantics as the SQLite store.
package store

import (
	"context"
	"sync"

	"github.com/crave/loyalty-engine/loyalty"
)

// Memory is an in-memory implementation of loyalty.TxStore.
//
// Fault hooks (FailAppend, FailCredit, FailDebit) let tests force a step
// inside a transaction to fail and assert that nothing was partially
// applied.
type Memory struct {
	mu       sync.Mutex
	accounts map[loyalty.CustomerID]loyalty.Account
	entries  map[loyalty.CustomerID][]loyalty.LedgerEntry
	rewards  map[string]loyalty.Reward
	credited map[string]bool // orderID -> guard flag
	orders   map[string]bool // known order IDs

	FailAppend error
	FailCredit error
	FailDebit  error

	// ConflictTxs makes the next n WithTx calls fail with
	// loyalty.ErrConflict before fn runs, mimicking commit races.
	ConflictTxs int
}

func NewMemory() *Memory {
	return &Memory{
		accounts: make(map[loyalty.CustomerID]loyalty.Account),
		entries:  make(map[loyalty.CustomerID][]loyalty.LedgerEntry),
		rewards:  make(map[string]loyalty.Reward),
		credited: make(map[string]bool),
		orders:   make(map[string]bool),
	}
}

// SeedReward registers a reward for the engine to read.
func (m *Memory) SeedReward(r loyalty.Reward) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rewards[r.ID] = r
}

// SeedOrder registers an order ID so the earn guard can find it.
func (m *Memory) SeedOrder(orderID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[orderID] = true
}

func (m *Memory) Account(_ context.Context, id loyalty.CustomerID) (*loyalty.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accountLocked(id)
}

func (m *Memory) accountLocked(id loyalty.CustomerID) (*loyalty.Account, error) {
	acct, ok := m.accounts[id]
	if !ok {
		return nil, nil
	}
	return &acct, nil
}

func (m *Memory) CreditAccount(_ context.Context, id loyalty.CustomerID, points loyalty.Points) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.creditLocked(id, points)
}

func (m *Memory) creditLocked(id loyalty.CustomerID, points loyalty.Points) error {
	if m.FailCredit != nil {
		return m.FailCredit
	}
	acct := m.accounts[id]
	acct.CustomerID = id
	acct.Balance += points
	m.accounts[id] = acct
	return nil
}

func (m *Memory) DebitAccount(_ context.Context, id loyalty.CustomerID, points loyalty.Points) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.debitLocked(id, points)
}

func (m *Memory) debitLocked(id loyalty.CustomerID, points loyalty.Points) error {
	if m.FailDebit != nil {
		return m.FailDebit
	}
	acct, ok := m.accounts[id]
	if !ok || acct.Balance < points {
		return loyalty.ErrInsufficientPoints
	}
	acct.Balance -= points
	m.accounts[id] = acct
	return nil
}

func (m *Memory) AppendEntry(_ context.Context, entry loyalty.LedgerEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.appendLocked(entry)
}

func (m *Memory) appendLocked(entry loyalty.LedgerEntry) error {
	if m.FailAppend != nil {
		return m.FailAppend
	}
	m.entries[entry.CustomerID] = append(m.entries[entry.CustomerID], entry)
	return nil
}

func (m *Memory) Entries(_ context.Context, id loyalty.CustomerID) ([]loyalty.LedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]loyalty.LedgerEntry, len(m.entries[id]))
	copy(out, m.entries[id])
	return out, nil
}

func (m *Memory) Reward(_ context.Context, rewardID string) (*loyalty.Reward, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rewards[rewardID]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (m *Memory) MarkOrderCredited(_ context.Context, orderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.markLocked(orderID)
}

func (m *Memory) markLocked(orderID string) error {
	if !m.orders[orderID] {
		return loyalty.ErrOrderNotFound
	}
	if m.credited[orderID] {
		return loyalty.ErrAlreadyCredited
	}
	m.credited[orderID] = true
	return nil
}

// WithTx runs fn against a transaction-scoped view. The lock is held for
// the whole transaction, so transactions are serialized; on error the
// pre-transaction snapshot is restored.
func (m *Memory) WithTx(_ context.Context, fn func(loyalty.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ConflictTxs > 0 {
		m.ConflictTxs--
		return loyalty.ErrConflict
	}

	snap := m.snapshotLocked()
	if err := fn(&txMemory{parent: m}); err != nil {
		m.restoreLocked(snap)
		return err
	}
	return nil
}

type memSnapshot struct {
	accounts map[loyalty.CustomerID]loyalty.Account
	entries  map[loyalty.CustomerID][]loyalty.LedgerEntry
	credited map[string]bool
}

func (m *Memory) snapshotLocked() memSnapshot {
	snap := memSnapshot{
		accounts: make(map[loyalty.CustomerID]loyalty.Account, len(m.accounts)),
		entries:  make(map[loyalty.CustomerID][]loyalty.LedgerEntry, len(m.entries)),
		credited: make(map[string]bool, len(m.credited)),
	}
	for k, v := range m.accounts {
		snap.accounts[k] = v
	}
	for k, v := range m.entries {
		cp := make([]loyalty.LedgerEntry, len(v))
		copy(cp, v)
		snap.entries[k] = cp
	}
	for k, v := range m.credited {
		snap.credited[k] = v
	}
	return snap
}

func (m *Memory) restoreLocked(snap memSnapshot) {
	m.accounts = snap.accounts
	m.entries = snap.entries
	m.credited = snap.credited
}

// txMemory forwards to the parent's locked methods; the parent lock is
// already held by WithTx.
type txMemory struct {
	parent *Memory
}

func (t *txMemory) Account(_ context.Context, id loyalty.CustomerID) (*loyalty.Account, error) {
	return t.parent.accountLocked(id)
}

func (t *txMemory) CreditAccount(_ context.Context, id loyalty.CustomerID, points loyalty.Points) error {
	return t.parent.creditLocked(id, points)
}

func (t *txMemory) DebitAccount(_ context.Context, id loyalty.CustomerID, points loyalty.Points) error {
	return t.parent.debitLocked(id, points)
}

func (t *txMemory) AppendEntry(_ context.Context, entry loyalty.LedgerEntry) error {
	return t.parent.appendLocked(entry)
}

func (t *txMemory) Entries(_ context.Context, id loyalty.CustomerID) ([]loyalty.LedgerEntry, error) {
	out := make([]loyalty.LedgerEntry, len(t.parent.entries[id]))
	copy(out, t.parent.entries[id])
	return out, nil
}

func (t *txMemory) Reward(_ context.Context, rewardID string) (*loyalty.Reward, error) {
	r, ok := t.parent.rewards[rewardID]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (t *txMemory) MarkOrderCredited(_ context.Context, orderID string) error {
	return t.parent.markLocked(orderID)
}
