// Package ledger keeps the farmer's append-only activity and transaction logs
// on top of a store.Store.
package ledger

import (
	"context"
	"fmt"
	"sync"

	"github.com/jonboulle/clockwork"

	"github.com/hasti-ptl/Krishisahayk/internal/farm"
	"github.com/hasti-ptl/Krishisahayk/internal/store"
)

// Store keys of the two logs.
const (
	ActivitiesKey   = "krishi_activities"
	TransactionsKey = "krishi_transactions"
)

// Ledger assigns IDs and owners to records and persists them.
type Ledger struct {
	store    store.Store
	clock    clockwork.Clock
	farmerID int64

	mu     sync.Mutex
	lastID int64
}

// New returns a Ledger writing records owned by farmerID.
func New(s store.Store, clock clockwork.Clock, farmerID int64) *Ledger {
	return &Ledger{store: s, clock: clock, farmerID: farmerID}
}

// nextID is derived from the clock in milliseconds and strictly increases
// within the process even when two records share a millisecond.
func (l *Ledger) nextID() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	id := l.clock.Now().UnixMilli()
	if id <= l.lastID {
		id = l.lastID + 1
	}
	l.lastID = id
	return id
}

// RecordActivity appends rec and returns it as stored. ID and FarmerID are
// always assigned here; an empty Date becomes today.
func (l *Ledger) RecordActivity(ctx context.Context, rec farm.ActivityRecord) (farm.ActivityRecord, error) {
	if rec.AreaAcres != nil && *rec.AreaAcres < 0 {
		return farm.ActivityRecord{}, fmt.Errorf("activity area %v is negative", *rec.AreaAcres)
	}
	rec.ID = l.nextID()
	rec.FarmerID = l.farmerID
	if rec.Date == "" {
		rec.Date = farm.Day(l.clock.Now())
	}
	if err := store.AppendJSON(ctx, l.store, ActivitiesKey, rec); err != nil {
		return farm.ActivityRecord{}, fmt.Errorf("recording activity: %w", err)
	}
	return rec, nil
}

// RecordTransaction appends rec and returns it as stored.
func (l *Ledger) RecordTransaction(ctx context.Context, rec farm.TransactionRecord) (farm.TransactionRecord, error) {
	if rec.Amount < 0 {
		return farm.TransactionRecord{}, fmt.Errorf("transaction amount %v is negative", rec.Amount)
	}
	rec.ID = l.nextID()
	rec.FarmerID = l.farmerID
	if rec.Date == "" {
		rec.Date = farm.Day(l.clock.Now())
	}
	if err := store.AppendJSON(ctx, l.store, TransactionsKey, rec); err != nil {
		return farm.TransactionRecord{}, fmt.Errorf("recording transaction: %w", err)
	}
	return rec, nil
}

// Activities lists activity records, newest first.
func (l *Ledger) Activities(ctx context.Context) ([]farm.ActivityRecord, error) {
	recs, err := store.ListJSON[farm.ActivityRecord](ctx, l.store, ActivitiesKey)
	if err != nil {
		return nil, fmt.Errorf("listing activities: %w", err)
	}
	return recs, nil
}

// Transactions lists transaction records, newest first.
func (l *Ledger) Transactions(ctx context.Context) ([]farm.TransactionRecord, error) {
	recs, err := store.ListJSON[farm.TransactionRecord](ctx, l.store, TransactionsKey)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	return recs, nil
}

// Summary folds every transaction into income, expense and net profit.
func (l *Ledger) Summary(ctx context.Context) (farm.Summary, error) {
	txs, err := l.Transactions(ctx)
	if err != nil {
		return farm.Summary{}, err
	}
	return farm.Summarize(txs), nil
}
