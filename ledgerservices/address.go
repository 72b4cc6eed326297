// Package ledgerservices implements C10: the Address, Transaction and
// Observation services that apply a committed snapshot's effects to
// this node's local ledger view.
package ledgerservices

import (
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"snapshotledger/identity"
	"snapshotledger/ledgertypes"
)

// IsDummyTransaction reports whether tx carries no real transfer. A
// zero-amount transaction is a DAG placeholder, not a balance movement.
func IsDummyTransaction(tx ledgertypes.TransactionEdge) bool {
	return tx.Data.Amount == 0
}

// AddressService owns per-address balances and the last accepted
// transaction reference chain, expressed in fixed-point decimal to
// avoid float drift on repeated snapshot application.
type AddressService struct {
	mu        sync.RWMutex
	balances  map[identity.Id]decimal.Decimal
	lastTxRef map[identity.Id]ledgertypes.LastTransactionRef
}

func NewAddressService() *AddressService {
	return &AddressService{
		balances:  make(map[identity.Id]decimal.Decimal),
		lastTxRef: make(map[identity.Id]ledgertypes.LastTransactionRef),
	}
}

// GetBalance returns id's current balance in base units.
func (a *AddressService) GetBalance(id identity.Id) decimal.Decimal {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.balances[id]
}

// GetLastTransactionRef returns id's most recently applied transaction
// reference, defaulting to ledgertypes.EmptyLastTransactionRef.
func (a *AddressService) GetLastTransactionRef(id identity.Id) ledgertypes.LastTransactionRef {
	a.mu.RLock()
	defer a.mu.RUnlock()
	ref, ok := a.lastTxRef[id]
	if !ok {
		return ledgertypes.EmptyLastTransactionRef
	}
	return ref
}

// TransferSnapshotTransaction applies tx's balance movement from its
// source address (parents[0]) to its destination address (parents[1]).
// It is a no-op for dummy transactions.
func (a *AddressService) TransferSnapshotTransaction(tx ledgertypes.TransactionEdge) error {
	if IsDummyTransaction(tx) {
		return nil
	}
	if len(tx.ObservationEdge.Parents) != 2 {
		return fmt.Errorf("ledgerservices: transaction edge %s has %d parents, want 2", tx.BaseHash(), len(tx.ObservationEdge.Parents))
	}

	src, err := identity.IdFromHex(tx.ObservationEdge.Parents[0].Hash)
	if err != nil {
		return fmt.Errorf("ledgerservices: source id: %w", err)
	}
	dst, err := identity.IdFromHex(tx.ObservationEdge.Parents[1].Hash)
	if err != nil {
		return fmt.Errorf("ledgerservices: destination id: %w", err)
	}
	amount := decimal.NewFromInt(tx.Data.Amount)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.balances[src] = a.balances[src].Sub(amount)
	a.balances[dst] = a.balances[dst].Add(amount)
	a.lastTxRef[src] = ledgertypes.LastTransactionRef{Hash: tx.BaseHash(), Ordinal: tx.Data.LastTxRef.Ordinal + 1}
	return nil
}

// SetBalance overwrites id's balance directly, used by the restore
// path (setSnapshot) to load state recovered from a peer's snapshot
// info rather than deriving it transaction-by-transaction.
func (a *AddressService) SetBalance(id identity.Id, balance decimal.Decimal) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.balances[id] = balance
}

// SetLastTransactionRef overwrites id's last-tx-ref directly, used by
// the restore path.
func (a *AddressService) SetLastTransactionRef(id identity.Id, ref ledgertypes.LastTransactionRef) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastTxRef[id] = ref
}

// Balances returns a copy of every tracked address balance in base
// units, for SnapshotInfo persistence.
func (a *AddressService) Balances() map[identity.Id]decimal.Decimal {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make(map[identity.Id]decimal.Decimal, len(a.balances))
	for k, v := range a.balances {
		out[k] = v
	}
	return out
}

// LastTransactionRefs returns a copy of every tracked last-tx-ref, for
// SnapshotInfo persistence.
func (a *AddressService) LastTransactionRefs() map[identity.Id]ledgertypes.LastTransactionRef {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make(map[identity.Id]ledgertypes.LastTransactionRef, len(a.lastTxRef))
	for k, v := range a.lastTxRef {
		out[k] = v
	}
	return out
}
