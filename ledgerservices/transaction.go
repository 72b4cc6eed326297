package ledgerservices

import (
	"sync"

	"snapshotledger/ledgertypes"
)

// TransactionService tracks which transaction edges have been finally
// applied under a snapshot, guarding ApplySnapshotDirect against
// double-application on restart.
type TransactionService struct {
	mu      sync.Mutex
	applied map[string]struct{}
}

func NewTransactionService() *TransactionService {
	return &TransactionService{applied: make(map[string]struct{})}
}

// ApplySnapshotDirect marks tx as finalized. Applying the same
// transaction twice (e.g. after a crash-recovery replay) is a no-op.
func (t *TransactionService) ApplySnapshotDirect(tx ledgertypes.TransactionEdge) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.applied[tx.BaseHash()] = struct{}{}
	return nil
}

// IsApplied reports whether baseHash has already been finalized.
func (t *TransactionService) IsApplied(baseHash string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.applied[baseHash]
	return ok
}

// AppliedCount reports how many transactions this service has
// finalized, for diagnostics.
func (t *TransactionService) AppliedCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.applied)
}
