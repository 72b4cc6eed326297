package snapshotservice

import (
	"github.com/shopspring/decimal"

	"snapshotledger/identity"
	"snapshotledger/ledgertypes"
	"snapshotledger/logs"
)

// SetSnapshot is the restore path used after redownload:
// it sets every C4/C5 field from info, propagates accepted balances
// and tx-refs to C10, and refreshes metrics. It never touches disk.
func (s *Service) SetSnapshot(info ledgertypes.SnapshotInfo) error {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	s.checkpoints.LoadFromInfo(info)

	cache := make([]ledgertypes.CheckpointCache, 0, len(info.CurrentSnapshot.CheckpointBlocks))
	for _, soeHash := range info.CurrentSnapshot.CheckpointBlocks {
		if cb, ok := info.Checkpoints[soeHash]; ok {
			cache = append(cache, cb)
		}
	}
	s.snapshots.SetStoredSnapshot(ledgertypes.StoredSnapshot{Snapshot: info.CurrentSnapshot, CheckpointCache: cache})
	s.snapshots.SetLastSnapshotHeight(info.LastSnapshotHeight)
	s.snapshots.SetNextSnapshotHash(info.NextSnapshotHash)

	for hexID, balance := range info.AddressBalances {
		id, err := identity.IdFromHex(hexID)
		if err != nil {
			logs.Warn("snapshot core: skipping malformed address %s in restored snapshot info: %v", hexID, err)
			continue
		}
		s.addresses.SetBalance(id, decimal.NewFromInt(balance))
	}
	for hexID, ref := range info.LastAcceptedTxRef {
		id, err := identity.IdFromHex(hexID)
		if err != nil {
			logs.Warn("snapshot core: skipping malformed address %s in restored last-tx-ref map: %v", hexID, err)
			continue
		}
		s.addresses.SetLastTransactionRef(id, ref)
	}

	s.metrics.LastSnapshotHeight.Set(float64(info.LastSnapshotHeight))
	s.metrics.SetLastSnapshotHash(info.CurrentSnapshot.Hash)
	s.metrics.Accepted.Set(float64(len(s.checkpoints.GetAccepted())))
	s.metrics.Awaiting.Set(float64(len(s.checkpoints.GetAwaiting())))
	s.metrics.WaitingForAcceptance.Set(float64(len(s.checkpoints.GetWaitingForAcceptance())))

	s.events.PublishAsync(Event{
		Type:     SnapshotLoaded,
		Snapshot: SnapshotResult{Snapshot: info.CurrentSnapshot, Height: info.LastSnapshotHeight},
	})
	return nil
}

// Recover checks the invariant setNextSnapshotHash publishes ahead of
// applySnapshot: if the node crashed between steps 9 and 11,
// nextSnapshotHash points at a snapshot that was never committed. That
// is a retryable state, not a corruption, since the next AttemptSnapshot
// call republishes nextSnapshotHash from scratch. Recover only verifies
// and logs, it does not mutate. Genesis is skipped: nextSnapshotHash
// starts at the hash of snapshotZero itself, which never lines up with
// snapshotZero's own sentinel hash field.
func (s *Service) Recover() error {
	stored := s.snapshots.GetStoredSnapshot()
	if stored.Snapshot.IsZero() {
		return nil
	}
	currentHash, err := stored.Snapshot.ComputeHash()
	if err != nil {
		return errSnapshotUnexpectedError("recomputing stored snapshot hash", err)
	}
	if stored.Snapshot.Hash != currentHash {
		return errSnapshotIllegalState("stored snapshot hash does not match its own recomputed content hash")
	}
	if s.snapshots.GetNextSnapshotHash() != currentHash {
		logs.Warn("snapshot core: nextSnapshotHash does not match the current stored snapshot; treating as a crash between steps 9 and 11, next attemptSnapshot will republish it")
	}
	return nil
}
