// Package snapshotstore implements Snapshot Storage (C5): the
// in-memory, single-writer pointer to the current snapshot, the last
// committed snapshot height, and the published next-snapshot hash.
package snapshotstore

import (
	"sync"

	"snapshotledger/ledgertypes"
)

// Store is the concrete C5 implementation. All three fields are
// guarded by one mutex: attemptSnapshot's steps 9-14 write them in a
// fixed order and callers are required to serialize concurrent
// attempts, so a single lock is sufficient and matches the
// "single-writer per node" contract exactly.
type Store struct {
	mu sync.RWMutex

	stored             ledgertypes.StoredSnapshot
	lastSnapshotHeight int64
	nextSnapshotHash   string
}

// New builds a Store at its initial state: StoredSnapshot(snapshotZero,
// []), height 0, next hash = hash of snapshotZero.
func New() (*Store, error) {
	zeroHash, err := ledgertypes.SnapshotZero.ComputeHash()
	if err != nil {
		return nil, err
	}
	return &Store{
		stored:             ledgertypes.StoredSnapshot{Snapshot: ledgertypes.SnapshotZero},
		lastSnapshotHeight: 0,
		nextSnapshotHash:   zeroHash,
	}, nil
}

func (s *Store) GetStoredSnapshot() ledgertypes.StoredSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stored
}

func (s *Store) SetStoredSnapshot(v ledgertypes.StoredSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stored = v
}

func (s *Store) GetLastSnapshotHeight() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSnapshotHeight
}

func (s *Store) SetLastSnapshotHeight(h int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSnapshotHeight = h
}

func (s *Store) GetNextSnapshotHash() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nextSnapshotHash
}

func (s *Store) SetNextSnapshotHash(h string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSnapshotHash = h
}

// Snapshot is a consistent point-in-time read of all three fields,
// used by the state machine's rollback checks: on error, stored state
// must be byte-identical to its pre-call values except possibly
// nextSnapshotHash.
type Snapshot struct {
	Stored             ledgertypes.StoredSnapshot
	LastSnapshotHeight int64
	NextSnapshotHash   string
}

func (s *Store) Read() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{Stored: s.stored, LastSnapshotHeight: s.lastSnapshotHeight, NextSnapshotHash: s.nextSnapshotHash}
}

// Restore resets Stored and LastSnapshotHeight back to a prior read,
// used when a snapshot attempt must roll back everything except the
// already-published next hash.
func (s *Store) Restore(prev Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stored = prev.Stored
	s.lastSnapshotHeight = prev.LastSnapshotHeight
}
