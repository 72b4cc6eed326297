package snapshotstore

import (
	"testing"

	"github.com/stretchr/testify/require"

	"snapshotledger/ledgertypes"
)

func TestNewStoreInitialState(t *testing.T) {
	s, err := New()
	require.NoError(t, err)

	require.Equal(t, int64(0), s.GetLastSnapshotHeight())
	require.True(t, s.GetStoredSnapshot().Snapshot.IsZero())

	zeroHash, err := ledgertypes.SnapshotZero.ComputeHash()
	require.NoError(t, err)
	require.Equal(t, zeroHash, s.GetNextSnapshotHash())
}

func TestRestoreRollsBackButKeepsNextHash(t *testing.T) {
	s, err := New()
	require.NoError(t, err)
	prev := s.Read()

	s.SetNextSnapshotHash("published")
	s.SetLastSnapshotHeight(2)
	s.SetStoredSnapshot(ledgertypes.StoredSnapshot{Snapshot: ledgertypes.Snapshot{Hash: "x"}})

	s.Restore(prev)

	require.Equal(t, int64(0), s.GetLastSnapshotHeight())
	require.True(t, s.GetStoredSnapshot().Snapshot.IsZero())
	require.Equal(t, "published", s.GetNextSnapshotHash(), "nextSnapshotHash may remain advanced after rollback")
}
