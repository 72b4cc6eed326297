package checkpoint

import (
	"testing"

	"github.com/stretchr/testify/require"

	"snapshotledger/ledgertypes"
)

func cb(soeHash string, height int64) ledgertypes.CheckpointCache {
	return ledgertypes.CheckpointCache{SoeHash: soeHash, Height: ledgertypes.Height{Min: height}}
}

func TestInsertAndTransition(t *testing.T) {
	s := NewStore(0)
	s.InsertWaitingForAcceptance(cb("a", 3))

	_, ok := s.GetCheckpoint("a")
	require.True(t, ok)
	require.Contains(t, s.GetWaitingForAcceptance(), "a")

	require.NoError(t, s.Transition("a", stateWaitingForAcceptance, stateAccepted))
	require.Contains(t, s.GetAccepted(), "a")
	require.NotContains(t, s.GetWaitingForAcceptance(), "a")

	err := s.Transition("a", stateWaitingForAcceptance, stateAccepted)
	require.ErrorIs(t, err, ErrNotAccepted, "transition from wrong state should fail")
}

func TestMinHeightsWithNoData(t *testing.T) {
	s := NewStore(0)
	require.Equal(t, int64(0), s.GetMinTipHeight())
	_, ok := s.GetMinWaitingHeight()
	require.False(t, ok)
}

func TestMinTipHeightTracksSmallest(t *testing.T) {
	s := NewStore(0)
	s.InsertAccepted(cb("a", 10))
	s.InsertAccepted(cb("b", 4))
	s.InsertAccepted(cb("c", 7))
	s.SetTip("a", true)
	s.SetTip("b", true)
	s.SetTip("c", true)

	require.Equal(t, int64(4), s.GetMinTipHeight())

	s.SetTip("b", false)
	require.Equal(t, int64(7), s.GetMinTipHeight())
}

func TestMarkInSnapshotIsAtomicAndRejectsNonAccepted(t *testing.T) {
	s := NewStore(0)
	s.InsertAccepted(cb("a", 1))
	s.InsertWaitingForAcceptance(cb("b", 2))

	err := s.MarkInSnapshot(map[string]int64{"a": 1, "b": 2})
	require.ErrorIs(t, err, ErrNotAccepted)

	// "a" must remain accepted since the batch was rejected before any
	// mutation happened.
	require.Contains(t, s.GetAccepted(), "a")

	require.NoError(t, s.MarkInSnapshot(map[string]int64{"a": 1}))
	require.Contains(t, s.GetInSnapshot(), "a")
	require.NotContains(t, s.GetAccepted(), "a")
}

func TestCheckCapacityDisabledByDefault(t *testing.T) {
	s := NewStore(0)
	for i := 0; i < 10; i++ {
		s.InsertAwaiting(cb(string(rune('a'+i)), int64(i)))
	}
	require.NoError(t, s.CheckCapacity())
}

func TestCheckCapacityEnforced(t *testing.T) {
	s := NewStore(2)
	s.InsertAwaiting(cb("a", 1))
	require.NoError(t, s.CheckCapacity())
	s.InsertAwaiting(cb("b", 2))
	require.ErrorIs(t, s.CheckCapacity(), ErrMaxCBHashesInMemory)
}

func TestLoadFromInfoRestoresLifecycleSets(t *testing.T) {
	s := NewStore(0)
	info := ledgertypes.SnapshotInfo{
		Checkpoints: map[string]ledgertypes.CheckpointCache{
			"a": cb("a", 1),
			"b": cb("b", 2),
		},
		Accepted:  []string{"a"},
		Awaiting:  []string{"b"},
		Tips:      []string{"a"},
		Usages:    map[string]int64{"a": 3},
	}
	s.LoadFromInfo(info)

	require.Contains(t, s.GetAccepted(), "a")
	require.Contains(t, s.GetAwaiting(), "b")
	require.Contains(t, s.GetTips(), "a")
	require.Equal(t, int64(3), s.GetUsages()["a"])
}
