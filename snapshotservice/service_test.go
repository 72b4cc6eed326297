package snapshotservice

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"snapshotledger/checkpoint"
	"snapshotledger/config"
	"snapshotledger/filestore"
	"snapshotledger/ledgerservices"
	"snapshotledger/ledgertypes"
	"snapshotledger/metrics"
	"snapshotledger/redownload"
	"snapshotledger/snapshotstore"
	"snapshotledger/trust"
)

func cb(soeHash string, height int64) ledgertypes.CheckpointCache {
	return ledgertypes.CheckpointCache{SoeHash: soeHash, Height: ledgertypes.Height{Min: height}}
}

// newTestService wires every collaborator against a temp data dir and a
// private Prometheus registry, so tests never collide on global state.
func newTestService(t *testing.T, cfg config.Config) *Service {
	t.Helper()

	files, err := filestore.Open(t.TempDir(), cfg.Snapshot.SnapshotSizeDiskLimit)
	require.NoError(t, err)
	t.Cleanup(func() { _ = files.Close() })

	snapshots, err := snapshotstore.New()
	require.NoError(t, err)

	svc := NewService(Deps{
		Checkpoints:  checkpoint.NewStore(cfg.Processing.MaxAcceptedCBHashesInMemory),
		Snapshots:    snapshots,
		Files:        files,
		Redownload:   redownload.NewStore(),
		Trust:        trust.NewManager(),
		Addresses:    ledgerservices.NewAddressService(),
		Transactions: ledgerservices.NewTransactionService(),
		Observations: ledgerservices.NewObservationService(),
		Metrics:      metrics.NewRegistry(prometheus.NewRegistry()),
		Events:       NewEventBus(),
		Config:       cfg,
	})
	svc.MarkReady()
	return svc
}

func asSnapshotError(t *testing.T, err error) *SnapshotError {
	t.Helper()
	snapErr, ok := err.(*SnapshotError)
	require.True(t, ok, "expected *SnapshotError, got %T: %v", err, err)
	return snapErr
}

// S1: on a freshly-initialized node nothing is ready to snapshot yet;
// the tip-height interval condition fails first.
func TestAttemptSnapshotGenesisIsNoOp(t *testing.T) {
	svc := newTestService(t, config.Default())

	_, err := svc.AttemptSnapshot(context.Background())
	snapErr := asSnapshotError(t, err)
	require.Equal(t, KindHeightIntervalConditionNotMet, snapErr.Kind)
	require.True(t, snapErr.Benign())
}

// S2: with accepted blocks inside the target height interval and tips
// far enough ahead, the first real snapshot commits with a
// lexicographically sorted checkpointBlocks list.
func TestAttemptSnapshotFirstSuccess(t *testing.T) {
	svc := newTestService(t, config.Default())

	svc.checkpoints.InsertAccepted(cb("c", 2))
	svc.checkpoints.InsertAccepted(cb("a", 1))
	svc.checkpoints.InsertAccepted(cb("b", 2))
	svc.checkpoints.InsertAccepted(cb("tip", 10))
	svc.checkpoints.SetTip("tip", true)

	result, err := svc.AttemptSnapshot(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(2), result.Height)
	require.Equal(t, []string{"a", "b", "c"}, result.Snapshot.CheckpointBlocks)
	require.NotEmpty(t, result.Snapshot.Hash)

	require.Contains(t, svc.checkpoints.GetInSnapshot(), "a")
	require.Contains(t, svc.checkpoints.GetInSnapshot(), "b")
	require.Contains(t, svc.checkpoints.GetInSnapshot(), "c")
	require.NotContains(t, svc.checkpoints.GetAccepted(), "a")
	require.Contains(t, svc.checkpoints.GetAccepted(), "tip", "tip's height falls outside the target interval, so it stays accepted")

	require.Equal(t, int64(2), svc.snapshots.GetLastSnapshotHeight())
	require.Equal(t, result.Snapshot.Hash, svc.snapshots.GetNextSnapshotHash())
}

// A node that has not called MarkReady must refuse every attempt.
func TestAttemptSnapshotRefusesBeforeReady(t *testing.T) {
	cfg := config.Default()
	files, err := filestore.Open(t.TempDir(), cfg.Snapshot.SnapshotSizeDiskLimit)
	require.NoError(t, err)
	t.Cleanup(func() { _ = files.Close() })
	snapshots, err := snapshotstore.New()
	require.NoError(t, err)

	svc := NewService(Deps{
		Checkpoints:  checkpoint.NewStore(0),
		Snapshots:    snapshots,
		Files:        files,
		Redownload:   redownload.NewStore(),
		Trust:        trust.NewManager(),
		Addresses:    ledgerservices.NewAddressService(),
		Transactions: ledgerservices.NewTransactionService(),
		Observations: ledgerservices.NewObservationService(),
		Metrics:      metrics.NewRegistry(prometheus.NewRegistry()),
		Events:       NewEventBus(),
		Config:       cfg,
	})

	_, err = svc.AttemptSnapshot(context.Background())
	require.Equal(t, KindNodeNotReadyForSnapshots, asSnapshotError(t, err).Kind)
}

// S3: when the target height would outrun the peer majority view by
// more than distanceFromMajority, attemptSnapshot aborts before
// touching any committed state.
func TestAttemptSnapshotRejectsBeyondMajorityDistance(t *testing.T) {
	cfg := config.Default()
	cfg.Snapshot.SnapshotHeightInterval = 1000

	svc := newTestService(t, cfg)
	svc.checkpoints.InsertAccepted(cb("a", 1))

	beforeHeight := svc.snapshots.GetLastSnapshotHeight()
	beforeStored := svc.snapshots.GetStoredSnapshot()

	_, err := svc.AttemptSnapshot(context.Background())
	require.Equal(t, KindSnapshotUnexpectedError, asSnapshotError(t, err).Kind)

	require.Equal(t, beforeHeight, svc.snapshots.GetLastSnapshotHeight())
	require.Equal(t, beforeStored, svc.snapshots.GetStoredSnapshot())
	require.Contains(t, svc.checkpoints.GetAccepted(), "a", "no state should transition on a rejected attempt")
}

// An empty accepted set is a benign, expected waiting state, not a
// fault.
func TestAttemptSnapshotNoAcceptedBlocksIsBenign(t *testing.T) {
	cfg := config.Default()
	svc := newTestService(t, cfg)
	svc.checkpoints.InsertAccepted(cb("tip", 10))
	svc.checkpoints.SetTip("tip", true)
	svc.checkpoints.MarkInSnapshot(map[string]int64{"tip": 10})

	_, err := svc.AttemptSnapshot(context.Background())
	snapErr := asSnapshotError(t, err)
	require.Equal(t, KindNoAcceptedCBsSinceSnapshot, snapErr.Kind)
	require.True(t, snapErr.Benign())
}

// The Open Question #1 precheck refuses new attempts once the tracked
// checkpoint count reaches its configured ceiling.
func TestAttemptSnapshotRefusesAtMaxCBHashesInMemory(t *testing.T) {
	cfg := config.Default()
	cfg.Processing.MaxAcceptedCBHashesInMemory = 1

	svc := newTestService(t, cfg)
	svc.checkpoints.InsertAwaiting(cb("a", 1))
	svc.checkpoints.InsertAwaiting(cb("b", 2))

	_, err := svc.AttemptSnapshot(context.Background())
	require.Equal(t, KindMaxCBHashesInMemory, asSnapshotError(t, err).Kind)
}

// SetSnapshot restores C4/C5/C10 from a SnapshotInfo without touching
// disk, as required by the redownload recovery path.
func TestSetSnapshotRestoresState(t *testing.T) {
	svc := newTestService(t, config.Default())

	snap := ledgertypes.Snapshot{CheckpointBlocks: []string{"a"}}
	hash, err := snap.ComputeHash()
	require.NoError(t, err)
	snap.Hash = hash

	info := ledgertypes.SnapshotInfo{
		CurrentSnapshot:    snap,
		LastSnapshotHeight: 42,
		NextSnapshotHash:   hash,
		Checkpoints:        map[string]ledgertypes.CheckpointCache{"a": cb("a", 1)},
		InSnapshot:         []string{"a"},
	}

	require.NoError(t, svc.SetSnapshot(info))
	require.Equal(t, int64(42), svc.snapshots.GetLastSnapshotHeight())
	require.Equal(t, hash, svc.snapshots.GetNextSnapshotHash())
	require.Contains(t, svc.checkpoints.GetInSnapshot(), "a")
}

// Recover only warns when nextSnapshotHash disagrees with the stored
// snapshot; it never mutates state (Open Question #3).
func TestRecoverDetectsUnappliedNextHash(t *testing.T) {
	svc := newTestService(t, config.Default())
	svc.checkpoints.InsertAccepted(cb("a", 1))
	svc.checkpoints.InsertAccepted(cb("tip", 10))
	svc.checkpoints.SetTip("tip", true)
	_, err := svc.AttemptSnapshot(context.Background())
	require.NoError(t, err)

	// Simulate a crash between publishing the next hash (step 9) and
	// committing it (step 11 onward): the stored snapshot no longer
	// matches what nextSnapshotHash points at.
	svc.snapshots.SetNextSnapshotHash("some-hash-that-was-never-committed")

	require.NoError(t, svc.Recover())
	require.Equal(t, "some-hash-that-was-never-committed", svc.snapshots.GetNextSnapshotHash())
}

func TestRecoverIsCleanAtGenesis(t *testing.T) {
	svc := newTestService(t, config.Default())
	require.NoError(t, svc.Recover())
}
