// Package snapshotservice implements the Snapshot Service (C9): the
// state machine that attempts, constructs, persists, and applies
// snapshots. It is the core of the node.
package snapshotservice

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"snapshotledger/checkpoint"
	"snapshotledger/codec"
	"snapshotledger/config"
	"snapshotledger/filestore"
	"snapshotledger/identity"
	"snapshotledger/ledgerservices"
	"snapshotledger/ledgertypes"
	"snapshotledger/logs"
	"snapshotledger/metrics"
	"snapshotledger/redownload"
	"snapshotledger/snapshotstore"
	"snapshotledger/trust"
)

const minUsableSpaceBytes = 1 << 30 // 1 GiB, checked before committing a snapshot

// SnapshotResult is what a successful AttemptSnapshot returns and
// what SnapshotCreated/SnapshotLoaded events carry.
type SnapshotResult struct {
	Snapshot ledgertypes.Snapshot
	Height   int64
}

// Service wires together every collaborator attemptSnapshot reads
// from or writes to.
type Service struct {
	// runMu enforces "at most one attempt at a time"; callers are
	// expected to serialize calls themselves, but keeping it here too
	// costs nothing and turns a caller bug into a wait instead of a race.
	runMu sync.Mutex

	checkpoints  *checkpoint.Store
	snapshots    *snapshotstore.Store
	files        *filestore.Store
	redownload   *redownload.Store
	trust        *trust.Manager
	addresses    *ledgerservices.AddressService
	transactions *ledgerservices.TransactionService
	observations *ledgerservices.ObservationService
	metrics      *metrics.Registry
	events       *EventBus

	bounded   *Pool
	unbounded *Pool

	cfg config.Config

	ready bool
}

// Deps bundles every collaborator NewService needs.
type Deps struct {
	Checkpoints  *checkpoint.Store
	Snapshots    *snapshotstore.Store
	Files        *filestore.Store
	Redownload   *redownload.Store
	Trust        *trust.Manager
	Addresses    *ledgerservices.AddressService
	Transactions *ledgerservices.TransactionService
	Observations *ledgerservices.ObservationService
	Metrics      *metrics.Registry
	Events       *EventBus
	Config       config.Config
}

func NewService(d Deps) *Service {
	boundedSize := d.Config.Node.BoundedPoolSize
	if boundedSize <= 0 {
		boundedSize = 4
	}
	return &Service{
		checkpoints:  d.Checkpoints,
		snapshots:    d.Snapshots,
		files:        d.Files,
		redownload:   d.Redownload,
		trust:        d.Trust,
		addresses:    d.Addresses,
		transactions: d.Transactions,
		observations: d.Observations,
		metrics:      d.Metrics,
		events:       d.Events,
		bounded:      NewBoundedPool(boundedSize),
		unbounded:    NewUnboundedPool(),
		cfg:          d.Config,
	}
}

// MarkReady flips the node's readiness gate; AttemptSnapshot refuses
// to run before this is called.
func (s *Service) MarkReady() {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	s.ready = true
}

// AttemptSnapshot runs the full precondition -> construction -> apply
// -> commit -> persist pipeline exactly once. Any precondition failure
// aborts with a typed error and leaves committed state unchanged.
func (s *Service) AttemptSnapshot(ctx context.Context) (SnapshotResult, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	if !s.ready {
		return SnapshotResult{}, errNodeNotReadyForSnapshots()
	}

	// Step 1: disk check.
	usable, err := s.files.GetUsableSpace()
	if err != nil {
		return SnapshotResult{}, errSnapshotUnexpectedError("querying usable space", err)
	}
	if usable < minUsableSpaceBytes {
		return SnapshotResult{}, errNotEnoughSpace()
	}

	// Open Question #1: MaxCBHashesInMemory is an explicit, off-by-
	// default precheck rather than an implicit map-growth failure.
	if err := s.checkpoints.CheckCapacity(); err != nil {
		return SnapshotResult{}, errMaxCBHashesInMemory()
	}

	prevHeight := s.snapshots.GetLastSnapshotHeight()

	// Step 2: next height.
	nextHeightInterval := prevHeight + s.cfg.Snapshot.SnapshotHeightInterval

	// Step 3: majority distance.
	latestMajorityHeight := s.redownload.GetLatestMajorityHeight()
	if nextHeightInterval > latestMajorityHeight+s.cfg.Snapshot.DistanceFromMajority {
		return SnapshotResult{}, errSnapshotUnexpectedError("Max distance from majority reached", nil)
	}

	// Step 4: interval condition.
	minTipHeight := s.checkpoints.GetMinTipHeight()
	s.metrics.MinTipHeight.Set(float64(minTipHeight))
	if minWaiting, ok := s.checkpoints.GetMinWaitingHeight(); ok {
		s.metrics.MinWaitingHeight.Set(float64(minWaiting))
	}
	if !(minTipHeight > nextHeightInterval+s.cfg.Snapshot.SnapshotHeightDelayInterval) {
		s.metrics.SnapshotHeightIntervalConditionNotMet.Inc()
		return SnapshotResult{}, errHeightIntervalConditionNotMet()
	}
	s.metrics.SnapshotHeightIntervalConditionMet.Inc()

	// Step 5: select blocks.
	accepted := s.checkpoints.GetAccepted()
	if len(accepted) == 0 {
		return SnapshotResult{}, errNoAcceptedCBsSinceSnapshot()
	}
	blocks := make([]ledgertypes.CheckpointCache, 0, len(accepted))
	for soeHash := range accepted {
		cb, ok := s.checkpoints.GetCheckpoint(soeHash)
		if !ok {
			s.metrics.SnapshotInvalidData.Inc()
			return SnapshotResult{}, errSnapshotIllegalState(fmt.Sprintf("accepted soeHash %s missing from checkpoint storage", soeHash))
		}
		if cb.Height.Min > prevHeight && cb.Height.Min <= nextHeightInterval {
			blocks = append(blocks, cb)
		}
	}
	if len(blocks) == 0 {
		s.metrics.SnapshotNoBlocksWithinHeightInterval.Inc()
		return SnapshotResult{}, errNoBlocksWithinHeightInterval()
	}

	// Step 6: canonicalize order.
	sort.Slice(blocks, func(i, j int) bool { return blocks[i].SoeHash < blocks[j].SoeHash })
	hashesForNextSnapshot := make([]string, len(blocks))
	pairs := make(map[string]int64, len(blocks))
	for i, cb := range blocks {
		hashesForNextSnapshot[i] = cb.SoeHash
		pairs[cb.SoeHash] = cb.Height.Min
	}

	// Step 7: reputation.
	publicReputation := s.trust.GetPredictedReputation()

	// Step 8: construct next snapshot.
	current := s.snapshots.GetStoredSnapshot().Snapshot
	next := ledgertypes.Snapshot{
		LastSnapshotHash: current.Hash,
		CheckpointBlocks: hashesForNextSnapshot,
		PublicReputation: publicReputation,
	}
	hash, err := next.ComputeHash()
	if err != nil {
		return SnapshotResult{}, errSnapshotUnexpectedError("computing next snapshot hash", err)
	}
	next.Hash = hash

	// Step 9: publish next hash. Published before apply so a crash
	// between here and step 11 is detectable on restart.
	s.snapshots.SetNextSnapshotHash(next.Hash)

	// Step 10: apply previous snapshot's effects, on the bounded pool.
	if !current.IsZero() {
		if err := s.applyPreviousSnapshot(ctx, current); err != nil {
			return SnapshotResult{}, err
		}
	}

	// Step 11: commit height & membership.
	s.snapshots.SetLastSnapshotHeight(nextHeightInterval)
	if err := s.checkpoints.MarkInSnapshot(pairs); err != nil {
		return SnapshotResult{}, errSnapshotIllegalState(fmt.Sprintf("markInSnapshot: %v", err))
	}

	// Step 12: update metrics.
	s.metrics.SnapshotCount.Inc()
	s.metrics.LastSnapshotHeight.Set(float64(nextHeightInterval))
	s.metrics.NextSnapshotHeight.Set(float64(nextHeightInterval + s.cfg.Snapshot.SnapshotHeightInterval))
	s.metrics.SetLastSnapshotHash(next.Hash)
	s.metrics.Accepted.Set(float64(len(s.checkpoints.GetAccepted())))
	s.metrics.Awaiting.Set(float64(len(s.checkpoints.GetAwaiting())))
	s.metrics.WaitingForAcceptance.Set(float64(len(s.checkpoints.GetWaitingForAcceptance())))

	// Step 13: reset rate limiting for the newly snapshotted hashes.
	// The gossip-side rate limiter is an external collaborator; this
	// hook is where a real one would be told to forget them.
	s.resetRateLimiting(hashesForNextSnapshot)

	// Step 14: persist.
	stored := ledgertypes.StoredSnapshot{Snapshot: next, CheckpointCache: blocks}
	s.snapshots.SetStoredSnapshot(stored)
	if err := s.writeSnapshotToDisk(ctx, stored); err != nil {
		return SnapshotResult{}, err
	}
	if err := s.writeSnapshotInfoToDisk(); err != nil {
		return SnapshotResult{}, err
	}

	result := SnapshotResult{Snapshot: next, Height: nextHeightInterval}
	s.events.PublishAsync(Event{Type: SnapshotCreated, Snapshot: result})
	return result, nil
}

func (s *Service) resetRateLimiting(hashes []string) {
	logs.Debug("snapshot core: resetting rate limits for %d newly snapshotted hashes", len(hashes))
}

// applyPreviousSnapshot runs applySnapshot: every transaction in the
// current snapshot's blocks is finalized, non-dummy ones after their
// balance transfer, and each block's observations are
// removed from the pending pool. Each block is processed
// independently on the bounded pool.
func (s *Service) applyPreviousSnapshot(ctx context.Context, current ledgertypes.Snapshot) error {
	tasks := make([]func() error, 0, len(current.CheckpointBlocks))
	for _, soeHash := range current.CheckpointBlocks {
		soeHash := soeHash
		tasks = append(tasks, func() error { return s.applyCheckpointBlock(soeHash) })
	}
	if err := s.bounded.RunAll(ctx, tasks...); err != nil {
		if snapErr, ok := err.(*SnapshotError); ok {
			return snapErr
		}
		return errSnapshotUnexpectedError("applying previous snapshot's effects", err)
	}
	return nil
}

func (s *Service) applyCheckpointBlock(soeHash string) error {
	cb, ok := s.checkpoints.GetCheckpoint(soeHash)
	if !ok {
		return errSnapshotIllegalState(fmt.Sprintf("previous snapshot block %s missing from checkpoint storage", soeHash))
	}
	for _, tx := range cb.Transactions {
		if err := s.addresses.TransferSnapshotTransaction(tx); err != nil {
			return errSnapshotUnexpectedError("transferSnapshotTransaction", err)
		}
		if err := s.transactions.ApplySnapshotDirect(tx); err != nil {
			return errSnapshotUnexpectedError("applySnapshotDirect", err)
		}
	}
	for _, oe := range cb.Observations {
		hash, err := oe.Hash()
		if err != nil {
			return errSnapshotUnexpectedError("hashing observation for removal", err)
		}
		s.observations.Remove(hash)
	}
	return nil
}

// writeSnapshotToDisk serializes stored on the bounded pool and writes
// it on the unbounded pool. filestore.Write already retries up to 3
// times and checks isOverDiskCapacity on each attempt.
func (s *Service) writeSnapshotToDisk(ctx context.Context, stored ledgertypes.StoredSnapshot) error {
	var raw []byte
	err := s.bounded.Run(ctx, func() error {
		b, err := codec.Serialize(stored)
		if err != nil {
			return err
		}
		raw = b
		return nil
	})
	if err != nil {
		return errSnapshotUnexpectedError("serializing StoredSnapshot", err)
	}

	err = s.unbounded.Run(ctx, func() error {
		return s.files.Write(filestore.KeySnapshot(stored.Snapshot.Hash), raw)
	})
	if err != nil {
		s.metrics.SnapshotWriteToDiskFailure.Inc()
		return errSnapshotIOError(err)
	}
	s.metrics.SnapshotWriteToDiskSuccess.Inc()
	return nil
}

// writeSnapshotInfoToDisk assembles the full SnapshotInfo from C4/C5/
// C10 and writes it under the current snapshot's hash. It is a no-op
// while the current snapshot is still snapshotZero.
func (s *Service) writeSnapshotInfoToDisk() error {
	current := s.snapshots.GetStoredSnapshot().Snapshot
	if current.IsZero() {
		return nil
	}

	awaiting, waitingForAcceptance, accepted, inSnapshot, tips, usages := s.checkpoints.ToInfoFields()
	info := ledgertypes.SnapshotInfo{
		CurrentSnapshot:      current,
		LastSnapshotHeight:   s.snapshots.GetLastSnapshotHeight(),
		NextSnapshotHash:     s.snapshots.GetNextSnapshotHash(),
		Checkpoints:          s.checkpoints.GetCheckpoints(),
		WaitingForAcceptance: waitingForAcceptance,
		Accepted:             accepted,
		Awaiting:             awaiting,
		InSnapshot:           inSnapshot,
		Tips:                 tips,
		Usages:               usages,
		AddressBalances:      balancesToInfoFormat(s.addresses.Balances()),
		LastAcceptedTxRef:    lastTxRefsToInfoFormat(s.addresses.LastTransactionRefs()),
	}

	raw, err := codec.Serialize(info)
	if err != nil {
		return errSnapshotInfoIOError(err)
	}
	if err := s.files.Replace(filestore.KeySnapshotInfo(current.Hash), raw); err != nil {
		return errSnapshotInfoIOError(err)
	}
	return nil
}

func balancesToInfoFormat(balances map[identity.Id]decimal.Decimal) map[string]int64 {
	out := make(map[string]int64, len(balances))
	for id, bal := range balances {
		out[id.Hex()] = bal.IntPart()
	}
	return out
}

func lastTxRefsToInfoFormat(refs map[identity.Id]ledgertypes.LastTransactionRef) map[string]ledgertypes.LastTransactionRef {
	out := make(map[string]ledgertypes.LastTransactionRef, len(refs))
	for id, ref := range refs {
		out[id.Hex()] = ref
	}
	return out
}
