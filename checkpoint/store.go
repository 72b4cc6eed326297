// Package checkpoint implements Checkpoint Storage (C4): the catalog
// of checkpoint blocks and the lifecycle sets (awaiting,
// waitingForAcceptance, accepted, inSnapshot, tips, usages) that the
// snapshot core reads and mutates on every attemptSnapshot pass.
package checkpoint

import (
	"fmt"
	"math"
	"sync"

	"github.com/RoaringBitmap/roaring"
	lru "github.com/hashicorp/golang-lru"
	"github.com/spaolacci/murmur3"

	"snapshotledger/ledgertypes"
)

const shardCount = 16

// lifecycleState is the position of a soeHash in the checkpoint
// admission pipeline.
type lifecycleState int

const (
	stateUnknown lifecycleState = iota
	stateAwaiting
	stateWaitingForAcceptance
	stateAccepted
	stateInSnapshot
)

// SoeHashSet is a read-only snapshot of a set of checkpoint hashes.
type SoeHashSet map[string]struct{}

type shard struct {
	mu     sync.RWMutex
	cache  map[string]ledgertypes.CheckpointCache
	state  map[string]lifecycleState
	tips   map[string]struct{}
	usages map[string]int64

	// height indices scoped to this shard; merged across shards on
	// read. Heights are clamped into the uint32 range roaring operates
	// on; this ledger never expects DAG heights anywhere near that
	// ceiling.
	acceptedHeights *roaring.Bitmap
	waitingHeights  *roaring.Bitmap
	tipHeights      *roaring.Bitmap
}

func newShard() *shard {
	return &shard{
		cache:           make(map[string]ledgertypes.CheckpointCache),
		state:           make(map[string]lifecycleState),
		tips:            make(map[string]struct{}),
		usages:          make(map[string]int64),
		acceptedHeights: roaring.New(),
		waitingHeights:  roaring.New(),
		tipHeights:      roaring.New(),
	}
}

// Store is the concrete C4 implementation: soeHash-sharded lifecycle
// sets, a height-indexed roaring bitmap per shard for O(shards) min
// queries, and an LRU membership cache for gossip-side dedupe.
type Store struct {
	shards      []*shard
	recentSeen  *lru.Cache
	maxInMemory int
}

// NewStore builds an empty Store. maxAcceptedCBHashesInMemory <= 0
// disables the CheckCapacity precheck entirely (Open Question: this
// implementation makes the bound an explicit, off-by-default knob
// rather than an implicit failure mode of unbounded maps).
func NewStore(maxAcceptedCBHashesInMemory int) *Store {
	shards := make([]*shard, shardCount)
	for i := range shards {
		shards[i] = newShard()
	}
	lruSize := maxAcceptedCBHashesInMemory
	if lruSize <= 0 {
		lruSize = 4096
	}
	cache, _ := lru.New(lruSize)
	return &Store{shards: shards, recentSeen: cache, maxInMemory: maxAcceptedCBHashesInMemory}
}

func (s *Store) shardFor(soeHash string) *shard {
	h := murmur3.Sum32([]byte(soeHash))
	return s.shards[h%uint32(len(s.shards))]
}

func heightBucket(min int64) uint32 {
	if min < 0 {
		return 0
	}
	if min > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(min)
}

// Insert records cb under the given lifecycle state, replacing any
// prior entry for the same soeHash. Callers move a hash between states
// with Transition, not by re-Inserting.
func (s *Store) Insert(cb ledgertypes.CheckpointCache, initial lifecycleState) {
	sh := s.shardFor(cb.SoeHash)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	sh.cache[cb.SoeHash] = cb
	sh.state[cb.SoeHash] = initial
	switch initial {
	case stateAccepted:
		sh.acceptedHeights.Add(heightBucket(cb.Height.Min))
	case stateWaitingForAcceptance:
		sh.waitingHeights.Add(heightBucket(cb.Height.Min))
	}
	s.recentSeen.Add(cb.SoeHash, struct{}{})
}

// InsertAwaiting, InsertWaitingForAcceptance and InsertAccepted are the
// named convenience wrappers most callers reach for.
func (s *Store) InsertAwaiting(cb ledgertypes.CheckpointCache) { s.Insert(cb, stateAwaiting) }
func (s *Store) InsertWaitingForAcceptance(cb ledgertypes.CheckpointCache) {
	s.Insert(cb, stateWaitingForAcceptance)
}
func (s *Store) InsertAccepted(cb ledgertypes.CheckpointCache) { s.Insert(cb, stateAccepted) }

// Transition moves soeHash from one lifecycle state to another,
// keeping the height bitmaps in sync. It is a no-op error if soeHash
// is not currently in from.
func (s *Store) Transition(soeHash string, from, to lifecycleState) error {
	sh := s.shardFor(soeHash)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	cur, ok := sh.state[soeHash]
	if !ok || cur != from {
		return fmt.Errorf("checkpoint: %s is not in the expected state to transition", soeHash)
	}
	cb := sh.cache[soeHash]
	sh.state[soeHash] = to

	if from == stateAccepted {
		sh.acceptedHeights.Remove(heightBucket(cb.Height.Min))
	}
	if from == stateWaitingForAcceptance {
		bucket := heightBucket(cb.Height.Min)
		shared := false
		for other, st := range sh.state {
			if st == stateWaitingForAcceptance && heightBucket(sh.cache[other].Height.Min) == bucket {
				shared = true
				break
			}
		}
		if !shared {
			sh.waitingHeights.Remove(bucket)
		}
	}
	if to == stateAccepted {
		sh.acceptedHeights.Add(heightBucket(cb.Height.Min))
	}
	if to == stateWaitingForAcceptance {
		sh.waitingHeights.Add(heightBucket(cb.Height.Min))
	}
	return nil
}

// SetTip marks or unmarks soeHash as a DAG tip, keeping the tip-height
// bitmap consistent for GetMinTipHeight.
func (s *Store) SetTip(soeHash string, isTip bool) {
	sh := s.shardFor(soeHash)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	cb, ok := sh.cache[soeHash]
	if !ok {
		return
	}
	if isTip {
		sh.tips[soeHash] = struct{}{}
		sh.tipHeights.Add(heightBucket(cb.Height.Min))
	} else {
		delete(sh.tips, soeHash)
		sh.tipHeights.Remove(heightBucket(cb.Height.Min))
	}
}

// IncrementUsage bumps the reference count a checkpoint carries: how
// many downstream structures still reference it, gating eventual GC.
func (s *Store) IncrementUsage(soeHash string, delta int64) {
	sh := s.shardFor(soeHash)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	sh.usages[soeHash] += delta
}

// GetCheckpoint returns the cached checkpoint block for soeHash.
func (s *Store) GetCheckpoint(soeHash string) (ledgertypes.CheckpointCache, bool) {
	sh := s.shardFor(soeHash)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	cb, ok := sh.cache[soeHash]
	return cb, ok
}

// GetCheckpoints returns every tracked checkpoint block, keyed by
// soeHash.
func (s *Store) GetCheckpoints() map[string]ledgertypes.CheckpointCache {
	out := make(map[string]ledgertypes.CheckpointCache)
	for _, sh := range s.shards {
		sh.mu.RLock()
		for k, v := range sh.cache {
			out[k] = v
		}
		sh.mu.RUnlock()
	}
	return out
}

func (s *Store) collectState(want lifecycleState) SoeHashSet {
	out := make(SoeHashSet)
	for _, sh := range s.shards {
		sh.mu.RLock()
		for k, st := range sh.state {
			if st == want {
				out[k] = struct{}{}
			}
		}
		sh.mu.RUnlock()
	}
	return out
}

func (s *Store) GetAwaiting() SoeHashSet             { return s.collectState(stateAwaiting) }
func (s *Store) GetWaitingForAcceptance() SoeHashSet { return s.collectState(stateWaitingForAcceptance) }
func (s *Store) GetAccepted() SoeHashSet             { return s.collectState(stateAccepted) }
func (s *Store) GetInSnapshot() SoeHashSet           { return s.collectState(stateInSnapshot) }

// GetTips returns the current set of DAG tips.
func (s *Store) GetTips() SoeHashSet {
	out := make(SoeHashSet)
	for _, sh := range s.shards {
		sh.mu.RLock()
		for k := range sh.tips {
			out[k] = struct{}{}
		}
		sh.mu.RUnlock()
	}
	return out
}

// GetUsages returns the full usages map.
func (s *Store) GetUsages() map[string]int64 {
	out := make(map[string]int64)
	for _, sh := range s.shards {
		sh.mu.RLock()
		for k, v := range sh.usages {
			out[k] = v
		}
		sh.mu.RUnlock()
	}
	return out
}

// GetMinTipHeight returns the minimum height among current tips, or 0
// if there are none.
func (s *Store) GetMinTipHeight() int64 {
	min, ok := s.minAcrossShards(func(sh *shard) *roaring.Bitmap { return sh.tipHeights })
	if !ok {
		return 0
	}
	return min
}

// GetMinWaitingHeight returns the minimum height among checkpoints
// waiting for acceptance, and false if there are none.
func (s *Store) GetMinWaitingHeight() (int64, bool) {
	return s.minAcrossShards(func(sh *shard) *roaring.Bitmap { return sh.waitingHeights })
}

func (s *Store) minAcrossShards(pick func(*shard) *roaring.Bitmap) (int64, bool) {
	found := false
	var min uint32
	for _, sh := range s.shards {
		sh.mu.RLock()
		bm := pick(sh)
		if !bm.IsEmpty() {
			v := bm.Minimum()
			if !found || v < min {
				min = v
				found = true
			}
		}
		sh.mu.RUnlock()
	}
	if !found {
		return 0, false
	}
	return int64(min), true
}

// MarkInSnapshot atomically transitions every soeHash in pairs from
// accepted to inSnapshot. Steps 10-14 of attemptSnapshot are the only
// caller and the snapshot core serializes them against concurrent
// snapshot attempts, so a full-store lock here is correct and simple:
// per-key gossip-side inserts into unrelated hashes are unaffected.
func (s *Store) MarkInSnapshot(pairs map[string]int64) error {
	for _, sh := range s.shards {
		sh.mu.Lock()
		defer sh.mu.Unlock()
	}

	for soeHash := range pairs {
		sh := s.shardFor(soeHash)
		st, ok := sh.state[soeHash]
		if !ok || st != stateAccepted {
			return fmt.Errorf("%w: %s", ErrNotAccepted, soeHash)
		}
	}
	for soeHash := range pairs {
		sh := s.shardFor(soeHash)
		cb := sh.cache[soeHash]
		sh.acceptedHeights.Remove(heightBucket(cb.Height.Min))
		sh.state[soeHash] = stateInSnapshot
	}
	return nil
}

// CheckCapacity enforces the configured MaxCBHashesInMemory precheck.
// It is disabled (always nil) when the store was built with a
// non-positive bound.
func (s *Store) CheckCapacity() error {
	if s.maxInMemory <= 0 {
		return nil
	}
	total := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		total += len(sh.cache)
		sh.mu.RUnlock()
	}
	if total >= s.maxInMemory {
		return ErrMaxCBHashesInMemory
	}
	return nil
}

// SeenRecently reports whether soeHash has passed through this store
// recently, for gossip-layer dedupe ahead of a full lookup.
func (s *Store) SeenRecently(soeHash string) bool {
	return s.recentSeen.Contains(soeHash)
}

// LoadFromInfo replaces the store's contents with the lifecycle sets
// carried by a SnapshotInfo, as read off disk during recovery.
// Existing contents are discarded.
func (s *Store) LoadFromInfo(info ledgertypes.SnapshotInfo) {
	for _, sh := range s.shards {
		sh.mu.Lock()
		sh.cache = make(map[string]ledgertypes.CheckpointCache)
		sh.state = make(map[string]lifecycleState)
		sh.tips = make(map[string]struct{})
		sh.usages = make(map[string]int64)
		sh.acceptedHeights = roaring.New()
		sh.waitingHeights = roaring.New()
		sh.tipHeights = roaring.New()
		sh.mu.Unlock()
	}

	stateOf := make(map[string]lifecycleState, len(info.Checkpoints))
	for _, h := range info.Awaiting {
		stateOf[h] = stateAwaiting
	}
	for _, h := range info.WaitingForAcceptance {
		stateOf[h] = stateWaitingForAcceptance
	}
	for _, h := range info.Accepted {
		stateOf[h] = stateAccepted
	}
	for _, h := range info.InSnapshot {
		stateOf[h] = stateInSnapshot
	}

	for soeHash, cb := range info.Checkpoints {
		st, ok := stateOf[soeHash]
		if !ok {
			st = stateAwaiting
		}
		s.Insert(cb, st)
	}
	for _, h := range info.Tips {
		s.SetTip(h, true)
	}
	for h, v := range info.Usages {
		s.IncrementUsage(h, v)
	}
}

// ToInfoFields projects the store's lifecycle sets into the flat
// string slices SnapshotInfo persists.
func (s *Store) ToInfoFields() (awaiting, waitingForAcceptance, accepted, inSnapshot, tips []string, usages map[string]int64) {
	toSlice := func(set SoeHashSet) []string {
		out := make([]string, 0, len(set))
		for k := range set {
			out = append(out, k)
		}
		return out
	}
	return toSlice(s.GetAwaiting()), toSlice(s.GetWaitingForAcceptance()), toSlice(s.GetAccepted()),
		toSlice(s.GetInSnapshot()), toSlice(s.GetTips()), s.GetUsages()
}
