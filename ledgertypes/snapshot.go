package ledgertypes

import (
	"sort"

	"snapshotledger/codec"
	"snapshotledger/identity"
)

// ReputationEntry is one row of the sorted publicReputation map.
type ReputationEntry struct {
	Id    identity.Id
	Score float64
}

// ReputationMap builds the sorted-by-Id view of a peer reputation map
// required for deterministic ordering across the fleet").
func ReputationMap(scores map[identity.Id]float64) []ReputationEntry {
	out := make([]ReputationEntry, 0, len(scores))
	for id, score := range scores {
		out = append(out, ReputationEntry{Id: id, Score: score})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Id.Less(out[j].Id) })
	return out
}

// Snapshot is a point-in-time commitment to an ordered set of
// checkpoint hashes plus per-peer reputation.
type Snapshot struct {
	Hash              string
	LastSnapshotHash  string
	CheckpointBlocks  []string // soeHash, in canonical (sorted) order
	PublicReputation  []ReputationEntry
}

// SnapshotZero is the genesis sentinel: empty blocks, empty ancestry,
// empty reputation.
var SnapshotZero = Snapshot{
	Hash:             "genesis",
	LastSnapshotHash: "",
	CheckpointBlocks: nil,
	PublicReputation: nil,
}

// IsZero reports whether s is the genesis sentinel.
func (s Snapshot) IsZero() bool { return s.Hash == SnapshotZero.Hash }

func (s Snapshot) EncodeCanonical(e *codec.Encoder) {
	e.Tag(codec.TagSnapshot)
	e.String(s.LastSnapshotHash)
	e.Sequence(len(s.CheckpointBlocks), func(i int) {
		e.String(s.CheckpointBlocks[i])
	})
	e.Sequence(len(s.PublicReputation), func(i int) {
		e.String(s.PublicReputation[i].Id.Hex())
		e.Uint64(uint64(int64(s.PublicReputation[i].Score * 1e9)))
	})
}

// ComputeHash derives s.Hash from its canonical encoding. Hash itself is deliberately excluded from the encoding, so
// the hash commits to content, not to itself.
func (s Snapshot) ComputeHash() (string, error) {
	return codec.Hash(s)
}

// StoredSnapshot is the on-disk payload for a snapshot: the snapshot
// itself plus every checkpoint block it references, so a peer can
// reconstruct full history from a single blob.
type StoredSnapshot struct {
	Snapshot        Snapshot
	CheckpointCache []CheckpointCache
}

func (s StoredSnapshot) EncodeCanonical(e *codec.Encoder) {
	e.Tag(codec.TagStoredSnapshot)
	s.Snapshot.EncodeCanonical(e)
	e.Uint32(uint32(len(s.CheckpointCache)))
	// Only soeHash and height.min are part of the wire-stable contract
	// this canonical format owns; the rest of CheckpointCache stays opaque.
	for _, cb := range s.CheckpointCache {
		e.String(cb.SoeHash)
		e.Int64(cb.Height.Min)
	}
}
