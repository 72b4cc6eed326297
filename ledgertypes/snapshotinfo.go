package ledgertypes

import (
	"sort"

	"snapshotledger/codec"
)

// SnapshotInfo is the full recoverable state of a node: the
// current snapshot pointer plus every checkpoint-lifecycle set C4
// tracks and the address-level bookkeeping C10 owns. It is what
// writeSnapshotInfoToDisk persists and setSnapshot restores from.
type SnapshotInfo struct {
	CurrentSnapshot      Snapshot
	LastSnapshotHeight   int64
	NextSnapshotHash     string
	Checkpoints          map[string]CheckpointCache
	WaitingForAcceptance []string
	Accepted             []string
	Awaiting             []string
	InSnapshot           []string
	Tips                 []string
	Usages               map[string]int64
	AddressBalances      map[string]int64
	LastAcceptedTxRef    map[string]LastTransactionRef
}

func (s SnapshotInfo) EncodeCanonical(e *codec.Encoder) {
	e.Tag(codec.TagSnapshotInfo)
	s.CurrentSnapshot.EncodeCanonical(e)
	e.Int64(s.LastSnapshotHeight)
	e.String(s.NextSnapshotHash)

	keys := make([]string, 0, len(s.Checkpoints))
	for k := range s.Checkpoints {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	e.Sequence(len(keys), func(i int) {
		cb := s.Checkpoints[keys[i]]
		e.String(cb.SoeHash)
		e.Int64(cb.Height.Min)
	})

	writeSortedStrings(e, s.WaitingForAcceptance)
	writeSortedStrings(e, s.Accepted)
	writeSortedStrings(e, s.Awaiting)
	writeSortedStrings(e, s.InSnapshot)
	writeSortedStrings(e, s.Tips)

	usageKeys := make([]string, 0, len(s.Usages))
	for k := range s.Usages {
		usageKeys = append(usageKeys, k)
	}
	sort.Strings(usageKeys)
	e.Sequence(len(usageKeys), func(i int) {
		e.String(usageKeys[i])
		e.Int64(s.Usages[usageKeys[i]])
	})

	balKeys := make([]string, 0, len(s.AddressBalances))
	for k := range s.AddressBalances {
		balKeys = append(balKeys, k)
	}
	sort.Strings(balKeys)
	e.Sequence(len(balKeys), func(i int) {
		e.String(balKeys[i])
		e.Int64(s.AddressBalances[balKeys[i]])
	})

	refKeys := make([]string, 0, len(s.LastAcceptedTxRef))
	for k := range s.LastAcceptedTxRef {
		refKeys = append(refKeys, k)
	}
	sort.Strings(refKeys)
	e.Sequence(len(refKeys), func(i int) {
		ref := s.LastAcceptedTxRef[refKeys[i]]
		e.String(refKeys[i])
		ref.EncodeCanonical(e)
	})
}

func writeSortedStrings(e *codec.Encoder, in []string) {
	out := make([]string, len(in))
	copy(out, in)
	sort.Strings(out)
	e.Sequence(len(out), func(i int) {
		e.String(out[i])
	})
}
