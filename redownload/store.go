// Package redownload implements Redownload Storage (C7): a live view
// of the fleet's latest majority height, used by the snapshot core's
// distance-from-majority gate.
package redownload

import (
	"sort"
	"sync"
	"sync/atomic"

	"snapshotledger/identity"
)

// Store tracks each peer's most recently reported height and derives
// the majority height (the median of currently known peer heights) on
// every update. GetLatestMajorityHeight reads a cached atomic value so
// the hot path attemptSnapshot takes has no lock contention.
type Store struct {
	mu          sync.RWMutex
	peerHeights map[identity.Id]int64
	cached      atomic.Int64
}

func NewStore() *Store {
	return &Store{peerHeights: make(map[identity.Id]int64)}
}

// RecordPeerHeight updates the last-known height reported by peer id
// and recomputes the cached majority height.
func (s *Store) RecordPeerHeight(id identity.Id, height int64) {
	s.mu.Lock()
	s.peerHeights[id] = height
	s.mu.Unlock()
	s.recompute()
}

// ForgetPeer drops a peer from the height view, e.g. on disconnect.
func (s *Store) ForgetPeer(id identity.Id) {
	s.mu.Lock()
	delete(s.peerHeights, id)
	s.mu.Unlock()
	s.recompute()
}

func (s *Store) recompute() {
	s.mu.RLock()
	heights := make([]int64, 0, len(s.peerHeights))
	for _, h := range s.peerHeights {
		heights = append(heights, h)
	}
	s.mu.RUnlock()

	if len(heights) == 0 {
		s.cached.Store(0)
		return
	}
	sort.Slice(heights, func(i, j int) bool { return heights[i] < heights[j] })
	s.cached.Store(heights[(len(heights)-1)/2])
}

// GetLatestMajorityHeight returns the median height across currently
// known peers, or 0 if none are known.
func (s *Store) GetLatestMajorityHeight() int64 {
	return s.cached.Load()
}

// PeerCount reports how many peers currently contribute to the view.
func (s *Store) PeerCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.peerHeights)
}
