// Package trust implements the Trust Manager (C8): the predicted
// reputation score this node holds for each peer, contributed to
// every snapshot for deterministic ordering across the fleet.
package trust

import (
	"sync"

	"snapshotledger/identity"
	"snapshotledger/ledgertypes"
)

// Manager holds one predicted reputation score per peer in [0,1].
// EigenTrust-style reward computation that produces these scores is
// an external collaborator; this type only stores and
// serves the resulting map.
type Manager struct {
	mu     sync.RWMutex
	scores map[identity.Id]float64
}

func NewManager() *Manager {
	return &Manager{scores: make(map[identity.Id]float64)}
}

// SetScore records id's predicted reputation, clamped to [0,1].
func (m *Manager) SetScore(id identity.Id, score float64) {
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scores[id] = score
}

// GetScore returns id's current predicted reputation, defaulting to 0
// for a peer this node has never scored.
func (m *Manager) GetScore(id identity.Id) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.scores[id]
}

// GetPredictedReputation returns the full reputation map sorted by Id,
// as consumed by attemptSnapshot step 7.
func (m *Manager) GetPredictedReputation() []ledgertypes.ReputationEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snapshot := make(map[identity.Id]float64, len(m.scores))
	for id, score := range m.scores {
		snapshot[id] = score
	}
	return ledgertypes.ReputationMap(snapshot)
}
