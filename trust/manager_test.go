package trust

import (
	"testing"

	"github.com/stretchr/testify/require"

	"snapshotledger/identity"
)

func TestSetScoreClampsToUnitInterval(t *testing.T) {
	m := NewManager()
	kp, _ := identity.GenerateKeyPair()

	m.SetScore(kp.Id(), 5.0)
	require.Equal(t, 1.0, m.GetScore(kp.Id()))

	m.SetScore(kp.Id(), -3.0)
	require.Equal(t, 0.0, m.GetScore(kp.Id()))
}

func TestGetPredictedReputationSortedById(t *testing.T) {
	m := NewManager()
	kp1, _ := identity.GenerateKeyPair()
	kp2, _ := identity.GenerateKeyPair()
	m.SetScore(kp1.Id(), 0.4)
	m.SetScore(kp2.Id(), 0.9)

	rep := m.GetPredictedReputation()
	require.Len(t, rep, 2)
	require.True(t, rep[0].Id.Less(rep[1].Id) || rep[0].Id == rep[1].Id)
}
